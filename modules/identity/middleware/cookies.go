package middleware

import (
	"net/http"
	"time"

	"github.com/mazmed/portal/pkg/configuration"
)

// SetSessionCookie writes the host-only session cookie so every tenant
// subdomain keeps a separate session.
func SetSessionCookie(w http.ResponseWriter, conf *configuration.Configuration, id string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     conf.SidCookieKey,
		Value:    id,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   conf.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires name on path.
func ClearCookie(w http.ResponseWriter, conf *configuration.Configuration, name, path string) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    "",
		Path:     path,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   conf.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
}
