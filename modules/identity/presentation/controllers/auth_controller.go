package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/ulule/limiter/v3"

	identitymw "github.com/mazmed/portal/modules/identity/middleware"
	"github.com/mazmed/portal/modules/identity/presentation/templates/pages"
	"github.com/mazmed/portal/modules/identity/services"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/middleware"
)

const (
	stateCookiePath = "/auth"
	stateCookieTTL  = 10 * time.Minute
)

type AuthControllerOptions struct {
	Conf *configuration.Configuration
	// RateLimitStore backs the per-client limit on sign-in endpoints. Nil disables it.
	RateLimitStore limiter.Store
}

type AuthController struct {
	app         application.Application
	authService *services.AuthService
	conf        *configuration.Configuration
	store       limiter.Store
}

func NewAuthController(app application.Application, opts AuthControllerOptions) application.Controller {
	conf := opts.Conf
	if conf == nil {
		conf = configuration.Use()
	}
	return &AuthController{
		app:         app,
		authService: app.Service(services.AuthService{}).(*services.AuthService),
		conf:        conf,
		store:       opts.RateLimitStore,
	}
}

func (c *AuthController) Key() string {
	return "/auth"
}

func (c *AuthController) Register(r *mux.Router) {
	router := r.PathPrefix("/auth").Subrouter()
	if c.store != nil && c.conf.RateLimit.AuthnRPM > 0 {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerPeriod: c.conf.RateLimit.AuthnRPM,
			Period:            time.Minute,
			Store:             c.store,
			Prefix:            "authn",
		}))
	}
	router.HandleFunc("/signin", c.SignIn).Methods(http.MethodGet)
	router.HandleFunc("/logout", c.Logout).Methods(http.MethodPost)
	if sub, ok := strings.CutPrefix(c.conf.OIDC.CallbackPath, "/auth/"); ok {
		router.HandleFunc("/"+sub, c.Callback).Methods(http.MethodGet)
	} else {
		r.HandleFunc(c.conf.OIDC.CallbackPath, c.Callback).Methods(http.MethodGet)
	}
}

func (c *AuthController) origin(r *http.Request) string {
	if origin, ok := composables.UseOrigin(r.Context()); ok {
		return origin
	}
	return c.conf.Scheme() + "://" + r.Host
}

func (c *AuthController) redirectURL(r *http.Request) string {
	return c.origin(r) + c.conf.OIDC.CallbackPath
}

// SignIn redirects to the provider. prompt=login is sent unless the request
// is the interaction-required fallback (?interactive=1).
func (c *AuthController) SignIn(w http.ResponseWriter, r *http.Request) {
	forceLogin := r.URL.Query().Get("interactive") != "1"
	login, err := c.authService.BeginLogin(c.redirectURL(r), forceLogin)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to start sign-in")
		pages.RenderAuthFailed(w, r, http.StatusInternalServerError)
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     c.conf.OauthStateCookieKey,
		Value:    login.State + "." + login.Nonce,
		Path:     stateCookiePath,
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   c.conf.SecureCookies(),
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, login.URL, http.StatusFound)
}

func (c *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context())
	query := r.URL.Query()
	identitymw.ClearCookie(w, c.conf, c.conf.OauthStateCookieKey, stateCookiePath)

	if providerErr := query.Get("error"); providerErr != "" {
		logger.WithFields(logrus.Fields{
			"error":       providerErr,
			"description": query.Get("error_description"),
		}).Warn("identity provider returned an error")
		pages.RenderAuthFailed(w, r, http.StatusUnauthorized)
		return
	}

	cookie, err := r.Cookie(c.conf.OauthStateCookieKey)
	if err != nil {
		logger.Warn("sign-in callback without state cookie")
		pages.RenderAuthFailed(w, r, http.StatusBadRequest)
		return
	}
	state, nonce, ok := strings.Cut(cookie.Value, ".")
	if !ok || state == "" || state != query.Get("state") {
		logger.Warn("sign-in callback state mismatch")
		pages.RenderAuthFailed(w, r, http.StatusBadRequest)
		return
	}

	sess, err := c.authService.CompleteLogin(r.Context(), c.redirectURL(r), query.Get("code"), nonce)
	if err != nil {
		logger.WithError(err).Error("failed to complete sign-in")
		pages.RenderAuthFailed(w, r, http.StatusUnauthorized)
		return
	}

	if previous, err := r.Cookie(c.conf.SidCookieKey); err == nil && previous.Value != "" {
		if _, err := c.authService.Logout(r.Context(), previous.Value, ""); err != nil {
			logger.WithError(err).Warn("failed to drop previous session")
		}
	}
	identitymw.SetSessionCookie(w, c.conf, sess.ID, sess.ExpiresAt)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout ends the portal session and signs the same account out at the provider.
func (c *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	var sid string
	if cookie, err := r.Cookie(c.conf.SidCookieKey); err == nil {
		sid = cookie.Value
	}
	endSessionURL, err := c.authService.Logout(r.Context(), sid, c.origin(r))
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to drop portal session, signing out at provider anyway")
	}

	identitymw.ClearCookie(w, c.conf, c.conf.SidCookieKey, "/")
	identitymw.ClearCookie(w, c.conf, c.conf.OauthStateCookieKey, stateCookiePath)
	identitymw.ClearCookie(w, c.conf, c.conf.FlashCookieKey, "/")

	http.Redirect(w, r, endSessionURL, http.StatusSeeOther)
}
