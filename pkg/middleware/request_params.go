package middleware

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
)

// RequestParams records client address, effective host and origin. Forwarded
// headers are honoured only when trustProxy is set.
func RequestParams(conf *configuration.Configuration) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			host := EffectiveHost(r, conf.Tenancy.TrustProxy)
			params := &composables.Params{
				IP:        getRealIP(r, conf),
				UserAgent: r.UserAgent(),
				Host:      host,
				Origin:    effectiveScheme(r, conf) + "://" + host,
				Request:   r,
				Writer:    w,
			}
			next.ServeHTTP(w, r.WithContext(composables.WithParams(r.Context(), params)))
		})
	}
}

// EffectiveHost returns the host the browser addressed, port included.
func EffectiveHost(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := firstHeaderValue(r.Header.Get("X-Forwarded-Host")); fwd != "" {
			return fwd
		}
	}
	return strings.TrimSpace(r.Host)
}

func effectiveScheme(r *http.Request, conf *configuration.Configuration) string {
	if conf.Tenancy.TrustProxy {
		if proto := strings.ToLower(firstHeaderValue(r.Header.Get("X-Forwarded-Proto"))); proto == "http" || proto == "https" {
			return proto
		}
	}
	if r.TLS != nil {
		return "https"
	}
	return conf.Scheme()
}

func firstHeaderValue(v string) string {
	if i := strings.IndexByte(v, ','); i >= 0 {
		v = v[:i]
	}
	return strings.TrimSpace(v)
}
