package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/identity/presentation/templates/pages"
	"github.com/mazmed/portal/modules/identity/services"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/httpapi"
	"github.com/mazmed/portal/pkg/routing"
)

const InteractiveSignInPath = "/auth/signin?interactive=1"

type Options struct {
	Conf       *configuration.Configuration
	Classifier *routing.Classifier
}

func (o Options) classifier() *routing.Classifier {
	if o.Classifier != nil {
		return o.Classifier
	}
	return routing.DefaultClassifier()
}

// Authorize loads the portal session named by the session cookie and
// acquires a bearer token silently. Requests without a usable session
// continue anonymously; interaction-required failures send the browser to
// the interactive sign-in.
func Authorize(app application.Application, opts Options) mux.MiddlewareFunc {
	conf := opts.Conf
	if conf == nil {
		conf = configuration.Use()
	}
	authService := app.Service(services.AuthService{}).(*services.AuthService)
	c := opts.classifier()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := c.ClassifyPath(r.URL.Path)
			if class == routing.RouteClassOps || class == routing.RouteClassStatic {
				next.ServeHTTP(w, r)
				return
			}
			cookie, err := r.Cookie(conf.SidCookieKey)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			logger := composables.UseLogger(r.Context())
			sess, err := authService.AcquireTokenSilent(r.Context(), cookie.Value)
			switch {
			case err == nil:
			case errors.Is(err, session.ErrSessionNotFound):
				ClearCookie(w, conf, conf.SidCookieKey, "/")
				next.ServeHTTP(w, r)
				return
			case errors.Is(err, services.ErrInteractionRequired):
				logger.WithError(err).Info("silent token acquisition needs interaction")
				switch {
				case class == routing.RouteClassAuthn:
					next.ServeHTTP(w, r)
				case class.IsJSON():
					_ = httpapi.Error(w, r, http.StatusUnauthorized, httpapi.CodeInteractionRequired, "sign-in required", nil)
				default:
					http.Redirect(w, r, InteractiveSignInPath, redirectStatus(r))
				}
				return
			default:
				logger.WithError(err).Error("silent token acquisition failed")
				switch {
				case class == routing.RouteClassAuthn:
					next.ServeHTTP(w, r)
				case class.IsJSON():
					_ = httpapi.Error(w, r, http.StatusInternalServerError, httpapi.CodeAuthFailed, "authentication failed", nil)
				default:
					pages.RenderAuthFailed(w, r, http.StatusInternalServerError)
				}
				return
			}

			ctx := composables.WithSession(r.Context(), sess)
			ctx = composables.WithIdentity(ctx, sess.Identity())
			if token := sess.BearerToken(authService.TokenKind()); token != "" {
				ctx = composables.WithBearerToken(ctx, token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RedirectNotAuthenticated sends anonymous browsers to the landing page.
func RedirectNotAuthenticated() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if composables.UseAuthenticated(r.Context()) {
				next.ServeHTTP(w, r)
				return
			}
			http.Redirect(w, r, "/", redirectStatus(r))
		})
	}
}

func redirectStatus(r *http.Request) int {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return http.StatusFound
	}
	return http.StatusSeeOther
}
