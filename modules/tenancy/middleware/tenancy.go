package middleware

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/modules/tenancy/presentation/templates/pages"
	"github.com/mazmed/portal/modules/tenancy/services"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/httpapi"
	"github.com/mazmed/portal/pkg/routing"
	"github.com/mazmed/portal/pkg/views"
)

type gateKey struct{}

type Options struct {
	// Classifier defaults to routing.DefaultClassifier().
	Classifier *routing.Classifier
}

func classifier(opts Options) *routing.Classifier {
	if opts.Classifier != nil {
		return opts.Classifier
	}
	return routing.DefaultClassifier()
}

// ResolveTenant resolves the request host once and stores the result in the
// context. A host naming an unknown tenant ends the request with a 404.
func ResolveTenant(app application.Application, opts Options) mux.MiddlewareFunc {
	resolver := app.Service(services.ResolverService{}).(*services.ResolverService)
	c := classifier(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := c.ClassifyPath(r.URL.Path)
			if class == routing.RouteClassOps || class == routing.RouteClassStatic {
				next.ServeHTTP(w, r)
				return
			}

			host := r.Host
			if params, ok := composables.UseParams(r.Context()); ok && params.Host != "" {
				host = params.Host
			}

			res, err := resolver.Resolve(r.Context(), host)
			if err != nil {
				if !errors.Is(err, services.ErrPortalNotFound) {
					composables.UseLogger(r.Context()).WithError(err).Error("unexpected tenant resolution error")
				}
				if class.IsJSON() {
					_ = httpapi.Error(w, r, http.StatusNotFound, httpapi.CodePortalNotFound, "portal not found",
						map[string]string{"tenant": res.TenantID})
					return
				}
				pages.Renderer().Render(w, r, http.StatusNotFound, "portal_not_found",
					views.NewPage(r.Context(), "Portal not found", &pages.PortalNotFound{Host: tenant.NormalizeHost(host)}))
				return
			}
			next.ServeHTTP(w, r.WithContext(composables.WithResolution(r.Context(), res)))
		})
	}
}

// RequireTenantAccess runs the access gate once identity and tenant are both
// known. Denials render the denial page (403) instead of tenant content.
func RequireTenantAccess(app application.Application, opts Options) mux.MiddlewareFunc {
	gate := app.Service(services.AccessGate{}).(*services.AccessGate)
	c := classifier(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			class := c.ClassifyPath(r.URL.Path)
			if class == routing.RouteClassAuthn || class == routing.RouteClassOps || class == routing.RouteClassStatic {
				next.ServeHTTP(w, r)
				return
			}
			ident, err := composables.UseIdentity(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}
			res, err := composables.UseResolution(r.Context())
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			result := gate.Check(r.Context(), ident, res)
			if result.Denied() {
				if class.IsJSON() {
					_ = httpapi.Error(w, r, http.StatusForbidden, httpapi.CodeTenantMismatch, "access denied", map[string]string{
						"user_tenant":      result.UserTenant,
						"requested_tenant": result.RequestedTenant,
					})
					return
				}
				pages.Renderer().Render(w, r, http.StatusForbidden, "denied", views.NewPage(r.Context(), "Access Denied", &pages.Denied{
					UserTenant:      result.UserTenant,
					RequestedTenant: result.RequestedTenant,
				}))
				return
			}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), gateKey{}, result)))
		})
	}
}

// UseGateResult returns the gate decision recorded for this request.
func UseGateResult(ctx context.Context) (services.GateResult, bool) {
	result, ok := ctx.Value(gateKey{}).(services.GateResult)
	return result, ok
}
