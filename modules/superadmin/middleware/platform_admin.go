package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mazmed/portal/pkg/composables"
)

const StaffHomePath = "/dashboard"

// RequirePlatformAdmin sends signed-in users without the platform admin
// prefix back to their tenant dashboard.
func RequirePlatformAdmin() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ident, err := composables.UseIdentity(r.Context())
			if err != nil {
				http.Redirect(w, r, "/", http.StatusFound)
				return
			}
			if !ident.IsPlatformAdmin() {
				composables.UseLogger(r.Context()).
					WithField("username", ident.Username()).
					Warn("non-admin reached the admin console")
				http.Redirect(w, r, StaffHomePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
