package pages

import (
	"embed"
	"net/http"
	"sync"

	"github.com/mazmed/portal/modules/core/presentation/templates/layouts"
	"github.com/mazmed/portal/pkg/views"
)

//go:embed *.html
var FS embed.FS

var Renderer = sync.OnceValue(func() *views.Renderer {
	return views.Must(layouts.NewRenderer(FS))
})

// RenderAuthFailed is the fallback page for authentication errors that a
// fresh sign-in cannot fix on its own.
func RenderAuthFailed(w http.ResponseWriter, r *http.Request, status int) {
	Renderer().Render(w, r, status, "auth_failed", views.NewPage(r.Context(), "Authentication failed", nil))
}
