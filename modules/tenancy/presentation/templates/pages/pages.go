package pages

import (
	"embed"
	"sync"

	"github.com/mazmed/portal/modules/core/presentation/templates/layouts"
	"github.com/mazmed/portal/pkg/views"
)

//go:embed *.html
var FS embed.FS

var Renderer = sync.OnceValue(func() *views.Renderer {
	return views.Must(layouts.NewRenderer(FS))
})

type PortalNotFound struct {
	Host string
}

type Denied struct {
	UserTenant      string
	RequestedTenant string
}
