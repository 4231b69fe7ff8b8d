// Package layouts owns the shared page shell every module renders into.
package layouts

import (
	"embed"
	"html/template"
	"io/fs"

	"github.com/mazmed/portal/modules/core/presentation/assets"
	"github.com/mazmed/portal/pkg/views"
)

//go:embed *.html
var FS embed.FS

// NewRenderer parses pages against the shared layout. The asset helper
// resolves to content-hashed static URLs.
func NewRenderer(pages fs.FS) (*views.Renderer, error) {
	return views.New(FS, pages, template.FuncMap{
		"asset": func(name string) string {
			return "/static/" + assets.HashFS.HashName(name)
		},
	})
}
