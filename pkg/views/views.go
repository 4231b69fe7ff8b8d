// Package views renders server-side pages as templ components backed by
// html/template sets: one shared layout plus one file per page.
package views

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/pkg/errors"
)

const layoutTemplate = "base"

type Renderer struct {
	pages map[string]*template.Template
}

// New parses every *.html under layouts once, then clones that set for each
// *.html page in pages. Pages are addressed by file name without extension.
func New(layouts fs.FS, pages fs.FS, funcs template.FuncMap) (*Renderer, error) {
	base := template.New(layoutTemplate).Funcs(defaultFuncs()).Funcs(funcs)
	base, err := base.ParseFS(layouts, "*.html")
	if err != nil {
		return nil, errors.Wrap(err, "parse layouts")
	}

	files, err := fs.Glob(pages, "*.html")
	if err != nil {
		return nil, errors.Wrap(err, "list pages")
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		set, err := base.Clone()
		if err != nil {
			return nil, errors.Wrap(err, "clone layout")
		}
		if _, err := set.ParseFS(pages, file); err != nil {
			return nil, errors.Wrapf(err, "parse page %s", file)
		}
		r.pages[strings.TrimSuffix(path.Base(file), ".html")] = set
	}
	return r, nil
}

func Must(r *Renderer, err error) *Renderer {
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Renderer) Has(name string) bool {
	_, ok := r.pages[name]
	return ok
}

// Component renders page name inside the shared layout.
func (r *Renderer) Component(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		set, ok := r.pages[name]
		if !ok {
			return errors.Errorf("page %q not registered", name)
		}
		return set.ExecuteTemplate(w, layoutTemplate, data)
	})
}

// Render writes page name with the given status.
func (r *Renderer) Render(w http.ResponseWriter, req *http.Request, status int, name string, data any) {
	templ.Handler(r.Component(name, data), templ.WithStatus(status)).ServeHTTP(w, req)
}

func defaultFuncs() template.FuncMap {
	return template.FuncMap{
		"asset": func(name string) string { return "/static/" + name },
	}
}
