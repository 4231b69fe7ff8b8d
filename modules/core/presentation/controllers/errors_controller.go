package controllers

import (
	"net/http"

	"github.com/mazmed/portal/modules/core/presentation/templates/layouts"
	"github.com/mazmed/portal/modules/core/presentation/templates/pages"
	"github.com/mazmed/portal/pkg/httpapi"
	"github.com/mazmed/portal/pkg/routing"
	"github.com/mazmed/portal/pkg/views"
)

type ErrorHandlersOptions struct {
	Classifier *routing.Classifier
}

func classifierFor(opts []ErrorHandlersOptions) *routing.Classifier {
	if len(opts) > 0 && opts[0].Classifier != nil {
		return opts[0].Classifier
	}
	return routing.DefaultClassifier()
}

// NotFound answers unknown routes: JSON on API classes, the HTML page elsewhere.
func NotFound(opts ...ErrorHandlersOptions) http.HandlerFunc {
	classifier := classifierFor(opts)
	renderer := views.Must(layouts.NewRenderer(pages.FS))

	return func(w http.ResponseWriter, r *http.Request) {
		if classifier.ClassifyPath(r.URL.Path).IsJSON() {
			_ = httpapi.Error(w, r, http.StatusNotFound, httpapi.CodeNotFound, "not found", nil)
			return
		}
		renderer.Render(w, r, http.StatusNotFound, "not_found", views.NewPage(r.Context(), "Page not found", nil))
	}
}

func MethodNotAllowed(opts ...ErrorHandlersOptions) http.HandlerFunc {
	classifier := classifierFor(opts)

	return func(w http.ResponseWriter, r *http.Request) {
		if classifier.ClassifyPath(r.URL.Path).IsJSON() {
			_ = httpapi.Error(w, r, http.StatusMethodNotAllowed, httpapi.CodeMethodNotAllowed, "method not allowed",
				map[string]string{"method": r.Method})
			return
		}
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
