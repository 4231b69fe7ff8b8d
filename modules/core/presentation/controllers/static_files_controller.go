package controllers

import (
	"net/http"

	"github.com/benbjohnson/hashfs"
	"github.com/gorilla/mux"

	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
)

const StaticPrefix = "/static/"

type StaticFilesController struct {
	fsys       *hashfs.FS
	production bool
}

func (s *StaticFilesController) Key() string {
	return "/static"
}

// Register serves hashed names with immutable caching (done by hashfs) and
// plain names with a short or disabled cache depending on the environment.
func (s *StaticFilesController) Register(r *mux.Router) {
	fsHandler := http.StripPrefix(StaticPrefix, hashfs.FileServer(s.fsys))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.production {
			w.Header().Set("Cache-Control", "public, max-age=3600")
		} else {
			w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
		}
		fsHandler.ServeHTTP(w, r)
	})
	r.PathPrefix(StaticPrefix).Handler(handler).Methods(http.MethodGet, http.MethodHead)
}

func NewStaticFilesController(fsys *hashfs.FS, conf *configuration.Configuration) application.Controller {
	return &StaticFilesController{
		fsys:       fsys,
		production: conf.GoAppEnvironment == configuration.Production,
	}
}
