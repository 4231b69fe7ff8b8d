package server

import (
	"context"
	"net/http"
	"time"

	"github.com/NYTimes/gziphandler"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mazmed/portal/pkg/application"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Options struct {
	Addr string
	// BackendTimeout bounds one backend call. A page may issue a few in a row,
	// so the write timeout allows for that on top of rendering.
	BackendTimeout   time.Duration
	NotFound         http.Handler
	MethodNotAllowed http.Handler
	Logger           *logrus.Logger
}

// HTTPServer serves the portal router built from the registered controllers
// and the global middleware chain.
type HTTPServer struct {
	app    application.Application
	opts   Options
	router *mux.Router
}

func NewHTTPServer(app application.Application, opts Options) *HTTPServer {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	return &HTTPServer{app: app, opts: opts}
}

// Router is built on first use; unknown routes and wrong methods run through
// the same middleware chain so they are logged and tenant-resolved too.
func (s *HTTPServer) Router() *mux.Router {
	if s.router != nil {
		return s.router
	}
	middlewares := s.app.Middleware()
	r := mux.NewRouter()
	r.Use(middlewares...)
	for _, controller := range s.app.Controllers() {
		controller.Register(r)
	}
	r.NotFoundHandler = chain(middlewares, s.opts.NotFound)
	r.MethodNotAllowedHandler = chain(middlewares, s.opts.MethodNotAllowed)
	s.router = r
	return r
}

func chain(middlewares []mux.MiddlewareFunc, h http.Handler) http.Handler {
	if h == nil {
		return nil
	}
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

func (s *HTTPServer) Handler() http.Handler {
	return gziphandler.GzipHandler(s.Router())
}

func (s *HTTPServer) httpServer() *http.Server {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	if s.opts.BackendTimeout > 0 {
		srv.WriteTimeout = 3*s.opts.BackendTimeout + readHeaderTimeout
	}
	return srv
}

// Start serves until ctx is cancelled, then drains in-flight requests.
func (s *HTTPServer) Start(ctx context.Context) error {
	srv := s.httpServer()
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return errors.Wrap(err, "listen")
	case <-ctx.Done():
	}

	s.opts.Logger.Info("shutting down http server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutdown")
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return errors.Wrap(err, "listen")
	}
	return nil
}
