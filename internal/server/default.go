package server

import (
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/mazmed/portal/modules/core/presentation/controllers"
	identitymw "github.com/mazmed/portal/modules/identity/middleware"
	tenancymw "github.com/mazmed/portal/modules/tenancy/middleware"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/constants"
	"github.com/mazmed/portal/pkg/middleware"
	"github.com/mazmed/portal/pkg/routing"
	"github.com/mazmed/portal/pkg/server"
)

type DefaultOptions struct {
	Logger        *logrus.Logger
	Configuration *configuration.Configuration
	Application   application.Application
	Entrypoint    string
	// AllowlistPath overrides the route allowlist compiled into the binary.
	AllowlistPath string
}

// Default assembles the global middleware chain: request logging, CORS,
// optional rate limiting, ops guard, tenant resolution, authentication and
// the tenant access gate, in that order. Every route-aware middleware shares
// one classifier; an unreadable allowlist fails start-up.
func Default(options *DefaultOptions) (*server.HTTPServer, error) {
	app := options.Application
	conf := options.Configuration
	if options.Entrypoint == "" {
		options.Entrypoint = routing.DefaultEntrypoint
	}
	classifier, err := routing.LoadClassifier(options.AllowlistPath, options.Entrypoint)
	if err != nil {
		return nil, errors.Wrap(err, "load route allowlist")
	}

	loggerOpts := middleware.DefaultLoggerOptions()
	loggerOpts.Classifier = classifier
	loggerOpts.Conf = conf

	middlewares := []mux.MiddlewareFunc{
		middleware.WithLogger(options.Logger, loggerOpts),
		middleware.TracedMiddleware("provide"),
		middleware.Provide(constants.AppKey, app),

		middleware.TracedMiddleware("cors"),
		middleware.Cors(conf.CorsAllowedOrigins...),
	}

	if conf.RateLimit.Enabled {
		middlewares = append(middlewares,
			middleware.TracedMiddleware("rateLimit"),
			middleware.RateLimit(middleware.RateLimitConfig{
				RequestsPerPeriod: conf.RateLimit.GlobalRPS,
				Store:             middleware.NewStoreFromConfig(conf, options.Logger),
				Prefix:            "global",
			}),
		)
	}

	tenancyOpts := tenancymw.Options{Classifier: classifier}
	middlewares = append(middlewares,
		middleware.TracedMiddleware("requestParams"),
		middleware.RequestParams(conf),
		middleware.OpsGuard(conf, classifier),

		middleware.TracedMiddleware("tenancy"),
		tenancymw.ResolveTenant(app, tenancyOpts),

		middleware.TracedMiddleware("identity"),
		identitymw.Authorize(app, identitymw.Options{Conf: conf, Classifier: classifier}),
		tenancymw.RequireTenantAccess(app, tenancyOpts),
	)

	app.RegisterMiddleware(middlewares...)

	handlerOpts := controllers.ErrorHandlersOptions{Classifier: classifier}
	return server.NewHTTPServer(app, server.Options{
		Addr:             conf.SocketAddress,
		BackendTimeout:   conf.API.Timeout,
		NotFound:         controllers.NotFound(handlerOpts),
		MethodNotAllowed: controllers.MethodNotAllowed(handlerOpts),
		Logger:           options.Logger,
	}), nil
}
