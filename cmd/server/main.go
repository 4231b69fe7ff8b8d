package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/mazmed/portal/internal/server"
	"github.com/mazmed/portal/modules"
	"github.com/mazmed/portal/pkg/apiclient"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/eventbus"
	"github.com/mazmed/portal/pkg/logging"
	"github.com/mazmed/portal/pkg/routing"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	if conf.OpenTelemetry.Enabled {
		tracingCleanup := logging.SetupTracing(
			context.Background(),
			conf.OpenTelemetry.ServiceName,
			conf.OpenTelemetry.TempoURL,
		)
		defer tracingCleanup()
		logger.Info("OpenTelemetry tracing enabled, exporting to " + conf.OpenTelemetry.TempoURL)
	}

	httpClient := &http.Client{Timeout: conf.API.Timeout}
	app := application.New(&application.ApplicationOptions{
		EventBus:   eventbus.NewEventPublisher(logger),
		Logger:     logger,
		HTTPClient: httpClient,
	})
	app.RegisterServices(apiclient.New(apiclient.Options{
		BaseURL:    conf.API.BaseURL,
		Timeout:    conf.API.Timeout,
		HTTPClient: httpClient,
	}))
	if err := modules.Load(app, modules.BuiltInModules()...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}

	serverInstance, err := server.Default(&server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Entrypoint:    routing.DefaultEntrypoint,
	})
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Printf("Listening on: %s://%s\n", conf.Scheme(), conf.SocketAddress)
	if err := serverInstance.Start(ctx); err != nil {
		log.Fatalf("failed to start server: %v", err)
	}
}
