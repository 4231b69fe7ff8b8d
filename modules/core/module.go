package core

import (
	"github.com/mazmed/portal/modules/core/presentation/assets"
	"github.com/mazmed/portal/modules/core/presentation/controllers"
	"github.com/mazmed/portal/modules/core/presentation/templates/layouts"
	"github.com/mazmed/portal/modules/core/presentation/templates/pages"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/metrics"
)

type ModuleOptions struct{}

func NewModule(opts *ModuleOptions) application.Module {
	if opts == nil {
		opts = &ModuleOptions{}
	}
	return &Module{
		options: opts,
	}
}

type Module struct {
	options *ModuleOptions
}

func (m *Module) Register(app application.Application) error {
	cfg := configuration.Use()

	renderer, err := layouts.NewRenderer(pages.FS)
	if err != nil {
		return err
	}

	app.RegisterHashFsAssets(assets.HashFS)
	app.RegisterControllers(
		controllers.NewHomeController(app, renderer),
		controllers.NewHealthController(app),
		controllers.NewStaticFilesController(assets.HashFS, cfg),
	)
	if cfg.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(cfg.Prometheus.Path))
	}
	return nil
}

func (m *Module) Name() string {
	return "core"
}
