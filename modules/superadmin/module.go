package superadmin

import (
	"github.com/mazmed/portal/modules/superadmin/infrastructure/api"
	"github.com/mazmed/portal/modules/superadmin/presentation/controllers"
	"github.com/mazmed/portal/modules/superadmin/services"
	"github.com/mazmed/portal/pkg/apiclient"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
)

type ModuleOptions struct {
	// AuditCapacity bounds the in-memory audit trail.
	AuditCapacity int
}

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
	conf := configuration.Use()
	client := app.Service(apiclient.Client{}).(*apiclient.Client)

	auditService := services.NewAuditService(m.options.AuditCapacity)
	auditService.Subscribe(app.EventPublisher())

	app.RegisterServices(
		services.NewTenantService(api.NewTenantConsoleRepository(client), app.EventPublisher()),
		auditService,
	)
	app.RegisterControllers(
		controllers.NewTenantsController(app, conf),
	)
	return nil
}

func (m *Module) Name() string {
	return "superadmin"
}
