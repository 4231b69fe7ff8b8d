package tenancy

import (
	"github.com/mazmed/portal/modules/tenancy/infrastructure/api"
	"github.com/mazmed/portal/modules/tenancy/presentation/controllers"
	"github.com/mazmed/portal/modules/tenancy/services"
	"github.com/mazmed/portal/pkg/apiclient"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
)

func NewModule() application.Module {
	return &Module{}
}

type Module struct{}

func (m *Module) Register(app application.Application) error {
	conf := configuration.Use()
	client := app.Service(apiclient.Client{}).(*apiclient.Client)

	app.RegisterServices(
		services.NewResolverService(api.NewPublicConfigRepository(client), conf.Tenancy.LoopbackMarker),
		services.NewAccessGate(),
	)
	app.RegisterControllers(
		controllers.NewSessionController(app),
	)
	return nil
}

func (m *Module) Name() string {
	return "tenancy"
}
