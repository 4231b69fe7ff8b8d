package staff

import (
	"github.com/mazmed/portal/modules/staff/infrastructure/api"
	"github.com/mazmed/portal/modules/staff/presentation/controllers"
	"github.com/mazmed/portal/modules/staff/services"
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

	app.EventPublisher().Subscribe(services.RecordCreated)
	app.RegisterServices(
		services.NewStaffService(api.NewStaffRepository(client), app.EventPublisher()),
	)
	app.RegisterControllers(
		controllers.NewDashboardController(app, conf),
	)
	return nil
}

func (m *Module) Name() string {
	return "staff"
}
