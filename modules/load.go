package modules

import (
	"github.com/mazmed/portal/modules/core"
	"github.com/mazmed/portal/modules/identity"
	"github.com/mazmed/portal/modules/staff"
	"github.com/mazmed/portal/modules/superadmin"
	"github.com/mazmed/portal/modules/tenancy"
	"github.com/mazmed/portal/pkg/application"
)

// BuiltInModules is the portal in registration order. Every module expects
// an *apiclient.Client to be registered on the application beforehand.
func BuiltInModules() []application.Module {
	return []application.Module{
		core.NewModule(nil),
		tenancy.NewModule(),
		identity.NewModule(),
		superadmin.NewModule(nil),
		staff.NewModule(),
	}
}

func Load(app application.Application, externalModules ...application.Module) error {
	for _, module := range externalModules {
		if err := module.Register(app); err != nil {
			return err
		}
	}
	return nil
}
