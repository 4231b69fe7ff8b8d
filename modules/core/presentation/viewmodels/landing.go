package viewmodels

import "github.com/mazmed/portal/modules/tenancy/domain/tenant"

type Landing struct {
	Tenant      bool
	DisplayName string
	LogoURL     string
}

func NewLanding(t tenant.Tenant, ok bool) *Landing {
	if !ok {
		return &Landing{}
	}
	return &Landing{
		Tenant:      true,
		DisplayName: t.Name(),
		LogoURL:     t.LogoURL(),
	}
}
