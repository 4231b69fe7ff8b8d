package viewmodels

import (
	"github.com/mazmed/portal/modules/superadmin/presentation/dtos"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
)

type TenantRow struct {
	ID          string
	DisplayName string
	MaxUsers    int
	MaxCases    int
	Active      bool
}

func TenantToViewModel(t tenant.Tenant) TenantRow {
	return TenantRow{
		ID:          t.ID(),
		DisplayName: t.DisplayName(),
		MaxUsers:    t.MaxUsers(),
		MaxCases:    t.MaxCases(),
		Active:      t.IsActive(),
	}
}

// TenantsPage is the console index: creation form plus the tenant list.
type TenantsPage struct {
	Form      *dtos.CreateTenantDTO
	Errors    map[string]string
	Tenants   []TenantRow
	LoadError string
}

func NewTenantsPage(form *dtos.CreateTenantDTO, tenants []tenant.Tenant) *TenantsPage {
	rows := make([]TenantRow, 0, len(tenants))
	for _, t := range tenants {
		rows = append(rows, TenantToViewModel(t))
	}
	return &TenantsPage{Form: form, Errors: map[string]string{}, Tenants: rows}
}

type TenantEditPage struct {
	TenantID string
	Form     *dtos.UpdateTenantDTO
	Errors   map[string]string
}

type TenantDeletePage struct {
	TenantID string
}
