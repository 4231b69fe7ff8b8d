package domain

import (
	"context"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
)

// CreateTenantParams provisions a tenant together with its first admin.
type CreateTenantParams struct {
	TenantID   string
	TenantName string
	AdminName  string
	AdminEmail string
	LogoURL    string
	MaxUsers   int
	MaxCases   int
}

// UpdateTenantParams is a partial update; every field is sent as given.
type UpdateTenantParams struct {
	DisplayName string
	LogoURL     string
	MaxUsers    int
	MaxCases    int
	IsActive    bool
}

// TenantConsoleRepository is the platform-admin view of the backend tenant API.
type TenantConsoleRepository interface {
	List(ctx context.Context) ([]tenant.Tenant, error)
	// Create returns the identifier the backend assigned.
	Create(ctx context.Context, params CreateTenantParams) (string, error)
	Update(ctx context.Context, tenantID string, params UpdateTenantParams) error
	Delete(ctx context.Context, tenantID string) error
}
