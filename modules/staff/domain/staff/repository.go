package staff

import (
	"context"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
)

type CreateParams struct {
	Name  string
	Email string
	Role  Role
}

// Repository reads and writes the caller's own tenant. No call carries a
// tenant identifier; the backend derives it from the token.
type Repository interface {
	CurrentTenant(ctx context.Context) (tenant.Tenant, error)
	List(ctx context.Context) ([]Staff, error)
	Create(ctx context.Context, params CreateParams) error
}
