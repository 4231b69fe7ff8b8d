package tenant

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("tenant not found")

// PublicConfigRepository reads unauthenticated tenant branding.
type PublicConfigRepository interface {
	PublicConfig(ctx context.Context, tenantID string) (Tenant, error)
}
