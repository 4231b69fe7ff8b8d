package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/apiclient"
)

type PublicConfigRepository struct {
	client *apiclient.Client
}

func NewPublicConfigRepository(client *apiclient.Client) tenant.PublicConfigRepository {
	return &PublicConfigRepository{client: client}
}

// PublicConfig performs the unauthenticated branding read. A 404 maps to
// tenant.ErrNotFound; other failures are wrapped as-is.
func (r *PublicConfigRepository) PublicConfig(ctx context.Context, tenantID string) (tenant.Tenant, error) {
	var model TenantModel
	err := r.client.Do(ctx, apiclient.Call{
		Operation:  "public.config",
		Method:     http.MethodGet,
		Path:       "/api/public/config/{tenantId}",
		PathParams: map[string]string{"tenantId": tenantID},
		Result:     &model,
		Public:     true,
	})
	if err != nil {
		if apiclient.StatusCode(err) == http.StatusNotFound {
			return tenant.Tenant{}, errors.Wrap(tenant.ErrNotFound, tenantID)
		}
		return tenant.Tenant{}, errors.Wrapf(err, "load public config for %s", tenantID)
	}
	if model.TenantId == "" {
		model.TenantId = tenantID
	}
	return ToDomainTenant(model), nil
}
