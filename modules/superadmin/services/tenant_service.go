package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mazmed/portal/modules/superadmin/domain"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/eventbus"
)

// TenantService backs the platform admin console. Every successful
// mutation publishes a domain event.
type TenantService struct {
	repo      domain.TenantConsoleRepository
	publisher eventbus.EventBus
}

func NewTenantService(repo domain.TenantConsoleRepository, publisher eventbus.EventBus) *TenantService {
	return &TenantService{repo: repo, publisher: publisher}
}

func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.repo.List(ctx)
}

// Get looks a tenant up in the admin listing; the backend has no
// single-tenant admin endpoint.
func (s *TenantService) Get(ctx context.Context, tenantID string) (tenant.Tenant, error) {
	tenants, err := s.repo.List(ctx)
	if err != nil {
		return tenant.Tenant{}, err
	}
	for _, t := range tenants {
		if t.ID() == tenantID {
			return t, nil
		}
	}
	return tenant.Tenant{}, errors.Wrap(tenant.ErrNotFound, tenantID)
}

func (s *TenantService) Create(ctx context.Context, params domain.CreateTenantParams) (string, error) {
	id, err := s.repo.Create(ctx, params)
	if err != nil {
		return "", err
	}
	s.publish(ctx, &domain.TenantCreatedEvent{TenantID: id, Actor: actor(ctx), Params: params})
	return id, nil
}

func (s *TenantService) Update(ctx context.Context, tenantID string, params domain.UpdateTenantParams) error {
	if err := s.repo.Update(ctx, tenantID, params); err != nil {
		return err
	}
	s.publish(ctx, &domain.TenantUpdatedEvent{TenantID: tenantID, Actor: actor(ctx), Params: params})
	return nil
}

func (s *TenantService) Delete(ctx context.Context, tenantID string) error {
	if err := s.repo.Delete(ctx, tenantID); err != nil {
		return err
	}
	s.publish(ctx, &domain.TenantDeletedEvent{TenantID: tenantID, Actor: actor(ctx)})
	return nil
}

func (s *TenantService) publish(ctx context.Context, event any) {
	if s.publisher != nil {
		s.publisher.Publish(ctx, event)
	}
}

func actor(ctx context.Context) string {
	ident, err := composables.UseIdentity(ctx)
	if err != nil {
		return ""
	}
	return ident.Username()
}
