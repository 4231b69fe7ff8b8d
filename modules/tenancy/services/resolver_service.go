package services

import (
	"context"

	"github.com/pkg/errors"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/composables"
)

// ErrPortalNotFound is terminal for the request: the host names a tenant
// whose public configuration could not be loaded.
var ErrPortalNotFound = errors.New("portal not found")

type ResolverService struct {
	repo           tenant.PublicConfigRepository
	loopbackMarker string
}

func NewResolverService(repo tenant.PublicConfigRepository, loopbackMarker string) *ResolverService {
	if loopbackMarker == "" {
		loopbackMarker = tenant.DefaultLoopbackMarker
	}
	return &ResolverService{repo: repo, loopbackMarker: loopbackMarker}
}

// Resolve maps a host to a tenant. Hosts without a tenant subdomain resolve
// to the platform context without any backend call.
func (s *ResolverService) Resolve(ctx context.Context, host string) (tenant.Resolution, error) {
	id, ok := tenant.SubdomainFromHost(host, s.loopbackMarker)
	if !ok {
		return tenant.Resolution{}, nil
	}

	t, err := s.repo.PublicConfig(ctx, id)
	if err != nil {
		composables.UseLogger(ctx).WithError(err).WithField("tenant", id).Warn("tenant resolution failed")
		return tenant.Resolution{TenantID: id}, errors.Wrapf(ErrPortalNotFound, "%s: %v", id, err)
	}
	return tenant.Resolution{TenantID: id, Tenant: t}, nil
}
