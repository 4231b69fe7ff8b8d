package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
)

type stubPublicConfigRepo struct {
	tenants map[string]tenant.Tenant
	calls   []string
}

func (r *stubPublicConfigRepo) PublicConfig(_ context.Context, id string) (tenant.Tenant, error) {
	r.calls = append(r.calls, id)
	t, ok := r.tenants[id]
	if !ok {
		return tenant.Tenant{}, tenant.ErrNotFound
	}
	return t, nil
}

func newStubRepo() *stubPublicConfigRepo {
	return &stubPublicConfigRepo{tenants: map[string]tenant.Tenant{
		"tula": tenant.Hydrate("tula", "Tula Health", "", 10, 50, true, time.Time{}),
	}}
}

func TestResolverService_TenantHost(t *testing.T) {
	repo := newStubRepo()
	svc := NewResolverService(repo, "localhost")

	res, err := svc.Resolve(context.Background(), "tula.mazmed.com")
	require.NoError(t, err)
	require.False(t, res.Platform())
	require.Equal(t, "Tula Health", res.Tenant.DisplayName())
	require.Equal(t, 50, res.Tenant.MaxCases())
	require.Equal(t, []string{"tula"}, repo.calls)
}

func TestResolverService_PlatformHostsMakeNoCall(t *testing.T) {
	repo := newStubRepo()
	svc := NewResolverService(repo, "")

	for _, host := range []string{"mazmed.com", "www.mazmed.com", "localhost:3200", "www.localhost"} {
		res, err := svc.Resolve(context.Background(), host)
		require.NoError(t, err, host)
		require.True(t, res.Platform(), host)
	}
	require.Empty(t, repo.calls)
}

func TestResolverService_UnknownTenantIsPortalNotFound(t *testing.T) {
	svc := NewResolverService(newStubRepo(), "localhost")

	res, err := svc.Resolve(context.Background(), "ghost.localhost:5173")
	require.ErrorIs(t, err, ErrPortalNotFound)
	require.Equal(t, "ghost", res.TenantID)
	require.True(t, errors.Is(err, ErrPortalNotFound))
}

func identity(claims map[string]any) session.Identity {
	return session.FromClaims(claims)
}

func TestAccessGate_Check(t *testing.T) {
	gate := NewAccessGate()
	tula := tenant.Resolution{TenantID: "tula", Tenant: tenant.Hydrate("tula", "Tula Health", "", 10, 50, true, time.Time{})}
	other := tenant.Resolution{TenantID: "other", Tenant: tenant.Hydrate("other", "Other", "", 10, 50, true, time.Time{})}
	doctor := identity(map[string]any{"username": "dr.x@tula.com", "extension_abc123_TenantId": "tula"})

	got := gate.Check(context.Background(), doctor, tula)
	require.Equal(t, DecisionAllowed, got.Decision)

	got = gate.Check(context.Background(), doctor, other)
	require.True(t, got.Denied())
	require.Equal(t, "tula", got.UserTenant)
	require.Equal(t, "other", got.RequestedTenant)

	admin := identity(map[string]any{"preferred_username": "superadmin@mazmed.com"})
	require.Equal(t, DecisionBypassed, gate.Check(context.Background(), admin, other).Decision)

	require.Equal(t, DecisionSkipped, gate.Check(context.Background(), doctor, tenant.Resolution{}).Decision)
}

func TestAccessGate_MissingClaimIsDenied(t *testing.T) {
	gate := NewAccessGate()
	tula := tenant.Resolution{TenantID: "tula"}
	nurse := identity(map[string]any{"preferred_username": "nurse@tula.com"})

	got := gate.Check(context.Background(), nurse, tula)
	require.True(t, got.Denied())
	require.Empty(t, got.UserTenant)
}

func TestAccessGate_CaseInsensitiveClaim(t *testing.T) {
	gate := NewAccessGate()
	ident := identity(map[string]any{"preferred_username": "dr@tula.com", "TenantId": "Tula"})
	require.Equal(t, DecisionAllowed, gate.Check(context.Background(), ident, tenant.Resolution{TenantID: "tula"}).Decision)
}
