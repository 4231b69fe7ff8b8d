package composables

import (
	"context"
	"errors"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/constants"
)

var ErrNoResolution = errors.New("tenant resolution not found in context")

func WithResolution(ctx context.Context, r tenant.Resolution) context.Context {
	return context.WithValue(ctx, constants.ResolvedKey, r)
}

// UseResolution returns the host-derived tenant resolution of the request.
func UseResolution(ctx context.Context) (tenant.Resolution, error) {
	r, ok := ctx.Value(constants.ResolvedKey).(tenant.Resolution)
	if !ok {
		return tenant.Resolution{}, ErrNoResolution
	}
	return r, nil
}

// UseTenant returns the resolved tenant; false in the platform context.
func UseTenant(ctx context.Context) (tenant.Tenant, bool) {
	r, err := UseResolution(ctx)
	if err != nil || r.Platform() {
		return tenant.Tenant{}, false
	}
	return r.Tenant, true
}
