package services

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/metrics"
)

type Decision string

const (
	// DecisionSkipped: platform context, nothing to compare.
	DecisionSkipped  Decision = "skipped"
	DecisionBypassed Decision = "bypassed"
	DecisionAllowed  Decision = "allowed"
	DecisionDenied   Decision = "denied"
)

type GateResult struct {
	Decision        Decision
	UserTenant      string
	RequestedTenant string
}

func (r GateResult) Denied() bool {
	return r.Decision == DecisionDenied
}

// AccessGate compares the identity's tenant claim with the host tenant.
// It guards the UI only; the backend re-checks every call.
type AccessGate struct{}

func NewAccessGate() *AccessGate {
	return &AccessGate{}
}

func (g *AccessGate) Check(ctx context.Context, ident session.Identity, res tenant.Resolution) GateResult {
	result := GateResult{
		UserTenant:      ident.TenantID(),
		RequestedTenant: res.TenantID,
	}
	switch {
	case res.Platform():
		result.Decision = DecisionSkipped
	case ident.IsPlatformAdmin():
		result.Decision = DecisionBypassed
	case ident.HasTenant() && strings.EqualFold(strings.TrimSpace(ident.TenantID()), res.TenantID):
		result.Decision = DecisionAllowed
	default:
		result.Decision = DecisionDenied
	}

	metrics.GateDecisions.WithLabelValues(string(result.Decision)).Inc()
	if result.Decision == DecisionDenied {
		composables.UseLogger(ctx).WithFields(logrus.Fields{
			"user":             ident.Username(),
			"user_tenant":      result.UserTenant,
			"requested_tenant": result.RequestedTenant,
		}).Warn("access gate denied tenant mismatch")
	}
	return result
}
