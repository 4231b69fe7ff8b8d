package services

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mazmed/portal/modules/superadmin/domain"
	"github.com/mazmed/portal/modules/superadmin/domain/entities"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/eventbus"
	"github.com/mazmed/portal/pkg/metrics"
)

const (
	ActionTenantCreated = "tenant.created"
	ActionTenantUpdated = "tenant.updated"
	ActionTenantDeleted = "tenant.deleted"

	defaultAuditCapacity = 100
)

// AuditService keeps the most recent admin console mutations in memory
// and writes each one to the log.
type AuditService struct {
	capacity int
	mu       sync.RWMutex
	entries  []entities.SuperadminAuditLog
	now      func() time.Time
}

func NewAuditService(capacity int) *AuditService {
	if capacity <= 0 {
		capacity = defaultAuditCapacity
	}
	return &AuditService{capacity: capacity, now: time.Now}
}

// Subscribe attaches the service to tenant mutation events.
func (s *AuditService) Subscribe(bus eventbus.EventBus) {
	bus.Subscribe(func(ctx context.Context, e *domain.TenantCreatedEvent) {
		s.Log(ctx, ActionTenantCreated, e.TenantID, e.Actor, map[string]any{
			"tenantName": e.Params.TenantName,
			"adminEmail": e.Params.AdminEmail,
			"maxUsers":   e.Params.MaxUsers,
			"maxCases":   e.Params.MaxCases,
		})
	})
	bus.Subscribe(func(ctx context.Context, e *domain.TenantUpdatedEvent) {
		s.Log(ctx, ActionTenantUpdated, e.TenantID, e.Actor, map[string]any{
			"displayName": e.Params.DisplayName,
			"maxUsers":    e.Params.MaxUsers,
			"maxCases":    e.Params.MaxCases,
			"isActive":    e.Params.IsActive,
		})
	})
	bus.Subscribe(func(ctx context.Context, e *domain.TenantDeletedEvent) {
		s.Log(ctx, ActionTenantDeleted, e.TenantID, e.Actor, nil)
	})
}

func (s *AuditService) Log(ctx context.Context, action, tenantID, actor string, payload map[string]any) {
	entry := entities.SuperadminAuditLog{
		Action:    action,
		TenantID:  tenantID,
		Actor:     actor,
		Payload:   redactMap(payload),
		CreatedAt: s.now(),
	}
	if params, ok := composables.UseParams(ctx); ok {
		entry.IPAddress = params.IP
		entry.UserAgent = params.UserAgent
	}

	s.mu.Lock()
	s.entries = append(s.entries, entry)
	if over := len(s.entries) - s.capacity; over > 0 {
		s.entries = append(s.entries[:0:0], s.entries[over:]...)
	}
	s.mu.Unlock()

	metrics.TenantMutations.WithLabelValues(action).Inc()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"action": action,
		"tenant": tenantID,
		"actor":  actor,
		"ip":     entry.IPAddress,
	}).Info("superadmin audit")
}

// Recent returns entries newest first.
func (s *AuditService) Recent() []entities.SuperadminAuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]entities.SuperadminAuditLog, len(s.entries))
	for i, e := range s.entries {
		out[len(s.entries)-1-i] = e
	}
	return out
}

func redactMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for key, value := range m {
		if isSensitiveKey(key) {
			out[key] = "<redacted>"
			continue
		}
		if nested, ok := value.(map[string]any); ok {
			out[key] = redactMap(nested)
			continue
		}
		out[key] = value
	}
	return out
}

func isSensitiveKey(key string) bool {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return false
	}
	for _, s := range []string{"password", "secret", "token", "cookie"} {
		if strings.Contains(k, s) {
			return true
		}
	}
	return false
}
