package api

import (
	"strings"
	"time"

	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
)

// TenantModel is the backend's PascalCase tenant document.
type TenantModel struct {
	TenantId    string `json:"TenantId"`
	DisplayName string `json:"DisplayName"`
	LogoUrl     string `json:"LogoUrl,omitempty"`
	MaxUsers    int    `json:"MaxUsers"`
	MaxCases    int    `json:"MaxCases"`
	IsActive    *bool  `json:"IsActive,omitempty"`
	CreatedAt   string `json:"CreatedAt,omitempty"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.9999999",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// ParseTimestamp accepts the timestamp shapes the backend emits and
// returns the zero time for anything else.
func ParseTimestamp(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t
		}
	}
	return time.Time{}
}

// ToDomainTenant maps the wire model. A missing IsActive means active.
func ToDomainTenant(m TenantModel) tenant.Tenant {
	active := true
	if m.IsActive != nil {
		active = *m.IsActive
	}
	return tenant.Hydrate(
		m.TenantId,
		m.DisplayName,
		m.LogoUrl,
		m.MaxUsers,
		m.MaxCases,
		active,
		ParseTimestamp(m.CreatedAt),
	)
}
