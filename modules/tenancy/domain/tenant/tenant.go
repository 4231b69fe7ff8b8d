package tenant

import (
	"strings"
	"time"
)

// Tenant is the portal's transient copy of a hospital tenant owned by the backend.
type Tenant struct {
	id          string
	displayName string
	logoURL     string
	maxUsers    int
	maxCases    int
	active      bool
	createdAt   time.Time
}

func Hydrate(
	id string,
	displayName string,
	logoURL string,
	maxUsers int,
	maxCases int,
	active bool,
	createdAt time.Time,
) Tenant {
	return Tenant{
		id:          strings.TrimSpace(id),
		displayName: strings.TrimSpace(displayName),
		logoURL:     strings.TrimSpace(logoURL),
		maxUsers:    maxUsers,
		maxCases:    maxCases,
		active:      active,
		createdAt:   createdAt,
	}
}

func (t Tenant) ID() string           { return t.id }
func (t Tenant) DisplayName() string  { return t.displayName }
func (t Tenant) LogoURL() string      { return t.logoURL }
func (t Tenant) MaxUsers() int        { return t.maxUsers }
func (t Tenant) MaxCases() int        { return t.maxCases }
func (t Tenant) IsActive() bool       { return t.active }
func (t Tenant) CreatedAt() time.Time { return t.createdAt }
func (t Tenant) IsZero() bool         { return t.id == "" && t.displayName == "" }

// Name falls back to the identifier when the backend sent no display name.
func (t Tenant) Name() string {
	if t.displayName != "" {
		return t.displayName
	}
	return t.id
}

// Resolution is the outcome of host-based tenant resolution for one request.
// A zero TenantID means the platform context.
type Resolution struct {
	TenantID string
	Tenant   Tenant
}

func (r Resolution) Platform() bool {
	return r.TenantID == ""
}
