package entities

import "time"

// SuperadminAuditLog records one tenant mutation made from the admin console.
type SuperadminAuditLog struct {
	Action    string
	TenantID  string
	Actor     string
	IPAddress string
	UserAgent string
	Payload   map[string]any
	CreatedAt time.Time
}
