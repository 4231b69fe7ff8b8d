package staff

import (
	"strings"
	"time"
)

type Role string

const (
	RoleDoctor Role = "Doctor"
	RoleNurse  Role = "Nurse"
	RoleStaff  Role = "Staff"
)

var Roles = []Role{RoleDoctor, RoleNurse, RoleStaff}

// ParseRole matches case-insensitively and reports unknown roles.
func ParseRole(raw string) (Role, bool) {
	raw = strings.TrimSpace(raw)
	for _, r := range Roles {
		if strings.EqualFold(raw, string(r)) {
			return r, true
		}
	}
	return "", false
}

// Staff is a tenant user as listed by the backend. Tenant membership is
// implied by the bearer token of the request that loaded it.
type Staff struct {
	name      string
	email     string
	role      Role
	createdAt time.Time
}

func Hydrate(name, email string, role Role, createdAt time.Time) Staff {
	return Staff{
		name:      strings.TrimSpace(name),
		email:     strings.TrimSpace(email),
		role:      role,
		createdAt: createdAt,
	}
}

func (s Staff) Name() string         { return s.name }
func (s Staff) Email() string        { return s.email }
func (s Staff) Role() Role           { return s.role }
func (s Staff) CreatedAt() time.Time { return s.createdAt }
