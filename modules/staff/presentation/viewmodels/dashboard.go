package viewmodels

import (
	"time"

	"github.com/mazmed/portal/modules/staff/domain/staff"
	"github.com/mazmed/portal/modules/staff/presentation/dtos"
	"github.com/mazmed/portal/modules/staff/services"
)

const dateLayout = "1/2/2006"

type StaffRow struct {
	Name      string
	Email     string
	Role      string
	CreatedAt string
}

type Dashboard struct {
	Loaded      bool
	DisplayName string
	LogoURL     string
	AccountName string
	TenantID    string
	MaxCases    int
	CreatedAt   string
	Staff       []StaffRow
	Roles       []staff.Role
	Form        *dtos.CreateStaffDTO
	Errors      map[string]string
}

// NewDashboard builds the staff view. tenantClaim is the tenant named by
// the signed-in account, shown as-is.
func NewDashboard(d services.Dashboard, accountName, tenantClaim string, form *dtos.CreateStaffDTO) *Dashboard {
	rows := make([]StaffRow, 0, len(d.Staff))
	for _, s := range d.Staff {
		rows = append(rows, StaffRow{
			Name:      s.Name(),
			Email:     s.Email(),
			Role:      string(s.Role()),
			CreatedAt: formatDate(s.CreatedAt()),
		})
	}
	return &Dashboard{
		Loaded:      true,
		DisplayName: d.Tenant.DisplayName(),
		LogoURL:     d.Tenant.LogoURL(),
		AccountName: accountName,
		TenantID:    tenantClaim,
		MaxCases:    d.Tenant.MaxCases(),
		CreatedAt:   formatDate(d.Tenant.CreatedAt()),
		Staff:       rows,
		Roles:       staff.Roles,
		Form:        form,
		Errors:      map[string]string{},
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(dateLayout)
}
