package api

import (
	"context"
	"net/http"

	"github.com/pkg/errors"

	"github.com/mazmed/portal/modules/staff/domain/staff"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	tenancyapi "github.com/mazmed/portal/modules/tenancy/infrastructure/api"
	"github.com/mazmed/portal/pkg/apiclient"
)

// StaffModel is the backend's PascalCase staff document.
type StaffModel struct {
	Name      string `json:"Name"`
	Email     string `json:"Email"`
	Role      string `json:"Role"`
	CreatedAt string `json:"CreatedAt,omitempty"`
}

type createStaffRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type StaffRepository struct {
	client *apiclient.Client
}

func NewStaffRepository(client *apiclient.Client) staff.Repository {
	return &StaffRepository{client: client}
}

func (r *StaffRepository) CurrentTenant(ctx context.Context) (tenant.Tenant, error) {
	var model tenancyapi.TenantModel
	if err := r.client.Do(ctx, apiclient.Call{
		Operation: "tenant.me",
		Method:    http.MethodGet,
		Path:      "/api/tenant/me",
		Result:    &model,
	}); err != nil {
		return tenant.Tenant{}, errors.Wrap(err, "load current tenant")
	}
	return tenancyapi.ToDomainTenant(model), nil
}

func (r *StaffRepository) List(ctx context.Context) ([]staff.Staff, error) {
	var models []StaffModel
	if err := r.client.Do(ctx, apiclient.Call{
		Operation: "tenant.list_users",
		Method:    http.MethodGet,
		Path:      "/api/tenant/users",
		Result:    &models,
	}); err != nil {
		return nil, errors.Wrap(err, "list staff")
	}
	out := make([]staff.Staff, 0, len(models))
	for _, m := range models {
		out = append(out, ToDomainStaff(m))
	}
	return out, nil
}

func (r *StaffRepository) Create(ctx context.Context, params staff.CreateParams) error {
	return r.client.Do(ctx, apiclient.Call{
		Operation: "tenant.create_user",
		Method:    http.MethodPost,
		Path:      "/api/tenant/users",
		Body: createStaffRequest{
			Name:  params.Name,
			Email: params.Email,
			Role:  string(params.Role),
		},
	})
}

// ToDomainStaff keeps unrecognised roles as sent by the backend.
func ToDomainStaff(m StaffModel) staff.Staff {
	role, ok := staff.ParseRole(m.Role)
	if !ok {
		role = staff.Role(m.Role)
	}
	return staff.Hydrate(m.Name, m.Email, role, tenancyapi.ParseTimestamp(m.CreatedAt))
}
