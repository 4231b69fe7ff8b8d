package api

import (
	"context"
	"net/http"

	"github.com/mazmed/portal/modules/superadmin/domain"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	tenancyapi "github.com/mazmed/portal/modules/tenancy/infrastructure/api"
	"github.com/mazmed/portal/pkg/apiclient"
)

type createTenantRequest struct {
	TenantID   string `json:"tenantId"`
	TenantName string `json:"tenantName"`
	AdminName  string `json:"adminName"`
	AdminEmail string `json:"adminEmail"`
	LogoURL    string `json:"logoUrl"`
	MaxUsers   int    `json:"maxUsers"`
	MaxCases   int    `json:"maxCases"`
}

type createTenantResponse struct {
	TenantID string `json:"tenantId"`
}

// Update bodies reuse the PascalCase keys of the tenant response.
type updateTenantRequest struct {
	DisplayName string `json:"DisplayName"`
	LogoURL     string `json:"LogoUrl"`
	MaxUsers    int    `json:"MaxUsers"`
	MaxCases    int    `json:"MaxCases"`
	IsActive    bool   `json:"IsActive"`
}

type TenantConsoleRepository struct {
	client *apiclient.Client
}

func NewTenantConsoleRepository(client *apiclient.Client) domain.TenantConsoleRepository {
	return &TenantConsoleRepository{client: client}
}

func (r *TenantConsoleRepository) List(ctx context.Context) ([]tenant.Tenant, error) {
	var models []tenancyapi.TenantModel
	if err := r.client.Do(ctx, apiclient.Call{
		Operation: "admin.list_tenants",
		Method:    http.MethodGet,
		Path:      "/api/admin/tenants",
		Result:    &models,
	}); err != nil {
		return nil, err
	}
	out := make([]tenant.Tenant, 0, len(models))
	for _, m := range models {
		out = append(out, tenancyapi.ToDomainTenant(m))
	}
	return out, nil
}

func (r *TenantConsoleRepository) Create(ctx context.Context, params domain.CreateTenantParams) (string, error) {
	var resp createTenantResponse
	if err := r.client.Do(ctx, apiclient.Call{
		Operation: "admin.create_tenant",
		Method:    http.MethodPost,
		Path:      "/api/admin/create-tenant",
		Body: createTenantRequest{
			TenantID:   params.TenantID,
			TenantName: params.TenantName,
			AdminName:  params.AdminName,
			AdminEmail: params.AdminEmail,
			LogoURL:    params.LogoURL,
			MaxUsers:   params.MaxUsers,
			MaxCases:   params.MaxCases,
		},
		Result: &resp,
	}); err != nil {
		return "", err
	}
	if resp.TenantID == "" {
		return params.TenantID, nil
	}
	return resp.TenantID, nil
}

func (r *TenantConsoleRepository) Update(ctx context.Context, tenantID string, params domain.UpdateTenantParams) error {
	return r.client.Do(ctx, apiclient.Call{
		Operation:  "admin.update_tenant",
		Method:     http.MethodPut,
		Path:       "/api/admin/tenants/{tenantId}",
		PathParams: map[string]string{"tenantId": tenantID},
		Body: updateTenantRequest{
			DisplayName: params.DisplayName,
			LogoURL:     params.LogoURL,
			MaxUsers:    params.MaxUsers,
			MaxCases:    params.MaxCases,
			IsActive:    params.IsActive,
		},
	})
}

func (r *TenantConsoleRepository) Delete(ctx context.Context, tenantID string) error {
	return r.client.Do(ctx, apiclient.Call{
		Operation:  "admin.delete_tenant",
		Method:     http.MethodDelete,
		Path:       "/api/admin/tenants/{tenantId}",
		PathParams: map[string]string{"tenantId": tenantID},
	})
}
