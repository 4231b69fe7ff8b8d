package dtos

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mazmed/portal/modules/superadmin/domain"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/constants"
)

const (
	DefaultMaxUsers = 10
	DefaultMaxCases = 100
)

type CreateTenantDTO struct {
	TenantID   string `form:"tenantId" validate:"required,max=63"`
	TenantName string `form:"tenantName" validate:"required"`
	AdminName  string `form:"adminName" validate:"required"`
	AdminEmail string `form:"adminEmail" validate:"required,email"`
	LogoURL    string `form:"logoUrl" validate:"omitempty,url"`
	MaxUsers   int    `form:"maxUsers" validate:"gte=0"`
	MaxCases   int    `form:"maxCases" validate:"gte=0"`
}

// NewCreateTenantDTO returns the blank creation form with default limits.
func NewCreateTenantDTO() *CreateTenantDTO {
	return &CreateTenantDTO{MaxUsers: DefaultMaxUsers, MaxCases: DefaultMaxCases}
}

// Normalize sanitizes the tenant identifier and trims free-text fields.
func (d *CreateTenantDTO) Normalize() {
	d.TenantID = tenant.SanitizeID(d.TenantID)
	d.TenantName = strings.TrimSpace(d.TenantName)
	d.AdminName = strings.TrimSpace(d.AdminName)
	d.AdminEmail = strings.TrimSpace(d.AdminEmail)
	d.LogoURL = strings.TrimSpace(d.LogoURL)
}

// Ok validates the form and returns a message per failing field.
func (d *CreateTenantDTO) Ok() (map[string]string, bool) {
	return validate(d, map[string]string{
		"TenantID":   "Subdomain (Tenant ID)",
		"TenantName": "Display Name",
		"AdminName":  "Admin Name",
		"AdminEmail": "Admin Email",
		"LogoURL":    "Logo URL",
		"MaxUsers":   "Max Users",
		"MaxCases":   "Max Cases",
	})
}

func (d *CreateTenantDTO) ToParams() domain.CreateTenantParams {
	return domain.CreateTenantParams{
		TenantID:   d.TenantID,
		TenantName: d.TenantName,
		AdminName:  d.AdminName,
		AdminEmail: d.AdminEmail,
		LogoURL:    d.LogoURL,
		MaxUsers:   d.MaxUsers,
		MaxCases:   d.MaxCases,
	}
}

type UpdateTenantDTO struct {
	DisplayName string `form:"DisplayName" validate:"required"`
	LogoURL     string `form:"LogoUrl" validate:"omitempty,url"`
	MaxUsers    int    `form:"MaxUsers" validate:"gte=0"`
	MaxCases    int    `form:"MaxCases" validate:"gte=0"`
	IsActive    bool   `form:"IsActive"`
}

// UpdateTenantDTOFrom pre-fills the edit form from a list row.
func UpdateTenantDTOFrom(t tenant.Tenant) *UpdateTenantDTO {
	return &UpdateTenantDTO{
		DisplayName: t.DisplayName(),
		LogoURL:     t.LogoURL(),
		MaxUsers:    t.MaxUsers(),
		MaxCases:    t.MaxCases(),
		IsActive:    t.IsActive(),
	}
}

func (d *UpdateTenantDTO) Normalize() {
	d.DisplayName = strings.TrimSpace(d.DisplayName)
	d.LogoURL = strings.TrimSpace(d.LogoURL)
}

func (d *UpdateTenantDTO) Ok() (map[string]string, bool) {
	return validate(d, map[string]string{
		"DisplayName": "Display Name",
		"LogoURL":     "Logo URL",
		"MaxUsers":    "Max Users",
		"MaxCases":    "Max Cases",
	})
}

func (d *UpdateTenantDTO) ToParams() domain.UpdateTenantParams {
	return domain.UpdateTenantParams{
		DisplayName: d.DisplayName,
		LogoURL:     d.LogoURL,
		MaxUsers:    d.MaxUsers,
		MaxCases:    d.MaxCases,
		IsActive:    d.IsActive,
	}
}

func validate(v any, labels map[string]string) (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(v)
	if errs == nil {
		return errorMessages, true
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		errorMessages["form"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range verrs {
		label := labels[err.Field()]
		if label == "" {
			label = err.Field()
		}
		errorMessages[err.Field()] = messageFor(label, err.Tag())
	}
	return errorMessages, false
}

func messageFor(label, tag string) string {
	switch tag {
	case "required":
		return label + " is required"
	case "email":
		return label + " must be a valid email address"
	case "url":
		return label + " must be a valid URL"
	case "gte":
		return label + " must not be negative"
	case "max":
		return label + " is too long"
	default:
		return label + " is invalid"
	}
}
