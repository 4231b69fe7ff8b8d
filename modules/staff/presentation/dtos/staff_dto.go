package dtos

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/mazmed/portal/modules/staff/domain/staff"
	"github.com/mazmed/portal/pkg/constants"
)

type CreateStaffDTO struct {
	Name  string `form:"name" validate:"required"`
	Email string `form:"email" validate:"required,email"`
	Role  string `form:"role" validate:"required,oneof=Doctor Nurse Staff"`
}

func NewCreateStaffDTO() *CreateStaffDTO {
	return &CreateStaffDTO{Role: string(staff.RoleStaff)}
}

func (d *CreateStaffDTO) Normalize() {
	d.Name = strings.TrimSpace(d.Name)
	d.Email = strings.TrimSpace(d.Email)
	if role, ok := staff.ParseRole(d.Role); ok {
		d.Role = string(role)
	}
}

func (d *CreateStaffDTO) Ok() (map[string]string, bool) {
	errorMessages := map[string]string{}
	errs := constants.Validate.Struct(d)
	if errs == nil {
		return errorMessages, true
	}
	verrs, ok := errs.(validator.ValidationErrors)
	if !ok {
		errorMessages["form"] = errs.Error()
		return errorMessages, false
	}
	for _, err := range verrs {
		switch err.Field() {
		case "Name":
			errorMessages["Name"] = "Name is required"
		case "Email":
			errorMessages["Email"] = "Email must be a valid email address"
		case "Role":
			errorMessages["Role"] = "Role must be Doctor, Nurse or Staff"
		}
	}
	return errorMessages, false
}

func (d *CreateStaffDTO) ToParams() staff.CreateParams {
	return staff.CreateParams{Name: d.Name, Email: d.Email, Role: staff.Role(d.Role)}
}
