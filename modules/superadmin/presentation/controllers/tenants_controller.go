package controllers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	identitymw "github.com/mazmed/portal/modules/identity/middleware"
	superadminmw "github.com/mazmed/portal/modules/superadmin/middleware"
	"github.com/mazmed/portal/modules/superadmin/presentation/dtos"
	"github.com/mazmed/portal/modules/superadmin/presentation/templates/pages"
	"github.com/mazmed/portal/modules/superadmin/presentation/viewmodels"
	"github.com/mazmed/portal/modules/superadmin/services"
	"github.com/mazmed/portal/modules/tenancy/domain/tenant"
	"github.com/mazmed/portal/pkg/apiclient"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/views"
)

const pageTitle = "Platform Admin"

type TenantsController struct {
	app      application.Application
	conf     *configuration.Configuration
	basePath string
}

func NewTenantsController(app application.Application, conf *configuration.Configuration) application.Controller {
	return &TenantsController{
		app:      app,
		conf:     conf,
		basePath: "/admin/tenants",
	}
}

func (c *TenantsController) Key() string {
	return c.basePath
}

func (c *TenantsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.Use(
		identitymw.RedirectNotAuthenticated(),
		superadminmw.RequirePlatformAdmin(),
	)
	router.HandleFunc("", c.Index).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}/edit", c.Edit).Methods(http.MethodGet)
	router.HandleFunc("/{id}", c.Update).Methods(http.MethodPost)
	router.HandleFunc("/{id}/delete", c.ConfirmDelete).Methods(http.MethodGet)
	router.HandleFunc("/{id}/delete", c.Delete).Methods(http.MethodPost)
}

func (c *TenantsController) tenantService() *services.TenantService {
	return c.app.Service(services.TenantService{}).(*services.TenantService)
}

func (c *TenantsController) render(w http.ResponseWriter, r *http.Request, status int, name, title string, content any, flash *composables.Flash) {
	page := views.NewPage(r.Context(), title, content).WithFlash(flash)
	pages.Renderer().Render(w, r, status, name, page)
}

func (c *TenantsController) flash(w http.ResponseWriter, r *http.Request, isError bool, message string) {
	if err := composables.SetFlashJSON(w, c.conf.FlashCookieKey, composables.Flash{Error: isError, Message: message}); err != nil {
		composables.UseLogger(r.Context()).WithError(err).Warn("failed to set flash")
	}
}

func (c *TenantsController) redirectToList(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, c.basePath, http.StatusSeeOther)
}

// listPage loads the tenant list; a failed load is shown inline.
func (c *TenantsController) listPage(r *http.Request, form *dtos.CreateTenantDTO) *viewmodels.TenantsPage {
	tenants, err := c.tenantService().List(r.Context())
	page := viewmodels.NewTenantsPage(form, tenants)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to list tenants")
		page.LoadError = apiclient.Message(err, "Failed to load tenants")
	}
	return page
}

func (c *TenantsController) Index(w http.ResponseWriter, r *http.Request) {
	flash := composables.UseFlashMessage(w, r, c.conf.FlashCookieKey)
	c.render(w, r, http.StatusOK, "tenants", pageTitle, c.listPage(r, dtos.NewCreateTenantDTO()), flash)
}

func (c *TenantsController) Create(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context())
	dto, err := composables.UseForm(dtos.NewCreateTenantDTO(), r)
	if err != nil {
		logger.WithError(err).Warn("invalid tenant form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	dto.Normalize()

	if errs, ok := dto.Ok(); !ok {
		page := c.listPage(r, dto)
		page.Errors = errs
		c.render(w, r, http.StatusUnprocessableEntity, "tenants", pageTitle, page, nil)
		return
	}

	id, err := c.tenantService().Create(r.Context(), dto.ToParams())
	if err != nil {
		logger.WithError(err).WithField("tenant", dto.TenantID).Error("failed to create tenant")
		page := c.listPage(r, dto)
		c.render(w, r, http.StatusOK, "tenants", pageTitle, page, &composables.Flash{
			Error:   true,
			Message: apiclient.Message(err, "Failed to create tenant"),
		})
		return
	}

	c.flash(w, r, false, fmt.Sprintf("Success! Created Tenant '%s'.", id))
	c.redirectToList(w, r)
}

func (c *TenantsController) Edit(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	t, err := c.tenantService().Get(r.Context(), id)
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).WithField("tenant", id).Warn("tenant not available for edit")
		msg := fmt.Sprintf("Failed to load tenant '%s': %s", id, apiclient.Describe(err))
		if errors.Is(err, tenant.ErrNotFound) {
			msg = fmt.Sprintf("Tenant '%s' not found.", id)
		}
		c.flash(w, r, true, msg)
		c.redirectToList(w, r)
		return
	}
	c.render(w, r, http.StatusOK, "tenant_edit", "Edit "+id, &viewmodels.TenantEditPage{
		TenantID: id,
		Form:     dtos.UpdateTenantDTOFrom(t),
		Errors:   map[string]string{},
	}, nil)
}

func (c *TenantsController) Update(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	logger := composables.UseLogger(r.Context()).WithField("tenant", id)

	dto, err := composables.UseForm(&dtos.UpdateTenantDTO{}, r)
	if err != nil {
		logger.WithError(err).Warn("invalid tenant form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	dto.Normalize()

	page := &viewmodels.TenantEditPage{TenantID: id, Form: dto, Errors: map[string]string{}}
	if errs, ok := dto.Ok(); !ok {
		page.Errors = errs
		c.render(w, r, http.StatusUnprocessableEntity, "tenant_edit", "Edit "+id, page, nil)
		return
	}

	if err := c.tenantService().Update(r.Context(), id, dto.ToParams()); err != nil {
		logger.WithError(err).Error("failed to update tenant")
		c.render(w, r, http.StatusOK, "tenant_edit", "Edit "+id, page, &composables.Flash{
			Error:   true,
			Message: "Failed to update: " + apiclient.Describe(err),
		})
		return
	}

	c.flash(w, r, false, fmt.Sprintf("Updated Tenant '%s'.", id))
	c.redirectToList(w, r)
}

func (c *TenantsController) ConfirmDelete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	c.render(w, r, http.StatusOK, "tenant_delete", "Delete "+id, &viewmodels.TenantDeletePage{TenantID: id}, nil)
}

func (c *TenantsController) Delete(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	if err := c.tenantService().Delete(r.Context(), id); err != nil {
		composables.UseLogger(r.Context()).WithFields(logrus.Fields{
			"tenant": id,
			"status": apiclient.StatusCode(err),
		}).WithError(err).Error("failed to delete tenant")
		c.flash(w, r, true, "Delete failed: "+apiclient.Describe(err))
		c.redirectToList(w, r)
		return
	}
	c.flash(w, r, false, fmt.Sprintf("Deleted Tenant '%s'.", id))
	c.redirectToList(w, r)
}
