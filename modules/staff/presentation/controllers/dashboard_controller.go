package controllers

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"

	identitymw "github.com/mazmed/portal/modules/identity/middleware"
	"github.com/mazmed/portal/modules/staff/presentation/dtos"
	"github.com/mazmed/portal/modules/staff/presentation/templates/pages"
	"github.com/mazmed/portal/modules/staff/presentation/viewmodels"
	"github.com/mazmed/portal/modules/staff/services"
	"github.com/mazmed/portal/pkg/apiclient"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/views"
)

const (
	DashboardPath  = "/dashboard"
	StaffPath      = "/staff"
	AdminHomePath  = "/admin/tenants"
	loadErrorText  = "Failed to load tenant data"
	createFallback = "Failed to create user"
)

type DashboardController struct {
	app  application.Application
	conf *configuration.Configuration
}

func NewDashboardController(app application.Application, conf *configuration.Configuration) application.Controller {
	return &DashboardController{app: app, conf: conf}
}

func (c *DashboardController) Key() string {
	return DashboardPath
}

func (c *DashboardController) Register(r *mux.Router) {
	middlewares := []mux.MiddlewareFunc{
		identitymw.RedirectNotAuthenticated(),
		requireTenantUser(),
	}

	dashboard := r.PathPrefix(DashboardPath).Subrouter()
	dashboard.Use(middlewares...)
	dashboard.HandleFunc("", c.Dashboard).Methods(http.MethodGet)

	staffRouter := r.PathPrefix(StaffPath).Subrouter()
	staffRouter.Use(middlewares...)
	staffRouter.HandleFunc("", c.CreateStaff).Methods(http.MethodPost)
}

// requireTenantUser sends platform admins to their console; the staff
// view has nothing to show without a tenant token.
func requireTenantUser() mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ident, err := composables.UseIdentity(r.Context()); err == nil && ident.IsPlatformAdmin() {
				http.Redirect(w, r, AdminHomePath, http.StatusFound)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (c *DashboardController) staffService() *services.StaffService {
	return c.app.Service(services.StaffService{}).(*services.StaffService)
}

func (c *DashboardController) render(w http.ResponseWriter, r *http.Request, status int, content *viewmodels.Dashboard, flash *composables.Flash) {
	title := "Portal"
	if content.DisplayName != "" {
		title = content.DisplayName + " Portal"
	}
	page := views.NewPage(r.Context(), title, content).WithFlash(flash)
	pages.Renderer().Render(w, r, status, "dashboard", page)
}

// load renders the failed-load state itself and reports false.
func (c *DashboardController) load(w http.ResponseWriter, r *http.Request, form *dtos.CreateStaffDTO) (*viewmodels.Dashboard, bool) {
	d, err := c.staffService().Dashboard(r.Context())
	if err != nil {
		composables.UseLogger(r.Context()).WithError(err).Error("failed to load staff dashboard")
		c.render(w, r, http.StatusBadGateway, &viewmodels.Dashboard{}, &composables.Flash{
			Error:   true,
			Message: apiclient.Message(err, loadErrorText),
		})
		return nil, false
	}
	ident, _ := composables.UseIdentity(r.Context())
	return viewmodels.NewDashboard(d, ident.DisplayName(), ident.TenantID(), form), true
}

func (c *DashboardController) Dashboard(w http.ResponseWriter, r *http.Request) {
	flash := composables.UseFlashMessage(w, r, c.conf.FlashCookieKey)
	vm, ok := c.load(w, r, dtos.NewCreateStaffDTO())
	if !ok {
		return
	}
	c.render(w, r, http.StatusOK, vm, flash)
}

func (c *DashboardController) CreateStaff(w http.ResponseWriter, r *http.Request) {
	logger := composables.UseLogger(r.Context())
	dto, err := composables.UseForm(dtos.NewCreateStaffDTO(), r)
	if err != nil {
		logger.WithError(err).Warn("invalid staff form")
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}
	dto.Normalize()

	if errs, ok := dto.Ok(); !ok {
		vm, loaded := c.load(w, r, dto)
		if !loaded {
			return
		}
		vm.Errors = errs
		c.render(w, r, http.StatusUnprocessableEntity, vm, nil)
		return
	}

	if err := c.staffService().Create(r.Context(), dto.ToParams()); err != nil {
		logger.WithError(err).WithField("email", dto.Email).Error("failed to create staff member")
		vm, loaded := c.load(w, r, dto)
		if !loaded {
			return
		}
		c.render(w, r, http.StatusOK, vm, &composables.Flash{
			Error:   true,
			Message: apiclient.Message(err, createFallback),
		})
		return
	}

	if err := composables.SetFlashJSON(w, c.conf.FlashCookieKey, composables.Flash{
		Message: fmt.Sprintf("Added %s %s.", dto.Role, dto.Name),
	}); err != nil {
		logger.WithError(err).Warn("failed to set flash")
	}
	http.Redirect(w, r, DashboardPath, http.StatusSeeOther)
}
