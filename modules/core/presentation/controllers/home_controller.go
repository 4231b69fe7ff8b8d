package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mazmed/portal/modules/core/presentation/viewmodels"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/views"
)

const (
	AdminHomePath = "/admin/tenants"
	StaffHomePath = "/dashboard"
)

type HomeController struct {
	app      application.Application
	renderer *views.Renderer
}

func NewHomeController(app application.Application, renderer *views.Renderer) application.Controller {
	return &HomeController{app: app, renderer: renderer}
}

func (c *HomeController) Key() string {
	return "/"
}

func (c *HomeController) Register(r *mux.Router) {
	r.HandleFunc("/", c.Home).Methods(http.MethodGet)
}

// Home shows the landing page to anonymous visitors and sends signed-in
// users to the dashboard matching their role.
func (c *HomeController) Home(w http.ResponseWriter, r *http.Request) {
	ident, err := composables.UseIdentity(r.Context())
	if err != nil {
		t, ok := composables.UseTenant(r.Context())
		landing := viewmodels.NewLanding(t, ok)
		title := views.SiteTitle
		if landing.Tenant {
			title = landing.DisplayName + " Portal"
		}
		c.renderer.Render(w, r, http.StatusOK, "landing", views.NewPage(r.Context(), title, landing))
		return
	}
	if ident.IsPlatformAdmin() {
		http.Redirect(w, r, AdminHomePath, http.StatusFound)
		return
	}
	http.Redirect(w, r, StaffHomePath, http.StatusFound)
}
