package controllers

import (
	"net/http"

	"github.com/gorilla/mux"

	tenancymw "github.com/mazmed/portal/modules/tenancy/middleware"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/httpapi"
)

type TenantDTO struct {
	TenantID    string `json:"tenantId"`
	DisplayName string `json:"displayName"`
	LogoURL     string `json:"logoUrl,omitempty"`
	MaxUsers    int    `json:"maxUsers"`
	MaxCases    int    `json:"maxCases"`
	IsActive    bool   `json:"isActive"`
}

type IdentityDTO struct {
	Name          string `json:"name"`
	Username      string `json:"username"`
	TenantID      string `json:"tenantId,omitempty"`
	PlatformAdmin bool   `json:"platformAdmin"`
}

type SessionSnapshot struct {
	Platform      bool         `json:"platform"`
	Tenant        *TenantDTO   `json:"tenant"`
	Authenticated bool         `json:"authenticated"`
	Identity      *IdentityDTO `json:"identity"`
	Gate          string       `json:"gate,omitempty"`
}

// SessionController reports what the portal resolved for the current request.
type SessionController struct {
	app application.Application
}

func NewSessionController(app application.Application) application.Controller {
	return &SessionController{app: app}
}

func (c *SessionController) Key() string {
	return "/portal/api/session"
}

func (c *SessionController) Register(r *mux.Router) {
	r.HandleFunc("/portal/api/session", c.Get).Methods(http.MethodGet)
}

func (c *SessionController) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	snap := SessionSnapshot{Platform: true}

	if res, err := composables.UseResolution(ctx); err == nil && !res.Platform() {
		t := res.Tenant
		snap.Platform = false
		snap.Tenant = &TenantDTO{
			TenantID:    res.TenantID,
			DisplayName: t.Name(),
			LogoURL:     t.LogoURL(),
			MaxUsers:    t.MaxUsers(),
			MaxCases:    t.MaxCases(),
			IsActive:    t.IsActive(),
		}
	}
	if ident, err := composables.UseIdentity(ctx); err == nil {
		snap.Authenticated = true
		snap.Identity = &IdentityDTO{
			Name:          ident.DisplayName(),
			Username:      ident.Username(),
			TenantID:      ident.TenantID(),
			PlatformAdmin: ident.IsPlatformAdmin(),
		}
	}
	if result, ok := tenancymw.UseGateResult(ctx); ok {
		snap.Gate = string(result.Decision)
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, snap)
}
