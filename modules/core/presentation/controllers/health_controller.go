package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/httpapi"
)

// HealthCheck is implemented by registered services that depend on an
// external resource worth probing for readiness.
type HealthCheck interface {
	HealthName() string
	Ping(ctx context.Context) error
}

type HealthController struct {
	app     application.Application
	timeout time.Duration
}

func NewHealthController(app application.Application) application.Controller {
	return &HealthController{app: app, timeout: 2 * time.Second}
}

func (c *HealthController) Key() string {
	return "/health"
}

func (c *HealthController) Register(r *mux.Router) {
	r.HandleFunc("/health", c.Live).Methods(http.MethodGet)
	r.HandleFunc("/healthz", c.Ready).Methods(http.MethodGet)
}

func (c *HealthController) Live(w http.ResponseWriter, r *http.Request) {
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready pings every registered HealthCheck and reports 503 if any fails.
func (c *HealthController) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
	defer cancel()

	checks := map[string]string{}
	status := http.StatusOK
	for _, svc := range c.app.Services() {
		hc, ok := svc.(HealthCheck)
		if !ok {
			continue
		}
		if err := hc.Ping(ctx); err != nil {
			checks[hc.HealthName()] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[hc.HealthName()] = "ok"
	}

	overall := "ok"
	if status != http.StatusOK {
		overall = "degraded"
	}
	_ = httpapi.WriteJSON(w, status, map[string]any{
		"status": overall,
		"checks": checks,
	})
}
