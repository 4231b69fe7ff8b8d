package application

import (
	"net/http"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
)

type pingService struct{ calls int }

type stubController struct{ key string }

func (c *stubController) Key() string          { return c.key }
func (c *stubController) Register(*mux.Router) {}

func TestApplication_ServiceRegistry(t *testing.T) {
	app := New(&ApplicationOptions{})
	svc := &pingService{}
	app.RegisterServices(svc)

	got := app.Service(pingService{}).(*pingService)
	require.Same(t, svc, got)
	require.Same(t, http.DefaultClient, app.HTTPClient())
	require.NotNil(t, app.EventPublisher())
}

func TestApplication_ServiceMissingPanics(t *testing.T) {
	app := New(&ApplicationOptions{})
	require.Panics(t, func() {
		_ = app.Service(pingService{})
	})
}

func TestApplication_ControllersOrderedByKey(t *testing.T) {
	app := New(&ApplicationOptions{})
	app.RegisterControllers(&stubController{key: "/staff"}, &stubController{key: "/admin"}, &stubController{key: "/auth"})
	app.RegisterControllers(&stubController{key: "/auth"})

	controllers := app.Controllers()
	require.Len(t, controllers, 3)
	require.Equal(t, "/admin", controllers[0].Key())
	require.Equal(t, "/auth", controllers[1].Key())
	require.Equal(t, "/staff", controllers[2].Key())
}
