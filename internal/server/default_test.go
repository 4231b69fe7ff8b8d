package server

import (
	"context"
	"encoding/json"
	"html"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/mazmed/portal/modules/core/presentation/controllers"
	"github.com/mazmed/portal/modules/core/presentation/templates/layouts"
	"github.com/mazmed/portal/modules/core/presentation/templates/pages"
	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/identity/infrastructure/oidc"
	"github.com/mazmed/portal/modules/identity/infrastructure/persistence"
	identitycontrollers "github.com/mazmed/portal/modules/identity/presentation/controllers"
	identityservices "github.com/mazmed/portal/modules/identity/services"
	staffapi "github.com/mazmed/portal/modules/staff/infrastructure/api"
	staffcontrollers "github.com/mazmed/portal/modules/staff/presentation/controllers"
	staffservices "github.com/mazmed/portal/modules/staff/services"
	tenancyapi "github.com/mazmed/portal/modules/tenancy/infrastructure/api"
	tenancycontrollers "github.com/mazmed/portal/modules/tenancy/presentation/controllers"
	tenancyservices "github.com/mazmed/portal/modules/tenancy/services"
	"github.com/mazmed/portal/pkg/apiclient"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/routing"
)

func backend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/public/config/tula", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"TenantId":"tula","DisplayName":"Tula Health","MaxUsers":10,"MaxCases":50}`))
	})
	mux.HandleFunc("/api/public/config/other", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"TenantId":"other","DisplayName":"Other Clinic","MaxUsers":5,"MaxCases":5}`))
	})
	mux.HandleFunc("/api/tenant/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer raw-id-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"TenantId":"tula","DisplayName":"Tula Health","MaxUsers":10,"MaxCases":50,"CreatedAt":"2024-01-15T00:00:00Z"}`))
	})
	mux.HandleFunc("/api/tenant/users", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"Name":"Dr X","Email":"dr.x@tula.com","Role":"Doctor"}]`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

type portal struct {
	handler http.Handler
	store   *persistence.MemorySessionStore
}

func newPortal(t *testing.T) *portal {
	t.Helper()
	srv := backend(t)

	conf := &configuration.Configuration{
		GoAppEnvironment:    "development",
		SidCookieKey:        "portal_sid",
		OauthStateCookieKey: "portal_oauth_state",
		FlashCookieKey:      "portal_flash",
		RequestIDHeader:     "X-Request-ID",
		RealIPHeader:        "X-Real-IP",
	}
	conf.API.TokenKind = configuration.TokenKindID
	conf.Tenancy.LoopbackMarker = "localhost"
	conf.OIDC.ClientID = "portal-client"
	conf.OIDC.Authority = "https://login.test/mazmed"

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	app := application.New(&application.ApplicationOptions{Logger: logger})
	client := apiclient.New(apiclient.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	store := persistence.NewMemorySessionStore()
	app.RegisterServices(
		client,
		store,
		tenancyservices.NewResolverService(tenancyapi.NewPublicConfigRepository(client), conf.Tenancy.LoopbackMarker),
		tenancyservices.NewAccessGate(),
		identityservices.NewAuthService(oidc.NewProvider(conf.OIDC, nil), store, identityservices.AuthOptions{
			SessionDuration: time.Hour,
			TokenSkew:       time.Minute,
			TokenKind:       conf.API.TokenKind,
		}),
		staffservices.NewStaffService(staffapi.NewStaffRepository(client), app.EventPublisher()),
	)

	renderer, err := layouts.NewRenderer(pages.FS)
	require.NoError(t, err)
	app.RegisterControllers(
		controllers.NewHomeController(app, renderer),
		controllers.NewHealthController(app),
		tenancycontrollers.NewSessionController(app),
		identitycontrollers.NewAuthController(app, identitycontrollers.AuthControllerOptions{Conf: conf}),
		staffcontrollers.NewDashboardController(app, conf),
	)

	srvInstance, err := Default(&DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
	})
	require.NoError(t, err)
	return &portal{handler: srvInstance.Router(), store: store}
}

func (p *portal) signIn(t *testing.T, claims map[string]any) *http.Cookie {
	t.Helper()
	now := time.Now()
	s := &session.Session{
		ID:          "sid-1",
		AccessToken: "at",
		TokenExpiry: now.Add(time.Hour),
		IDToken:     "raw-id-token",
		IDTokenExp:  now.Add(time.Hour),
		Claims:      claims,
		CreatedAt:   now,
		ExpiresAt:   now.Add(time.Hour),
	}
	require.NoError(t, p.store.Save(context.Background(), s))
	return &http.Cookie{Name: "portal_sid", Value: s.ID}
}

func (p *portal) get(host, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	return p.do(http.MethodGet, host, target, cookies...)
}

func (p *portal) do(method, host, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Host = host
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	p.handler.ServeHTTP(rec, req)
	return rec
}

var doctorClaims = map[string]any{
	"name":                      "Dr X",
	"preferred_username":        "dr.x@tula.com",
	"extension_abc123_TenantId": "tula",
}

func TestDefault_LandingOnTenantHost(t *testing.T) {
	p := newPortal(t)

	rec := p.get("tula.mazmed.com", "/")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Sign In to Tula Health")
	require.Contains(t, body, `<a class="brand" href="/">Tula Health Portal</a>`)
	require.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestDefault_UnknownTenantIsPortalNotFound(t *testing.T) {
	p := newPortal(t)

	rec := p.get("ghost.mazmed.com", "/")
	require.Equal(t, http.StatusNotFound, rec.Code)

	rec = p.get("ghost.mazmed.com", "/health")
	require.Equal(t, http.StatusOK, rec.Code, "ops routes skip tenant resolution")
}

func TestDefault_MatchingTenantLoadsStaffView(t *testing.T) {
	p := newPortal(t)
	sid := p.signIn(t, doctorClaims)

	rec := p.get("tula.mazmed.com", "/dashboard", sid)
	require.Equal(t, http.StatusOK, rec.Code)
	body := html.UnescapeString(rec.Body.String())
	require.Contains(t, body, "Tula Health Portal")
	require.Contains(t, body, "Welcome, Dr X")
	require.Contains(t, body, "Max Cases Allowed: 50")
}

func TestDefault_MismatchedTenantIsDenied(t *testing.T) {
	p := newPortal(t)
	sid := p.signIn(t, doctorClaims)

	rec := p.get("other.mazmed.com", "/dashboard", sid)
	require.Equal(t, http.StatusForbidden, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "Access Denied")
	require.Contains(t, body, "<strong>tula</strong>")
	require.Contains(t, body, "<strong>other</strong>")
}

func TestDefault_PlatformAdminBypassesGate(t *testing.T) {
	p := newPortal(t)
	sid := p.signIn(t, map[string]any{"preferred_username": "superadmin@mazmed.com"})

	rec := p.get("other.mazmed.com", "/", sid)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, controllers.AdminHomePath, rec.Header().Get("Location"))
}

func TestDefault_UnknownRouteJSONOnInternalAPI(t *testing.T) {
	p := newPortal(t)

	rec := p.get("mazmed.com", "/portal/api/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), `"NOT_FOUND"`)

	rec = p.get("mazmed.com", "/nope")
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Contains(t, rec.Body.String(), "Page not found")
}

func TestDefault_SessionSnapshot(t *testing.T) {
	p := newPortal(t)
	sid := p.signIn(t, doctorClaims)

	rec := p.get("tula.mazmed.com", "/portal/api/session", sid)
	require.Equal(t, http.StatusOK, rec.Code)

	var snap tenancycontrollers.SessionSnapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	require.False(t, snap.Platform)
	require.True(t, snap.Authenticated)
	require.NotNil(t, snap.Tenant)
	require.Equal(t, "tula", snap.Tenant.TenantID)
	require.Equal(t, 50, snap.Tenant.MaxCases)
	require.NotNil(t, snap.Identity)
	require.Equal(t, "tula", snap.Identity.TenantID)
	require.Equal(t, "allowed", snap.Gate)
}

func TestDefault_MismatchedUserCanStillSignOut(t *testing.T) {
	p := newPortal(t)
	sid := p.signIn(t, map[string]any{
		"preferred_username":        "dr.x@tula.com",
		"login_hint":                "hint-1",
		"extension_abc123_TenantId": "tula",
	})

	rec := p.do(http.MethodPost, "other.mazmed.com", "/auth/logout", sid)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "login.test", loc.Host)
	require.Equal(t, "hint-1", loc.Query().Get("logout_hint"))
	require.Equal(t, "portal-client", loc.Query().Get("client_id"))
}

func TestDefault_MissingAllowlistFailsStartup(t *testing.T) {
	app := application.New(&application.ApplicationOptions{})
	conf := &configuration.Configuration{}
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	_, err := Default(&DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		AllowlistPath: "/nonexistent/allowlist.yaml",
	})
	require.ErrorIs(t, err, routing.ErrAllowlistNotFound)
	require.Empty(t, app.Middleware())
}
