package controllers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/identity/infrastructure/oidc"
	"github.com/mazmed/portal/modules/identity/infrastructure/persistence"
	identitymw "github.com/mazmed/portal/modules/identity/middleware"
	"github.com/mazmed/portal/modules/identity/presentation/controllers"
	"github.com/mazmed/portal/modules/identity/services"
	"github.com/mazmed/portal/pkg/application"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
)

type stubProvider struct {
	nonce      string
	redirect   string
	refreshErr error
}

func (p *stubProvider) AuthCodeURL(redirectURL, state, nonce string, forceLogin bool) string {
	p.nonce = nonce
	p.redirect = redirectURL
	v := url.Values{"state": {state}, "redirect_uri": {redirectURL}}
	if forceLogin {
		v.Set("prompt", "login")
	}
	return "https://idp.test/authorize?" + v.Encode()
}

func (p *stubProvider) Exchange(_ context.Context, redirectURL, code string) (*oauth2.Token, error) {
	if code != "good" || redirectURL != p.redirect {
		return nil, &oauth2.RetrieveError{ErrorCode: "invalid_grant"}
	}
	return &oauth2.Token{AccessToken: "at", RefreshToken: "rt", Expiry: time.Now().Add(time.Hour)}, nil
}

func (p *stubProvider) Refresh(context.Context, string) (*oauth2.Token, error) {
	return nil, p.refreshErr
}

func (p *stubProvider) IDTokenFrom(_ *oauth2.Token, nonce string) (*oidc.IDToken, error) {
	if nonce != p.nonce {
		return nil, oidc.ErrNonceMismatch
	}
	return &oidc.IDToken{
		Raw: "raw-id-token",
		Claims: map[string]any{
			"name":                      "Dr X",
			"preferred_username":        "dr.x@tula.com",
			"login_hint":                "hint-123",
			"extension_abc123_TenantId": "tula",
		},
		Expiry: time.Now().Add(time.Hour),
	}, nil
}

func (p *stubProvider) EndSessionURL(hint, redirect string) string {
	v := url.Values{"logout_hint": {hint}, "post_logout_redirect_uri": {redirect}, "client_id": {"client"}}
	return "https://idp.test/logout?" + v.Encode()
}

type fixture struct {
	conf     *configuration.Configuration
	provider *stubProvider
	store    *persistence.MemorySessionStore
	router   *mux.Router
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithStore(t, nil)
}

// newFixtureWithStore lets wrap replace the session store seen by the service.
func newFixtureWithStore(t *testing.T, wrap func(*persistence.MemorySessionStore) session.Store) *fixture {
	t.Helper()
	conf := &configuration.Configuration{
		GoAppEnvironment:    "development",
		SidCookieKey:        "portal_sid",
		OauthStateCookieKey: "portal_oauth_state",
		FlashCookieKey:      "portal_flash",
	}
	conf.OIDC.CallbackPath = "/auth/callback"

	provider := &stubProvider{}
	store := persistence.NewMemorySessionStore()
	var serviceStore session.Store = store
	if wrap != nil {
		serviceStore = wrap(store)
	}
	app := application.New(&application.ApplicationOptions{})
	app.RegisterServices(services.NewAuthService(provider, serviceStore, services.AuthOptions{
		SessionDuration: time.Hour,
		TokenSkew:       5 * time.Minute,
	}))

	r := mux.NewRouter()
	r.Use(identitymw.Authorize(app, identitymw.Options{Conf: conf}))
	controllers.NewAuthController(app, controllers.AuthControllerOptions{Conf: conf}).Register(r)

	protected := r.PathPrefix("/dashboard").Subrouter()
	protected.Use(identitymw.RedirectNotAuthenticated())
	protected.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		ident, _ := composables.UseIdentity(r.Context())
		token, _ := composables.UseBearerToken(r.Context())
		_, _ = w.Write([]byte(ident.Username() + "|" + ident.TenantID() + "|" + token))
	})
	r.HandleFunc("/portal/api/session", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return &fixture{conf: conf, provider: provider, store: store, router: r}
}

func (f *fixture) do(method, target string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	req.Host = "tula.localhost:3200"
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (f *fixture) signIn(t *testing.T) *http.Cookie {
	t.Helper()
	rec := f.do(http.MethodGet, "/auth/signin")
	require.Equal(t, http.StatusFound, rec.Code)
	stateCookie := cookieNamed(rec, "portal_oauth_state")
	require.NotNil(t, stateCookie)

	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	state := loc.Query().Get("state")

	rec = f.do(http.MethodGet, "/auth/callback?code=good&state="+url.QueryEscape(state), stateCookie)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	sid := cookieNamed(rec, "portal_sid")
	require.NotNil(t, sid)
	require.True(t, sid.HttpOnly)
	require.Empty(t, sid.Domain)
	return sid
}

func TestSignIn_ForcesLoginPrompt(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/auth/signin")
	require.Equal(t, http.StatusFound, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "login", loc.Query().Get("prompt"))
	require.Equal(t, "http://tula.localhost:3200/auth/callback", loc.Query().Get("redirect_uri"))

	rec = f.do(http.MethodGet, "/auth/signin?interactive=1")
	loc, err = url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Empty(t, loc.Query().Get("prompt"))
}

func TestCallback_CreatesSessionAndAuthorizes(t *testing.T) {
	f := newFixture(t)
	sid := f.signIn(t)

	rec := f.do(http.MethodGet, "/dashboard", sid)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "dr.x@tula.com|tula|raw-id-token", rec.Body.String())
}

func TestCallback_RejectsStateMismatch(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/auth/signin")
	stateCookie := cookieNamed(rec, "portal_oauth_state")

	rec = f.do(http.MethodGet, "/auth/callback?code=good&state=forged", stateCookie)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "Authentication failed. Please refresh.")
	require.Nil(t, cookieNamed(rec, "portal_sid"))
}

func TestCallback_ProviderError(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/auth/callback?error=access_denied")
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "Authentication failed. Please refresh.")
}

func TestAnonymousIsRedirectedToLanding(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/dashboard")
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
}

func TestUnknownSessionClearsCookie(t *testing.T) {
	f := newFixture(t)
	rec := f.do(http.MethodGet, "/dashboard", &http.Cookie{Name: "portal_sid", Value: "gone"})
	require.Equal(t, http.StatusFound, rec.Code)
	cleared := cookieNamed(rec, "portal_sid")
	require.NotNil(t, cleared)
	require.Less(t, cleared.MaxAge, 0)
}

func TestInteractionRequiredRedirectsToInteractiveSignIn(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.store.Save(context.Background(), &session.Session{
		ID:         "stale",
		IDToken:    "old",
		IDTokenExp: time.Now().Add(-time.Minute),
		ExpiresAt:  time.Now().Add(time.Hour),
	}))
	sid := &http.Cookie{Name: "portal_sid", Value: "stale"}

	rec := f.do(http.MethodGet, "/dashboard", sid)
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, identitymw.InteractiveSignInPath, rec.Header().Get("Location"))

	rec = f.do(http.MethodGet, "/portal/api/session", sid)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "INTERACTION_REQUIRED")

	rec = f.do(http.MethodGet, "/auth/signin?interactive=1", sid)
	require.Equal(t, http.StatusFound, rec.Code)
	require.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://idp.test/authorize"))
}

func TestRefreshFailureRendersAuthFailed(t *testing.T) {
	f := newFixture(t)
	f.provider.refreshErr = context.DeadlineExceeded
	require.NoError(t, f.store.Save(context.Background(), &session.Session{
		ID:           "s1",
		RefreshToken: "rt",
		ExpiresAt:    time.Now().Add(time.Hour),
	}))

	rec := f.do(http.MethodGet, "/dashboard", &http.Cookie{Name: "portal_sid", Value: "s1"})
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "Authentication failed. Please refresh.")
}

func TestLogout_RedirectsToEndSession(t *testing.T) {
	f := newFixture(t)
	sid := f.signIn(t)

	rec := f.do(http.MethodPost, "/auth/logout", sid)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "idp.test", loc.Host)
	require.Equal(t, "hint-123", loc.Query().Get("logout_hint"))
	require.Equal(t, "http://tula.localhost:3200", loc.Query().Get("post_logout_redirect_uri"))

	cleared := cookieNamed(rec, "portal_sid")
	require.NotNil(t, cleared)
	require.Less(t, cleared.MaxAge, 0)

	_, err = f.store.Get(context.Background(), sid.Value)
	require.ErrorIs(t, err, session.ErrSessionNotFound)
}

type deleteFailsStore struct {
	*persistence.MemorySessionStore
}

func (deleteFailsStore) Delete(context.Context, string) error {
	return errors.New("redis down")
}

func TestLogout_StoreFailureStillSignsOutAtProvider(t *testing.T) {
	f := newFixtureWithStore(t, func(m *persistence.MemorySessionStore) session.Store {
		return deleteFailsStore{m}
	})
	sid := f.signIn(t)

	rec := f.do(http.MethodPost, "/auth/logout", sid)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	require.Equal(t, "idp.test", loc.Host)
	require.Equal(t, "hint-123", loc.Query().Get("logout_hint"))

	cleared := cookieNamed(rec, "portal_sid")
	require.NotNil(t, cleared)
	require.Less(t, cleared.MaxAge, 0)
}
