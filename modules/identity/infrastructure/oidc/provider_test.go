package oidc

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/mazmed/portal/pkg/configuration"
)

func signedIDToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return tok
}

func newTestProvider(tokenURL string) *Provider {
	return NewProvider(configuration.OIDCOptions{
		ClientID:     "portal-client",
		ClientSecret: "s3cret",
		AuthorizeURL: "https://idp.example.com/authorize",
		TokenURL:     tokenURL,
		LogoutURL:    "https://idp.example.com/logout",
		Issuer:       "https://idp.example.com/v2.0",
	}, nil)
}

func TestProvider_AuthCodeURL(t *testing.T) {
	p := newTestProvider("https://idp.example.com/token")

	raw := p.AuthCodeURL("https://tula.mazmed.com/auth/callback", "state-1", "nonce-1", true)
	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	require.Equal(t, "login", q.Get("prompt"))
	require.Equal(t, "state-1", q.Get("state"))
	require.Equal(t, "nonce-1", q.Get("nonce"))
	require.Equal(t, "openid profile offline_access", q.Get("scope"))
	require.Equal(t, "https://tula.mazmed.com/auth/callback", q.Get("redirect_uri"))
	require.Equal(t, "code", q.Get("response_type"))

	raw = p.AuthCodeURL("https://tula.mazmed.com/auth/callback", "s", "n", false)
	u, err = url.Parse(raw)
	require.NoError(t, err)
	require.Empty(t, u.Query().Get("prompt"))
}

func TestProvider_ParseIDToken(t *testing.T) {
	p := newTestProvider("https://idp.example.com/token")
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	raw := signedIDToken(t, jwt.MapClaims{
		"aud":                       "portal-client",
		"iss":                       "https://idp.example.com/v2.0",
		"exp":                       exp.Unix(),
		"nonce":                     "n-1",
		"name":                      "Dr X",
		"extension_abc123_TenantId": "tula",
	})

	tok, err := p.ParseIDToken(raw, "n-1")
	require.NoError(t, err)
	require.Equal(t, "Dr X", tok.Claims["name"])
	require.True(t, tok.Expiry.Equal(exp))

	_, err = p.ParseIDToken(raw, "other")
	require.ErrorIs(t, err, ErrNonceMismatch)
}

func TestProvider_ParseIDToken_RejectsInvalidClaims(t *testing.T) {
	p := newTestProvider("https://idp.example.com/token")
	cases := map[string]jwt.MapClaims{
		"wrong audience": {"aud": "someone-else", "iss": "https://idp.example.com/v2.0", "exp": time.Now().Add(time.Hour).Unix()},
		"wrong issuer":   {"aud": "portal-client", "iss": "https://evil.example.com", "exp": time.Now().Add(time.Hour).Unix()},
		"expired":        {"aud": "portal-client", "iss": "https://idp.example.com/v2.0", "exp": time.Now().Add(-time.Hour).Unix()},
		"no exp":         {"aud": "portal-client", "iss": "https://idp.example.com/v2.0"},
	}
	for name, claims := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := p.ParseIDToken(signedIDToken(t, claims), "")
			require.Error(t, err)
		})
	}

	_, err := p.ParseIDToken("not-a-jwt", "")
	require.Error(t, err)
}

func TestProvider_ExchangeAndRefresh(t *testing.T) {
	idToken := signedIDToken(t, jwt.MapClaims{
		"aud": "portal-client",
		"iss": "https://idp.example.com/v2.0",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		w.Header().Set("Content-Type", "application/json")
		switch r.PostForm.Get("grant_type") {
		case "authorization_code":
			require.Equal(t, "code-1", r.PostForm.Get("code"))
			require.Equal(t, "portal-client", r.PostForm.Get("client_id"))
			_, _ = w.Write([]byte(`{"access_token":"at-1","refresh_token":"rt-1","token_type":"Bearer","expires_in":3600,"id_token":"` + idToken + `"}`))
		case "refresh_token":
			if r.PostForm.Get("refresh_token") == "revoked" {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"error":"invalid_grant","error_description":"AADB2C90080: The provided grant has expired."}`))
				return
			}
			_, _ = w.Write([]byte(`{"access_token":"at-2","token_type":"Bearer","expires_in":3600,"id_token":"` + idToken + `"}`))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
	t.Cleanup(srv.Close)

	p := newTestProvider(srv.URL)
	ctx := context.Background()

	tok, err := p.Exchange(ctx, "https://tula.mazmed.com/auth/callback", "code-1")
	require.NoError(t, err)
	require.Equal(t, "at-1", tok.AccessToken)
	require.Equal(t, "rt-1", tok.RefreshToken)
	id, err := p.IDTokenFrom(tok, "")
	require.NoError(t, err)
	require.Equal(t, idToken, id.Raw)

	tok, err = p.Refresh(ctx, "rt-1")
	require.NoError(t, err)
	require.Equal(t, "at-2", tok.AccessToken)
	require.Equal(t, "rt-1", tok.RefreshToken)

	_, err = p.Refresh(ctx, "revoked")
	require.Error(t, err)
	require.True(t, IsInteractionRequired(err))
}

func TestProvider_EndSessionURL(t *testing.T) {
	p := newTestProvider("https://idp.example.com/token")
	raw := p.EndSessionURL("dr.x@tula.com", "https://tula.mazmed.com")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	require.Equal(t, "idp.example.com", u.Host)
	require.Equal(t, "dr.x@tula.com", u.Query().Get("logout_hint"))
	require.Equal(t, "https://tula.mazmed.com", u.Query().Get("post_logout_redirect_uri"))
	require.Equal(t, "portal-client", u.Query().Get("client_id"))
}

func TestIsInteractionRequired_OtherErrors(t *testing.T) {
	require.False(t, IsInteractionRequired(nil))
	require.False(t, IsInteractionRequired(context.DeadlineExceeded))
}
