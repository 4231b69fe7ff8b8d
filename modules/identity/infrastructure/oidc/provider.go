// Package oidc talks to the OpenID Connect identity provider: authorize
// redirects, code exchange, refresh grants, ID token claims and end-session.
package oidc

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/mazmed/portal/pkg/configuration"
)

var (
	ErrMissingIDToken = errors.New("token response carries no id_token")
	ErrNonceMismatch  = errors.New("id_token nonce mismatch")
)

// interactionCodes are OAuth error codes that only a fresh interactive
// sign-in can clear.
var interactionCodes = map[string]struct{}{
	"invalid_grant":        {},
	"interaction_required": {},
	"login_required":       {},
	"consent_required":     {},
}

// IDToken is a parsed and claim-validated ID token.
type IDToken struct {
	Raw    string
	Claims map[string]any
	Expiry time.Time
}

type Provider struct {
	clientID     string
	clientSecret string
	authorizeURL string
	tokenURL     string
	logoutURL    string
	issuer       string
	scopes       []string
	leeway       time.Duration
	httpClient   *http.Client
}

// NewProvider is built once per process and shared by every request.
func NewProvider(opts configuration.OIDCOptions, httpClient *http.Client) *Provider {
	authorize, token, logout := opts.Endpoints()
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	scopes := opts.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "profile", "offline_access"}
	}
	return &Provider{
		clientID:     opts.ClientID,
		clientSecret: opts.ClientSecret,
		authorizeURL: authorize,
		tokenURL:     token,
		logoutURL:    logout,
		issuer:       opts.Issuer,
		scopes:       scopes,
		leeway:       time.Minute,
		httpClient:   httpClient,
	}
}

func (p *Provider) config(redirectURL string) *oauth2.Config {
	return &oauth2.Config{
		ClientID:     p.clientID,
		ClientSecret: p.clientSecret,
		RedirectURL:  redirectURL,
		Scopes:       p.scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:   p.authorizeURL,
			TokenURL:  p.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}
}

func (p *Provider) withClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

// AuthCodeURL builds the authorize redirect. forceLogin adds prompt=login so
// the provider asks for credentials even when it holds a session.
func (p *Provider) AuthCodeURL(redirectURL, state, nonce string, forceLogin bool) string {
	opts := []oauth2.AuthCodeOption{
		oauth2.SetAuthURLParam("nonce", nonce),
		oauth2.SetAuthURLParam("response_mode", "query"),
	}
	if forceLogin {
		opts = append(opts, oauth2.SetAuthURLParam("prompt", "login"))
	}
	return p.config(redirectURL).AuthCodeURL(state, opts...)
}

func (p *Provider) Exchange(ctx context.Context, redirectURL, code string) (*oauth2.Token, error) {
	tok, err := p.config(redirectURL).Exchange(p.withClient(ctx), code)
	if err != nil {
		return nil, errors.Wrap(err, "exchange authorization code")
	}
	return tok, nil
}

// Refresh redeems a refresh token. The returned token keeps the old refresh
// token when the provider does not rotate it.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	src := p.config("").TokenSource(p.withClient(ctx), &oauth2.Token{
		RefreshToken: refreshToken,
		Expiry:       time.Unix(1, 0),
	})
	tok, err := src.Token()
	if err != nil {
		return nil, errors.Wrap(err, "refresh token")
	}
	return tok, nil
}

// ParseIDToken validates audience, issuer, expiry and, when nonce is not
// empty, the nonce. The token arrives straight from the token endpoint over
// TLS, so the signature is not re-verified here.
func (p *Provider) ParseIDToken(raw, nonce string) (*IDToken, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return nil, errors.Wrap(err, "parse id_token")
	}

	opts := []jwt.ParserOption{
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(p.leeway),
		jwt.WithAudience(p.clientID),
	}
	if p.issuer != "" {
		opts = append(opts, jwt.WithIssuer(p.issuer))
	}
	if err := jwt.NewValidator(opts...).Validate(claims); err != nil {
		return nil, errors.Wrap(err, "validate id_token")
	}
	if nonce != "" {
		if got, _ := claims["nonce"].(string); got != nonce {
			return nil, ErrNonceMismatch
		}
	}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return nil, errors.Wrap(err, "id_token exp")
	}
	if exp == nil {
		return nil, errors.New("id_token has no exp claim")
	}
	return &IDToken{Raw: raw, Claims: map[string]any(claims), Expiry: exp.Time}, nil
}

// IDTokenFrom extracts and validates the id_token of a token response.
func (p *Provider) IDTokenFrom(tok *oauth2.Token, nonce string) (*IDToken, error) {
	raw, _ := tok.Extra("id_token").(string)
	if raw == "" {
		return nil, ErrMissingIDToken
	}
	return p.ParseIDToken(raw, nonce)
}

// EndSessionURL targets the provider logout for one account.
func (p *Provider) EndSessionURL(logoutHint, postLogoutRedirectURI string) string {
	q := url.Values{}
	if logoutHint != "" {
		q.Set("logout_hint", logoutHint)
	}
	if postLogoutRedirectURI != "" {
		q.Set("post_logout_redirect_uri", postLogoutRedirectURI)
	}
	q.Set("client_id", p.clientID)
	sep := "?"
	if strings.Contains(p.logoutURL, "?") {
		sep = "&"
	}
	return p.logoutURL + sep + q.Encode()
}

// IsInteractionRequired reports whether err can only be cleared by an
// interactive sign-in.
func IsInteractionRequired(err error) bool {
	var re *oauth2.RetrieveError
	if !errors.As(err, &re) {
		return false
	}
	_, ok := interactionCodes[re.ErrorCode]
	return ok
}
