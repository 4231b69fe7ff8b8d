package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/modules/identity/infrastructure/oidc"
	"github.com/mazmed/portal/pkg/composables"
	"github.com/mazmed/portal/pkg/configuration"
	"github.com/mazmed/portal/pkg/metrics"
)

// ErrInteractionRequired means silent acquisition cannot succeed and the
// user has to sign in interactively.
var ErrInteractionRequired = errors.New("interaction required")

// IdentityProvider is the subset of the OIDC adapter the auth flow needs.
type IdentityProvider interface {
	AuthCodeURL(redirectURL, state, nonce string, forceLogin bool) string
	Exchange(ctx context.Context, redirectURL, code string) (*oauth2.Token, error)
	Refresh(ctx context.Context, refreshToken string) (*oauth2.Token, error)
	IDTokenFrom(tok *oauth2.Token, nonce string) (*oidc.IDToken, error)
	EndSessionURL(logoutHint, postLogoutRedirectURI string) string
}

type AuthOptions struct {
	SessionDuration time.Duration
	TokenSkew       time.Duration
	TokenKind       string
}

// LoginRequest is the state carried from the sign-in redirect to the callback.
type LoginRequest struct {
	URL   string
	State string
	Nonce string
}

type AuthService struct {
	provider IdentityProvider
	store    session.Store
	opts     AuthOptions
	now      func() time.Time
}

func NewAuthService(provider IdentityProvider, store session.Store, opts AuthOptions) *AuthService {
	if opts.SessionDuration <= 0 {
		opts.SessionDuration = 12 * time.Hour
	}
	if opts.TokenKind == "" {
		opts.TokenKind = configuration.TokenKindID
	}
	return &AuthService{provider: provider, store: store, opts: opts, now: time.Now}
}

func (s *AuthService) TokenKind() string {
	return s.opts.TokenKind
}

// BeginLogin prepares an authorize redirect. forceLogin sends prompt=login.
func (s *AuthService) BeginLogin(redirectURL string, forceLogin bool) (LoginRequest, error) {
	state, err := randomToken(16)
	if err != nil {
		return LoginRequest{}, err
	}
	nonce, err := randomToken(16)
	if err != nil {
		return LoginRequest{}, err
	}
	return LoginRequest{
		URL:   s.provider.AuthCodeURL(redirectURL, state, nonce, forceLogin),
		State: state,
		Nonce: nonce,
	}, nil
}

// CompleteLogin redeems the authorization code and opens a portal session.
func (s *AuthService) CompleteLogin(ctx context.Context, redirectURL, code, nonce string) (*session.Session, error) {
	tok, err := s.provider.Exchange(ctx, redirectURL, code)
	if err != nil {
		return nil, err
	}
	idToken, err := s.provider.IDTokenFrom(tok, nonce)
	if err != nil {
		return nil, err
	}
	id, err := randomToken(24)
	if err != nil {
		return nil, err
	}

	now := s.now()
	sess := &session.Session{
		ID:        id,
		CreatedAt: now,
		ExpiresAt: now.Add(s.opts.SessionDuration),
	}
	applyToken(sess, tok, idToken)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "save session")
	}

	ident := sess.Identity()
	composables.UseLogger(ctx).WithFields(logrus.Fields{
		"user":   ident.Username(),
		"tenant": ident.TenantID(),
	}).Info("session created")
	return sess, nil
}

// AcquireTokenSilent returns the session with a usable bearer token. The
// cached token wins while it stays valid past the configured skew; otherwise
// the refresh token is redeemed. Missing sessions return
// session.ErrSessionNotFound.
func (s *AuthService) AcquireTokenSilent(ctx context.Context, sessionID string) (*session.Session, error) {
	sess, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.tokenFresh(sess) {
		metrics.TokenAcquisitions.WithLabelValues("cache").Inc()
		return sess, nil
	}

	if sess.RefreshToken == "" {
		metrics.TokenAcquisitions.WithLabelValues("interaction_required").Inc()
		return nil, ErrInteractionRequired
	}
	tok, err := s.provider.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		if oidc.IsInteractionRequired(err) {
			metrics.TokenAcquisitions.WithLabelValues("interaction_required").Inc()
			return nil, errors.Wrap(ErrInteractionRequired, err.Error())
		}
		metrics.TokenAcquisitions.WithLabelValues("error").Inc()
		return nil, err
	}

	idToken, err := s.provider.IDTokenFrom(tok, "")
	switch {
	case err == nil:
	case errors.Is(err, oidc.ErrMissingIDToken) && s.opts.TokenKind == configuration.TokenKindAccess:
		idToken = nil
	default:
		metrics.TokenAcquisitions.WithLabelValues("interaction_required").Inc()
		return nil, errors.Wrap(ErrInteractionRequired, err.Error())
	}

	applyToken(sess, tok, idToken)
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, errors.Wrap(err, "save refreshed session")
	}
	metrics.TokenAcquisitions.WithLabelValues("refresh").Inc()
	return sess, nil
}

// Logout drops the portal session and returns the provider end-session URL
// for the account that owned it. The URL is returned even when the store
// fails, so the provider session still ends; the store error comes with it.
func (s *AuthService) Logout(ctx context.Context, sessionID, postLogoutRedirectURI string) (string, error) {
	var hint string
	var storeErr error
	if sessionID != "" {
		if sess, err := s.store.Get(ctx, sessionID); err == nil {
			hint = sess.Identity().LogoutHint()
		}
		if err := s.store.Delete(ctx, sessionID); err != nil {
			storeErr = errors.Wrap(err, "delete session")
		}
	}
	return s.provider.EndSessionURL(hint, postLogoutRedirectURI), storeErr
}

func (s *AuthService) tokenFresh(sess *session.Session) bool {
	now := s.now()
	if s.opts.TokenKind == configuration.TokenKindAccess {
		return sess.AccessToken != "" && now.Add(s.opts.TokenSkew).Before(sess.TokenExpiry)
	}
	return sess.TokenFresh(now, s.opts.TokenSkew)
}

func applyToken(sess *session.Session, tok *oauth2.Token, idToken *oidc.IDToken) {
	sess.AccessToken = tok.AccessToken
	sess.TokenType = tok.TokenType
	sess.TokenExpiry = tok.Expiry
	if tok.RefreshToken != "" {
		sess.RefreshToken = tok.RefreshToken
	}
	if idToken != nil {
		sess.IDToken = idToken.Raw
		sess.IDTokenExp = idToken.Expiry
		sess.Claims = idToken.Claims
	}
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "read random bytes")
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
