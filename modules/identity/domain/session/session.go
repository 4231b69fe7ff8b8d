package session

import (
	"context"
	"errors"
	"time"
)

var ErrSessionNotFound = errors.New("session not found")

// Session is the server-side record behind the portal session cookie.
// It plays the role of the identity provider's token cache.
type Session struct {
	ID           string         `json:"id"`
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token,omitempty"`
	TokenType    string         `json:"token_type,omitempty"`
	TokenExpiry  time.Time      `json:"token_expiry"`
	IDToken      string         `json:"id_token"`
	IDTokenExp   time.Time      `json:"id_token_exp"`
	Claims       map[string]any `json:"claims"`
	CreatedAt    time.Time      `json:"created_at"`
	ExpiresAt    time.Time      `json:"expires_at"`
}

func (s *Session) Identity() Identity {
	return FromClaims(s.Claims)
}

func (s *Session) IsExpired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}

// TokenFresh reports whether the cached ID token stays valid past now+skew.
func (s *Session) TokenFresh(now time.Time, skew time.Duration) bool {
	if s.IDToken == "" || s.IDTokenExp.IsZero() {
		return false
	}
	return now.Add(skew).Before(s.IDTokenExp)
}

// BearerToken picks the credential forwarded to the backend.
func (s *Session) BearerToken(kind string) string {
	if kind == "access_token" {
		return s.AccessToken
	}
	return s.IDToken
}

type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
}
