package composables

import (
	"context"
	"errors"

	"github.com/mazmed/portal/modules/identity/domain/session"
	"github.com/mazmed/portal/pkg/constants"
)

var (
	ErrNoIdentity    = errors.New("identity not found in context")
	ErrNoBearerToken = errors.New("bearer token not found in context")
)

type bearerKey struct{}

func WithIdentity(ctx context.Context, ident session.Identity) context.Context {
	return context.WithValue(ctx, constants.IdentityKey, ident)
}

func UseIdentity(ctx context.Context) (session.Identity, error) {
	ident, ok := ctx.Value(constants.IdentityKey).(session.Identity)
	if !ok {
		return session.Identity{}, ErrNoIdentity
	}
	return ident, nil
}

// UseAuthenticated reports whether the request carries a signed-in identity.
func UseAuthenticated(ctx context.Context) bool {
	_, err := UseIdentity(ctx)
	return err == nil
}

func WithSession(ctx context.Context, s *session.Session) context.Context {
	return context.WithValue(ctx, constants.SessionKey, s)
}

func UseSession(ctx context.Context) (*session.Session, bool) {
	s, ok := ctx.Value(constants.SessionKey).(*session.Session)
	return s, ok && s != nil
}

// WithBearerToken stores the credential forwarded to the backend API.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

func UseBearerToken(ctx context.Context) (string, error) {
	token, ok := ctx.Value(bearerKey{}).(string)
	if !ok || token == "" {
		return "", ErrNoBearerToken
	}
	return token, nil
}
