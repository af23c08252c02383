package auth

import (
	"artisan-link/domain"
	"artisan-link/errors"
	"context"
	"strings"
)

type contextKey string

const IdentityKey contextKey = "identity"

// WithIdentity injects the authenticated identity for downstream layers.
func WithIdentity(ctx context.Context, identity domain.Identity) context.Context {
	return context.WithValue(ctx, IdentityKey, identity)
}

func IdentityFrom(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(IdentityKey).(domain.Identity)
	return identity, ok
}

// BearerToken extracts the token of an "Authorization: Bearer <token>" header.
func BearerToken(header string) (string, error) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.ErrInvalidToken
	}
	return strings.TrimSpace(token), nil
}
