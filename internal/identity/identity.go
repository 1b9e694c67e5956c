// Package identity verifies caller identity tokens and provisions sign-in
// accounts. Firebase Authentication backs production; the local provider
// issues its own HS256 tokens for development and tests.
package identity

import (
	"context"
	"errors"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailExists        = errors.New("an account with this email already exists")
	ErrNoSession          = errors.New("no signed-in user")
)

// Principal is the verified caller. IDToken is the raw bearer token, forwarded
// to downstream services that check it themselves. EmailVerified reports
// whether the identity provider confirmed ownership of Email.
type Principal struct {
	UID           string
	Email         string
	EmailVerified bool
	IDToken       string
}

// SystemPrincipal is used by scheduled jobs. It carries no ID token.
var SystemPrincipal = Principal{UID: "system"}

type principalKey struct{}

func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

type Provider interface {
	VerifyIDToken(ctx context.Context, token string) (*Principal, error)
	// CreateUser provisions a sign-in account and returns its UID.
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
}
