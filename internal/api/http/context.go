package http

import (
	"context"

	"troop-backend/internal/domain"
)

type profileKey struct{}

func withProfile(ctx context.Context, p *domain.UserProfile) context.Context {
	return context.WithValue(ctx, profileKey{}, p)
}

// ProfileFromContext returns the approved profile the auth middleware loaded
// for the caller.
func ProfileFromContext(ctx context.Context) (*domain.UserProfile, bool) {
	p, ok := ctx.Value(profileKey{}).(*domain.UserProfile)
	return p, ok && p != nil
}
