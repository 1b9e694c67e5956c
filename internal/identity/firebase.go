package identity

import (
	"context"
	"fmt"
	"strings"

	"firebase.google.com/go/v4/auth"

	"troop-backend/internal/logger"
)

type firebaseProvider struct {
	client *auth.Client
}

func NewFirebaseProvider(client *auth.Client) Provider {
	return &firebaseProvider{client: client}
}

func (p *firebaseProvider) VerifyIDToken(ctx context.Context, token string) (*Principal, error) {
	tok, err := p.client.VerifyIDToken(ctx, token)
	if err != nil {
		if auth.IsIDTokenExpired(err) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	return principalFromToken(tok, token), nil
}

func principalFromToken(tok *auth.Token, raw string) *Principal {
	email, _ := tok.Claims["email"].(string)
	verified, _ := tok.Claims["email_verified"].(bool)
	return &Principal{
		UID:           tok.UID,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		EmailVerified: verified,
		IDToken:       raw,
	}
}

func (p *firebaseProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	logger.ExternalServiceCall("firebase-auth", "CreateUser", "email", email)
	rec, err := p.client.CreateUser(ctx, params)
	logger.ExternalServiceResult("firebase-auth", "CreateUser", err, "email", email)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", ErrEmailExists
		}
		return "", err
	}
	return rec.UID, nil
}
