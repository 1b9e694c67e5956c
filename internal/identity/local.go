package identity

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const localIssuer = "troop-backend"

// LocalClaims are the claims of a locally issued ID token.
type LocalClaims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type LocalAccount struct {
	UID          string
	Email        string
	DisplayName  string
	PasswordHash string
}

// LocalProvider keeps accounts in memory and signs its own tokens. It exists
// for development and for running the server without Firebase.
type LocalProvider struct {
	secret []byte
	ttl    time.Duration

	mu       sync.RWMutex
	accounts map[string]LocalAccount // by normalized email
}

func NewLocalProvider(secret string, ttl time.Duration, seed []LocalAccount) *LocalProvider {
	p := &LocalProvider{
		secret:   []byte(secret),
		ttl:      ttl,
		accounts: make(map[string]LocalAccount, len(seed)),
	}
	for _, a := range seed {
		a.Email = strings.ToLower(strings.TrimSpace(a.Email))
		if a.UID == "" {
			a.UID = uuid.New().String()
		}
		p.accounts[a.Email] = a
	}
	return p
}

func (p *LocalProvider) issue(a LocalAccount) (string, error) {
	now := time.Now()
	claims := LocalClaims{
		Email: a.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   a.UID,
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    localIssuer,
			ID:        uuid.New().String(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(p.secret)
}

// SignIn checks the password and returns a fresh ID token.
func (p *LocalProvider) SignIn(ctx context.Context, email, password string) (string, error) {
	p.mu.RLock()
	a, ok := p.accounts[strings.ToLower(strings.TrimSpace(email))]
	p.mu.RUnlock()
	if !ok {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(a.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return p.issue(a)
}

func (p *LocalProvider) VerifyIDToken(ctx context.Context, tokenString string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(tokenString, &LocalClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return p.secret, nil
	}, jwt.WithIssuer(localIssuer))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*LocalClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	// Local accounts are provisioned by an administrator with a known address.
	return &Principal{UID: claims.Subject, Email: claims.Email, EmailVerified: true, IDToken: tokenString}, nil
}

func (p *LocalProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if _, exists := p.accounts[email]; exists {
		return "", ErrEmailExists
	}
	a := LocalAccount{UID: uuid.New().String(), Email: email, DisplayName: displayName, PasswordHash: string(hash)}
	p.accounts[email] = a
	return a.UID, nil
}
