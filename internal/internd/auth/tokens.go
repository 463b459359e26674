package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/sorenmh/nextintern/internal/lifecycle"
)

var (
	// ErrInvalidToken is returned for malformed, expired or revoked tokens
	ErrInvalidToken = errors.New("invalid token")
	// ErrRefreshNotFound is returned when a refresh token is unknown or already used
	ErrRefreshNotFound = errors.New("refresh token not found")
)

// Claims are the JWT claims carried by access tokens. Subject is the user ID.
type Claims struct {
	Role lifecycle.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenPair is what a successful login or refresh hands back
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Manager issues and verifies access tokens and rotates refresh tokens
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      TokenStore
	now        func() time.Time
}

// NewManager creates a token manager signing with HS256
func NewManager(secret string, accessTTL, refreshTTL time.Duration, store TokenStore) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
		now:        time.Now,
	}
}

// Issue creates a new access token and a new refresh token for a user
func (m *Manager) Issue(ctx context.Context, userID string, role lifecycle.Role) (*TokenPair, error) {
	now := m.now()
	expiresAt := now.Add(m.accessTTL)

	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}

	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh := uuid.New().String()
	if err := m.store.SaveRefresh(ctx, refresh, userID, m.refreshTTL); err != nil {
		return nil, err
	}

	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// Authenticate parses an access token and checks it has not been revoked
func (m *Manager) Authenticate(ctx context.Context, raw string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidToken
	}

	revoked, err := m.store.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("%w: revoked", ErrInvalidToken)
	}

	return claims, nil
}

// Rotate consumes a refresh token and returns the user it belonged to.
// The token cannot be used again.
func (m *Manager) Rotate(ctx context.Context, refresh string) (string, error) {
	return m.store.ConsumeRefresh(ctx, refresh)
}

// Revoke invalidates a refresh token and, when claims are given, the access
// token they came from until it would have expired anyway.
func (m *Manager) Revoke(ctx context.Context, refresh string, claims *Claims) error {
	if refresh != "" {
		if _, err := m.store.ConsumeRefresh(ctx, refresh); err != nil && !errors.Is(err, ErrRefreshNotFound) {
			return err
		}
	}
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Time.Sub(m.now())
	if ttl <= 0 {
		return nil
	}
	return m.store.Revoke(ctx, claims.ID, ttl)
}
