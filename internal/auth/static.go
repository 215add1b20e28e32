package auth

import (
	"context"
	"errors"
	"time"
)

// Static errors for err113 compliance.
var (
	ErrStaticTokenCannotRefresh = errors.New("static token cannot be refreshed")
)

// StaticTokenManager serves a token obtained elsewhere, e.g. handed over by a
// QR code. An empty token leaves requests unauthenticated.
type StaticTokenManager struct {
	store *TokenStore
}

// NewStaticTokenManager creates a manager serving token.
func NewStaticTokenManager(token string) *StaticTokenManager {
	store := NewTokenStore()
	if token != "" {
		store.Set(&Token{AccessToken: token})
	}

	return &StaticTokenManager{store: store}
}

// GetToken returns the token, or "" when none is set.
func (m *StaticTokenManager) GetToken(ctx context.Context) (string, error) {
	token := m.store.Get()
	if token == nil {
		return "", nil
	}

	return token.AccessToken, nil
}

// RefreshToken always fails: there are no credentials to exchange.
func (m *StaticTokenManager) RefreshToken(ctx context.Context) error {
	return ErrStaticTokenCannotRefresh
}

// SetToken replaces the token.
func (m *StaticTokenManager) SetToken(token string, expiresAt time.Time) {
	m.store.Set(&Token{AccessToken: token, ExpiresAt: expiresAt})
}
