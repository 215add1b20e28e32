package auth

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/wenu-client/internal/constants"
)

// TokenManager supplies the session token attached to every request.
type TokenManager interface {
	// GetToken returns the current token; "" means unauthenticated.
	GetToken(ctx context.Context) (string, error)
	// RefreshToken obtains a new token from the original credentials.
	RefreshToken(ctx context.Context) error
	// SetToken replaces the token in place.
	SetToken(token string, expiresAt time.Time)
}

// Token is a session token. A zero ExpiresAt means the server gave no
// lifetime and the token is kept until it is rotated.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token is set and not about to expire.
func (t *Token) Valid() bool {
	if t == nil || t.AccessToken == "" {
		return false
	}

	if t.ExpiresAt.IsZero() {
		return true
	}

	return time.Now().Add(constants.TokenExpirationBuffer).Before(t.ExpiresAt)
}

// TokenStore guards a token shared between requests and rotations.
type TokenStore struct {
	mutex sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns the stored token or nil.
func (s *TokenStore) Get() *Token {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.token
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.token = token
}
