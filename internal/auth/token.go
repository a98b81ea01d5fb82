package auth

import (
	"sync"
	"time"
)

// Token is a cached bearer token. AccessToken and ExpiresAt are always set
// together.
type Token struct {
	AccessToken string
	ExpiresAt   time.Time
}

// Valid reports whether the token is usable at now.
func (t *Token) Valid(now time.Time) bool {
	if t == nil || t.AccessToken == "" || t.ExpiresAt.IsZero() {
		return false
	}

	return now.Before(t.ExpiresAt)
}

// NeedsRefresh reports whether now is within threshold of expiry.
func (t *Token) NeedsRefresh(now time.Time, threshold time.Duration) bool {
	if !t.Valid(now) {
		return true
	}

	return !now.Before(t.ExpiresAt.Add(-threshold))
}

// TokenStore provides thread-safe token storage.
type TokenStore struct {
	mu    sync.RWMutex
	token *Token
}

// NewTokenStore creates an empty store.
func NewTokenStore() *TokenStore {
	return &TokenStore{}
}

// Get returns a copy of the stored token, or nil.
func (s *TokenStore) Get() *Token {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == nil {
		return nil
	}

	tok := *s.token

	return &tok
}

// Set replaces the stored token.
func (s *TokenStore) Set(token *Token) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token == nil {
		s.token = nil

		return
	}

	tok := *token
	s.token = &tok
}

// Clear removes the stored token.
func (s *TokenStore) Clear() {
	s.Set(nil)
}
