package auth_test

import (
	"testing"
	"time"

	"github.com/fivetwenty-io/prophet/internal/auth"
	"github.com/stretchr/testify/assert"
)

func TestToken_Valid(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		token    *auth.Token
		expected bool
	}{
		{name: "nil token", token: nil, expected: false},
		{name: "empty access token", token: &auth.Token{ExpiresAt: now.Add(time.Hour)}, expected: false},
		{name: "missing expiry", token: &auth.Token{AccessToken: "test-token"}, expected: false},
		{name: "future expiry", token: &auth.Token{AccessToken: "test-token", ExpiresAt: now.Add(time.Hour)}, expected: true},
		{name: "expired", token: &auth.Token{AccessToken: "test-token", ExpiresAt: now.Add(-time.Hour)}, expected: false},
		{name: "expires exactly now", token: &auth.Token{AccessToken: "test-token", ExpiresAt: now}, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, tt.token.Valid(now))
		})
	}
}

func TestToken_NeedsRefresh(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	threshold := 300 * time.Second

	tests := []struct {
		name      string
		expiresIn time.Duration
		threshold time.Duration
		expected  bool
	}{
		{name: "inside threshold", expiresIn: 60 * time.Second, threshold: threshold, expected: true},
		{name: "well outside threshold", expiresIn: 10000 * time.Second, threshold: threshold, expected: false},
		{name: "exactly at threshold", expiresIn: threshold, threshold: threshold, expected: true},
		{name: "zero threshold not expired", expiresIn: time.Second, threshold: 0, expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			token := &auth.Token{AccessToken: "t", ExpiresAt: now.Add(tt.expiresIn)}
			assert.Equal(t, tt.expected, token.NeedsRefresh(now, tt.threshold))
		})
	}

	var missing *auth.Token
	assert.True(t, missing.NeedsRefresh(now, threshold))
}

func TestTokenStore(t *testing.T) {
	t.Parallel()
	t.Run("new store is empty", testNewStoreEmpty)
	t.Run("set and get token", testSetAndGetToken)
	t.Run("clear token", testClearToken)
	t.Run("concurrent access", testConcurrentTokenAccess)
}

func testNewStoreEmpty(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	assert.Nil(t, store.Get())
}

func testSetAndGetToken(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	expiresAt := time.Now().Add(time.Hour)

	store.Set(&auth.Token{AccessToken: "test-token", ExpiresAt: expiresAt})

	retrieved := store.Get()
	assert.NotNil(t, retrieved)
	assert.Equal(t, "test-token", retrieved.AccessToken)
	assert.Equal(t, expiresAt, retrieved.ExpiresAt)

	// Returned tokens are copies.
	retrieved.AccessToken = "mutated"
	assert.Equal(t, "test-token", store.Get().AccessToken)
}

func testClearToken(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	store.Set(&auth.Token{AccessToken: "test-token"})
	assert.NotNil(t, store.Get())

	store.Clear()
	assert.Nil(t, store.Get())
}

func testConcurrentTokenAccess(t *testing.T) {
	t.Parallel()

	store := auth.NewTokenStore()
	done := make(chan bool)

	for _, value := range []string{"token-1", "token-2"} {
		go func() {
			for range 100 {
				store.Set(&auth.Token{AccessToken: value})
			}

			done <- true
		}()
	}

	for range 2 {
		go func() {
			for range 100 {
				_ = store.Get()
			}

			done <- true
		}()
	}

	for range 4 {
		<-done
	}

	finalToken := store.Get()
	assert.NotNil(t, finalToken)
	assert.True(t, finalToken.AccessToken == "token-1" || finalToken.AccessToken == "token-2")
}
