package auth

import (
	"context"
	"sync"
	"time"

	"github.com/fivetwenty-io/prophet/pkg/prophet"
)

// CachingTokenManager wraps OAuth2TokenManager and persists every newly
// fetched token to a prophet.TokenCache.
type CachingTokenManager struct {
	manager *OAuth2TokenManager
	cache   prophet.TokenCache
	logger  prophet.Logger

	mu        sync.Mutex
	lastSaved string
}

// NewCachingTokenManager seeds manager from cache and returns the wrapper.
func NewCachingTokenManager(manager *OAuth2TokenManager, cache prophet.TokenCache, logger prophet.Logger) *CachingTokenManager {
	if logger == nil {
		logger = prophet.NopLogger{}
	}

	caching := &CachingTokenManager{
		manager: manager,
		cache:   cache,
		logger:  logger,
	}

	token, expiresAt, ok := cache.Load()
	if ok {
		manager.SetToken(token, expiresAt)
		caching.lastSaved = token
	}

	return caching
}

// GetToken returns a valid access token, persisting it when it was just
// fetched.
func (m *CachingTokenManager) GetToken(ctx context.Context) (string, error) {
	token, err := m.manager.GetToken(ctx)
	if err != nil {
		return "", err
	}

	m.persist(token)

	return token, nil
}

// ForceRefresh fetches and persists a new token.
func (m *CachingTokenManager) ForceRefresh(ctx context.Context) (string, error) {
	token, err := m.manager.ForceRefresh(ctx)
	if err != nil {
		return "", err
	}

	m.persist(token)

	return token, nil
}

// IsExpired reports whether the cached token is missing or past expiry.
func (m *CachingTokenManager) IsExpired() bool {
	return m.manager.IsExpired()
}

// Invalidate drops the in-memory token. The persisted copy is left alone
// and overwritten by the next fetch.
func (m *CachingTokenManager) Invalidate() {
	m.manager.Invalidate()
}

// ExpiresAt returns the expiry of the cached token.
func (m *CachingTokenManager) ExpiresAt() (time.Time, bool) {
	return m.manager.ExpiresAt()
}

func (m *CachingTokenManager) persist(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if token == m.lastSaved {
		return
	}

	expiresAt, ok := m.manager.ExpiresAt()
	if !ok {
		return
	}

	err := m.cache.Save(token, expiresAt)
	if err != nil {
		// A failed save only costs an extra fetch next time.
		m.logger.Warn("Failed to persist access token", map[string]interface{}{"error": err.Error()})

		return
	}

	m.lastSaved = token
}
