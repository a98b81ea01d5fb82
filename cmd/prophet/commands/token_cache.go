package commands

import (
	"sync"
	"time"

	"github.com/fivetwenty-io/prophet/pkg/prophetclient"
)

// ConfigTokenCache keeps the access token in the CLI config file so
// consecutive invocations reuse it until it nears expiry. The cache only
// applies while the stored endpoint and client ID match the ones in use;
// a --base-url or --client-id override neither reads nor replaces it.
type ConfigTokenCache struct {
	mutex    sync.Mutex
	baseURL  string
	clientID string
}

// NewConfigTokenCache creates a token cache bound to an endpoint and client.
func NewConfigTokenCache(baseURL, clientID string) *ConfigTokenCache {
	return &ConfigTokenCache{
		baseURL:  prophetclient.NormalizeBaseURL(baseURL),
		clientID: clientID,
	}
}

// Load implements prophet.TokenCache.
func (c *ConfigTokenCache) Load() (string, time.Time, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	config, err := loadStoredConfig()
	if err != nil || !c.matches(config) || config.Token == "" || config.TokenExpiresAt == nil {
		return "", time.Time{}, false
	}

	return config.Token, *config.TokenExpiresAt, true
}

// Save implements prophet.TokenCache.
func (c *ConfigTokenCache) Save(token string, expiresAt time.Time) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	config, err := loadStoredConfig()
	if err != nil {
		return err
	}

	if !c.matches(config) {
		return nil
	}

	config.Token = token
	config.TokenExpiresAt = nil

	if !expiresAt.IsZero() {
		expiresAt = expiresAt.UTC()
		config.TokenExpiresAt = &expiresAt
	}

	return saveConfigStruct(config)
}

func (c *ConfigTokenCache) matches(config *Config) bool {
	return prophetclient.NormalizeBaseURL(config.BaseURL) == c.baseURL && config.ClientID == c.clientID
}
