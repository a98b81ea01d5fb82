package prophetclient

import (
	"fmt"
	"strings"

	"github.com/fivetwenty-io/prophet/internal/client"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
)

// New creates a Prophet API client. The config is copied; BaseURL is
// normalized on the copy.
func New(config *prophet.Config) (prophet.Client, error) {
	if config == nil {
		return nil, &prophet.ConfigurationError{Message: "missing config", Err: prophet.ErrConfigRequired}
	}

	normalized := *config
	normalized.BaseURL = NormalizeBaseURL(config.BaseURL)

	err := validate(&normalized)
	if err != nil {
		return nil, err
	}

	c, err := client.New(&normalized)
	if err != nil {
		return nil, &prophet.ConfigurationError{Message: "failed to create client", Err: err}
	}

	return c, nil
}

// NewWithClientCredentials creates a client from a base URL and OAuth2
// client credentials, with every other setting at its default.
func NewWithClientCredentials(baseURL, clientID, clientSecret string) (prophet.Client, error) {
	return New(&prophet.Config{
		BaseURL:      baseURL,
		ClientID:     clientID,
		ClientSecret: clientSecret,
	})
}

// NormalizeBaseURL trims surrounding whitespace and trailing slashes and adds
// "https://" when no scheme is present.
func NormalizeBaseURL(baseURL string) string {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return ""
	}

	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "https://" + baseURL
	}

	return baseURL
}

func validate(config *prophet.Config) error {
	switch {
	case config.BaseURL == "":
		return &prophet.ConfigurationError{Message: "invalid config", Err: prophet.ErrBaseURLRequired}
	case config.ClientID == "":
		return &prophet.ConfigurationError{Message: "invalid config", Err: prophet.ErrClientIDRequired}
	case config.ClientSecret == "":
		return &prophet.ConfigurationError{Message: "invalid config", Err: prophet.ErrClientSecretRequired}
	case config.Timeout < 0:
		return &prophet.ConfigurationError{Message: fmt.Sprintf("timeout must not be negative, got %s", config.Timeout)}
	}

	return nil
}
