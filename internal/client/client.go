package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fivetwenty-io/prophet/internal/auth"
	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/internal/http"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
)

// Static errors for err113 compliance.
var (
	ErrBaseURLRequired          = errors.New("base URL is required")
	ErrNoTokenManagerConfigured = errors.New("no token manager configured")
)

// Client implements the prophet.Client interface.
//
// One transport is shared by everything: the token manager borrows it
// unauthenticated, and the resource clients use an authenticated view of
// it, so all calls reuse the same connection pool.
type Client struct {
	transport    *http.Client
	httpClient   *http.Client
	tokenManager prophet.TokenManager
	baseURL      string
	logger       prophet.Logger

	flows       *FlowsClient
	deployments *DeploymentsClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *prophet.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	timeout := constants.DefaultHTTPTimeout
	if config.Timeout > 0 {
		timeout = config.Timeout
	}

	httpOpts = append(httpOpts, http.WithTimeout(timeout))

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// createTokenManager builds the client credentials token manager over the
// shared transport.
func createTokenManager(config *prophet.Config, transport *http.Client) prophet.TokenManager {
	threshold := constants.DefaultRefreshThreshold
	if config.RefreshThreshold != 0 {
		threshold = config.RefreshThreshold
	}

	manager := auth.NewOAuth2TokenManager(transport, config.ClientID, config.ClientSecret,
		auth.WithRefreshThreshold(threshold),
		auth.WithLogger(config.Logger),
	)

	if config.TokenCache != nil {
		return auth.NewCachingTokenManager(manager, config.TokenCache, config.Logger)
	}

	return manager
}

// New creates a Prophet API client. config is expected to be normalized;
// see prophetclient.New.
func New(config *prophet.Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	transport := http.NewClient(config.BaseURL, nil, createHTTPClientOptions(config)...)

	return newClient(config, transport, createTokenManager(config, transport)), nil
}

// NewWithTokenManager creates a client that authenticates with tokenManager
// instead of the client credentials in config.
func NewWithTokenManager(config *prophet.Config, tokenManager prophet.TokenManager) (*Client, error) {
	if config.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}

	if tokenManager == nil {
		return nil, ErrNoTokenManagerConfigured
	}

	transport := http.NewClient(config.BaseURL, nil, createHTTPClientOptions(config)...)

	return newClient(config, transport, tokenManager), nil
}

func newClient(config *prophet.Config, transport *http.Client, tokenManager prophet.TokenManager) *Client {
	logger := config.Logger
	if logger == nil {
		logger = prophet.NopLogger{}
	}

	client := &Client{
		transport:    transport,
		httpClient:   transport.WithTokenProvider(tokenManager),
		tokenManager: tokenManager,
		baseURL:      transport.BaseURL(),
		logger:       logger,
	}

	client.flows = NewFlowsClient(client.httpClient)
	client.deployments = NewDeploymentsClient(client.httpClient)

	return client
}

// Flows implements prophet.Client.Flows.
func (c *Client) Flows() prophet.FlowsClient {
	return c.flows
}

// Deployments implements prophet.Client.Deployments.
func (c *Client) Deployments() prophet.DeploymentsClient {
	return c.deployments
}

// TokenManager implements prophet.Client.TokenManager.
func (c *Client) TokenManager() prophet.TokenManager {
	return c.tokenManager
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close implements prophet.Client.Close.
func (c *Client) Close() {
	c.transport.Close()
}

// Health implements prophet.Client.Health. The call is not authenticated.
func (c *Client) Health(ctx context.Context) (*prophet.HealthStatus, error) {
	resp, err := c.transport.Do(ctx, &http.Request{
		Method:   "GET",
		Path:     constants.HealthPath,
		SkipAuth: true,
	})
	if resp == nil {
		return nil, fmt.Errorf("checking health: %w", err)
	}

	if resp.StatusCode != 200 {
		var details map[string]interface{}
		_ = json.Unmarshal(resp.Body, &details)

		return nil, &prophet.APIError{
			Message:    "Health check failed",
			StatusCode: resp.StatusCode,
			Details:    details,
		}
	}

	var health prophet.HealthStatus

	err = json.Unmarshal(resp.Body, &health)
	if err != nil {
		return nil, fmt.Errorf("parsing health response: %w", err)
	}

	if health.Status == "" {
		health.Status = "unknown"
	}

	return &health, nil
}
