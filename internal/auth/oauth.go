// Package auth implements the OAuth2 client credentials token lifecycle.
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/fivetwenty-io/prophet/internal/constants"
	prophethttp "github.com/fivetwenty-io/prophet/internal/http"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
)

// Doer sends a request over the shared transport.
type Doer interface {
	Do(ctx context.Context, req *prophethttp.Request) (*prophethttp.Response, error)
}

// OAuth2TokenManager fetches and caches client credentials tokens,
// refreshing them proactively before expiry.
type OAuth2TokenManager struct {
	transport    Doer
	clientID     string
	clientSecret string
	threshold    time.Duration
	now          func() time.Time
	logger       prophet.Logger
	store        *TokenStore

	// fetchMu serializes token fetches so concurrent callers share one
	// round trip.
	fetchMu sync.Mutex
}

// Option configures an OAuth2TokenManager.
type Option func(*OAuth2TokenManager)

// WithRefreshThreshold sets how long before expiry a token is refreshed.
// Negative values are treated as zero.
func WithRefreshThreshold(threshold time.Duration) Option {
	return func(m *OAuth2TokenManager) {
		m.threshold = max(threshold, 0)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *OAuth2TokenManager) {
		m.now = now
	}
}

// WithLogger sets the logger. Token values are never logged.
func WithLogger(logger prophet.Logger) Option {
	return func(m *OAuth2TokenManager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewOAuth2TokenManager creates a token manager that authenticates through
// transport. The transport is borrowed, not owned.
func NewOAuth2TokenManager(transport Doer, clientID, clientSecret string, opts ...Option) *OAuth2TokenManager {
	manager := &OAuth2TokenManager{
		transport:    transport,
		clientID:     clientID,
		clientSecret: clientSecret,
		threshold:    constants.DefaultRefreshThreshold,
		now:          time.Now,
		logger:       prophet.NopLogger{},
		store:        NewTokenStore(),
	}

	for _, opt := range opts {
		opt(manager)
	}

	return manager
}

// GetToken returns a valid access token, fetching one when none is cached
// or the cached one is within the refresh threshold.
func (m *OAuth2TokenManager) GetToken(ctx context.Context) (string, error) {
	if tok := m.store.Get(); !tok.NeedsRefresh(m.now(), m.threshold) {
		return tok.AccessToken, nil
	}

	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	// Another caller may have refreshed while we waited.
	if tok := m.store.Get(); !tok.NeedsRefresh(m.now(), m.threshold) {
		return tok.AccessToken, nil
	}

	return m.fetchLocked(ctx)
}

// ForceRefresh fetches a new token regardless of the cached one.
func (m *OAuth2TokenManager) ForceRefresh(ctx context.Context) (string, error) {
	m.fetchMu.Lock()
	defer m.fetchMu.Unlock()

	return m.fetchLocked(ctx)
}

// IsExpired reports whether no token is cached or it is past expiry.
func (m *OAuth2TokenManager) IsExpired() bool {
	return !m.store.Get().Valid(m.now())
}

// Invalidate drops the cached token.
func (m *OAuth2TokenManager) Invalidate() {
	m.store.Clear()
}

// ExpiresAt returns the expiry of the cached token.
func (m *OAuth2TokenManager) ExpiresAt() (time.Time, bool) {
	tok := m.store.Get()
	if tok == nil {
		return time.Time{}, false
	}

	return tok.ExpiresAt, true
}

// SetToken seeds the cache with a token obtained elsewhere.
func (m *OAuth2TokenManager) SetToken(accessToken string, expiresAt time.Time) {
	if accessToken == "" || expiresAt.IsZero() {
		return
	}

	m.store.Set(&Token{AccessToken: accessToken, ExpiresAt: expiresAt})
}

type tokenResponse struct {
	AccessToken string          `json:"access_token"`
	ExpiresAt   json.RawMessage `json:"expires_at"`
}

func (m *OAuth2TokenManager) fetchLocked(ctx context.Context) (string, error) {
	m.logger.Debug("Fetching access token", map[string]interface{}{"client_id": m.clientID})

	resp, err := m.transport.Do(ctx, &prophethttp.Request{
		Method: http.MethodPost,
		Path:   constants.TokenPath,
		Body: map[string]string{
			"client_id":     m.clientID,
			"client_secret": m.clientSecret,
		},
		SkipAuth: true,
	})
	if resp == nil {
		if err == nil {
			err = constants.ErrEmptyResponse
		}

		return "", &prophet.AuthenticationError{
			Message: "Failed to connect to auth server",
			Err:     err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", tokenError(resp)
	}

	var body tokenResponse

	err = json.Unmarshal(resp.Body, &body)
	if err != nil {
		return "", invalidTokenResponse(err)
	}

	expiresAt, err := parseExpiry(body.ExpiresAt)
	if err != nil {
		return "", invalidTokenResponse(err)
	}

	if body.AccessToken == "" {
		return "", invalidTokenResponse(constants.ErrMissingToken)
	}

	m.store.Set(&Token{AccessToken: body.AccessToken, ExpiresAt: expiresAt})
	m.logger.Debug("Access token acquired", map[string]interface{}{
		"client_id":  m.clientID,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})

	return body.AccessToken, nil
}

func tokenError(resp *prophethttp.Response) error {
	if resp.StatusCode == http.StatusUnauthorized {
		var details map[string]interface{}
		_ = json.Unmarshal(resp.Body, &details)

		message, _ := details["error"].(string)
		code, _ := details["code"].(string)

		return &prophet.AuthenticationError{
			Message: orDefault(message, "Invalid credentials"),
			Code:    orDefault(code, "invalid_credentials"),
			Details: details,
		}
	}

	return &prophet.AuthenticationError{
		Message: fmt.Sprintf("Token request failed with status %d", resp.StatusCode),
		Code:    "token_request_failed",
		Details: map[string]interface{}{
			"status_code": resp.StatusCode,
			"body":        string(resp.Body),
		},
	}
}

func invalidTokenResponse(err error) error {
	return &prophet.AuthenticationError{
		Message: "Invalid token response",
		Code:    "invalid_token_response",
		Err:     err,
	}
}

// parseExpiry accepts epoch seconds as a number or string, or an RFC 3339
// timestamp.
func parseExpiry(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}, constants.ErrMissingExpiry
	}

	var seconds float64
	if json.Unmarshal(raw, &seconds) == nil {
		return epoch(seconds), nil
	}

	var text string

	err := json.Unmarshal(raw, &text)
	if err != nil {
		return time.Time{}, fmt.Errorf("decoding expires_at: %w", err)
	}

	if seconds, err := strconv.ParseFloat(text, 64); err == nil {
		return epoch(seconds), nil
	}

	expiresAt, err := time.Parse(time.RFC3339, text)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing expires_at: %w", err)
	}

	return expiresAt, nil
}

func epoch(seconds float64) time.Time {
	whole, frac := math.Modf(seconds)

	return time.Unix(int64(whole), int64(frac*float64(time.Second)))
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}

	return value
}
