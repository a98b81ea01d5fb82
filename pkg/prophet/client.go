package prophet

import (
	"context"
	"time"
)

// Client is the entry point to the Prophet API.
type Client interface {
	// Flows provides flow record search.
	Flows() FlowsClient
	// Deployments provides sub-deployment management under a parent MSP.
	Deployments() DeploymentsClient
	// Health checks API availability. It does not authenticate.
	Health(ctx context.Context) (*HealthStatus, error)
	// TokenManager exposes the token lifecycle shared by every call.
	TokenManager() TokenManager
	// Close releases idle pooled connections.
	Close()
}

// FlowsClient searches flow records.
type FlowsClient interface {
	// Query returns a lazy iterator over the results of q. No request is
	// sent until the iterator is consumed.
	Query(q *FlowQuery) (*FlowIterator, error)
	// FetchFlowPage fetches a single page of search results.
	FetchFlowPage(ctx context.Context, req *SearchRequest) (*FlowPage, error)
}

// DeploymentsClient manages sub-deployments (child tenants).
type DeploymentsClient interface {
	List(ctx context.Context, parentID string) (*DeploymentList, error)
	Get(ctx context.Context, customerID, parentID string) (*Deployment, error)
	Create(ctx context.Context, req *DeploymentCreate) (*CreatedDeployment, error)
	Delete(ctx context.Context, customerID, parentID string) (*DeploymentDeleteResult, error)
}

// TokenManager owns the bearer token used by authenticated calls.
type TokenManager interface {
	// GetToken returns a usable token, fetching one when none is cached or
	// the cached one is within the refresh threshold of expiry.
	GetToken(ctx context.Context) (string, error)
	// ForceRefresh fetches a new token regardless of the cached one.
	ForceRefresh(ctx context.Context) (string, error)
	// IsExpired reports whether no token is cached or it is past expiry.
	// It never performs a request.
	IsExpired() bool
	// Invalidate drops the cached token.
	Invalidate()
	// ExpiresAt returns the expiry of the cached token, if any.
	ExpiresAt() (time.Time, bool)
}

// TokenCache persists a token between processes so short-lived callers,
// such as the CLI, do not fetch a new one on every run.
type TokenCache interface {
	// Load returns the cached token, if any.
	Load() (token string, expiresAt time.Time, ok bool)
	// Save stores a freshly fetched token.
	Save(token string, expiresAt time.Time) error
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a prophet.Client.
//
// # Token refresh
//
// Tokens are refreshed proactively: a cached token is replaced once the
// current time is within RefreshThreshold of its expiry, so long iterations
// do not fail mid-stream on a 401. A zero RefreshThreshold selects the
// default of five minutes; a negative one refreshes only at expiry.
//
// # Timeouts and retries
//
// Timeout bounds every request, token fetches included. The transport does
// not retry unless RetryMax is set; retry policy is otherwise left to the
// caller.
type Config struct {
	// BaseURL: base URL of the Prophet API (e.g., "https://api.prophet.io").
	// prophetclient.New trims a trailing slash and adds "https://" if no
	// scheme is present.
	BaseURL string
	// ClientID: OAuth2 client ID for the client credentials grant.
	ClientID string
	// ClientSecret: OAuth2 client secret used with ClientID.
	ClientSecret string

	// Timeout: per-request timeout. Defaults to 30 seconds.
	Timeout time.Duration
	// RefreshThreshold: how long before expiry a token is refreshed.
	RefreshThreshold time.Duration
	// RetryMax: maximum number of transport retries for 5xx and connection
	// errors. Zero disables retries.
	RetryMax int
	// RetryWaitMin: minimum backoff between retries.
	RetryWaitMin time.Duration
	// RetryWaitMax: maximum backoff between retries.
	RetryWaitMax time.Duration
	// Debug: enables HTTP request/response logging when a Logger is provided.
	Debug bool
	// Logger: optional structured logger used by the HTTP and auth layers.
	Logger Logger
	// UserAgent: overrides the default User-Agent header.
	UserAgent string
	// Interceptors: optional request/response hooks run around every call.
	Interceptors *InterceptorChain
	// TokenCache: optional store seeded into the token manager at startup
	// and updated after every fetch.
	TokenCache TokenCache
}

// HealthStatus is the /health response.
type HealthStatus struct {
	Status    string `json:"status"    yaml:"status"`
	Service   string `json:"service"   yaml:"service"`
	Version   string `json:"version"   yaml:"version"`
	Timestamp string `json:"timestamp" yaml:"timestamp"`
}
