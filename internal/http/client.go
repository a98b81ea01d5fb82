// Package http is the shared transport of the Prophet client. One Client
// owns the connection pool; the token manager and the authenticated API
// calls borrow it.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/google/uuid"
	"github.com/hashicorp/go-retryablehttp"
)

// TokenProvider supplies the bearer token for authenticated requests.
type TokenProvider interface {
	GetToken(ctx context.Context) (string, error)
}

// Client performs JSON requests against the Prophet API.
type Client struct {
	baseURL       string
	httpClient    *retryablehttp.Client
	tokenProvider TokenProvider
	logger        prophet.Logger
	debug         bool
	userAgent     string
	timeout       time.Duration
	interceptors  *prophet.InterceptorChain
}

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger used for debug output and retry messages.
func WithLogger(logger prophet.Logger) Option {
	return func(c *Client) {
		c.logger = logger
		c.httpClient.Logger = &leveledLogger{logger: logger}
	}
}

// WithDebug logs every request and response.
func WithDebug(debug bool) Option {
	return func(c *Client) {
		c.debug = debug
	}
}

// WithRetryConfig enables transport retries for 5xx, 429 and connection
// errors.
func WithRetryConfig(retryMax int, waitMin, waitMax time.Duration) Option {
	return func(c *Client) {
		c.httpClient.RetryMax = retryMax
		if waitMin > 0 {
			c.httpClient.RetryWaitMin = waitMin
		}

		if waitMax > 0 {
			c.httpClient.RetryWaitMax = waitMax
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(userAgent string) Option {
	return func(c *Client) {
		if userAgent != "" {
			c.userAgent = userAgent
		}
	}
}

// WithTimeout bounds each request, retries included. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithInterceptors runs chain around every request.
func WithInterceptors(chain *prophet.InterceptorChain) Option {
	return func(c *Client) {
		c.interceptors = chain
	}
}

// NewClient creates a transport for baseURL. tokenProvider may be nil for
// unauthenticated use.
func NewClient(baseURL string, tokenProvider TokenProvider, opts ...Option) *Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = 0
	retryClient.RetryWaitMin = constants.DefaultRetryWaitMin
	retryClient.RetryWaitMax = constants.DefaultRetryWaitMax
	retryClient.Logger = nil
	retryClient.CheckRetry = retryablehttp.DefaultRetryPolicy
	// Hand the final response back instead of a "giving up" error so that
	// status mapping happens in one place.
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	client := &Client{
		baseURL:       strings.TrimSuffix(baseURL, "/"),
		httpClient:    retryClient,
		tokenProvider: tokenProvider,
		logger:        prophet.NopLogger{},
		userAgent:     constants.DefaultUserAgent,
		timeout:       constants.DefaultHTTPTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// WithTokenProvider returns a copy of c that authenticates with tp. The copy
// shares c's connection pool.
func (c *Client) WithTokenProvider(tp TokenProvider) *Client {
	clone := *c
	clone.tokenProvider = tp

	return &clone
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.HTTPClient.CloseIdleConnections()
}

// Request describes an API call. Body is JSON encoded when non-nil.
type Request struct {
	Method   string
	Path     string
	Query    url.Values
	Body     interface{}
	Headers  map[string]string
	SkipAuth bool
}

// Response is a fully read API response.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Do sends req. A non-2xx status returns the response together with the
// mapped error; a transport failure returns a ConnectionError or
// TimeoutError and no response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	httpReq, view, err := c.buildRequest(ctx, req)
	if err != nil {
		return nil, err
	}

	if c.debug {
		c.logger.Debug("HTTP Request", map[string]interface{}{
			"method":     httpReq.Method,
			"url":        httpReq.URL.String(),
			"request_id": view.RequestID,
		})
	}

	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		mapped := transportError(err)
		_ = c.afterResponse(ctx, view, &prophet.Response{Duration: time.Since(start), Error: mapped})

		return nil, mapped
	}

	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		mapped := transportError(err)
		_ = c.afterResponse(ctx, view, &prophet.Response{StatusCode: httpResp.StatusCode, Duration: time.Since(start), Error: mapped})

		return nil, mapped
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
	}

	if c.debug {
		c.logger.Debug("HTTP Response", map[string]interface{}{
			"status":      resp.StatusCode,
			"request_id":  view.RequestID,
			"duration_ms": time.Since(start).Milliseconds(),
			"bytes":       len(body),
		})
	}

	var respErr error
	if resp.StatusCode >= http.StatusBadRequest {
		respErr = prophet.ParseErrorResponse(resp.StatusCode, body)
	}

	err = c.afterResponse(ctx, view, &prophet.Response{
		StatusCode: resp.StatusCode,
		Headers:    resp.Headers,
		Body:       body,
		Duration:   time.Since(start),
		Error:      respErr,
	})
	if respErr != nil {
		return resp, respErr
	}

	if err != nil {
		return resp, err
	}

	return resp, nil
}

func (c *Client) buildRequest(ctx context.Context, req *Request) (*retryablehttp.Request, *prophet.Request, error) {
	fullURL := c.baseURL + req.Path
	if len(req.Query) > 0 {
		fullURL += "?" + req.Query.Encode()
	}

	var payload []byte

	if req.Body != nil {
		var err error

		payload, err = json.Marshal(req.Body)
		if err != nil {
			return nil, nil, fmt.Errorf("encoding request body: %w", err)
		}
	}

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, req.Method, fullURL, body)
	if err != nil {
		return nil, nil, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set(constants.HeaderRequestID, uuid.NewString())

	for key, value := range req.Headers {
		httpReq.Header.Set(key, value)
	}

	if !req.SkipAuth && c.tokenProvider != nil {
		token, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return nil, nil, err
		}

		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	view := &prophet.Request{
		Method:    req.Method,
		Path:      req.Path,
		RequestID: httpReq.Header.Get(constants.HeaderRequestID),
		Headers:   httpReq.Header.Clone(),
		Body:      payload,
	}

	err = c.interceptors.ExecuteRequestInterceptors(ctx, view)
	if err != nil {
		return nil, nil, err
	}

	httpReq.Header = view.Headers

	return httpReq, view, nil
}

func (c *Client) afterResponse(ctx context.Context, view *prophet.Request, resp *prophet.Response) error {
	return c.interceptors.ExecuteResponseInterceptors(ctx, view, resp)
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodGet, Path: path, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodPost, Path: path, Body: body})
}

// Delete performs a DELETE request. body may be nil.
func (c *Client) Delete(ctx context.Context, path string, body interface{}) (*Response, error) {
	return c.Do(ctx, &Request{Method: http.MethodDelete, Path: path, Body: body})
}

func transportError(err error) error {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &prophet.TimeoutError{Message: "request timed out", Err: err}
	}

	return &prophet.ConnectionError{Message: "request failed", Err: err}
}
