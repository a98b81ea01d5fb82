package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	prophethttp "github.com/fivetwenty-io/prophet/internal/http"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockTokenManager for testing.
type MockTokenManager struct {
	token string
	err   error
	calls atomic.Int32
}

func (m *MockTokenManager) GetToken(ctx context.Context) (string, error) {
	m.calls.Add(1)

	return m.token, m.err
}

// MockLogger for testing.
type MockLogger struct {
	logs []map[string]interface{}
}

func (l *MockLogger) Debug(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "debug", "msg": msg, "fields": fields})
}

func (l *MockLogger) Info(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "info", "msg": msg, "fields": fields})
}

func (l *MockLogger) Warn(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "warn", "msg": msg, "fields": fields})
}

func (l *MockLogger) Error(msg string, fields map[string]interface{}) {
	l.logs = append(l.logs, map[string]interface{}{"level": "error", "msg": msg, "fields": fields})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_Do(t *testing.T) {
	t.Parallel()
	t.Run("successful request", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/deployments/1.0", request.URL.Path)
			assert.Equal(t, "GET", request.Method)
			assert.Equal(t, "Bearer test-token", request.Header.Get("Authorization"))
			assert.Equal(t, "application/json", request.Header.Get("Accept"))
			assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

			_, err := uuid.Parse(request.Header.Get("X-Request-ID"))
			assert.NoError(t, err)

			_ = json.NewEncoder(writer).Encode(map[string]string{"customer_id": "sub-1", "name": "ACME"})
		}))
		defer server.Close()

		tokenManager := &MockTokenManager{token: "test-token"}
		client := prophethttp.NewClient(server.URL, tokenManager)

		resp, err := client.Do(context.Background(), &prophethttp.Request{
			Method: "GET",
			Path:   "/deployments/1.0",
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)

		var result map[string]string

		err = json.Unmarshal(resp.Body, &result)
		require.NoError(t, err)
		assert.Equal(t, "sub-1", result["customer_id"])
		assert.Equal(t, "ACME", result["name"])
	})

	t.Run("request with query parameters", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "/health", request.URL.Path)
			assert.Equal(t, "verbose=true", request.URL.RawQuery)
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL+"/", nil)

		resp, err := client.Do(context.Background(), &prophethttp.Request{
			Method: "GET",
			Path:   "/health",
			Query:  url.Values{"verbose": []string{"true"}},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("request with body", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "POST", request.Method)

			var body map[string]interface{}

			_ = json.NewDecoder(request.Body).Decode(&body)
			assert.Equal(t, "flows", body["module"])

			writer.WriteHeader(http.StatusCreated)
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil)

		resp, err := client.Do(context.Background(), &prophethttp.Request{
			Method: "POST",
			Path:   "/search/records/1.0",
			Body:   map[string]string{"module": "flows"},
		})
		require.NoError(t, err)
		assert.Equal(t, 201, resp.StatusCode)
	})

	t.Run("custom headers", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "custom-value", request.Header.Get("X-Custom-Header"))
			assert.Equal(t, "prophet-cli/dev", request.Header.Get("User-Agent"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithUserAgent("prophet-cli/dev"))

		resp, err := client.Do(context.Background(), &prophethttp.Request{
			Method:  "GET",
			Path:    "/health",
			Headers: map[string]string{"X-Custom-Header": "custom-value"},
		})
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})

	t.Run("skip auth", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Empty(t, request.Header.Get("Authorization"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		tokenManager := &MockTokenManager{token: "test-token"}
		client := prophethttp.NewClient(server.URL, tokenManager)

		_, err := client.Do(context.Background(), &prophethttp.Request{Method: "GET", Path: "/health", SkipAuth: true})
		require.NoError(t, err)
		assert.Equal(t, int32(0), tokenManager.calls.Load())
	})

	t.Run("token failure aborts request", func(t *testing.T) {
		t.Parallel()

		var hits atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			hits.Add(1)
		}))
		defer server.Close()

		authErr := &prophet.AuthenticationError{Message: "Invalid credentials", Code: "invalid_credentials"}
		client := prophethttp.NewClient(server.URL, &MockTokenManager{err: authErr})

		resp, err := client.Get(context.Background(), "/deployments/1.0", nil)
		require.Error(t, err)
		assert.Nil(t, resp)

		target := &prophet.AuthenticationError{}
		require.ErrorAs(t, err, &target)
		assert.Equal(t, "invalid_credentials", target.Code)
		assert.Equal(t, int32(0), hits.Load())
	})

	t.Run("with debug logging", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(writer).Encode(map[string]string{"status": "ok"})
		}))
		defer server.Close()

		logger := &MockLogger{}
		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithLogger(logger), prophethttp.WithDebug(true))

		_, err := client.Do(context.Background(), &prophethttp.Request{Method: "GET", Path: "/health"})
		require.NoError(t, err)

		// Should have logged request and response
		assert.Len(t, logger.logs, 2)
		assert.Equal(t, "HTTP Request", logger.logs[0]["msg"])
		assert.Equal(t, "HTTP Response", logger.logs[1]["msg"])
	})

	t.Run("interceptors", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			assert.Equal(t, "acme", request.Header.Get("X-Tenant"))
			writer.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		collector := prophet.NewMetricsCollector()
		chain := prophet.NewInterceptorChain().
			AddRequestInterceptor(prophet.HeaderInterceptor(map[string]string{"X-Tenant": "acme"})).
			AddResponseInterceptor(prophet.MetricsResponseInterceptor(collector))

		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithInterceptors(chain))

		_, err := client.Get(context.Background(), "/health", nil)
		require.NoError(t, err)

		metrics, ok := collector.GetMetrics("GET /health")
		require.True(t, ok)
		assert.Equal(t, int64(1), metrics.TotalRequests)
	})
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status int
		body   string
		check  func(t *testing.T, err error)
	}{
		{
			name:   "401 authentication",
			status: http.StatusUnauthorized,
			body:   `{"error":"Token expired","code":"token_expired"}`,
			check: func(t *testing.T, err error) {
				t.Helper()

				target := &prophet.AuthenticationError{}
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "Token expired", target.Message)
				assert.Equal(t, "token_expired", target.Code)
				assert.True(t, prophet.IsUnauthorized(err))
			},
		},
		{
			name:   "400 validation",
			status: http.StatusBadRequest,
			body:   `{"error":"invalid sentence"}`,
			check: func(t *testing.T, err error) {
				t.Helper()

				target := &prophet.ValidationError{}
				require.ErrorAs(t, err, &target)
				assert.Equal(t, "invalid sentence", target.Message)
			},
		},
		{
			name:   "403 authorization",
			status: http.StatusForbidden,
			body:   `{}`,
			check: func(t *testing.T, err error) {
				t.Helper()

				assert.True(t, prophet.IsForbidden(err))
			},
		},
		{
			name:   "404 not found",
			status: http.StatusNotFound,
			body:   `not json`,
			check: func(t *testing.T, err error) {
				t.Helper()

				target := &prophet.APIError{}
				require.ErrorAs(t, err, &target)
				assert.Equal(t, prophet.ErrorTypeNotFound, target.ErrorType)
				assert.Equal(t, "not json", target.Details["body"])
			},
		},
		{
			name:   "500 api error",
			status: http.StatusInternalServerError,
			body:   `{"code":"backend_down"}`,
			check: func(t *testing.T, err error) {
				t.Helper()

				target := &prophet.APIError{}
				require.ErrorAs(t, err, &target)
				assert.Equal(t, 500, target.StatusCode)
				assert.Equal(t, "backend_down", target.ErrorType)
				assert.Equal(t, "Request failed with status 500", target.Message)
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				writer.WriteHeader(testCase.status)
				_, _ = writer.Write([]byte(testCase.body))
			}))
			defer server.Close()

			client := prophethttp.NewClient(server.URL, nil)

			resp, err := client.Get(context.Background(), "/deployments/1.0", nil)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, testCase.status, resp.StatusCode)
			testCase.check(t, err)
		})
	}
}

func TestClient_TransportErrors(t *testing.T) {
	t.Parallel()
	t.Run("connection refused", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {}))
		serverURL := server.URL
		server.Close()

		client := prophethttp.NewClient(serverURL, nil)

		resp, err := client.Get(context.Background(), "/health", nil)
		require.Error(t, err)
		assert.Nil(t, resp)
		assert.True(t, prophet.IsConnection(err))
	})

	t.Run("timeout", func(t *testing.T) {
		t.Parallel()

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			select {
			case <-request.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithTimeout(20*time.Millisecond))

		_, err := client.Get(context.Background(), "/health", nil)
		require.Error(t, err)
		assert.True(t, prophet.IsTimeout(err))

		target := &prophet.TimeoutError{}
		require.ErrorAs(t, err, &target)
		assert.True(t, errors.Is(err, context.DeadlineExceeded) || target.Err != nil)
	})
}

func TestClient_Methods(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		fn     func(*prophethttp.Client, context.Context) (*prophethttp.Response, error)
	}{
		{
			name:   "GET",
			method: "GET",
			fn: func(c *prophethttp.Client, ctx context.Context) (*prophethttp.Response, error) {
				return c.Get(ctx, "/test", nil)
			},
		},
		{
			name:   "POST",
			method: "POST",
			fn: func(c *prophethttp.Client, ctx context.Context) (*prophethttp.Response, error) {
				return c.Post(ctx, "/test", map[string]string{"key": "value"})
			},
		},
		{
			name:   "DELETE",
			method: "DELETE",
			fn: func(c *prophethttp.Client, ctx context.Context) (*prophethttp.Response, error) {
				return c.Delete(ctx, "/test", map[string]string{"key": "value"})
			},
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
				assert.Equal(t, testCase.method, request.Method)
				assert.Equal(t, "/test", request.URL.Path)
				writer.WriteHeader(http.StatusOK)
			}))
			defer server.Close()

			client := prophethttp.NewClient(server.URL, nil)
			resp, err := testCase.fn(client, context.Background())
			require.NoError(t, err)
			assert.Equal(t, 200, resp.StatusCode)
		})
	}
}

func TestClient_WithTokenProvider(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		_, _ = writer.Write([]byte(request.Header.Get("Authorization")))
	}))
	defer server.Close()

	base := prophethttp.NewClient(server.URL, nil)
	authed := base.WithTokenProvider(&MockTokenManager{token: "abc"})

	resp, err := base.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Empty(t, string(resp.Body))

	resp, err = authed.Get(context.Background(), "/", nil)
	require.NoError(t, err)
	assert.Equal(t, "Bearer abc", string(resp.Body))
	assert.Equal(t, base.BaseURL(), authed.BaseURL())
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestClient_RetryLogic(t *testing.T) {
	t.Parallel()
	t.Run("no retry by default", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil)

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 503, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load())
	})

	t.Run("retries on 5xx errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 3 {
				writer.WriteHeader(http.StatusInternalServerError)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(3), attempts.Load())
	})

	t.Run("retries on rate limiting", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			if attempts.Add(1) < 2 {
				writer.WriteHeader(http.StatusTooManyRequests)
			} else {
				writer.WriteHeader(http.StatusOK)
			}
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
		assert.Equal(t, int32(2), attempts.Load())
	})

	t.Run("does not retry on client errors", func(t *testing.T) {
		t.Parallel()

		var attempts atomic.Int32

		server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			attempts.Add(1)
			writer.WriteHeader(http.StatusBadRequest)
		}))
		defer server.Close()

		client := prophethttp.NewClient(server.URL, nil, prophethttp.WithRetryConfig(3, 10*time.Millisecond, 100*time.Millisecond))

		resp, err := client.Get(context.Background(), "/test", nil)
		require.Error(t, err)
		assert.Equal(t, 400, resp.StatusCode)
		assert.Equal(t, int32(1), attempts.Load()) // Should not retry
	})
}
