package client_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/prophet/internal/client"
	"github.com/fivetwenty-io/prophet/pkg/prophet"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "test-token"

// apiServer scripts the Prophet API. Routes are keyed "METHOD /path"; the
// token endpoint is always served.
type apiServer struct {
	*httptest.Server

	mu            sync.Mutex
	routes        map[string]http.HandlerFunc
	tokenFetches  atomic.Int32
	searchBodies  []map[string]interface{}
	requestBodies []map[string]interface{}
}

func newAPIServer(t *testing.T) *apiServer {
	t.Helper()

	api := &apiServer{routes: map[string]http.HandlerFunc{}}
	api.Server = httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		key := request.Method + " " + request.URL.Path

		if key == "POST /oauth2/token/1.0" {
			api.tokenFetches.Add(1)
			writeJSON(writer, http.StatusOK, map[string]interface{}{
				"access_token": testToken,
				"expires_at":   float64(time.Now().Add(time.Hour).Unix()),
			})

			return
		}

		if request.URL.Path != "/health" {
			assert.Equal(t, "Bearer "+testToken, request.Header.Get("Authorization"))
		}

		assert.Equal(t, "application/json", request.Header.Get("Content-Type"))

		var body map[string]interface{}
		_ = json.NewDecoder(request.Body).Decode(&body)

		api.mu.Lock()
		api.requestBodies = append(api.requestBodies, body)
		if request.URL.Path == "/search/records/1.0" {
			api.searchBodies = append(api.searchBodies, body)
		}

		handler, ok := api.routes[key]
		api.mu.Unlock()

		if !ok {
			writeJSON(writer, http.StatusNotFound, map[string]string{"error": "no route " + key})

			return
		}

		handler(writer, request)
	}))
	t.Cleanup(api.Close)

	return api
}

func (a *apiServer) handle(key string, handler http.HandlerFunc) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.routes[key] = handler
}

func (a *apiServer) bodies() []map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]map[string]interface{}(nil), a.requestBodies...)
}

func (a *apiServer) searches() []map[string]interface{} {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]map[string]interface{}(nil), a.searchBodies...)
}

func (a *apiServer) client(t *testing.T) *client.Client {
	t.Helper()

	c, err := client.New(&prophet.Config{
		BaseURL:      a.URL,
		ClientID:     "client-id",
		ClientSecret: "client-secret",
	})
	require.NoError(t, err)
	t.Cleanup(c.Close)

	return c
}

func writeJSON(writer http.ResponseWriter, status int, body interface{}) {
	writer.Header().Set("Content-Type", "application/json")
	writer.WriteHeader(status)
	_ = json.NewEncoder(writer).Encode(body)
}

func respond(status int, body interface{}) http.HandlerFunc {
	return func(writer http.ResponseWriter, _ *http.Request) {
		writeJSON(writer, status, body)
	}
}
