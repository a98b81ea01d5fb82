package commands_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fivetwenty-io/prophet/cmd/prophet/commands"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// findSubcommand finds a subcommand by name within a cobra command.
func findSubcommand(cmd *cobra.Command, name string) *cobra.Command {
	for _, c := range cmd.Commands() {
		if c.Name() == name {
			return c
		}
	}

	return nil
}

// setupConfig points viper at an empty config file in a temp dir. Commands
// share viper's global state, so tests using it do not run in parallel.
func setupConfig(t *testing.T) string {
	t.Helper()

	viper.Reset()
	t.Cleanup(viper.Reset)

	configFile := filepath.Join(t.TempDir(), "config.yml")
	viper.SetConfigFile(configFile)

	return configFile
}

func writeConfig(t *testing.T, configFile string, config *commands.Config) {
	t.Helper()

	data, err := yaml.Marshal(config)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(configFile, data, 0o600))
	require.NoError(t, viper.ReadInConfig())
}

func readConfig(t *testing.T, configFile string) *commands.Config {
	t.Helper()

	data, err := os.ReadFile(configFile)
	require.NoError(t, err)

	config := &commands.Config{}
	require.NoError(t, yaml.Unmarshal(data, config))

	return config
}

type result struct {
	stdout string
	stderr string
	err    error
}

// run executes the CLI with args and stdin.
func run(stdin string, args ...string) result {
	root := commands.NewRootCommand("1.2.3", "abc123", "2025-01-01")

	var stdout, stderr bytes.Buffer

	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())

	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

// prophetServer scripts the Prophet API. The token endpoint issues a signed
// JWT; other routes are registered per test.
type prophetServer struct {
	*httptest.Server

	mu           sync.Mutex
	routes       map[string]http.HandlerFunc
	bodies       []map[string]interface{}
	tokenFetches atomic.Int32
	rejectToken  atomic.Bool
}

func newProphetServer(t *testing.T) *prophetServer {
	t.Helper()

	srv := &prophetServer{routes: map[string]http.HandlerFunc{}}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path

		if key == "POST /oauth2/token/1.0" {
			srv.tokenFetches.Add(1)

			if srv.rejectToken.Load() {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})

				return
			}

			expiresAt := time.Now().Add(time.Hour)
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
				"sub": "client-id",
				"iss": "prophet-auth",
				"aud": "prophet-api",
				"iat": time.Now().Unix(),
				"exp": expiresAt.Unix(),
			}).SignedString([]byte("test-signing-key"))
			require.NoError(t, err)

			writeJSON(w, http.StatusOK, map[string]interface{}{
				"access_token": token,
				"expires_at":   float64(expiresAt.Unix()),
			})

			return
		}

		var body map[string]interface{}
		_ = json.NewDecoder(r.Body).Decode(&body)

		srv.mu.Lock()
		srv.bodies = append(srv.bodies, body)
		handler, ok := srv.routes[key]
		srv.mu.Unlock()

		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no route " + key})

			return
		}

		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	return srv
}

func (s *prophetServer) handle(key string, handler http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.routes[key] = handler
}

func (s *prophetServer) requestBodies() []map[string]interface{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]map[string]interface{}(nil), s.bodies...)
}

// login stores credentials for srv in the current config file.
func (s *prophetServer) login(t *testing.T) {
	t.Helper()

	res := run("", "login", "--base-url", s.URL, "--client-id", "client-id", "--client-secret", "client-secret")
	require.NoError(t, res.err)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respond(status int, body interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, status, body)
	}
}
