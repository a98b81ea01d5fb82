package commands_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/fivetwenty-io/prophet/cmd/prophet/commands"
	"github.com/fivetwenty-io/prophet/internal/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRootCommand(t *testing.T) {
	setupConfig(t)

	root := commands.NewRootCommand("dev", "none", "unknown")
	assert.Equal(t, "prophet", root.Use)
	assert.True(t, root.SilenceUsage)
	assert.True(t, root.SilenceErrors)

	for _, name := range []string{"version", "login", "logout", "config", "health", "token", "flows", "deployments"} {
		assert.NotNil(t, findSubcommand(root, name), "command %s should exist", name)
	}

	for _, flag := range []string{"config", "base-url", "client-id", "client-secret", "output", "verbose", "log-level", "timeout", "retry-max"} {
		assert.NotNil(t, root.PersistentFlags().Lookup(flag), "flag %s should exist", flag)
	}

	flows := findSubcommand(root, "flows")
	require.NotNil(t, flows)
	assert.Equal(t, []string{"flow"}, flows.Aliases)

	for _, name := range []string{"search", "page", "export"} {
		sub := findSubcommand(flows, name)
		require.NotNil(t, sub, "flows %s should exist", name)

		for _, flag := range []string{"instance", "query", "start", "end", "sort", "fields", "size"} {
			assert.NotNil(t, sub.Flags().Lookup(flag), "flows %s flag %s should exist", name, flag)
		}
	}

	deployments := findSubcommand(root, "deployments")
	require.NotNil(t, deployments)

	for _, name := range []string{"list", "get", "create", "delete"} {
		assert.NotNil(t, findSubcommand(deployments, name), "deployments %s should exist", name)
	}

	deleteCmd := findSubcommand(deployments, "delete")
	forceFlag := deleteCmd.Flags().Lookup("force")
	require.NotNil(t, forceFlag)
	assert.Equal(t, "f", forceFlag.Shorthand)
	assert.Equal(t, "false", forceFlag.DefValue)
}

func TestVersionCommand(t *testing.T) {
	setupConfig(t)

	res := run("", "version", "-o", "json")
	require.NoError(t, res.err)

	var info commands.VersionInfo
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &info))
	assert.Equal(t, commands.VersionInfo{Version: "1.2.3", Commit: "abc123", Built: "2025-01-01"}, info)

	res = run("", "version", "-o", "xml")
	require.ErrorIs(t, res.err, constants.ErrUnsupportedFormat)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestConfigCommands(t *testing.T) {
	configFile := setupConfig(t)

	res := run("", "config", "set", "base_url", "api.prophet.example")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "base_url")

	res = run("", "config", "set", "client_secret", "s3cret", "-o", "json")
	require.NoError(t, res.err)
	assert.JSONEq(t, `{"action":"Set","key":"client_secret","value":"***"}`, res.stdout)

	require.NoError(t, run("", "config", "set", "instance", "inst-1").err)

	stored := readConfig(t, configFile)
	assert.Equal(t, "api.prophet.example", stored.BaseURL)
	assert.Equal(t, "s3cret", stored.ClientSecret)
	assert.Equal(t, "inst-1", stored.Instance)
	assert.Empty(t, stored.Output, "flag defaults must not be persisted")

	res = run("", "config", "show", "-o", "json")
	require.NoError(t, res.err)

	var shown commands.Config
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &shown))
	assert.Equal(t, "api.prophet.example", shown.BaseURL)
	assert.Equal(t, constants.MaskedSecret, shown.ClientSecret)

	require.NoError(t, run("", "config", "unset", "instance").err)
	assert.Empty(t, readConfig(t, configFile).Instance)

	t.Run("errors", func(t *testing.T) {
		res := run("", "config", "set", "colour", "blue")
		require.ErrorIs(t, res.err, constants.ErrUnknownConfigKey)

		res = run("", "config", "set", "token", "abc")
		require.ErrorIs(t, res.err, constants.ErrTokenNotSettable)

		res = run("", "config", "set", "output", "xml")
		require.ErrorIs(t, res.err, constants.ErrUnsupportedFormat)

		res = run("", "config", "set", "base_url")
		require.Error(t, res.err)
	})
}

func TestConfigSet_ClearsCachedToken(t *testing.T) {
	configFile := setupConfig(t)

	srv := newProphetServer(t)
	srv.login(t)
	require.NotEmpty(t, readConfig(t, configFile).Token)

	require.NoError(t, run("", "config", "set", "client_id", "other-client").err)

	stored := readConfig(t, configFile)
	assert.Empty(t, stored.Token)
	assert.Nil(t, stored.TokenExpiresAt)
}

//nolint:funlen // Test functions can be longer for comprehensive testing
func TestLoginCommand(t *testing.T) {
	t.Run("with flags", func(t *testing.T) {
		configFile := setupConfig(t)
		srv := newProphetServer(t)

		res := run("", "login", "--base-url", srv.URL+"/", "--client-id", "client-id", "--client-secret", "client-secret")
		require.NoError(t, res.err)
		assert.Contains(t, res.stdout, "Successfully logged in to "+srv.URL)
		assert.Equal(t, int32(1), srv.tokenFetches.Load())

		stored := readConfig(t, configFile)
		assert.Equal(t, srv.URL, stored.BaseURL)
		assert.Equal(t, "client-id", stored.ClientID)
		assert.Equal(t, "client-secret", stored.ClientSecret)
		assert.NotEmpty(t, stored.Token)
		require.NotNil(t, stored.TokenExpiresAt)
	})

	t.Run("prompts for missing values", func(t *testing.T) {
		configFile := setupConfig(t)
		srv := newProphetServer(t)

		res := run(srv.URL+"\nclient-id\nclient-secret\n", "login")
		require.NoError(t, res.err)
		assert.Contains(t, res.stderr, "API base URL: ")
		assert.Contains(t, res.stderr, "Client secret: ")

		stored := readConfig(t, configFile)
		assert.Equal(t, "client-id", stored.ClientID)
		assert.NotEmpty(t, stored.Token)
	})

	t.Run("rejected credentials are not saved", func(t *testing.T) {
		configFile := setupConfig(t)

		srv := newProphetServer(t)
		srv.rejectToken.Store(true)

		res := run("", "login", "--base-url", srv.URL, "--client-id", "client-id", "--client-secret", "wrong")
		require.Error(t, res.err)
		assert.Contains(t, res.err.Error(), "Invalid credentials")
		assert.NoFileExists(t, configFile)
	})

	t.Run("missing value", func(t *testing.T) {
		setupConfig(t)

		res := run("\n", "login")
		require.ErrorIs(t, res.err, constants.ErrMissingValue)
	})
}

func TestLogoutCommand(t *testing.T) {
	configFile := setupConfig(t)

	srv := newProphetServer(t)
	srv.login(t)

	res := run("", "logout")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "Successfully logged out")

	stored := readConfig(t, configFile)
	assert.Equal(t, srv.URL, stored.BaseURL)
	assert.Empty(t, stored.ClientID)
	assert.Empty(t, stored.ClientSecret)
	assert.Empty(t, stored.Token)
}

func TestHealthCommand(t *testing.T) {
	setupConfig(t)

	srv := newProphetServer(t)
	srv.handle("GET /health", respond(http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "prophet-api",
		"version": "1.4.2",
	}))

	res := run("", "health", "--base-url", srv.URL, "-o", "json")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, `"status": "healthy"`)
	assert.Equal(t, int32(0), srv.tokenFetches.Load())

	res = run("", "health")
	require.ErrorIs(t, res.err, constants.ErrNotConfigured)
}

func TestTokenCommands(t *testing.T) {
	configFile := setupConfig(t)

	srv := newProphetServer(t)
	srv.login(t)

	res := run("", "token", "show", "-o", "json")
	require.NoError(t, res.err)
	assert.Equal(t, int32(1), srv.tokenFetches.Load(), "the token saved by login is reused")

	var status commands.TokenStatus
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &status))
	assert.True(t, status.Valid)
	assert.Equal(t, "Bearer", status.TokenType)
	assert.Equal(t, "client-id", status.Subject)
	assert.Equal(t, "prophet-auth", status.Issuer)
	assert.Equal(t, []string{"prophet-api"}, status.Audience)
	assert.Contains(t, status.Token, constants.MaskedSecret)

	before := readConfig(t, configFile).Token

	res = run("", "token", "refresh", "--reveal", "-o", "json")
	require.NoError(t, res.err)
	assert.Equal(t, int32(2), srv.tokenFetches.Load())

	require.NoError(t, json.Unmarshal([]byte(res.stdout), &status))
	assert.Equal(t, readConfig(t, configFile).Token, status.Token, "refreshed token is persisted")
	assert.NotEmpty(t, before)
}
