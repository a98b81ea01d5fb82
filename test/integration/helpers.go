//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	InstanceID   string
	ParentID     string
	NATSURL      string
	ProphetPath  string
	Verbose      bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	return &TestConfig{
		BaseURL:      os.Getenv("PROPHET_IT_BASE_URL"),
		ClientID:     os.Getenv("PROPHET_IT_CLIENT_ID"),
		ClientSecret: os.Getenv("PROPHET_IT_CLIENT_SECRET"),
		InstanceID:   os.Getenv("PROPHET_IT_INSTANCE"),
		ParentID:     os.Getenv("PROPHET_IT_PARENT_ID"),
		NATSURL:      os.Getenv("PROPHET_IT_NATS_URL"),
		ProphetPath:  getProphetPath(),
		Verbose:      os.Getenv("PROPHET_IT_VERBOSE") == "true",
	}
}

// getProphetPath determines the path to the prophet binary
func getProphetPath() string {
	if path := os.Getenv("PROPHET_BINARY_PATH"); path != "" {
		return path
	}

	candidates := []string{
		"../../prophet",
		"./prophet",
		"../prophet",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "prophet"
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.BaseURL == "" || config.ClientID == "" || config.ClientSecret == "" {
		t.Skip("PROPHET_IT_BASE_URL, PROPHET_IT_CLIENT_ID or PROPHET_IT_CLIENT_SECRET not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.ProphetPath); err != nil {
		t.Skipf("prophet binary not found at %s, skipping integration test", config.ProphetPath)
	}
}

// CommandRunner runs the prophet binary against its own config file.
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a runner with an empty config in a temp dir.
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a prophet command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a prophet command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	// #nosec G204 -- test binary path comes from the environment
	cmd := exec.Command(runner.config.ProphetPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.ProphetPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// Login stores the test credentials and a fresh token in the runner's config.
func (runner *CommandRunner) Login() error {
	_, stderr, err := runner.Run("login",
		"--base-url", runner.config.BaseURL,
		"--client-id", runner.config.ClientID,
		"--client-secret", runner.config.ClientSecret)
	if err != nil {
		return &commandError{args: "login", stderr: stderr, err: err}
	}

	return nil
}

type commandError struct {
	args   string
	stderr string
	err    error
}

func (e *commandError) Error() string {
	return "prophet " + e.args + " failed: " + e.err.Error() + ": " + strings.TrimSpace(e.stderr)
}

func (e *commandError) Unwrap() error { return e.err }

// GenerateTestName creates a unique test resource name
func GenerateTestName(prefix string) string {
	return prefix + "-" + time.Now().UTC().Format("20060102150405")
}

// DecodeJSON unmarshals command output into v, failing the test on error.
func DecodeJSON(t *testing.T, output string, v interface{}) {
	t.Helper()

	err := json.Unmarshal([]byte(strings.TrimSpace(output)), v)
	if err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, output)
	}
}

// AssertYAMLOutput verifies command output looks like YAML
func AssertYAMLOutput(t *testing.T, output string) {
	t.Helper()

	output = strings.TrimSpace(output)
	if strings.Contains(output, ":") {
		return
	}

	t.Errorf("Output does not appear to be YAML: %s", output)
}
