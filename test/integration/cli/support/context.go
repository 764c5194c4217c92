package support

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"time"
)

// BinaryEnv names the environment variable holding the path of the
// docscan binary under test.
const BinaryEnv = "DOCSCAN_BIN"

// TestContext holds the state of one scenario.
type TestContext struct {
	// Command execution state
	LastCommand  string
	LastStdout   string
	LastStderr   string
	LastError    error
	LastExitCode int
	LastDuration time.Duration

	// Test environment. Commands run inside WorkDir so relative paths in
	// feature files resolve against the scenario's own directory.
	WorkDir string
	EnvVars []string

	// Server state
	HTTPServer   *httptest.Server
	LastResponse *HTTPResponse
}

// HTTPResponse is a fully read HTTP response.
type HTTPResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// NewTestContext creates a scenario context with its own working
// directory. HOME and XDG_CONFIG_HOME point into it so user configuration
// files never leak into a scenario.
func NewTestContext() (*TestContext, error) {
	dir, err := os.MkdirTemp("", "docscan-test-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}
	ctx := &TestContext{WorkDir: dir}
	ctx.AddEnvVar("HOME", dir)
	ctx.AddEnvVar("XDG_CONFIG_HOME", filepath.Join(dir, ".config"))
	return ctx, nil
}

// Cleanup stops the test server and removes the working directory.
func (testCtx *TestContext) Cleanup() error {
	if testCtx.HTTPServer != nil {
		testCtx.HTTPServer.Close()
		testCtx.HTTPServer = nil
	}
	if err := os.RemoveAll(testCtx.WorkDir); err != nil {
		return fmt.Errorf("failed to remove temp directory %s: %w", testCtx.WorkDir, err)
	}
	return nil
}

// AddEnvVar adds an environment variable for command execution.
func (testCtx *TestContext) AddEnvVar(name, value string) {
	testCtx.EnvVars = append(testCtx.EnvVars, fmt.Sprintf("%s=%s", name, value))
}

// Path resolves name against the scenario directory.
func (testCtx *TestContext) Path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(testCtx.WorkDir, name)
}
