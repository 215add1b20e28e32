//go:build integration

package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestConfig holds configuration for integration tests
type TestConfig struct {
	APIEndpoint string
	Username    string
	Password    string
	Resource    string
	WenuPath    string
	Verbose     bool
}

// LoadTestConfig loads configuration from environment variables
func LoadTestConfig() *TestConfig {
	resource := os.Getenv("WENU_IT_RESOURCE")
	if resource == "" {
		resource = "Book"
	}

	return &TestConfig{
		APIEndpoint: os.Getenv("WENU_IT_API"),
		Username:    os.Getenv("WENU_IT_USERNAME"),
		Password:    os.Getenv("WENU_IT_PASSWORD"),
		Resource:    resource,
		WenuPath:    getWenuPath(),
		Verbose:     os.Getenv("WENU_IT_VERBOSE") == "true",
	}
}

// getWenuPath determines the path to the wenu binary
func getWenuPath() string {
	if path := os.Getenv("WENU_BINARY_PATH"); path != "" {
		return path
	}

	// Try common locations
	candidates := []string{
		"../../wenu",
		"./wenu",
		"../wenu",
	}

	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}

	return "wenu" // Fallback to PATH
}

// SkipIfMissingConfig skips test if required config is missing
func (config *TestConfig) SkipIfMissingConfig(t *testing.T) {
	t.Helper()

	if config.APIEndpoint == "" || config.Username == "" {
		t.Skip("WENU_IT_API or WENU_IT_USERNAME not set, skipping integration test")
	}

	if _, err := exec.LookPath(config.WenuPath); err != nil {
		t.Skipf("wenu binary not found at %s, skipping integration test", config.WenuPath)
	}
}

// CommandRunner runs the wenu binary against an isolated config file
type CommandRunner struct {
	config     *TestConfig
	configFile string
	t          *testing.T
}

// NewCommandRunner creates a new command runner
func NewCommandRunner(config *TestConfig, t *testing.T) *CommandRunner {
	t.Helper()

	return &CommandRunner{
		config:     config,
		configFile: filepath.Join(t.TempDir(), "config.yml"),
		t:          t,
	}
}

// Run executes a wenu command and returns output
func (runner *CommandRunner) Run(args ...string) (stdout, stderr string, err error) {
	return runner.RunWithInput("", args...)
}

// RunWithInput executes a wenu command with stdin input
func (runner *CommandRunner) RunWithInput(input string, args ...string) (stdout, stderr string, err error) {
	args = append([]string{"--config", runner.configFile}, args...)

	cmd := exec.Command(runner.config.WenuPath, args...)

	var stdoutBuf, stderrBuf bytes.Buffer

	cmd.Stdout = &stdoutBuf
	cmd.Stderr = &stderrBuf
	cmd.Stdin = strings.NewReader(input)

	if runner.config.Verbose {
		runner.t.Logf("Running: %s %s", runner.config.WenuPath, strings.Join(args, " "))
	}

	err = cmd.Run()
	stdout = stdoutBuf.String()
	stderr = stderrBuf.String()

	if runner.config.Verbose && err != nil {
		runner.t.Logf("Command failed: %v\nStdout: %s\nStderr: %s", err, stdout, stderr)
	}

	return stdout, stderr, err
}

// RunJSON executes a wenu command with json output and decodes it into out
func (runner *CommandRunner) RunJSON(out interface{}, args ...string) error {
	stdout, stderr, err := runner.Run(append(args, "--output", "json")...)
	if err != nil {
		return fmt.Errorf("wenu %s: %s", strings.Join(args, " "), stderr)
	}

	return json.Unmarshal([]byte(stdout), out)
}

// Login authenticates with the configured credentials
func (runner *CommandRunner) Login() error {
	_, stderr, err := runner.RunWithInput(runner.config.Password+"\n",
		"login", "--api", runner.config.APIEndpoint, "--username", runner.config.Username)
	if err != nil {
		return fmt.Errorf("failed to log in: %s", stderr)
	}

	return nil
}

// GenerateTestName creates a unique test value
func GenerateTestName(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixNano())
}

// CleanupRow attempts to delete a test row
func (runner *CommandRunner) CleanupRow(id string) {
	stdout, stderr, err := runner.Run("delete", runner.config.Resource, id)
	if err != nil && runner.config.Verbose {
		runner.t.Logf("Cleanup warning for %s %s: %s\nStderr: %s", runner.config.Resource, id, stdout, stderr)
	}
}

// AssertJSONOutput verifies command output is valid JSON
func AssertJSONOutput(t *testing.T, output string) {
	t.Helper()

	if !json.Valid([]byte(strings.TrimSpace(output))) {
		t.Errorf("Output is not JSON: %s", output)
	}
}
