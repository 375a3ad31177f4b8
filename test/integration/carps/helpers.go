package carps

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/slok/carps/test/integration/testutils"
)

// Config holds the integration test configuration loaded from environment variables.
type Config struct {
	Binary    string
	Toolchain string
	// Docker enables the docker runner tests.
	Docker bool
}

func (c *Config) defaults() error {
	// go test changes the CWD to the package directory, relative paths would be ambiguous.
	if !filepath.IsAbs(c.Binary) {
		return fmt.Errorf("CARPS_INTEGRATION_BINARY must be an absolute path, got %q", c.Binary)
	}
	if _, err := os.Stat(c.Binary); err != nil {
		return fmt.Errorf("carps binary not found at %q: %w", c.Binary, err)
	}

	if c.Toolchain == "" {
		c.Toolchain = "dotnet"
	}

	return nil
}

// NewConfig loads the integration test configuration from environment variables.
// If the config is invalid or the activation env var is not set, the test is skipped.
func NewConfig(t *testing.T) Config {
	t.Helper()

	const (
		envActivation = "CARPS_INTEGRATION"
		envBinary     = "CARPS_INTEGRATION_BINARY"
		envToolchain  = "CARPS_INTEGRATION_TOOLCHAIN"
		envDocker     = "CARPS_INTEGRATION_DOCKER"
	)

	if os.Getenv(envActivation) != "true" {
		t.Skipf("Skipping integration test: %s is not set to 'true'", envActivation)
	}

	c := Config{
		Binary:    os.Getenv(envBinary),
		Toolchain: os.Getenv(envToolchain),
		Docker:    os.Getenv(envDocker) == "true",
	}

	if err := c.defaults(); err != nil {
		t.Skipf("Skipping due to invalid config: %s", err)
	}

	return c
}

// RequireLocalToolchain skips the test when the toolchain is not installed.
func (c Config) RequireLocalToolchain(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath(c.Toolchain); err != nil {
		t.Skipf("Skipping: toolchain %q not found: %s", c.Toolchain, err)
	}
}

// RunCarpsCmd runs a carps command with an isolated data dir.
func RunCarpsCmd(ctx context.Context, config Config, dataDir string, args ...string) (stdout, stderr []byte, err error) {
	args = append([]string{"--data-dir", dataDir}, args...)
	env := []string{
		"DOTNET_CLI_TELEMETRY_OPTOUT=1",
		"DOTNET_NOLOGO=1",
	}
	return testutils.RunCarps(ctx, env, config.Binary, args, true)
}

// RunNew scaffolds a project in workDir with the JSON output.
func RunNew(ctx context.Context, config Config, dataDir, workDir, name string, extra ...string) (stdout, stderr []byte, err error) {
	args := append([]string{"new", name, "-C", workDir, "-o", "json", "--toolchain", config.Toolchain}, extra...)
	return RunCarpsCmd(ctx, config, dataDir, args...)
}
