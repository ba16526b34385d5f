package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/regcheck/internal/domain/chain"
)

// isolate runs the test in an empty working and home directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolate(t)

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, ".", c.Registry.Path)
	require.Equal(t, "text", c.Output.Format)
	require.Equal(t, 10*time.Second, c.Adapters.Timeout)
	require.Equal(t, 300*time.Millisecond, c.Watch.Debounce)
	require.NoError(t, c.Validate())
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
registry:
  path: /data/registry
output:
  fail_on: soft
adapters:
  timeout: 3s
policy:
  extra_categories: ["Brand New"]
flags:
  strict-index: true
`), 0o600))

	c, err := loadConfig(viper.New(), path)
	require.NoError(t, err)
	require.Equal(t, "/data/registry", c.Registry.Path)
	require.Equal(t, "soft", c.Output.FailOn)
	require.Equal(t, "text", c.Output.Format)
	require.Equal(t, 3*time.Second, c.Adapters.Timeout)
	require.Equal(t, []string{"Brand New"}, c.Policy.ExtraCategories)
	require.True(t, c.Flags["strict-index"])
}

func TestLoadConfig_LocalFileWins(t *testing.T) {
	dir := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".config", "regcheck"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".config", "regcheck", "config.yaml"), []byte("output:\n  format: json\n"), 0o600))

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "json", c.Output.Format)

	require.NoError(t, os.MkdirAll(".regcheck", 0o750))
	require.NoError(t, os.WriteFile(LocalConfigPath, []byte("output:\n  format: text\n"), 0o600))

	c, err = loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "text", c.Output.Format)
}

func TestLoadConfig_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("REGCHECK_OUTPUT_FORMAT", "json")
	t.Setenv("REGCHECK_REGISTRY_PATH", "/env/registry")

	c, err := loadConfig(viper.New(), "")
	require.NoError(t, err)
	require.Equal(t, "json", c.Output.Format)
	require.Equal(t, "/env/registry", c.Registry.Path)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := isolate(t)

	_, err := loadConfig(viper.New(), filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("output: [unclosed\n"), 0o600))
	_, err = loadConfig(viper.New(), bad)
	require.ErrorContains(t, err, "reading config")
}

func TestExitCode(t *testing.T) {
	require.Equal(t, ExitOK, ExitCode(nil))
	require.Equal(t, ExitViolations, ExitCode(fmt.Errorf("%w: 2 hard", ErrViolations)))
	require.Equal(t, ExitViolations, ExitCode(fmt.Errorf("%w: x: %w", ErrViolations, chain.ErrUnknownChain)))
	require.Equal(t, ExitError, ExitCode(errors.New("boom")))
}
