package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/churnmap/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "churnmap.yaml")

	err := os.WriteFile(path, []byte(content), 0o600)
	require.NoError(t, err)

	return path
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
history:
  backend: libgit2
  since: "2024-01-01"
  timeout: 90s
filter:
  include: [src/, cmd/]
  exclude: [_test.go]
  skip_vendor: true
graph:
  max_files: 25
server:
  port: 8080
  open: false
logging:
  level: debug
  json: true
`)

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, config.BackendLibgit2, cfg.History.Backend)
	assert.Equal(t, "2024-01-01", cfg.History.Since)
	assert.Equal(t, 90*time.Second, cfg.History.Timeout)
	assert.Equal(t, []string{"src/", "cmd/"}, cfg.Filter.Include)
	assert.Equal(t, []string{"_test.go"}, cfg.Filter.Exclude)
	assert.True(t, cfg.Filter.SkipVendor)
	assert.Equal(t, 25, cfg.Graph.MaxFiles)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.False(t, cfg.Server.Open)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.True(t, cfg.Logging.JSON)

	// Untouched keys keep their defaults.
	assert.Equal(t, config.DefaultHost, cfg.Server.Host)
	assert.Equal(t, config.DefaultCacheEntries, cfg.Server.CacheEntries)
	assert.Equal(t, config.DefaultReadTimeout, cfg.Server.ReadTimeout)
}

func TestLoadConfig_MissingDefaultFile_UsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)

	want := config.Default()

	assert.Equal(t, want.History, cfg.History)
	assert.Equal(t, want.Graph, cfg.Graph)
	assert.Equal(t, want.Server, cfg.Server)
	assert.Equal(t, want.Logging, cfg.Logging)
	assert.Equal(t, want.Telemetry, cfg.Telemetry)
	assert.Empty(t, cfg.Filter.Include)
	assert.False(t, cfg.Filter.SkipVendor)
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "graph:\n  max_files: 25\n")

	t.Setenv("CHURNMAP_GRAPH_MAX_FILES", "7")
	t.Setenv("CHURNMAP_SERVER_PORT", "9090")

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Graph.MaxFiles)
	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestLoadConfig_InvalidValue_ReturnsValidationError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "graph:\n  max_files: 0\n")

	_, err := config.LoadConfig(path)
	require.ErrorIs(t, err, config.ErrInvalidMaxFiles)
}

func TestLoadConfig_MalformedFile_ReturnsError(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "graph: [unterminated\n")

	_, err := config.LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config")
}

func TestLoadConfig_ExplicitMissingFile_ReturnsError(t *testing.T) {
	t.Parallel()

	_, err := config.LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
