package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowcore/internal/config"
)

func TestNew_PopulatesDefaults(t *testing.T) {
	cfg := config.New()

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, config.DefaultGracefulShutdownSeconds, cfg.GracefulShutdownSeconds)
	assert.Equal(t, config.DefaultMinimumSchedulingNanos, cfg.MinimumSchedulingNanos)
	assert.Equal(t, config.DefaultHeartbeatIntervalSeconds, cfg.HeartbeatIntervalSeconds)
	assert.Equal(t, config.DefaultStatusSnapshotMillis, cfg.StatusSnapshotMillis)
}

func TestLoad_MissingPathFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_NonexistentFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.DefaultGracefulShutdownSeconds, cfg.GracefulShutdownSeconds)
}

func TestLoad_YAMLFileOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcore.yaml")
	yamlBody := "logging:\n  level: debug\n  format: json\ngraceful_shutdown_seconds: 42\n"
	require.NoError(t, os.WriteFile(path, []byte(yamlBody), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 42, cfg.GracefulShutdownSeconds)
}

func TestLoad_EnvironmentOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: debug\n"), 0o644))

	t.Setenv("FLOWCORE_LOG_LEVEL", "warn")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.Logging.Level)
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging: [this is not a mapping"), 0o644))

	_, err := config.Load(path)
	assert.Error(t, err)
}

func TestLoad_SecureSiteToSiteRequiresCertAndKey(t *testing.T) {
	t.Setenv("FLOWCORE_S2S_SECURE", "true")
	t.Setenv("FLOWCORE_S2S_CERT_FILE", "")
	t.Setenv("FLOWCORE_S2S_KEY_FILE", "")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_NormalizesNonPositiveValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "flowcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte("graceful_shutdown_seconds: 0\nminimum_scheduling_nanoseconds: -5\n"), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.DefaultGracefulShutdownSeconds, cfg.GracefulShutdownSeconds)
	assert.Equal(t, config.DefaultMinimumSchedulingNanos, cfg.MinimumSchedulingNanos)
}
