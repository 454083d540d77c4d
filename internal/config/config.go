// Package config loads FlowCore's controller configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// LoggingConfig controls the logger wrapper in pkg/logger.
type LoggingConfig struct {
	Level      string `yaml:"level" env:"FLOWCORE_LOG_LEVEL"`
	Format     string `yaml:"format" env:"FLOWCORE_LOG_FORMAT"`
	Output     string `yaml:"output" env:"FLOWCORE_LOG_OUTPUT"`
	FilePrefix string `yaml:"file_prefix" env:"FLOWCORE_LOG_FILE_PREFIX"`
}

// SiteToSiteConfig controls the remote-process-group listener.
type SiteToSiteConfig struct {
	ListenPort int  `yaml:"listen_port" env:"FLOWCORE_S2S_PORT"`
	Secure     bool `yaml:"secure" env:"FLOWCORE_S2S_SECURE"`
	CertFile   string `yaml:"cert_file" env:"FLOWCORE_S2S_CERT_FILE"`
	KeyFile    string `yaml:"key_file" env:"FLOWCORE_S2S_KEY_FILE"`
}

// RepositoryImplementations names the plug-in classes backing each delegated
// repository (spec.md §6's `*.implementation` configuration keys).
type RepositoryImplementations struct {
	FlowFileRepository      string `yaml:"flowfile_repository" env:"FLOWCORE_FLOWFILE_REPOSITORY_IMPL"`
	ContentRepository       string `yaml:"content_repository" env:"FLOWCORE_CONTENT_REPOSITORY_IMPL"`
	ProvenanceRepository    string `yaml:"provenance_repository" env:"FLOWCORE_PROVENANCE_REPOSITORY_IMPL"`
	SwapManager             string `yaml:"swap_manager" env:"FLOWCORE_SWAP_MANAGER_IMPL"`
	ComponentStatusRepository string `yaml:"component_status_repository" env:"FLOWCORE_COMPONENT_STATUS_REPOSITORY_IMPL"`
}

// Config is the top-level configuration consumed by the controller.
type Config struct {
	Logging LoggingConfig `yaml:"logging"`
	SiteToSite SiteToSiteConfig `yaml:"site_to_site"`
	Implementations RepositoryImplementations `yaml:"implementations"`

	// MinimumSchedulingNanos floors every timer/cron/primary-only scheduling
	// period (`flowcontroller.minimum.nanoseconds`).
	MinimumSchedulingNanos int64 `yaml:"minimum_scheduling_nanoseconds" env:"FLOWCORE_MINIMUM_SCHEDULING_NANOS"`

	// GracefulShutdownSeconds is the pool-drain budget on shutdown(kill=false).
	// Values < 1 fall back to DefaultGracefulShutdownSeconds.
	GracefulShutdownSeconds int `yaml:"graceful_shutdown_seconds" env:"FLOWCORE_GRACEFUL_SHUTDOWN_SECONDS"`

	// HeartbeatIntervalSeconds is the generator task cadence (`node.heartbeat.interval`).
	HeartbeatIntervalSeconds int `yaml:"heartbeat_interval_seconds" env:"FLOWCORE_HEARTBEAT_INTERVAL_SECONDS"`

	// StatusSnapshotMillis is the status aggregator cadence (`component.status.snapshot.frequency`).
	StatusSnapshotMillis int64 `yaml:"status_snapshot_millis" env:"FLOWCORE_STATUS_SNAPSHOT_MILLIS"`

	// RemoteGroupRefreshSeconds is the remote-process-group port-refresh cadence.
	RemoteGroupRefreshSeconds int `yaml:"remote_group_refresh_seconds" env:"FLOWCORE_REMOTE_GROUP_REFRESH_SECONDS"`
}

// DefaultGracefulShutdownSeconds is applied when GracefulShutdownSeconds < 1.
const DefaultGracefulShutdownSeconds = 10

// DefaultMinimumSchedulingNanos is the default scheduling-period floor.
const DefaultMinimumSchedulingNanos = int64(30 * time.Millisecond)

// DefaultHeartbeatIntervalSeconds is the default generator cadence.
const DefaultHeartbeatIntervalSeconds = 5

// DefaultStatusSnapshotMillis is the default status aggregator cadence.
const DefaultStatusSnapshotMillis = int64(5 * time.Minute / time.Millisecond)

// DefaultRemoteGroupRefreshSeconds is the default remote-group refresh cadence.
const DefaultRemoteGroupRefreshSeconds = 30

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		MinimumSchedulingNanos:   DefaultMinimumSchedulingNanos,
		GracefulShutdownSeconds:  DefaultGracefulShutdownSeconds,
		HeartbeatIntervalSeconds: DefaultHeartbeatIntervalSeconds,
		StatusSnapshotMillis:     DefaultStatusSnapshotMillis,
		RemoteGroupRefreshSeconds: DefaultRemoteGroupRefreshSeconds,
	}
}

// Load reads an optional `.env` file, an optional YAML file at path (ignored
// if empty or missing), then overlays environment variables via envdecode.
// Matches the layering order of pkg/config in the teacher repo.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := New()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := envdecode.Decode(cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("decode environment overrides: %w", err)
	}

	cfg.normalize()

	if cfg.SiteToSite.Secure && (cfg.SiteToSite.CertFile == "" || cfg.SiteToSite.KeyFile == "") {
		return nil, fmt.Errorf("site_to_site.secure requires cert_file and key_file")
	}

	return cfg, nil
}

func (c *Config) normalize() {
	if c.GracefulShutdownSeconds < 1 {
		c.GracefulShutdownSeconds = DefaultGracefulShutdownSeconds
	}
	if c.MinimumSchedulingNanos <= 0 {
		c.MinimumSchedulingNanos = DefaultMinimumSchedulingNanos
	}
	if c.HeartbeatIntervalSeconds <= 0 {
		c.HeartbeatIntervalSeconds = DefaultHeartbeatIntervalSeconds
	}
	if c.StatusSnapshotMillis <= 0 {
		c.StatusSnapshotMillis = DefaultStatusSnapshotMillis
	}
	if c.RemoteGroupRefreshSeconds <= 0 {
		c.RemoteGroupRefreshSeconds = DefaultRemoteGroupRefreshSeconds
	}
}
