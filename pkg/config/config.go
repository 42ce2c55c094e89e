package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete dagfs configuration.
//
// This structure captures all configurable aspects of the dagfs daemon
// including:
//   - Logging configuration
//   - Server-wide settings
//   - Seeding of the baseline filesystem layout
//   - Snapshot store selection and configuration (store-specific)
//   - Garbage collector settings
//   - Metrics settings
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (DAGFS_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each snapshot store implementation defines its own configuration type and
// factory function. The SnapshotStoreConfig struct contains type-specific
// sections (e.g., snapshot.store.filesystem, snapshot.store.badger) and only
// the section matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging"`

	// Server contains server-wide settings
	Server ServerConfig `mapstructure:"server"`

	// Seed controls creation of the baseline /etc and /dev layout
	Seed SeedConfig `mapstructure:"seed"`

	// Snapshot specifies snapshot persistence behavior
	Snapshot SnapshotConfig `mapstructure:"snapshot"`

	// GC configures the background garbage collector
	GC GCConfig `mapstructure:"gc"`

	// Metrics configures Prometheus metrics collection
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains server-wide settings.
type ServerConfig struct {
	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0"`
}

// SeedConfig controls baseline filesystem seeding.
type SeedConfig struct {
	// Enabled populates /etc/passwd, /etc/group and the /dev devices on a
	// fresh (non-restored) filesystem
	Enabled bool `mapstructure:"enabled"`
}

// SnapshotConfig specifies snapshot persistence behavior.
type SnapshotConfig struct {
	// Store specifies the snapshot store type and type-specific configuration
	Store SnapshotStoreConfig `mapstructure:"store"`

	// Name is the snapshot name used by autosave and by -load/-save without
	// an explicit name
	Name string `mapstructure:"name" validate:"required"`

	// AutosaveInterval saves the filesystem periodically in daemon mode.
	// Zero disables autosave.
	AutosaveInterval time.Duration `mapstructure:"autosave_interval" validate:"gte=0"`
}

// SnapshotStoreConfig specifies snapshot store configuration.
//
// The Type field determines which store implementation is used.
// Only the corresponding type-specific configuration section is used.
type SnapshotStoreConfig struct {
	// Type specifies which snapshot store implementation to use
	// Valid values: filesystem, badger, s3
	Type string `mapstructure:"type" validate:"required,oneof=filesystem badger s3"`

	// Filesystem contains filesystem-specific configuration
	// Only used when Type = "filesystem"
	Filesystem map[string]any `mapstructure:"filesystem"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3"`
}

// GCConfig configures the background garbage collector.
type GCConfig struct {
	// Enabled runs the collector in daemon mode
	Enabled bool `mapstructure:"enabled"`

	// Interval is the time between collection runs
	Interval time.Duration `mapstructure:"interval" validate:"gte=0"`

	// DryRun reports orphaned nodes without removing them
	DryRun bool `mapstructure:"dry_run"`
}

// MetricsConfig configures Prometheus metrics collection.
type MetricsConfig struct {
	// Enabled initializes the registry and serves /metrics
	Enabled bool `mapstructure:"enabled"`

	// Port is the HTTP port for the metrics server
	Port int `mapstructure:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (DAGFS_*)
//  2. Configuration file
//  3. Default values
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: Configuration loading or validation error
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Configure viper
	setupViper(v, configPath)

	// Read configuration file if it exists
	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	// Unmarshal into config struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Apply defaults for any missing values
	ApplyDefaults(&cfg)

	// Validate configuration
	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Set up environment variable support
	// Environment variables use DAGFS_ prefix and underscores
	// Example: DAGFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("DAGFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Configure config file search
	if configPath != "" {
		// Use explicitly specified config file
		v.SetConfigFile(configPath)
	} else {
		// Use default location: $XDG_CONFIG_HOME/dagfs/config.{yaml,toml}
		configDir := getConfigDir()
		v.AddConfigPath(configDir)
		v.SetConfigName("config")
		v.SetConfigType("yaml") // Primary format
	}
}

// readConfigFile reads the configuration file if it exists.
//
// A missing config file is acceptable in both modes: defaults plus
// environment variables are enough to run. Note that viper reports a missing
// file differently depending on mode (ConfigFileNotFoundError for search
// paths, a plain fs error for an explicit path).
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		// Check if error is "config file not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is acceptable - use defaults
			return nil
		}
		if os.IsNotExist(err) {
			// Explicitly specified file does not exist - use defaults
			return nil
		}
		// Other errors are problems
		return fmt.Errorf("failed to read config file: %w", err)
	}

	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	// Check XDG_CONFIG_HOME
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "dagfs")
	}

	// Fall back to ~/.config
	home, err := os.UserHomeDir()
	if err != nil {
		// If we can't get home dir, use current directory as last resort
		return "."
	}

	return filepath.Join(home, ".config", "dagfs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}
