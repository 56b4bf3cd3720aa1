// Package config loads specdeck configuration from TOML files and
// environment variables via viper.
package config

// Config represents the core specdeck configuration
type Config struct {
	// BaseDir is the directory ingested at startup and watched for changes
	BaseDir  string         `mapstructure:"base_dir"`
	Database DatabaseConfig `mapstructure:"database"`
	Loader   LoaderConfig   `mapstructure:"loader"`
	Watcher  WatcherConfig  `mapstructure:"watcher"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
}

// DatabaseConfig configures the SQLite store
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// LoaderConfig configures source loading
type LoaderConfig struct {
	URLTimeoutSeconds int `mapstructure:"url_timeout_seconds"` // hard timeout on URL fetches (default: 30)
}

// WatcherConfig configures the filesystem change watcher
type WatcherConfig struct {
	DebounceMs           int `mapstructure:"debounce_ms"`             // coalescing window per path (default: 200)
	MaxTriggersPerMinute int `mapstructure:"max_triggers_per_minute"` // per-path trigger ceiling (default: 60)
}

// IngestConfig holds default orchestrator options
type IngestConfig struct {
	EnableValidation bool `mapstructure:"enable_validation"`
	SkipInvalidFiles bool `mapstructure:"skip_invalid_files"`
	EnableLogging    bool `mapstructure:"enable_logging"`
}
