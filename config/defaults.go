package config

import (
	"github.com/spf13/viper"
)

// SetDefaults configures default values for all configuration options
func SetDefaults(v *viper.Viper) {
	v.SetDefault("base_dir", "./specs")

	// Database defaults
	v.SetDefault("database.path", "specdeck.db")

	// Loader defaults
	v.SetDefault("loader.url_timeout_seconds", 30)

	// Watcher defaults
	v.SetDefault("watcher.debounce_ms", 200)
	v.SetDefault("watcher.max_triggers_per_minute", 60)

	// Ingest defaults
	v.SetDefault("ingest.enable_validation", true)
	v.SetDefault("ingest.skip_invalid_files", false)
	v.SetDefault("ingest.enable_logging", true)
}
