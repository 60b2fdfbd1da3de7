// Package config handles tool configuration loading and management.
package config

// Config holds all settings.
type Config struct {
	Data    DataConfig    `yaml:"data"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig holds game data file paths.
type DataConfig struct {
	// RFFPaths lists the resource archives to mount, lowest priority
	// first.
	RFFPaths []string `yaml:"rff_paths"`

	// CacheEntries caps the decrypted-payload cache.
	CacheEntries int `yaml:"cache_entries"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			RFFPaths:     []string{"BLOOD.RFF"},
			CacheEntries: 256,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
