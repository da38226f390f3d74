package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores all configuration of pkgindex.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Index   IndexConfig   `mapstructure:"index"`
	Log     LogConfig     `mapstructure:"log"`
	Search  SearchConfig  `mapstructure:"search"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// IndexConfig locates the index file and bounds waits on it.
type IndexConfig struct {
	Path        string        `mapstructure:"path"`
	BusyTimeout time.Duration `mapstructure:"busyTimeout"`
	LockTimeout time.Duration `mapstructure:"lockTimeout"`
	Workers     int           `mapstructure:"workers"`
}

// LogConfig selects log level and format ("json" or "console").
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SearchConfig holds search defaults.
type SearchConfig struct {
	MaxResults int `mapstructure:"maxResults"`
}

// MetricsConfig names the Prometheus text file written when the CLI exits.
// An empty File disables it.
type MetricsConfig struct {
	File string `mapstructure:"file"`
}

const (
	DefaultIndexPath = "index.db"
	EnvPrefix        = "PKGINDEX"
)

// Load reads configuration from configPath, or from pkgindex.yaml in the
// working directory when configPath is empty, overlaid with PKGINDEX_*
// environment variables. A missing default config file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("pkgindex")
		v.SetConfigType("yaml")
	}

	v.SetDefault("index.path", DefaultIndexPath)
	v.SetDefault("index.busyTimeout", 5*time.Second)
	v.SetDefault("index.lockTimeout", 30*time.Second)
	v.SetDefault("index.workers", 4)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("search.maxResults", 0)
	v.SetDefault("metrics.file", "")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_")) // index.busyTimeout becomes PKGINDEX_INDEX_BUSYTIMEOUT
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}
	return &cfg, nil
}
