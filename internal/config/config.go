// Package config loads spotd configuration from files, environment
// variables, and defaults. Precedence is flags > environment > config
// file > defaults, which viper gives us for free.
//
// Environment variables use the SPOTD_ prefix, e.g. SPOTD_PORT=3001.
// A .env file in the working directory is loaded first if present.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/surveyline/spotd/internal/session"
)

// Config holds all runtime settings for spotd.
type Config struct {
	// Port is the HTTP/WebSocket listen port.
	Port int `mapstructure:"port"`

	// DataPath is the spot data file (or SQLite database).
	DataPath string `mapstructure:"data_path"`

	// DataFormat selects the on-disk encoding: "flat", "geojson",
	// or "" to detect from the file extension.
	DataFormat string `mapstructure:"data_format"`

	// Validation selects save-time validation: "strict" or "lenient".
	Validation string `mapstructure:"validation"`

	// DefaultLat/DefaultLon are the fallback insert position when
	// nothing is selected.
	DefaultLat float64 `mapstructure:"default_lat"`
	DefaultLon float64 `mapstructure:"default_lon"`

	// LabelZoom is the minimum zoom at which marker labels show.
	LabelZoom int `mapstructure:"label_zoom"`

	// Debounce is the file watcher coalescing window.
	Debounce time.Duration `mapstructure:"debounce"`

	// LogFile enables rotating file logging when set. Empty means
	// stderr only.
	LogFile       string `mapstructure:"log_file"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups"`
}

// Default returns the configuration used when nothing is set.
func Default() *Config {
	return &Config{
		Port:          3001,
		DataPath:      "spots.json",
		DataFormat:    "",
		Validation:    "strict",
		DefaultLat:    session.DefaultLat,
		DefaultLon:    session.DefaultLon,
		LabelZoom:     16,
		Debounce:      100 * time.Millisecond,
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
	}
}

// Load reads configuration from the given file path, or searches the
// usual locations when path is empty. Missing config files are not an
// error; environment variables and defaults still apply.
func Load(path string) (*Config, error) {
	_ = godotenv.Load(".env")

	v := viper.New()
	v.SetConfigName("spotd")
	v.SetConfigType("yaml")

	def := Default()
	v.SetDefault("port", def.Port)
	v.SetDefault("data_path", def.DataPath)
	v.SetDefault("data_format", def.DataFormat)
	v.SetDefault("validation", def.Validation)
	v.SetDefault("default_lat", def.DefaultLat)
	v.SetDefault("default_lon", def.DefaultLon)
	v.SetDefault("label_zoom", def.LabelZoom)
	v.SetDefault("debounce", def.Debounce)
	v.SetDefault("log_file", def.LogFile)
	v.SetDefault("log_max_size_mb", def.LogMaxSizeMB)
	v.SetDefault("log_max_backups", def.LogMaxBackups)

	v.SetEnvPrefix("SPOTD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "spotd"))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail late and cryptically.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	switch c.Validation {
	case "", "strict", "lenient":
	default:
		return fmt.Errorf("invalid validation mode %q (want strict or lenient)", c.Validation)
	}
	switch c.DataFormat {
	case "", "flat", "geojson":
	default:
		return fmt.Errorf("invalid data format %q (want flat or geojson)", c.DataFormat)
	}
	if c.Debounce < 0 {
		return fmt.Errorf("invalid debounce %s", c.Debounce)
	}
	return nil
}
