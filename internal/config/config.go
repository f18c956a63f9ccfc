// Package config loads collate CLI settings from defaults, an optional YAML
// file and COLLATE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables that override settings,
// e.g. COLLATE_PAGE_SIZE.
const EnvPrefix = "COLLATE"

// Config holds the settings shared by the collate commands. Sizes are kept
// as strings such as "64MiB" and parsed on use.
type Config struct {
	TableOfContents string `mapstructure:"toc"`
	BasePath        string `mapstructure:"base"`
	PageSize        string `mapstructure:"page_size"`
	ReadSize        string `mapstructure:"read_size"`
	Concurrency     int    `mapstructure:"concurrency"`
	LogLevel        string `mapstructure:"log_level"`
	LogFormat       string `mapstructure:"log_format"`
}

// Load reads configuration. When cfgFile is empty, collate.yaml is looked up
// in the working directory and then the home directory; a missing file is
// not an error.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	v.SetDefault("toc", "resources.toc")
	v.SetDefault("base", "resources.col")
	v.SetDefault("page_size", "0")
	v.SetDefault("read_size", "256MiB")
	v.SetDefault("concurrency", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(home)
		}
		v.SetConfigName("collate")
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that sizes parse and enumerations hold known values.
func (c *Config) Validate() error {
	if _, err := c.PageSizeBytes(); err != nil {
		return err
	}
	if _, err := c.ReadSizeBytes(); err != nil {
		return err
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format %q (want text or json)", c.LogFormat)
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("invalid concurrency %d", c.Concurrency)
	}
	return nil
}

// PageSizeBytes parses PageSize ("64MiB", "1GB", "0"). Zero means unbounded pages.
func (c *Config) PageSizeBytes() (int64, error) {
	n, err := parseSize("page_size", c.PageSize)
	if err != nil {
		return 0, err
	}
	return int64(n), nil
}

// ReadSizeBytes parses ReadSize, which must be positive.
func (c *Config) ReadSizeBytes() (int, error) {
	n, err := parseSize("read_size", c.ReadSize)
	if err != nil {
		return 0, err
	}
	if n == 0 || n > math.MaxInt32 {
		return 0, fmt.Errorf("invalid read_size %q: must be between 1B and 2GiB", c.ReadSize)
	}
	return int(n), nil
}

func parseSize(key, s string) (uint64, error) {
	n, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	if n > math.MaxInt64 {
		return 0, fmt.Errorf("invalid %s %q: too large", key, s)
	}
	return n, nil
}

// Level maps LogLevel to a slog level.
func (c *Config) Level() (slog.Level, error) {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid log level %q (want debug, info, warn or error)", c.LogLevel)
	}
}
