// Package config loads service settings from an optional YAML file and
// AIRQ_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"aqdash/internal/engine"
	"aqdash/internal/logging"
)

const envPrefix = "AIRQ"

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Data         DataConfig         `mapstructure:"data"`
	Log          logging.Config     `mapstructure:"log"`
	Segmentation SegmentationConfig `mapstructure:"segmentation"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
}

type DataConfig struct {
	// Path of the CSV extract.
	Path string `mapstructure:"path"`
}

type SegmentationConfig struct {
	DefaultK int `mapstructure:"default_k"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("data.path", "DataExtract.csv")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("segmentation.default_k", engine.DefaultK)
}

// newViper maps nested keys to env vars: data.path -> AIRQ_DATA_PATH.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// Load reads configPath when it is non-empty, then applies env overrides
// and defaults, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", configPath, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.Addr) == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if strings.TrimSpace(c.Data.Path) == "" {
		errs = append(errs, errors.New("data.path is required"))
	}
	if !engine.ValidK(c.Segmentation.DefaultK) {
		errs = append(errs, fmt.Errorf("segmentation.default_k must be in [%d, %d], got %d",
			engine.MinK, engine.MaxK, c.Segmentation.DefaultK))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "console":
	default:
		errs = append(errs, fmt.Errorf("log.format must be json or console, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}
