// Package config provides configuration management for glosslink using
// Viper for flexible configuration loading from files, environment
// variables, and command-line flags.
//
// The configuration system supports YAML files and environment variable
// overrides with the GLOSSLINK_ prefix. It manages the glossary source,
// engine behavior (replacement limit, blocked tags), the registry cache,
// and the preview server.
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/glosslink/glosslink/internal/errors"
)

type Config struct {
	LogLevel string         `yaml:"log_level" mapstructure:"log_level"`
	Glossary GlossaryConfig `yaml:"glossary" mapstructure:"glossary"`
	Engine   EngineConfig   `yaml:"engine" mapstructure:"engine"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
}

// GlossaryConfig locates the term definitions and the request context
// defaults used when the CLI processes content.
type GlossaryConfig struct {
	File   string `yaml:"file" mapstructure:"file"`
	Locale string `yaml:"locale" mapstructure:"locale"`
	Site   string `yaml:"site" mapstructure:"site"`
}

type EngineConfig struct {
	// Limit caps total replacements per term for one document render;
	// negative means unlimited.
	Limit       int      `yaml:"limit" mapstructure:"limit"`
	BlockedTags []string `yaml:"blocked_tags" mapstructure:"blocked_tags"`
}

type CacheConfig struct {
	MaxSize int64         `yaml:"max_size" mapstructure:"max_size"`
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

type ServerConfig struct {
	Host string `yaml:"host" mapstructure:"host"`
	Port int    `yaml:"port" mapstructure:"port"`
}

func Load() (*Config, error) {
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeConfig, "config_unmarshal", "cannot decode configuration")
	}

	// Handle values set via viper but missed by Unmarshal (viper's
	// slice/bool handling needs the explicit lookup).
	if viper.IsSet("engine.blocked_tags") && len(config.Engine.BlockedTags) == 0 {
		config.Engine.BlockedTags = viper.GetStringSlice("engine.blocked_tags")
	}
	if viper.IsSet("engine.limit") {
		config.Engine.Limit = viper.GetInt("engine.limit")
	} else {
		config.Engine.Limit = -1
	}

	applyDefaults(&config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.Glossary.File == "" {
		config.Glossary.File = "glossary.yml"
	}
	if config.Cache.MaxSize == 0 {
		config.Cache.MaxSize = 4 << 20
	}
	if config.Cache.TTL == 0 {
		config.Cache.TTL = 5 * time.Minute
	}
	if config.Server.Host == "" {
		config.Server.Host = "localhost"
	}
	if config.Server.Port == 0 {
		config.Server.Port = 7332
	}
}

// Validate rejects configurations the engine cannot run with.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return errors.New(errors.ErrorTypeConfig, "config_log_level",
			"log_level must be one of debug, info, warn, error").
			WithContext("log_level", c.LogLevel)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return errors.New(errors.ErrorTypeConfig, "config_server_port",
			"server port must be between 0 and 65535").
			WithContext("port", c.Server.Port)
	}

	if c.Cache.MaxSize < 0 {
		return errors.New(errors.ErrorTypeConfig, "config_cache_size",
			"cache max_size must not be negative").
			WithContext("max_size", c.Cache.MaxSize)
	}

	if c.Cache.TTL < 0 {
		return errors.New(errors.ErrorTypeConfig, "config_cache_ttl",
			"cache ttl must not be negative").
			WithContext("ttl", c.Cache.TTL.String())
	}

	return nil
}
