// Package config holds the process-wide settings of a few host: where component definitions
// and modules come from, how sessions are persisted and where the servers listen.
//
// Files may be YAML, TOML or JSON, chosen by extension. Every format is decoded into a
// generic map first and then into Config, so key names and duration strings ("30m") behave
// the same everywhere.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverBolt   = "bolt"
)

// Config is the root configuration.
type Config struct {
	// BaseURL is prepended to relative module references.
	BaseURL string `mapstructure:"base_url" json:"base_url,omitempty"`

	// ModuleLoader selects how modules are fetched: "http", "file" or "" for none.
	ModuleLoader string `mapstructure:"module_loader" json:"module_loader,omitempty"`

	// Components is the directory holding component definition files.
	Components string `mapstructure:"components" json:"components,omitempty"`

	// Tools is an optional tools file exposing external commands as action functions.
	Tools string `mapstructure:"tools" json:"tools,omitempty"`

	LogLevel string `mapstructure:"log_level" json:"log_level,omitempty"`

	Server ServerConfig `mapstructure:"server" json:"server"`
	Store  StoreConfig  `mapstructure:"store" json:"store"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Addr        string `mapstructure:"addr" json:"addr"`
	MetricsAddr string `mapstructure:"metrics_addr" json:"metrics_addr,omitempty"`
}

// StoreConfig configures session persistence.
type StoreConfig struct {
	Driver string `mapstructure:"driver" json:"driver"`

	RedisAddr     string `mapstructure:"redis_addr" json:"redis_addr,omitempty"`
	RedisPassword string `mapstructure:"redis_password" json:"-"`
	RedisDB       int    `mapstructure:"redis_db" json:"redis_db,omitempty"`
	RedisPrefix   string `mapstructure:"redis_prefix" json:"redis_prefix,omitempty"`

	BoltPath string `mapstructure:"bolt_path" json:"bolt_path,omitempty"`

	// TTL expires idle sessions in stores that support it. Zero keeps them forever.
	TTL time.Duration `mapstructure:"ttl" json:"ttl,omitempty"`

	// EncryptionKey, when set, enables AES-GCM encryption of persisted snapshots.
	// It must decode to 16, 24 or 32 bytes of hex.
	EncryptionKey string `mapstructure:"encryption_key" json:"-"`

	// FallbackKeys are retired encryption keys still accepted when loading.
	FallbackKeys []string `mapstructure:"fallback_keys" json:"-"`

	// MaskKeys are regular expressions; matching store keys are masked before saving.
	MaskKeys []string `mapstructure:"mask_keys" json:"mask_keys,omitempty"`

	// LockTTL bounds how long a distributed session lock is held.
	LockTTL time.Duration `mapstructure:"lock_ttl" json:"lock_ttl,omitempty"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Components: ".",
		LogLevel:   "info",
		Server: ServerConfig{
			Addr: ":8080",
		},
		Store: StoreConfig{
			Driver:      DriverMemory,
			RedisAddr:   "localhost:6379",
			RedisPrefix: "few:session:",
			BoltPath:    "few.db",
			LockTTL:     10 * time.Second,
		},
	}
}

// Load reads path over the defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data, strings.ToLower(filepath.Ext(path)))
}

// Parse decodes data in the format named by ext (".yaml", ".yml", ".toml" or ".json")
// over the defaults.
func Parse(data []byte, ext string) (*Config, error) {
	raw := map[string]any{}
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse json config: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &raw); err != nil {
			return nil, fmt.Errorf("failed to parse toml config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format %q", ext)
	}

	cfg := Default()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           cfg,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		DecodeHook:       mapstructure.StringToTimeDurationHookFunc(),
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, cfg.Validate()
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverMemory, DriverRedis, DriverBolt:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	switch c.ModuleLoader {
	case "", "http", "file":
	default:
		return fmt.Errorf("unknown module loader %q", c.ModuleLoader)
	}
	if c.ModuleLoader == "http" && c.BaseURL == "" {
		return fmt.Errorf("module loader %q requires base_url", c.ModuleLoader)
	}
	for _, p := range c.Store.MaskKeys {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("invalid mask key pattern %q: %w", p, err)
		}
	}
	return nil
}
