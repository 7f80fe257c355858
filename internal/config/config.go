// Package config loads formkit settings from a file, FORMKIT_ environment
// variables and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides: token.secret is read from
// FORMKIT_TOKEN_SECRET.
const EnvPrefix = "FORMKIT"

// Token store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
	StoreSQLite = "sqlite"
)

// ErrInvalid is returned for settings that cannot be used.
var ErrInvalid = errors.New("config: invalid setting")

// Config is the resolved configuration.
type Config struct {
	Log    Log    `mapstructure:"log"`
	Locale string `mapstructure:"locale"`
	Token  Token  `mapstructure:"token"`
	Redis  Redis  `mapstructure:"redis"`
	SQLite SQLite `mapstructure:"sqlite"`
	Server Server `mapstructure:"server"`
	Forms  string `mapstructure:"forms"`
}

// Log configures internal/logging.
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
	Dev   bool   `mapstructure:"dev"`

	// Rotation settings for File.
	MaxSizeMB  int `mapstructure:"max_size"`
	MaxBackups int `mapstructure:"max_backups"`
	MaxAgeDays int `mapstructure:"max_age"`
}

// Token configures the token service and its store.
type Token struct {
	Secret    string        `mapstructure:"secret"`
	ValidFrom time.Duration `mapstructure:"valid_from"`
	ValidTo   time.Duration `mapstructure:"valid_to"`
	Capacity  int           `mapstructure:"capacity"`
	Store     string        `mapstructure:"store"`
}

// Redis configures the redis token store.
type Redis struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SQLite configures the sqlite token store.
type SQLite struct {
	Path string `mapstructure:"path"`
}

// Server configures the demo server.
type Server struct {
	Addr         string        `mapstructure:"addr"`
	CookieSecure bool          `mapstructure:"cookie_secure"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
}

// Defaults registers default values on v. Every key gets one so environment
// overrides reach Unmarshal.
func Defaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("log.dev", false)
	v.SetDefault("log.max_size", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age", 28)
	v.SetDefault("locale", "en")
	v.SetDefault("token.secret", "")
	v.SetDefault("token.valid_from", 5*time.Second)
	v.SetDefault("token.valid_to", 1200*time.Second)
	v.SetDefault("token.capacity", 10)
	v.SetDefault("token.store", StoreMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("sqlite.path", "formkit.db")
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.cookie_secure", false)
	v.SetDefault("forms", "forms")
}

// Load reads path when given, otherwise formkit.yaml from the working
// directory if present, and applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	Defaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else {
		v.SetConfigName("formkit")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: read formkit config: %w", err)
			}
		}
	}
	return From(v)
}

// From decodes and checks the settings held by v.
func From(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := cfg.Check(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Check reports inconsistent settings.
func (c *Config) Check() error {
	switch c.Token.Store {
	case StoreMemory, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("%w: token.store %q", ErrInvalid, c.Token.Store)
	}
	if c.Token.ValidFrom < 0 || c.Token.ValidTo < c.Token.ValidFrom {
		return fmt.Errorf("%w: token window %s..%s", ErrInvalid, c.Token.ValidFrom, c.Token.ValidTo)
	}
	if c.Token.Capacity < 1 {
		return fmt.Errorf("%w: token.capacity %d", ErrInvalid, c.Token.Capacity)
	}
	return nil
}
