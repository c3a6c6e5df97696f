package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full service configuration as loaded by Load.
type Config struct {
	Server                 ServerConfig   `mapstructure:"server"`
	Database               DatabaseConfig `mapstructure:"database"`
	Policy                 PolicyConfig   `mapstructure:"policy"`
	Log                    LogConfig      `mapstructure:"log"`
	Cache                  CacheConfig    `mapstructure:"cache"`
	JWTSecret              string         `mapstructure:"jwt_secret"`
	AccessTokenLifetimeMs  int64          `mapstructure:"access_token_lifetime_ms"`
	RefreshTokenLifetimeMs int64          `mapstructure:"refresh_token_lifetime_ms"`
}

// ServerConfig is the HTTP listener and the signing worker count.
type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	Workers int    `mapstructure:"workers"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// DatabaseConfig describes the Postgres connection holding accounts.
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	Name           string `mapstructure:"name"`
	PoolSize       int    `mapstructure:"pool_size"`
	QueryTimeoutMs int    `mapstructure:"query_timeout_ms"`
	Bootstrap      bool   `mapstructure:"bootstrap"`
	URL            string `mapstructure:"url"` // overrides the discrete fields when set
}

// ConnString returns the PostgreSQL connection string.
func (d DatabaseConfig) ConnString() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// QueryTimeout bounds a single account lookup. Zero means no bound.
func (d DatabaseConfig) QueryTimeout() time.Duration {
	return time.Duration(d.QueryTimeoutMs) * time.Millisecond
}

// PolicyConfig points at the casbin model and rule files. Empty paths select
// the embedded defaults.
type PolicyConfig struct {
	ModelPath  string `mapstructure:"model_path"`
	PolicyPath string `mapstructure:"policy_path"`
}

type LogConfig struct {
	Env   string `mapstructure:"env"`
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// CacheConfig selects and tunes the account lookup cache.
type CacheConfig struct {
	Driver        string `mapstructure:"driver"` // none | memory | redis
	TTLMs         int64  `mapstructure:"ttl_ms"`
	Prefix        string `mapstructure:"prefix"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
}

func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMs) * time.Millisecond
}

// AccessTokenLifetime converts access_token_lifetime_ms to a duration.
func (c *Config) AccessTokenLifetime() time.Duration {
	return time.Duration(c.AccessTokenLifetimeMs) * time.Millisecond
}

// RefreshTokenLifetime converts refresh_token_lifetime_ms to a duration.
func (c *Config) RefreshTokenLifetime() time.Duration {
	return time.Duration(c.RefreshTokenLifetimeMs) * time.Millisecond
}

// Validate checks the values the service cannot start without.
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.JWTSecret, validation.Required),
		validation.Field(&c.AccessTokenLifetimeMs, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.RefreshTokenLifetimeMs, validation.Required, validation.Min(int64(1))),
		validation.Field(&c.Server, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Server,
				validation.Field(&c.Server.Port, validation.Required, validation.Max(65535)),
				validation.Field(&c.Server.Workers, validation.Required, validation.Min(1)),
			)
		})),
		validation.Field(&c.Cache, validation.By(func(any) error {
			return validation.ValidateStruct(&c.Cache,
				validation.Field(&c.Cache.Driver, validation.In("none", "memory", "redis")),
			)
		})),
	)
}

// Load reads app.yaml from the given directories (defaults to "." and
// "../.."), a .env file if present, and environment overrides. A missing
// app.yaml is not an error; a missing secret is.
func Load(paths ...string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("yaml")
	if len(paths) == 0 {
		paths = []string{".", "../.."}
	}
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.workers", 4)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "auth")
	v.SetDefault("database.url", "")
	v.SetDefault("database.pool_size", 5)
	v.SetDefault("database.query_timeout_ms", 3000)
	v.SetDefault("database.bootstrap", false)
	v.SetDefault("policy.model_path", "")
	v.SetDefault("policy.policy_path", "")
	v.SetDefault("log.env", "dev")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.ttl_ms", 60000)
	v.SetDefault("cache.prefix", "auth")
	v.SetDefault("cache.redis_addr", "localhost:6379")
	v.SetDefault("cache.redis_password", "")
	v.SetDefault("cache.redis_db", 0)
	v.SetDefault("jwt_secret", "")
	v.SetDefault("access_token_lifetime_ms", 15*60*1000)
	v.SetDefault("refresh_token_lifetime_ms", 7*24*60*60*1000)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
