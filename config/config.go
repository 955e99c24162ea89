package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Cache backends selectable via Config.CacheBackend.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
	BackendNone   = "none"
)

var (
	// ErrMissingBaseURL indicates no backend base URL was configured.
	ErrMissingBaseURL = errors.New("config: base_url is required")

	// ErrInvalidBackend indicates an unrecognized cache backend name.
	ErrInvalidBackend = errors.New("config: invalid cache backend")
)

// Config holds every tunable of the gateway.
type Config struct {
	// BaseURL is the AI backend root, e.g. https://api.example.com/ai.
	BaseURL string `mapstructure:"base_url"`

	// TimeoutMS bounds each attempt. Default: 15000.
	TimeoutMS int `mapstructure:"timeout_ms"`

	// MaxRetries is the number of retries after the first attempt.
	// Default: 1.
	MaxRetries int `mapstructure:"max_retries"`

	// InitialDelayMS is the first backoff delay; it doubles per retry.
	// Default: 600.
	InitialDelayMS int `mapstructure:"initial_delay_ms"`

	// CachePrefix namespaces cache keys. Default: aigate.
	CachePrefix string `mapstructure:"cache_prefix"`

	// CacheBackend selects the response cache: memory, sqlite, redis
	// or none. Default: memory.
	CacheBackend string `mapstructure:"cache_backend"`

	// SQLitePath is the database file for the sqlite backend.
	SQLitePath string `mapstructure:"sqlite_path"`

	// Redis configures the redis backend.
	Redis RedisConfig `mapstructure:"redis"`

	// TTLOverrides replaces individual per-endpoint TTLs, in seconds.
	// A zero value disables caching for that endpoint.
	TTLOverrides map[string]int `mapstructure:"ttl_overrides"`

	// LogLevel is a logrus level name. Default: info.
	LogLevel string `mapstructure:"log_level"`

	// RateLimit optionally throttles outbound calls client-side.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

// RedisConfig holds redis connection settings.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// RateLimitConfig holds client-side throttle settings. Zero RPS
// disables throttling.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

// Timeout returns the per-attempt timeout as a duration.
func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// InitialDelay returns the first backoff delay as a duration.
func (c Config) InitialDelay() time.Duration {
	return time.Duration(c.InitialDelayMS) * time.Millisecond
}

// TTLs converts TTLOverrides into durations.
func (c Config) TTLs() map[string]time.Duration {
	if len(c.TTLOverrides) == 0 {
		return nil
	}
	out := make(map[string]time.Duration, len(c.TTLOverrides))
	for endpoint, secs := range c.TTLOverrides {
		out[endpoint] = time.Duration(secs) * time.Second
	}
	return out
}

// Validate checks the loaded configuration for internal consistency.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrMissingBaseURL
	}
	switch c.CacheBackend {
	case BackendMemory, BackendSQLite, BackendRedis, BackendNone:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidBackend, c.CacheBackend)
	}
	if c.CacheBackend == BackendRedis && c.Redis.Addr == "" {
		return errors.New("config: redis backend requires redis.addr")
	}
	if c.CacheBackend == BackendSQLite && c.SQLitePath == "" {
		return errors.New("config: sqlite backend requires sqlite_path")
	}
	return nil
}

// Load reads configuration from path (optional, YAML) and the
// environment. Env var overrides use prefix AIGATE_ with dots mapped
// to underscores, e.g. AIGATE_REDIS_ADDR.
func Load(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("base_url", "")
	v.SetDefault("timeout_ms", 15000)
	v.SetDefault("max_retries", 1)
	v.SetDefault("initial_delay_ms", 600)
	v.SetDefault("cache_prefix", "aigate")
	v.SetDefault("cache_backend", BackendMemory)
	v.SetDefault("sqlite_path", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("rate_limit.rps", 0.0)
	v.SetDefault("rate_limit.burst", 0)

	v.SetConfigType("yaml")
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("AIGATE")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	var err error
	if c.BaseURL, err = ExpandEnvStrict(c.BaseURL); err != nil {
		return Config{}, fmt.Errorf("config: base_url: %w", err)
	}
	if c.Redis.Password, err = ExpandEnvStrict(c.Redis.Password); err != nil {
		return Config{}, fmt.Errorf("config: redis.password: %w", err)
	}

	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}
