package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "BRAIINS_MCP"

// Config holds all configuration for the server. Every field has a default and
// can be overridden through BRAIINS_MCP_* environment variables, e.g.
// BRAIINS_MCP_API_TOKEN or BRAIINS_MCP_CACHE_TTL_OVERVIEW.
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Cache   CacheConfig   `mapstructure:"cache"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// APIConfig configures the upstream Braiins Pool client.
type APIConfig struct {
	BaseURL        string        `mapstructure:"base_url"`
	Token          string        `mapstructure:"token"`
	Timeout        time.Duration `mapstructure:"timeout"`
	RetryMax       int           `mapstructure:"retry_max"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay"`
}

// RedisConfig configures the cache backend connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CacheConfig carries the caching flags as raw strings: the TTL policy owns
// their parsing and fallback rules, including treating "0" as a meaningful
// value and anything unparsable as "use the default".
type CacheConfig struct {
	Enabled         string `mapstructure:"enabled"`
	TTLOverview     string `mapstructure:"ttl_overview"`
	TTLWorkers      string `mapstructure:"ttl_workers"`
	TTLHistorical   string `mapstructure:"ttl_historical"`
	TTLPoolStats    string `mapstructure:"ttl_pool_stats"`
	TTLNetworkStats string `mapstructure:"ttl_network_stats"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// MetricsConfig configures the optional metrics/health HTTP listener. An empty
// address disables it.
type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Load reads the configuration from the environment, applying defaults for
// anything unset.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.API.Timeout <= 0 {
		cfg.API.Timeout = 10 * time.Second
	}
	if cfg.API.RetryMax < 0 {
		cfg.API.RetryMax = 0
	}
	if cfg.API.RetryBaseDelay <= 0 {
		cfg.API.RetryBaseDelay = time.Second
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration.
func setDefaults(v *viper.Viper) {
	v.SetDefault("api.base_url", "https://pool.braiins.com")
	v.SetDefault("api.token", "")
	v.SetDefault("api.timeout", 10*time.Second)
	v.SetDefault("api.retry_max", 3)
	v.SetDefault("api.retry_base_delay", time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("cache.enabled", "true")
	v.SetDefault("cache.ttl_overview", "")
	v.SetDefault("cache.ttl_workers", "")
	v.SetDefault("cache.ttl_historical", "")
	v.SetDefault("cache.ttl_pool_stats", "")
	v.SetDefault("cache.ttl_network_stats", "")

	v.SetDefault("log.level", "info")

	v.SetDefault("metrics.addr", "")
}
