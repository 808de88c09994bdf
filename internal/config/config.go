package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
)

type Config struct {
	Environment string `toml:"-"`

	Host string `toml:"host"`
	Port int    `toml:"port"`
	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`
	// postgres
	PostgresHost    string `toml:"postgres_host"`
	PostgresPort    string `toml:"postgres_port"`
	PostgresDBName  string `toml:"postgres_db_name"`
	PostgresMaxConn int32  `toml:"postgres_max_conn"`
	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`
	// browser origins allowed by CORS
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`
	// metrics
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`
	// load endpoint
	LoadRateLimitAllowedPerMin int `toml:"load_rate_limit_allowed_per_min"`
	LoadCacheSizeMB            int `toml:"load_cache_size_mb"`
	LoadCacheTTLSeconds        int `toml:"load_cache_ttl_seconds"`
	LoadMaxBuckets             int `toml:"load_max_buckets"`
	// cron spec of the renumbering sweep over all owners, empty disables it
	ReconcileSchedule string `toml:"reconcile_schedule"`
}

func (c *Config) LoadCacheTTL() time.Duration {
	return time.Duration(c.LoadCacheTTLSeconds) * time.Second
}

func (c *Config) validate() error {
	var err error
	if c.Port <= 0 {
		err = multierr.Append(err, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.PostgresHost == "" || c.PostgresDBName == "" {
		err = multierr.Append(err, errors.New("postgres host and db name must be set"))
	}
	if c.PostgresMaxConn < 0 {
		err = multierr.Append(err, fmt.Errorf("invalid postgres max conn: %d", c.PostgresMaxConn))
	}
	if c.RedisHost == "" {
		err = multierr.Append(err, errors.New("redis host must be set"))
	}
	if c.LoadRateLimitAllowedPerMin < 0 {
		err = multierr.Append(err, fmt.Errorf("invalid load rate limit: %d", c.LoadRateLimitAllowedPerMin))
	}
	if c.LoadMaxBuckets < 0 {
		err = multierr.Append(err, fmt.Errorf("invalid load max buckets: %d", c.LoadMaxBuckets))
	}
	if c.LoadCacheSizeMB < 0 || c.LoadCacheTTLSeconds < 0 {
		err = multierr.Append(err, errors.New("load cache size and ttl cannot be negative"))
	}
	return err
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}

// Load reads the TOML config file and returns the section for env.
func Load(env, path string) (*Config, error) {
	var t Toml
	if _, err := toml.DecodeFile(path, &t); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", path, err)
	}
	return fromToml(&t, env)
}

// Parse is Load for config content already in memory.
func Parse(env, content string) (*Config, error) {
	var t Toml
	if _, err := toml.Decode(content, &t); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&t, env)
}

func fromToml(t *Toml, env string) (*Config, error) {
	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}

	cfg.Environment = strings.ToLower(env)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid config for env [%s]: %w", env, err)
	}

	return cfg, nil
}
