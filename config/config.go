package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Source   SourceConfig   `mapstructure:"source"`
	Ingest   IngestConfig   `mapstructure:"ingest"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Server   ServerConfig   `mapstructure:"server"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// SourceConfig points at the upstream trades endpoint.
type SourceConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
	Limit   int           `mapstructure:"limit"` // 0 leaves the upstream default
}

type IngestConfig struct {
	Interval      time.Duration `mapstructure:"interval"`
	RecentCount   int           `mapstructure:"recent_count"`
	BackupOnStart bool          `mapstructure:"backup_on_start"`
	MetricsAddr   string        `mapstructure:"metrics_addr"` // empty disables /metrics on the ingestor
}

type StorageConfig struct {
	DataDir   string `mapstructure:"data_dir"`
	BackupDir string `mapstructure:"backup_dir"`
}

type CacheConfig struct {
	PollInterval time.Duration `mapstructure:"poll_interval"`
	StopTimeout  time.Duration `mapstructure:"stop_timeout"`
	FSNotify     bool          `mapstructure:"fsnotify"` // invalidate on fs events in addition to polling
}

type ServerConfig struct {
	Addr         string        `mapstructure:"addr"`
	PushInterval time.Duration `mapstructure:"push_interval"`
}

// LogConfig defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("source.base_url", "https://data-api.polymarket.com")
	v.SetDefault("source.timeout", 5*time.Second)
	v.SetDefault("source.limit", 0)

	v.SetDefault("ingest.interval", 5*time.Second)
	v.SetDefault("ingest.recent_count", 50)
	v.SetDefault("ingest.backup_on_start", true)
	v.SetDefault("ingest.metrics_addr", ":9100")

	v.SetDefault("storage.data_dir", "./data")
	v.SetDefault("storage.backup_dir", "./backups")

	v.SetDefault("cache.poll_interval", time.Second)
	v.SetDefault("cache.stop_timeout", 2*time.Second)
	v.SetDefault("cache.fsnotify", false)

	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.push_interval", time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.environment", "dev")

	v.SetDefault("postgres.enabled", false)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", 5432)
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.dbname", "tradepulse")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("postgres.timezone", "UTC")
	v.SetDefault("postgres.max_open_conns", 5)
	v.SetDefault("postgres.max_idle_conns", 2)
	v.SetDefault("postgres.conn_max_lifetime", time.Hour)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.channel", "tradepulse:snapshots")
}

// Load loads application configuration using Viper.
// A .env file (if any) is applied to the environment first, then config.yaml
// is read from path (or searched for), then TRADEPULSE_* variables override.
// A missing config file is not an error: every key has a default.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config") // config.yaml
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("../../config")
	}

	// Support environment variables with dot notation (e.g., TRADEPULSE_SOURCE_BASE_URL)
	v.SetEnvPrefix("tradepulse")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values the pipeline and cache depend on.
func (c *Config) Validate() error {
	if c.Source.BaseURL == "" {
		return errors.New("source.base_url is required")
	}
	if c.Source.Timeout <= 0 {
		return errors.New("source.timeout must be positive")
	}
	if c.Ingest.Interval <= 0 {
		return errors.New("ingest.interval must be positive")
	}
	if c.Ingest.RecentCount < 0 {
		return errors.New("ingest.recent_count must not be negative")
	}
	if c.Storage.DataDir == "" {
		return errors.New("storage.data_dir is required")
	}
	if c.Cache.PollInterval <= 0 {
		return errors.New("cache.poll_interval must be positive")
	}
	if c.Cache.StopTimeout <= 0 {
		return errors.New("cache.stop_timeout must be positive")
	}
	if c.Server.PushInterval <= 0 {
		return errors.New("server.push_interval must be positive")
	}
	return nil
}
