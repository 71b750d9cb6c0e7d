package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is read when no explicit path is given. A missing file is not an error.
const DefaultPath = "config/config.yaml"

// Config holds all configuration for the server, worker and tools.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	AMQP     AMQPConfig     `yaml:"amqp"`
	Queue    QueueConfig    `yaml:"queue"`
	Log      LogConfig      `yaml:"log"`
	Webhook  WebhookConfig  `yaml:"webhook"`
	Expiry   ExpiryConfig   `yaml:"expiry"`
	Worker   WorkerConfig   `yaml:"worker"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port               int      `yaml:"port" env:"PORT"`
	Host               string   `yaml:"host" env:"SERVER_HOST"`
	CORSAllowedOrigins []string `yaml:"cors_allowed_origins" env:"CORS_ALLOWED_ORIGINS"`
	ShutdownSeconds    int      `yaml:"shutdown_seconds"`
	// TrustProxy takes the client address from X-Forwarded-For/X-Real-IP.
	// Enable only behind a proxy that overwrites those headers.
	TrustProxy bool `yaml:"trust_proxy" env:"TRUST_PROXY"`
}

func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c ServerConfig) ShutdownTimeout() time.Duration {
	return time.Duration(c.ShutdownSeconds) * time.Second
}

// DatabaseConfig holds Postgres connection settings. URL wins over the
// individual fields when set.
type DatabaseConfig struct {
	URL            string `yaml:"url" env:"DATABASE_URL"`
	Host           string `yaml:"host" env:"DB_HOST"`
	Port           int    `yaml:"port" env:"DB_PORT"`
	User           string `yaml:"user" env:"DB_USER"`
	Password       string `yaml:"password" env:"DB_PASSWORD"`
	Name           string `yaml:"name" env:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" env:"DB_SSLMODE"`
	MaxOpenConns   int    `yaml:"max_open_conns"`
	MaxIdleConns   int    `yaml:"max_idle_conns"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"DB_MIGRATE_ON_START"`
}

// DSN returns the connection string handed to lib/pq.
func (c DatabaseConfig) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}

// RedisConfig configures the settings cache. An empty Addr disables caching.
type RedisConfig struct {
	Addr       string `yaml:"addr" env:"REDIS_ADDR"`
	Password   string `yaml:"password" env:"REDIS_PASSWORD"`
	DB         int    `yaml:"db" env:"REDIS_DB"`
	TTLSeconds int    `yaml:"ttl_seconds" env:"REDIS_TTL_SECONDS"`
}

func (c RedisConfig) TTL() time.Duration {
	return time.Duration(c.TTLSeconds) * time.Second
}

type AMQPConfig struct {
	URL      string `yaml:"url" env:"AMQP_URL"`
	Prefetch int    `yaml:"prefetch" env:"AMQP_PREFETCH"`
}

// QueueConfig selects the call event transport: "memory" runs the consumer
// inside the server process, "amqp" hands events to cmd/worker.
type QueueConfig struct {
	Driver     string `yaml:"driver" env:"QUEUE_DRIVER"`
	MaxRetries int    `yaml:"max_retries"`
}

type LogConfig struct {
	Level  string `yaml:"level" env:"LOG_LEVEL"`
	Format string `yaml:"format" env:"LOG_FORMAT"`
}

// WebhookConfig limits inbound gateway callbacks.
type WebhookConfig struct {
	RatePerSecond float64 `yaml:"rate_per_second" env:"WEBHOOK_RATE"`
	Burst         int     `yaml:"burst" env:"WEBHOOK_BURST"`
}

// ExpiryConfig drives the gateway credential expiry watcher.
type ExpiryConfig struct {
	Schedule string `yaml:"schedule" env:"EXPIRY_SCHEDULE"`
	WarnDays int    `yaml:"warn_days" env:"EXPIRY_WARN_DAYS"`
}

func (c ExpiryConfig) Window() time.Duration {
	return time.Duration(c.WarnDays) * 24 * time.Hour
}

type WorkerConfig struct {
	MetricsAddr string `yaml:"metrics_addr" env:"WORKER_METRICS_ADDR"`
}

// Load reads the YAML file at path, fills defaults, then overlays the
// environment (including a .env file in the working directory, if any).
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	applyDefaults(&cfg)

	if err := LoadFromEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromEnv overlays environment variables onto cfg. Unset variables leave
// the current values alone.
func LoadFromEnv(cfg *Config) error {
	// .env is optional
	_ = godotenv.Load()

	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return fmt.Errorf("decode environment: %w", err)
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.ShutdownSeconds == 0 {
		cfg.Server.ShutdownSeconds = 10
	}
	if len(cfg.Server.CORSAllowedOrigins) == 0 {
		cfg.Server.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.Name == "" {
		cfg.Database.Name = "ivr"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 20
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Redis.TTLSeconds == 0 {
		cfg.Redis.TTLSeconds = 300
	}
	if cfg.AMQP.Prefetch == 0 {
		cfg.AMQP.Prefetch = 10
	}
	if cfg.Queue.Driver == "" {
		cfg.Queue.Driver = "memory"
	}
	if cfg.Queue.MaxRetries == 0 {
		cfg.Queue.MaxRetries = 3
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Webhook.RatePerSecond == 0 {
		cfg.Webhook.RatePerSecond = 50
	}
	if cfg.Webhook.Burst == 0 {
		cfg.Webhook.Burst = 100
	}
	if cfg.Expiry.Schedule == "" {
		cfg.Expiry.Schedule = "@every 1h"
	}
	if cfg.Expiry.WarnDays == 0 {
		cfg.Expiry.WarnDays = 7
	}
	if cfg.Worker.MetricsAddr == "" {
		cfg.Worker.MetricsAddr = ":9091"
	}
}
