// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type HTTPConfig struct {
	Port int `yaml:"port"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	PoolSize int    `yaml:"pool_size"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

// PaymentConfig carries the shared webhook secret. It is injected into the
// receiver explicitly so tests can run with distinct secrets.
type PaymentConfig struct {
	WebhookSecret string `yaml:"webhook_secret"`
	Method        string `yaml:"method"` // reported on orders, e.g. "stripe"
}

type EmailConfig struct {
	ResendKey string `yaml:"resend_key"`
	From      string `yaml:"from"`
}

type ChatConfig struct {
	Channel          string `yaml:"channel"` // discord | telegram | none
	DiscordWebhook   string `yaml:"discord_webhook"`
	TelegramToken    string `yaml:"telegram_token"`
	TelegramChatID   int64  `yaml:"telegram_chat_id"`
	TelegramUsername string `yaml:"telegram_username"`
}

type OpsConfig struct {
	// APIKey is exchanged at /ops/login for a short-lived JWT.
	APIKey    string        `yaml:"api_key"`
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type WorkerConfig struct {
	Interval    time.Duration `yaml:"interval"`
	BatchSize   int           `yaml:"batch_size"`
	MaxAttempts int           `yaml:"max_attempts"`
	Senders     int           `yaml:"senders"` // concurrent sends within a batch
}

type Config struct {
	Log      LogConfig      `yaml:"log"`
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Payment  PaymentConfig  `yaml:"payment"`
	Email    EmailConfig    `yaml:"email"`
	Chat     ChatConfig     `yaml:"chat"`
	Ops      OpsConfig      `yaml:"ops"`
	Worker   WorkerConfig   `yaml:"worker"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// defaults
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8080
	}
	if cfg.Database.PoolSize <= 0 {
		cfg.Database.PoolSize = 10
	}
	cfg.Redis.TTL = normalizeTTL(cfg.Redis.TTL)
	if cfg.Payment.Method == "" {
		cfg.Payment.Method = "stripe"
	}
	if cfg.Worker.Interval <= 0 {
		cfg.Worker.Interval = 15 * time.Second
	}
	if cfg.Worker.BatchSize <= 0 {
		cfg.Worker.BatchSize = 10
	}
	if cfg.Worker.MaxAttempts <= 0 {
		cfg.Worker.MaxAttempts = 5
	}
	if cfg.Worker.Senders <= 0 {
		cfg.Worker.Senders = 4
	}
	if cfg.Ops.TokenTTL <= 0 {
		cfg.Ops.TokenTTL = 30 * time.Minute
	}
	if cfg.Chat.Channel == "" {
		cfg.Chat.Channel = "none"
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Redis.URL == "" {
		return nil, errors.New("redis.url is required")
	}
	if cfg.Payment.WebhookSecret == "" && !dev {
		return nil, errors.New("payment.webhook_secret is required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}

func normalizeTTL(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Hour
	}
	return d
}
