package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Database DatabaseConfig `yaml:"database"`
	RabbitMQ RabbitMQConfig `yaml:"rabbitmq"`
	Bluesky  BlueskyConfig  `yaml:"bluesky"`
	Collect  CollectConfig  `yaml:"collect"`
	Scopes   []ScopeConfig  `yaml:"scopes"`
	LogLevel string         `yaml:"log_level"`
}

type RabbitMQConfig struct {
	URL        string `yaml:"url"`
	Exchange   string `yaml:"exchange"`
	RoutingKey string `yaml:"routing_key"`
	QueueName  string `yaml:"queue_name"`
}

type DatabaseConfig struct {
	// Driver selects the backend, "postgres" or "sqlite".
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
	// Path is the database file for the sqlite driver.
	Path string `yaml:"path"`
}

func (d DatabaseConfig) DSN() string {
	if d.Driver == "sqlite" {
		return d.Path
	}
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode,
	)
}

type BlueskyConfig struct {
	BaseURL           string        `yaml:"base_url"`
	Identifier        string        `yaml:"identifier"`
	AppPassword       string        `yaml:"app_password"`
	Timeout           time.Duration `yaml:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second"`
	Retry             RetryConfig   `yaml:"retry"`
}

type RetryConfig struct {
	MaxAttempts    int           `yaml:"max_attempts"`
	InitialBackoff time.Duration `yaml:"initial_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
}

type CollectConfig struct {
	Interval           time.Duration `yaml:"interval"`
	PageLimit          int           `yaml:"page_limit"`
	MaxPagesPerCollect int           `yaml:"max_pages_per_collect"`
	Strict             bool          `yaml:"strict"`
	StaleAfter         time.Duration `yaml:"stale_after"`
	ScopeTimeout       time.Duration `yaml:"scope_timeout"`
}

// ScopeConfig is one scheduled collection scope. Exactly one of Source and
// Query must be set.
type ScopeConfig struct {
	Provider string `yaml:"provider"`
	Source   string `yaml:"source"`
	Query    string `yaml:"query"`
	Lang     string `yaml:"lang"`
}

func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.setDefaults()

	return &cfg, nil
}

func (c *Config) setDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "postgres"
	}
	if c.RabbitMQ.Exchange == "" {
		c.RabbitMQ.Exchange = "sonec"
	}
	if c.RabbitMQ.RoutingKey == "" {
		c.RabbitMQ.RoutingKey = "posts"
	}
	if c.RabbitMQ.QueueName == "" {
		c.RabbitMQ.QueueName = "sonec_posts"
	}
	if c.Bluesky.Timeout == 0 {
		c.Bluesky.Timeout = 30 * time.Second
	}
	if c.Bluesky.RequestsPerSecond == 0 {
		c.Bluesky.RequestsPerSecond = 5
	}
	if c.Bluesky.Retry.MaxAttempts == 0 {
		c.Bluesky.Retry.MaxAttempts = 3
	}
	if c.Bluesky.Retry.InitialBackoff == 0 {
		c.Bluesky.Retry.InitialBackoff = 1 * time.Second
	}
	if c.Bluesky.Retry.MaxBackoff == 0 {
		c.Bluesky.Retry.MaxBackoff = 30 * time.Second
	}
	if c.Collect.Interval == 0 {
		c.Collect.Interval = 5 * time.Minute
	}
	if c.Collect.PageLimit == 0 {
		c.Collect.PageLimit = 50
	}
	if c.Collect.MaxPagesPerCollect == 0 {
		c.Collect.MaxPagesPerCollect = 20
	}
	if c.Collect.StaleAfter == 0 {
		c.Collect.StaleAfter = time.Hour
	}
	if c.Collect.ScopeTimeout == 0 {
		c.Collect.ScopeTimeout = 5 * time.Minute
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
