package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
	"gopkg.in/yaml.v3"
)

//go:generate go run ../../cmd/schema/main.go schema.json

// Config holds the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server" json:"server" jsonschema:"description=Feed server configuration"`
	Database DatabaseConfig `yaml:"database" json:"database" jsonschema:"description=Entry store configuration"`

	Indexer struct {
		Interval time.Duration `yaml:"interval" json:"interval" jsonschema:"default=1s,description=Background indexing interval, 0 disables it"`
	} `yaml:"indexer" json:"indexer" jsonschema:"description=Background indexer configuration"`

	Client ClientConfig `yaml:"client" json:"client" jsonschema:"description=Feed client configuration"`
}

// ServerConfig holds http server and page settings
type ServerConfig struct {
	Listen   string        `yaml:"listen" json:"listen" jsonschema:"default=:8080,description=HTTP server listen address"`
	Timeout  time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=HTTP server timeout"`
	BaseURL  string        `yaml:"base_url" json:"base_url" jsonschema:"default=http://localhost:8080/feed,description=Public feed URL, page links are made from it"`
	PageSize int           `yaml:"page_size" json:"page_size" jsonschema:"default=25,minimum=1,description=Entries per page, fixed for the life of the feed"`
	Title    string        `yaml:"title" json:"title" jsonschema:"default=pagefeed,description=Feed title"`
	Throttle int           `yaml:"throttle" json:"throttle" jsonschema:"default=100,minimum=0,description=Maximum concurrent requests"`
}

// DatabaseConfig holds entry store settings
type DatabaseConfig struct {
	DSN             string `yaml:"dsn" json:"dsn" jsonschema:"default=file:pagefeed.db,description=Database connection string, sqlite file or postgres:// url"`
	Table           string `yaml:"table" json:"table" jsonschema:"default=entries,description=Entries table name"`
	MaxOpenConns    int    `yaml:"max_open_conns" json:"max_open_conns" jsonschema:"default=10,description=Maximum number of open connections"`
	MaxIdleConns    int    `yaml:"max_idle_conns" json:"max_idle_conns" jsonschema:"default=5,description=Maximum number of idle connections"`
	ConnMaxLifetime int    `yaml:"conn_max_lifetime" json:"conn_max_lifetime" jsonschema:"default=3600,description=Connection maximum lifetime in seconds"`
}

// ClientConfig holds feed client settings
type ClientConfig struct {
	PollInterval time.Duration `yaml:"poll_interval" json:"poll_interval" jsonschema:"default=5s,description=Delay between polls of the head page"`
	Timeout      time.Duration `yaml:"timeout" json:"timeout" jsonschema:"default=30s,description=Page request timeout"`
	UserAgent    string        `yaml:"user_agent" json:"user_agent" jsonschema:"default=pagefeed-client/1.0,description=User agent for page requests"`
	Retry        RetryConfig   `yaml:"retry" json:"retry" jsonschema:"description=Retry of failed page fetches"`
}

// RetryConfig defines exponential retry of failed fetches
type RetryConfig struct {
	Attempts int           `yaml:"attempts" json:"attempts" jsonschema:"default=5,minimum=-1,description=Retries per fetch, -1 retries forever"`
	Delay    time.Duration `yaml:"delay" json:"delay" jsonschema:"default=1s,description=Initial retry delay"`
	MaxDelay time.Duration `yaml:"max_delay" json:"max_delay" jsonschema:"default=1m,description=Maximum retry delay"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // file path comes from CLI flag
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse makes configuration from YAML data, environment variables expanded
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.SetDefaults()

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	// schema validation is supplementary
	if err := VerifyAgainstEmbeddedSchema(&cfg); err != nil {
		log.Printf("[WARN] schema validation failed: %v", err)
	}
	return &cfg, nil
}

// SetDefaults fills unset values
func (c *Config) SetDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = ":8080"
	}
	if c.Server.Timeout == 0 {
		c.Server.Timeout = 30 * time.Second
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:8080/feed"
	}
	c.Server.BaseURL = strings.TrimSuffix(c.Server.BaseURL, "/")
	if c.Server.PageSize == 0 {
		c.Server.PageSize = 25
	}
	if c.Server.Title == "" {
		c.Server.Title = "pagefeed"
	}
	if c.Server.Throttle == 0 {
		c.Server.Throttle = 100
	}

	if c.Database.DSN == "" {
		c.Database.DSN = "file:pagefeed.db"
	}
	if c.Database.Table == "" {
		c.Database.Table = "entries"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = 3600
	}

	if c.Client.PollInterval == 0 {
		c.Client.PollInterval = 5 * time.Second
	}
	if c.Client.Timeout == 0 {
		c.Client.Timeout = 30 * time.Second
	}
	if c.Client.UserAgent == "" {
		c.Client.UserAgent = "pagefeed-client/1.0"
	}
	if c.Client.Retry.Attempts == 0 {
		c.Client.Retry.Attempts = 5
	}
	if c.Client.Retry.Delay == 0 {
		c.Client.Retry.Delay = time.Second
	}
	if c.Client.Retry.MaxDelay == 0 {
		c.Client.Retry.MaxDelay = time.Minute
	}
}

// validate checks configuration for correctness
func validate(cfg *Config) error {
	if cfg.Server.Timeout < time.Second {
		return fmt.Errorf("server timeout must be at least 1 second")
	}
	if cfg.Server.PageSize < 1 {
		return fmt.Errorf("server.page_size must be at least 1")
	}
	if !strings.HasPrefix(cfg.Server.BaseURL, "http://") && !strings.HasPrefix(cfg.Server.BaseURL, "https://") {
		return fmt.Errorf("server.base_url must be an absolute http(s) url, got %q", cfg.Server.BaseURL)
	}
	if cfg.Server.Throttle < 0 {
		return fmt.Errorf("server.throttle must be non-negative")
	}
	if cfg.Indexer.Interval < 0 {
		return fmt.Errorf("indexer.interval must be non-negative")
	}
	if cfg.Client.Retry.Attempts < -1 {
		return fmt.Errorf("client.retry.attempts must be -1 or more")
	}
	if cfg.Client.Retry.MaxDelay < cfg.Client.Retry.Delay {
		return fmt.Errorf("client.retry.max_delay must not be less than delay")
	}
	return nil
}

// StoreLifetime returns connection lifetime as duration
func (c *Config) StoreLifetime() time.Duration {
	return time.Duration(c.Database.ConnMaxLifetime) * time.Second
}

// GetServerConfig returns server configuration
func (c *Config) GetServerConfig() (listen string, timeout time.Duration) {
	return c.Server.Listen, c.Server.Timeout
}

// GetThrottle returns the limit of concurrent requests
func (c *Config) GetThrottle() int {
	return c.Server.Throttle
}
