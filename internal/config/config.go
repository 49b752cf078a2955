// Package config handles configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/terrierteam/treceval/measure"
)

// Config holds all application configuration.
type Config struct {
	// Server configuration
	Host string `envconfig:"TRECEVAL_HOST" yaml:"host"`
	Port int    `envconfig:"TRECEVAL_PORT" yaml:"port"`

	// Engine configuration
	Engine EngineConfig `yaml:"engine"`

	// Evaluation defaults
	Defaults DefaultsConfig `yaml:"defaults"`

	// Qrels directory configuration
	Qrels QrelsConfig `yaml:"qrels"`

	// Leaderboard configuration
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`

	// Bus configuration
	Bus BusConfig `yaml:"bus"`

	// Logging configuration
	Log LogConfig `yaml:"log"`

	// Security configuration
	Security SecurityConfig `yaml:"security"`
}

// EngineConfig selects and configures the scoring engine.
type EngineConfig struct {
	Name   string `envconfig:"TRECEVAL_ENGINE" yaml:"name"`
	Binary string `envconfig:"TRECEVAL_ENGINE_BINARY" yaml:"binary"`
}

// DefaultsConfig holds evaluation defaults applied when a request
// leaves them unset.
type DefaultsConfig struct {
	Measures       []string `envconfig:"TRECEVAL_MEASURES" yaml:"measures"`
	RelevanceLevel int      `envconfig:"TRECEVAL_RELEVANCE_LEVEL" yaml:"relevance_level"`
	JudgedDocsOnly bool     `envconfig:"TRECEVAL_JUDGED_DOCS_ONLY" yaml:"judged_docs_only"`
}

// QrelsConfig points the server at a directory of qrel files that are
// loaded at startup and optionally kept in sync.
type QrelsConfig struct {
	Dir   string `envconfig:"TRECEVAL_QRELS_DIR" yaml:"dir"`
	Watch bool   `envconfig:"TRECEVAL_QRELS_WATCH" yaml:"watch"`
}

// LeaderboardConfig holds leaderboard storage settings.
type LeaderboardConfig struct {
	Backend  string `envconfig:"TRECEVAL_LEADERBOARD_BACKEND" yaml:"backend"`
	RedisURL string `envconfig:"TRECEVAL_REDIS_URL" yaml:"redis_url"`
}

// BusConfig holds event bus settings.
type BusConfig struct {
	Type         string `envconfig:"TRECEVAL_BUS_TYPE" yaml:"type"`
	KafkaBrokers string `envconfig:"TRECEVAL_KAFKA_BROKERS" yaml:"kafka_brokers"`
	KafkaGroup   string `envconfig:"TRECEVAL_KAFKA_GROUP" yaml:"kafka_group"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `envconfig:"TRECEVAL_LOG_LEVEL" yaml:"level"`
	Format string `envconfig:"TRECEVAL_LOG_FORMAT" yaml:"format"`
}

// SecurityConfig holds security settings.
type SecurityConfig struct {
	RateLimit int `envconfig:"TRECEVAL_RATE_LIMIT" yaml:"rate_limit"` // requests/sec per client, 0 = disabled
}

// Load loads configuration from environment variables and optional
// config file. Precedence: defaults, then file, then environment.
func Load(configPath string) (*Config, error) {
	cfg := &Config{}
	setDefaults(cfg)

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("processing env config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads configuration from environment variables only.
func LoadFromEnv() (*Config, error) {
	return Load("")
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

func setDefaults(cfg *Config) {
	cfg.Host = "0.0.0.0"
	cfg.Port = 8080

	cfg.Engine = EngineConfig{
		Name: "trec_eval",
	}

	cfg.Defaults = DefaultsConfig{
		Measures:       []string{"official"},
		RelevanceLevel: 1,
	}

	cfg.Leaderboard = LeaderboardConfig{
		Backend:  "memory",
		RedisURL: "redis://localhost:6379",
	}

	cfg.Bus = BusConfig{
		Type: "memory",
	}

	cfg.Log = LogConfig{
		Level:  "info",
		Format: "text",
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	var errs []string

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, "port must be between 1 and 65535")
	}

	if c.Engine.Name == "" {
		errs = append(errs, "engine name must not be empty")
	}

	if _, err := measure.Normalize(c.Defaults.Measures); err != nil {
		errs = append(errs, fmt.Sprintf("invalid default measures: %v", err))
	}

	validBackends := map[string]bool{"memory": true, "redis": true}
	if !validBackends[c.Leaderboard.Backend] {
		errs = append(errs, fmt.Sprintf("invalid leaderboard backend: %s (must be memory or redis)", c.Leaderboard.Backend))
	}

	validBusTypes := map[string]bool{"memory": true, "kafka": true}
	if !validBusTypes[c.Bus.Type] {
		errs = append(errs, fmt.Sprintf("invalid bus type: %s (must be memory or kafka)", c.Bus.Type))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Log.Level] {
		errs = append(errs, fmt.Sprintf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level))
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		errs = append(errs, fmt.Sprintf("invalid log format: %s (must be text or json)", c.Log.Format))
	}

	if c.Security.RateLimit < 0 {
		errs = append(errs, "rate_limit must not be negative")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// Address returns the server address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
