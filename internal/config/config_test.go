package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Engine.Name != "trec_eval" {
		t.Errorf("Engine.Name = %q, want trec_eval", cfg.Engine.Name)
	}
	if len(cfg.Defaults.Measures) != 1 || cfg.Defaults.Measures[0] != "official" {
		t.Errorf("Defaults.Measures = %v, want [official]", cfg.Defaults.Measures)
	}
	if cfg.Defaults.RelevanceLevel != 1 {
		t.Errorf("Defaults.RelevanceLevel = %d, want 1", cfg.Defaults.RelevanceLevel)
	}
	if cfg.Leaderboard.Backend != "memory" {
		t.Errorf("Leaderboard.Backend = %q, want memory", cfg.Leaderboard.Backend)
	}
	if cfg.Bus.Type != "memory" {
		t.Errorf("Bus.Type = %q, want memory", cfg.Bus.Type)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
port: 9090
engine:
  name: trec_eval
  binary: /opt/trec_eval/trec_eval
defaults:
  measures: ["map", "ndcg_cut.10"]
  relevance_level: 2
leaderboard:
  backend: redis
  redis_url: redis://cache:6379
log:
  level: debug
  format: json
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if cfg.Engine.Binary != "/opt/trec_eval/trec_eval" {
		t.Errorf("Engine.Binary = %q", cfg.Engine.Binary)
	}
	if cfg.Defaults.RelevanceLevel != 2 {
		t.Errorf("Defaults.RelevanceLevel = %d, want 2", cfg.Defaults.RelevanceLevel)
	}
	if cfg.Leaderboard.Backend != "redis" {
		t.Errorf("Leaderboard.Backend = %q, want redis", cfg.Leaderboard.Backend)
	}
	if cfg.Log.Format != "json" {
		t.Errorf("Log.Format = %q, want json", cfg.Log.Format)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() succeeded with missing file")
	}
}

func TestEnvOverridesFile(t *testing.T) {
	content := "port: 9090\n"
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("TRECEVAL_PORT", "7070")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 7070 {
		t.Errorf("Port = %d, want env override 7070", cfg.Port)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		setDefaults(cfg)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid defaults", func(c *Config) {}, ""},
		{"bad port", func(c *Config) { c.Port = 0 }, "port"},
		{"empty engine", func(c *Config) { c.Engine.Name = "" }, "engine name"},
		{"bad default measure", func(c *Config) { c.Defaults.Measures = []string{"bogus"} }, "invalid default measures"},
		{"bad backend", func(c *Config) { c.Leaderboard.Backend = "dynamo" }, "leaderboard backend"},
		{"bad bus", func(c *Config) { c.Bus.Type = "rabbitmq" }, "bus type"},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }, "log level"},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, "log format"},
		{"negative rate limit", func(c *Config) { c.Security.RateLimit = -1 }, "rate_limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestAddress(t *testing.T) {
	cfg := &Config{Host: "127.0.0.1", Port: 9000}
	if got := cfg.Address(); got != "127.0.0.1:9000" {
		t.Errorf("Address() = %q, want 127.0.0.1:9000", got)
	}
}
