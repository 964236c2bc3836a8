package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		MongoURI:         "mongodb://localhost:27017/concierge",
		AssistantAPIKey:  "sk-test",
		AssistantID:      "asst_123",
		TelegramBotToken: "123:abc",
		WebhookSecret:    "secret",
	}
}

func TestValidate(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing mongo URI", func(c *Config) { c.MongoURI = "" }},
		{"missing API key", func(c *Config) { c.AssistantAPIKey = "" }},
		{"missing assistant ID", func(c *Config) { c.AssistantID = "" }},
		{"missing bot token", func(c *Config) { c.TelegramBotToken = "" }},
		{"missing webhook secret", func(c *Config) { c.WebhookSecret = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation to fail")
			}
		})
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != "3001" {
		t.Errorf("expected default port 3001, got %s", cfg.Port)
	}
	if cfg.LocalesDir != "locales" {
		t.Errorf("expected default locales dir, got %s", cfg.LocalesDir)
	}
	if cfg.ReplyTimeout != 120*time.Second {
		t.Errorf("expected 120s reply timeout, got %s", cfg.ReplyTimeout)
	}
	if cfg.UserRateLimit != 10 {
		t.Errorf("expected rate limit 10, got %d", cfg.UserRateLimit)
	}
}

func TestDurationEnvOverride(t *testing.T) {
	t.Setenv("REPLY_TIMEOUT", "45s")
	cfg := Load()
	if cfg.ReplyTimeout != 45*time.Second {
		t.Errorf("expected 45s, got %s", cfg.ReplyTimeout)
	}
}
