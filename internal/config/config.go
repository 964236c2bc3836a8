package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	Port       string
	MongoURI   string
	LocalesDir string

	// Assistant API (reply generation)
	AssistantAPIKey  string
	AssistantBaseURL string
	AssistantID      string
	AssistantModel   string        // Model for stateless completions
	ReplyTimeout     time.Duration // Upper bound for one reply-generation wait
	PollInterval     time.Duration // Run-status polling interval

	// Telegram delivery
	TelegramBotToken string
	WebhookSecret    string

	// Per-user rate limit on the webhook (messages per minute)
	UserRateLimit int
}

// Load loads configuration from environment variables with defaults
func Load() *Config {
	return &Config{
		Port:       getEnv("PORT", "3001"),
		MongoURI:   getEnv("MONGODB_URI", ""),
		LocalesDir: getEnv("LOCALES_DIR", "locales"),

		AssistantAPIKey:  getEnv("ASSISTANT_API_KEY", ""),
		AssistantBaseURL: getEnv("ASSISTANT_BASE_URL", "https://api.openai.com/v1"),
		AssistantID:      getEnv("ASSISTANT_ID", ""),
		AssistantModel:   getEnv("ASSISTANT_MODEL", "gpt-4o-mini"),
		ReplyTimeout:     getDurationEnv("REPLY_TIMEOUT", 120*time.Second),
		PollInterval:     getDurationEnv("REPLY_POLL_INTERVAL", time.Second),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		WebhookSecret:    getEnv("WEBHOOK_SECRET", ""),

		UserRateLimit: getIntEnv("USER_RATE_LIMIT", 10),
	}
}

// Validate fails fast on missing required credentials. Called once at
// startup, before any message is processed.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return fmt.Errorf("MONGODB_URI environment variable is required")
	}
	if c.AssistantAPIKey == "" {
		return fmt.Errorf("ASSISTANT_API_KEY environment variable is required")
	}
	if c.AssistantID == "" {
		return fmt.Errorf("ASSISTANT_ID environment variable is required")
	}
	if c.TelegramBotToken == "" {
		return fmt.Errorf("TELEGRAM_BOT_TOKEN environment variable is required")
	}
	if c.WebhookSecret == "" {
		return fmt.Errorf("WEBHOOK_SECRET environment variable is required")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		parsed, err := time.ParseDuration(value)
		if err == nil {
			return parsed
		}
	}
	return defaultValue
}
