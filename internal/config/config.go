// Package config provides application configuration.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port           string
	FrontendURL    string
	DBPath         string
	SessionIdleTTL time.Duration
	OpenAIAPIKey   string
	OpenAIModel    string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	idleMinutes := getEnvInt("SESSION_IDLE_TTL_MINUTES", 120)
	if idleMinutes <= 0 {
		idleMinutes = 120
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		FrontendURL:    getEnv("FRONTEND_URL", ""),
		DBPath:         getEnv("DB_PATH", "./data/dreamdiary.db"),
		SessionIdleTTL: time.Duration(idleMinutes) * time.Minute,
		OpenAIAPIKey:   strings.TrimSpace(getEnv("OPENAI_API_KEY", "")),
		OpenAIModel:    getEnv("OPENAI_MODEL", "gpt-4.1-mini"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH cannot be empty")
	}
	if c.OpenAIModel == "" {
		return fmt.Errorf("OPENAI_MODEL cannot be empty")
	}
	return nil
}

// AIEnabled returns true if an OpenAI API key is configured.
func (c *Config) AIEnabled() bool {
	return c.OpenAIAPIKey != ""
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}
