package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// t.Setenv registers restoration; Unsetenv afterwards makes the
	// variable truly absent for LookupEnv.
	for _, key := range []string{"PORT", "DB_PATH", "FRONTEND_URL", "OPENAI_API_KEY", "OPENAI_MODEL", "SESSION_IDLE_TTL_MINUTES"} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected default port 8080, got %q", cfg.Port)
	}
	if cfg.DBPath != "./data/dreamdiary.db" {
		t.Errorf("Expected default DB path, got %q", cfg.DBPath)
	}
	if cfg.SessionIdleTTL != 120*time.Minute {
		t.Errorf("Expected default idle TTL 120m, got %v", cfg.SessionIdleTTL)
	}
	if cfg.AIEnabled() {
		t.Error("Expected AI disabled by default")
	}
	if !cfg.IsDevelopment() {
		t.Error("Expected development mode without frontend URL")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("DB_PATH", "/tmp/dreams.db")
	t.Setenv("FRONTEND_URL", "https://dreams.example.com")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("SESSION_IDLE_TTL_MINUTES", "45")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %q", cfg.Port)
	}
	if cfg.DBPath != "/tmp/dreams.db" {
		t.Errorf("Expected DB path /tmp/dreams.db, got %q", cfg.DBPath)
	}
	if cfg.SessionIdleTTL != 45*time.Minute {
		t.Errorf("Expected idle TTL 45m, got %v", cfg.SessionIdleTTL)
	}
	if !cfg.AIEnabled() {
		t.Error("Expected AI enabled with API key set")
	}
	if cfg.IsDevelopment() {
		t.Error("Expected production mode with remote frontend URL")
	}
}

func TestLoadInvalidTTLFallsBack(t *testing.T) {
	t.Setenv("PORT", "8080")
	t.Setenv("DB_PATH", "/tmp/dreams.db")
	t.Setenv("OPENAI_MODEL", "gpt-4.1-mini")
	t.Setenv("SESSION_IDLE_TTL_MINUTES", "-10")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.SessionIdleTTL != 120*time.Minute {
		t.Errorf("Expected fallback TTL 120m for negative value, got %v", cfg.SessionIdleTTL)
	}
}

func TestAIEnabled(t *testing.T) {
	cfg := &Config{}
	if cfg.AIEnabled() {
		t.Error("Expected AI disabled without key")
	}
	cfg.OpenAIAPIKey = "sk-test"
	if !cfg.AIEnabled() {
		t.Error("Expected AI enabled with key")
	}
}

func TestIsDevelopment(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://127.0.0.1:3000", true},
		{"https://dreams.example.com", false},
	}
	for _, tt := range tests {
		cfg := &Config{FrontendURL: tt.url}
		if got := cfg.IsDevelopment(); got != tt.want {
			t.Errorf("IsDevelopment(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}
