package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	// Save original env and restore after test
	originalEnv := os.Environ()
	defer func() {
		os.Clearenv()
		for _, env := range originalEnv {
			// Parse and restore each env var
			for i, c := range env {
				if c == '=' {
					os.Setenv(env[:i], env[i+1:])
					break
				}
			}
		}
	}()

	// Clear env to test defaults
	os.Clearenv()

	cfg := Load()

	tests := []struct {
		name     string
		got      interface{}
		expected interface{}
	}{
		{"Port", cfg.Port, 8080},
		{"LogLevel", cfg.LogLevel, "info"},
		{"StoreProvider", cfg.StoreProvider, "none"},
		{"QueueProvider", cfg.QueueProvider, "nats"},
		{"CacheProvider", cfg.CacheProvider, "none"},
		{"CacheTTL", cfg.CacheTTL, 86400},
		{"EmbeddingModel", cfg.EmbeddingModel, "text-embedding-3-small"},
		{"Tokenizer", cfg.Tokenizer, "tiktoken"},
		{"TokenEncoding", cfg.TokenEncoding, "cl100k_base"},
		{"Overlap", cfg.Overlap, 0.3},
		{"Concurrency", cfg.Concurrency, 1},
		{"Retries", cfg.Retries, 2},
		{"ReportDir", cfg.ReportDir, "tests/text_size_test"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("expected %s=%v, got %v", tt.name, tt.expected, tt.got)
			}
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("OVERLAP", "0.5")
	t.Setenv("TOKENIZER", "words")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("expected log level 'debug', got %s", cfg.LogLevel)
	}
	if cfg.Overlap != 0.5 {
		t.Errorf("expected overlap 0.5, got %v", cfg.Overlap)
	}
	if cfg.Tokenizer != "words" {
		t.Errorf("expected tokenizer 'words', got %s", cfg.Tokenizer)
	}
}

func TestLoadProviderOverrides(t *testing.T) {
	t.Setenv("STORE_PROVIDER", "postgres")
	t.Setenv("CACHE_PROVIDER", "redis")

	cfg := Load()

	if cfg.StoreProvider != "postgres" {
		t.Errorf("expected store provider 'postgres', got %s", cfg.StoreProvider)
	}
	if cfg.CacheProvider != "redis" {
		t.Errorf("expected cache provider 'redis', got %s", cfg.CacheProvider)
	}
}
