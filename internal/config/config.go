package config

import (
	"log/slog"

	"github.com/caarlos0/env/v10"
)

// Config holds runtime configuration. Extend as needed.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Upload limits
	MaxUploadSize int64 `env:"MAX_UPLOAD_SIZE" envDefault:"52428800"` // 50MB in bytes

	// Store
	StoreProvider string `env:"STORE_PROVIDER" envDefault:"none"` // "postgres" or "none"
	DBURL         string `env:"DB_URL"`

	// Queue
	QueueProvider string `env:"QUEUE_PROVIDER" envDefault:"nats"`
	QueueURL      string `env:"QUEUE_URL"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"86400"` // seconds

	// Models
	OpenAIKey      string `env:"OPENAI_API_KEY"`
	OllamaURL      string `env:"OLLAMA_URL"`
	EmbeddingModel string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-3-small"`
	ModelsFile     string `env:"MODELS_FILE"`

	// Chunking
	Tokenizer     string  `env:"TOKENIZER" envDefault:"tiktoken"` // "tiktoken" or "words"
	TokenEncoding string  `env:"TOKEN_ENCODING" envDefault:"cl100k_base"`
	Overlap       float64 `env:"OVERLAP" envDefault:"0.3"`

	// Pipeline
	Concurrency int    `env:"CONCURRENCY" envDefault:"1"`
	Retries     int    `env:"RETRIES" envDefault:"2"`
	ReportDir   string `env:"REPORT_DIR" envDefault:"tests/text_size_test"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}
