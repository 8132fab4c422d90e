package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"
	"github.com/openai/openai-go/v3"

	"doc-bench/internal/cache"
	"doc-bench/internal/chunker"
	"doc-bench/internal/config"
	"doc-bench/internal/embeddings"
	"doc-bench/internal/llm"
	"doc-bench/internal/logger"
	"doc-bench/internal/queue"
	"doc-bench/internal/report"
	"doc-bench/internal/store"
	"doc-bench/internal/summarize"
	"doc-bench/internal/tokens"
)

// Deps bundles common runtime dependencies for the CLI and services.
type Deps struct {
	Config     config.Config
	Catalog    config.Catalog
	Log        *slog.Logger
	Counter    chunker.Counter
	Models     *llm.Registry
	Cache      cache.Cache
	Summarizer *summarize.Summarizer
	Reports    *report.Writer
	// Store is nil when STORE_PROVIDER=none.
	Store store.Store
	// Queue is only set for services.
	Queue queue.Queue
	// Embedder is nil without an OpenAI key.
	Embedder embeddings.Embedder
}

// Build loads env, config, and shared components. log may be nil, in which
// case a JSON logger at the configured level is used.
func Build(log *slog.Logger) (Deps, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Deps{}, fmt.Errorf("failed to load environment variables: %w", err)
	}
	cfg := config.Load()
	if log == nil {
		log = logger.New(cfg.LogLevel)
	}

	catalog, err := config.LoadCatalog(cfg.ModelsFile)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to load model catalog: %w", err)
	}
	counter, err := tokens.New(cfg.Tokenizer, cfg.TokenEncoding)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize tokenizer: %w", err)
	}
	st, err := buildStore(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize store: %w", err)
	}
	c := buildCache(cfg, log)
	embedder, err := buildEmbedder(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	return Deps{
		Config:     cfg,
		Catalog:    catalog,
		Log:        log,
		Counter:    counter,
		Models:     buildRegistry(cfg, catalog),
		Cache:      c,
		Summarizer: buildSummarizer(cfg, counter, c, log),
		Reports:    report.NewWriter(cfg.ReportDir, catalog.ReportPrefixes()),
		Store:      st,
		Embedder:   embedder,
	}, nil
}

// BuildService is Build plus the store and queue the gateway and worker need.
func BuildService() (Deps, error) {
	deps, err := Build(nil)
	if err != nil {
		return Deps{}, err
	}
	if deps.Store == nil {
		return Deps{}, fmt.Errorf("STORE_PROVIDER=postgres is required for services")
	}
	q, err := buildQueue(deps.Config, deps.Log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	deps.Queue = q
	return deps, nil
}

func buildStore(cfg config.Config, log *slog.Logger) (store.Store, error) {
	switch cfg.StoreProvider {
	case "postgres":
		if cfg.DBURL == "" {
			return nil, fmt.Errorf("DB_URL is required when STORE_PROVIDER=postgres")
		}
		db, err := store.NewPostgres(cfg.DBURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		log.Info("using Postgres store")
		return db, nil
	case "none", "":
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid STORE_PROVIDER: %s (valid options: postgres, none)", cfg.StoreProvider)
	}
}

func buildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	switch cfg.QueueProvider {
	case "nats":
		if cfg.QueueURL == "" {
			return nil, fmt.Errorf("QUEUE_URL is required when QUEUE_PROVIDER=nats")
		}
		nc, err := nats.Connect(cfg.QueueURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to NATS: %w", err)
		}
		log.Info("using NATS queue")
		return queue.NewNATS(log, nc), nil
	default:
		return nil, fmt.Errorf("invalid QUEUE_PROVIDER: %s (valid option: nats)", cfg.QueueProvider)
	}
}

// buildCache falls back to the no-op cache when Redis is unreachable.
func buildCache(cfg config.Config, log *slog.Logger) cache.Cache {
	switch cfg.CacheProvider {
	case "redis":
		c, err := cache.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword)
		if err != nil {
			log.Warn("redis unavailable, caching disabled", "err", err)
			return cache.NewNoOpCache()
		}
		log.Info("using Redis cache", "addr", cfg.RedisAddr)
		return c
	default:
		return cache.NewNoOpCache()
	}
}

func buildRegistry(cfg config.Config, catalog config.Catalog) *llm.Registry {
	reg := llm.NewRegistry(catalog.Providers())
	httpClient := &http.Client{Timeout: 30 * time.Minute}
	reg.Register("ollama", func(model string) (llm.Client, error) {
		return llm.NewOllamaClient(model, cfg.OllamaURL, httpClient)
	})
	reg.Register("openai", func(model string) (llm.Client, error) {
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for openai models")
		}
		return llm.NewOpenAIClient(cfg.OpenAIKey, openai.ChatModel(model))
	})
	return reg
}

func buildSummarizer(cfg config.Config, counter chunker.Counter, c cache.Cache, log *slog.Logger) *summarize.Summarizer {
	return summarize.New(counter, log,
		summarize.WithCache(c, time.Duration(cfg.CacheTTL)*time.Second),
		summarize.WithConcurrency(cfg.Concurrency),
		summarize.WithRetries(cfg.Retries, time.Second),
	)
}

func buildEmbedder(cfg config.Config, log *slog.Logger) (embeddings.Embedder, error) {
	if cfg.OpenAIKey == "" {
		return nil, nil
	}
	embedder, err := embeddings.NewOpenAIEmbedder(cfg.OpenAIKey, openai.EmbeddingModel(cfg.EmbeddingModel))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenAI embedder: %w", err)
	}
	log.Info("using OpenAI embedder", "model", cfg.EmbeddingModel)
	return embedder, nil
}
