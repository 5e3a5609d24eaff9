package app

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/joho/godotenv"
	"github.com/nats-io/nats.go"

	"similarity-checker/internal/cache"
	"similarity-checker/internal/config"
	"similarity-checker/internal/logger"
	"similarity-checker/internal/queue"
	"similarity-checker/internal/similarity"
)

// Deps bundles common runtime dependencies for the service binaries.
type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Cache    cache.Cache
	Comparer similarity.Comparer
}

// WorkerDeps adds the message queue the worker serves on.
type WorkerDeps struct {
	Deps
	Queue queue.Queue
}

// LoadConfig reads an optional .env file and then the environment.
func LoadConfig() (config.Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return config.Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	return config.Load(), nil
}

// Build loads env, config, and shared components.
func Build() (Deps, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return Deps{}, err
	}
	return BuildWith(cfg, logger.New(cfg.LogLevel))
}

// BuildWith wires components from an already-loaded config.
func BuildWith(cfg config.Config, log *slog.Logger) (Deps, error) {
	c, err := buildCache(cfg, log)
	if err != nil {
		return Deps{}, fmt.Errorf("failed to initialize cache: %w", err)
	}
	comparer, err := buildComparer(cfg, c, log)
	if err != nil {
		_ = c.Close()
		return Deps{}, fmt.Errorf("failed to initialize similarity client: %w", err)
	}
	return Deps{
		Config:   cfg,
		Log:      log,
		Cache:    c,
		Comparer: comparer,
	}, nil
}

// BuildWorker is Build plus a NATS connection.
func BuildWorker() (WorkerDeps, error) {
	deps, err := Build()
	if err != nil {
		return WorkerDeps{}, err
	}
	q, err := BuildQueue(deps.Config, deps.Log)
	if err != nil {
		_ = deps.Cache.Close()
		return WorkerDeps{}, fmt.Errorf("failed to initialize queue: %w", err)
	}
	return WorkerDeps{Deps: deps, Queue: q}, nil
}

// BuildQueue connects to NATS at QUEUE_URL.
func BuildQueue(cfg config.Config, log *slog.Logger) (queue.Queue, error) {
	if cfg.QueueURL == "" {
		return nil, fmt.Errorf("QUEUE_URL is required for the NATS queue")
	}
	nc, err := nats.Connect(cfg.QueueURL, nats.Name("similarity-checker"))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	log.Info("using NATS queue", "url", nc.ConnectedUrlRedacted())
	return queue.NewNATS(log, nc), nil
}

func buildCache(cfg config.Config, log *slog.Logger) (cache.Cache, error) {
	switch cfg.CacheProvider {
	case "", "none":
		return cache.NewNoOpCache(), nil
	case "redis":
		if cfg.CacheAddr == "" {
			return nil, fmt.Errorf("CACHE_ADDR is required when CACHE_PROVIDER=redis")
		}
		rc, err := cache.NewRedisCache(cfg.CacheAddr, cfg.CachePassword)
		if err != nil {
			// Comparisons still work without a cache.
			log.Warn("redis unavailable, caching disabled", "err", err)
			return cache.NewNoOpCache(), nil
		}
		log.Info("using Redis cache", "addr", cfg.CacheAddr)
		return rc, nil
	default:
		return nil, fmt.Errorf("invalid CACHE_PROVIDER: %s (valid options: redis, none)", cfg.CacheProvider)
	}
}

func buildComparer(cfg config.Config, c cache.Cache, log *slog.Logger) (similarity.Comparer, error) {
	sc, err := cfg.Similarity()
	if err != nil {
		return nil, err
	}
	if sc.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required: %w", similarity.ErrCredentialMissing)
	}
	client, err := similarity.NewClient(sc, log)
	if err != nil {
		return nil, err
	}
	log.Info("using OpenAI similarity client", "model", sc.ActiveModel(), "style", string(sc.Style))
	if _, ok := c.(*cache.NoOpCache); ok {
		return client, nil
	}
	return cache.NewComparer(client, c, client.Config(), time.Duration(cfg.CacheTTL)*time.Second, log), nil
}
