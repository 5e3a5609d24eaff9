package config

import (
	"log/slog"
	"time"

	"github.com/caarlos0/env/v10"

	"similarity-checker/internal/similarity"
)

// Config holds runtime configuration for the console program and both services.
type Config struct {
	// Server
	Port     int    `env:"PORT" envDefault:"8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LLM
	OpenAIKey      string        `env:"OPENAI_API_KEY"`
	BaseURL        string        `env:"OPENAI_BASE_URL" envDefault:"https://api.openai.com/v1/"`
	LLMModel       string        `env:"LLM_MODEL" envDefault:"gpt-3.5-turbo"`
	LegacyModel    string        `env:"LEGACY_MODEL" envDefault:"gpt-3.5-turbo-instruct"`
	MaxTokens      int           `env:"MAX_TOKENS"` // unset: 4000 for chat, 10 for legacy
	EndpointStyle  string        `env:"ENDPOINT_STYLE" envDefault:"chat"` // "chat" or "legacy"
	NormalizeText  bool          `env:"NORMALIZE_TEXT" envDefault:"false"`
	RejectBlank    bool          `env:"REJECT_BLANK" envDefault:"true"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`

	// Cache
	CacheProvider string `env:"CACHE_PROVIDER" envDefault:"none"` // "redis" or "none"
	CacheAddr     string `env:"CACHE_ADDR"`
	CachePassword string `env:"CACHE_PASSWORD"`
	CacheTTL      int    `env:"CACHE_TTL" envDefault:"3600"` // seconds

	// Queue
	QueueURL string `env:"QUEUE_URL"`
}

// Load reads configuration from environment variables with defaults.
func Load() Config {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		slog.Warn("failed to parse env; using defaults where set", "err", err)
	}
	return cfg
}

// Similarity maps the environment onto the client configuration.
func (c Config) Similarity() (similarity.Config, error) {
	style, err := similarity.ParseEndpointStyle(c.EndpointStyle)
	if err != nil {
		return similarity.Config{}, err
	}
	return similarity.Config{
		APIKey:        c.OpenAIKey,
		BaseURL:       c.BaseURL,
		Model:         c.LLMModel,
		LegacyModel:   c.LegacyModel,
		MaxTokens:     c.MaxTokens,
		Style:         style,
		NormalizeText: c.NormalizeText,
		RejectBlank:   c.RejectBlank,
		Timeout:       c.RequestTimeout,
	}, nil
}
