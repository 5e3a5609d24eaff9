package similarity

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Score is the similarity ranking returned by the model, nominally in [MinScore, MaxScore].
type Score float64

const (
	MinScore Score = 1
	MaxScore Score = 5

	// FailureScore is returned alongside every non-nil error.
	FailureScore Score = 0
)

// Valid reports whether s lies in the closed ranking interval.
func (s Score) Valid() bool {
	return s >= MinScore && s <= MaxScore
}

// Comparer ranks how similar two texts are.
type Comparer interface {
	Compare(ctx context.Context, text1, text2 string) (Score, error)
}

// EndpointStyle selects the request schema and endpoint path.
type EndpointStyle string

const (
	EndpointChat             EndpointStyle = "chat"
	EndpointLegacyCompletion EndpointStyle = "legacy"
)

// ParseEndpointStyle maps a config string to a style. Empty means chat.
func ParseEndpointStyle(s string) (EndpointStyle, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "chat":
		return EndpointChat, nil
	case "legacy", "completion", "completions":
		return EndpointLegacyCompletion, nil
	default:
		return "", fmt.Errorf("unknown endpoint style %q (valid: chat, legacy)", s)
	}
}

const (
	DefaultBaseURL     = "https://api.openai.com/v1/"
	DefaultModel       = "gpt-3.5-turbo"
	DefaultLegacyModel = "gpt-3.5-turbo-instruct"
	DefaultMaxTokens   = 4000
	// DefaultLegacyMaxTokens only needs room for a short number.
	DefaultLegacyMaxTokens = 10
	DefaultTimeout         = 30 * time.Second
)

// Config configures a Client. APIKey is required.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string
	LegacyModel   string
	MaxTokens     int
	Style         EndpointStyle
	NormalizeText bool
	RejectBlank   bool
	Timeout       time.Duration
}

func (c Config) withDefaults() Config {
	c.APIKey = strings.TrimSpace(c.APIKey)
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(c.BaseURL, "/") {
		c.BaseURL += "/"
	}
	if c.Style == "" {
		c.Style = EndpointChat
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.LegacyModel == "" {
		c.LegacyModel = DefaultLegacyModel
	}
	if c.MaxTokens <= 0 {
		if c.Style == EndpointLegacyCompletion {
			c.MaxTokens = DefaultLegacyMaxTokens
		} else {
			c.MaxTokens = DefaultMaxTokens
		}
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	return c
}

// ActiveModel is the model identifier sent for the configured style.
func (c Config) ActiveModel() string {
	c = c.withDefaults()
	if c.Style == EndpointLegacyCompletion {
		return c.LegacyModel
	}
	return c.Model
}

// Fingerprint identifies the settings that change what a comparison returns.
func (c Config) Fingerprint() string {
	c = c.withDefaults()
	return fmt.Sprintf("%s|%s|%d|%t", c.Style, c.ActiveModel(), c.MaxTokens, c.NormalizeText)
}
