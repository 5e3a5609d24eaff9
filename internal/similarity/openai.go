package similarity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	chatPath   = "chat/completions"
	legacyPath = "completions"
)

// Client sends one comparison per call to an OpenAI-compatible endpoint.
type Client struct {
	cfg    Config
	log    *slog.Logger
	client *openai.Client
}

// NewClient validates cfg and builds a client. Extra request options are appended
// after the defaults, so callers can swap the HTTP client in tests.
func NewClient(cfg Config, log *slog.Logger, opts ...option.RequestOption) (*Client, error) {
	cfg = cfg.withDefaults()
	if cfg.APIKey == "" {
		return nil, ErrCredentialMissing
	}
	if _, err := ParseEndpointStyle(string(cfg.Style)); err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.Default()
	}
	// openai.NewClient also reads OPENAI_ORG_ID and OPENAI_PROJECT_ID; only cfg may shape the request.
	base := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(cfg.BaseURL),
		option.WithMaxRetries(0),
		option.WithHeaderDel("OpenAI-Organization"),
		option.WithHeaderDel("OpenAI-Project"),
	}
	cli := openai.NewClient(append(base, opts...)...)
	return &Client{
		cfg:    cfg,
		log:    log.With("style", string(cfg.Style), "model", cfg.ActiveModel()),
		client: &cli,
	}, nil
}

// Config returns the effective configuration with defaults applied.
func (c *Client) Config() Config {
	return c.cfg
}

// Compare asks the model to rank text1 against text2. Every failure yields
// FailureScore and an error wrapping one of the package sentinels.
func (c *Client) Compare(ctx context.Context, text1, text2 string) (Score, error) {
	if c == nil || c.client == nil {
		return FailureScore, fmt.Errorf("nil similarity client")
	}
	if c.cfg.RejectBlank && (strings.TrimSpace(text1) == "" || strings.TrimSpace(text2) == "") {
		return FailureScore, fmt.Errorf("%w: both texts must be non-blank", ErrInvalidInput)
	}
	if c.cfg.NormalizeText {
		text1 = NormalizeText(text1)
		text2 = NormalizeText(text2)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	var (
		score Score
		err   error
	)
	switch c.cfg.Style {
	case EndpointLegacyCompletion:
		score, err = c.compareLegacy(reqCtx, text1, text2)
	default:
		score, err = c.compareChat(reqCtx, text1, text2)
	}
	if err == nil {
		score, err = CheckRange(score)
	}
	if err != nil {
		c.logFailure(err)
		return FailureScore, err
	}
	c.log.Debug("similarity computed", "score", float64(score))
	return score, nil
}

func (c *Client) compareChat(ctx context.Context, text1, text2 string) (Score, error) {
	raw, err := c.post(ctx, chatPath, BuildRequest(c.cfg.Model, c.cfg.MaxTokens, text1, text2))
	if err != nil {
		return FailureScore, err
	}
	var resp ComparisonResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return FailureScore, fmt.Errorf("%w: decode response: %v", ErrParse, err)
	}
	if len(resp.Choices) == 0 {
		return FailureScore, fmt.Errorf("%w: no choices returned", ErrParse)
	}
	return ParseScore(resp.Choices[0].Message.Content)
}

func (c *Client) compareLegacy(ctx context.Context, text1, text2 string) (Score, error) {
	raw, err := c.post(ctx, legacyPath, BuildLegacyRequest(c.cfg.LegacyModel, c.cfg.MaxTokens, text1, text2))
	if err != nil {
		return FailureScore, err
	}
	var resp LegacyCompletionResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return FailureScore, fmt.Errorf("%w: decode response: %v", ErrParse, err)
	}
	if len(resp.Choices) == 0 {
		return FailureScore, fmt.Errorf("%w: no choices returned", ErrParse)
	}
	return ExtractScore(resp.Choices[0].Text)
}

func (c *Client) post(ctx context.Context, path string, body any) ([]byte, error) {
	var raw []byte
	if err := c.client.Post(ctx, path, body, &raw); err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &StatusError{StatusCode: apiErr.StatusCode, Body: apiErr.Message}
		}
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return raw, nil
}

func (c *Client) logFailure(err error) {
	var statusErr *StatusError
	var rangeErr *RangeError
	switch {
	case errors.As(err, &statusErr):
		c.log.Error("similarity request rejected", "status", statusErr.StatusCode, "err", err)
	case errors.As(err, &rangeErr):
		c.log.Warn("similarity score out of range", "value", float64(rangeErr.Value))
	case errors.Is(err, ErrParse):
		c.log.Warn("similarity reply not parseable", "err", err)
	default:
		c.log.Error("similarity request failed", "err", err)
	}
}
