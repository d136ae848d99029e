// Package llm provides the OpenAI-compatible chat completer behind pilot
// profiles.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/okian/localscan/internal/domain/profile"
	"github.com/okian/localscan/pkg/logger"
)

// Defaults.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 150
)

// ErrNoAPIKey is returned when a Narrator is built without a credential.
var ErrNoAPIKey = errors.New("llm api key is required")

// Narrator issues one chat completion per prompt.
type Narrator struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
	log         logger.Logger
}

// Config holds the settings for a Narrator.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	MaxTokens   int
	Timeout     time.Duration
}

// NewNarrator creates a Narrator. Empty settings fall back to defaults.
func NewNarrator(cfg Config, log logger.Logger) (*Narrator, error) {
	if cfg.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if log == nil {
		log = logger.Nop()
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.Timeout > 0 {
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	n := &Narrator{
		client:      openai.NewClientWithConfig(clientConfig),
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
		log:         log.Named("llm"),
	}
	if n.model == "" {
		n.model = DefaultModel
	}
	if cfg.Temperature == 0 {
		n.temperature = DefaultTemperature
	}
	if n.maxTokens <= 0 {
		n.maxTokens = DefaultMaxTokens
	}
	return n, nil
}

// Complete implements profile.Completer and returns the first choice's text.
func (n *Narrator) Complete(ctx context.Context, prompt string) (string, error) {
	start := time.Now()
	resp, err := n.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: n.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: n.temperature,
		MaxTokens:   n.maxTokens,
	})
	if err != nil {
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			n.log.Error(ctx, "chat completion rejected",
				logger.Int("status", apiErr.HTTPStatusCode),
				logger.String("message", apiErr.Message))
		}
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", profile.ErrEmptyCompletion
	}

	n.log.Debug(ctx, "chat completion done",
		logger.Int("promptTokens", resp.Usage.PromptTokens),
		logger.Int("completionTokens", resp.Usage.CompletionTokens),
		logger.Duration("elapsed", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}
