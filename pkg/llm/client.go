// Package llm provides a client for OpenAI-compatible chat completion APIs
// with failure classification and per-kind retry backoff.
package llm

import (
	"context"
	"time"
)

// Config holds configuration for an LLM client.
type Config struct {
	Model       string        `yaml:"model" json:"model"`
	APIKey      string        `yaml:"api_key" json:"api_key"`
	BaseURL     string        `yaml:"base_url" json:"base_url"`
	MaxRetries  int           `yaml:"max_retries" json:"max_retries"`
	Timeout     time.Duration `yaml:"timeout" json:"timeout"`
	MaxTokens   int           `yaml:"max_tokens" json:"max_tokens"`
	Temperature float64       `yaml:"temperature" json:"temperature"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Model:       "gpt-4o-mini",
		MaxRetries:  3,
		Timeout:     30 * time.Second,
		MaxTokens:   1000,
		Temperature: 0.7,
	}
}

// Client is the interface for LLM interactions.
type Client interface {
	// Generate sends a prompt and returns the LLM response.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Close releases any resources held by the client.
	Close() error
}

// Message represents a single message in a conversation.
type Message struct {
	Role    string `json:"role"` // "system", "user", "assistant"
	Content string `json:"content"`
}

// Request holds the parameters for an LLM generation request.
type Request struct {
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response holds the result of an LLM generation.
type Response struct {
	Content      string `json:"content"`
	FinishReason string `json:"finish_reason,omitempty"`
	TokensIn     int    `json:"tokens_in"`
	TokensOut    int    `json:"tokens_out"`
	Model        string `json:"model"`
	LatencyMs    int64  `json:"latency_ms"`
}

// NewClient creates a new LLM client based on the provided config.
// The returned client retries transient failures according to the
// failure taxonomy in this package.
func NewClient(cfg Config) (Client, error) {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	inner, err := newOpenAIClient(cfg)
	if err != nil {
		return nil, err
	}
	return wrapWithRetry(inner, cfg.MaxRetries), nil
}

// SimpleGenerate is a convenience function for quick one-shot generation.
func SimpleGenerate(ctx context.Context, cfg Config, prompt string) (string, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return "", err
	}
	defer client.Close()

	resp, err := client.Generate(ctx, &Request{
		Messages: []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
