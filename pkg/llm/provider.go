package llm

import (
	"context"
	"errors"
)

// Generation failure classes. Providers wrap their errors so callers
// can pattern-match with errors.Is instead of inspecting transports.
var (
	// ErrTimeout means the model did not answer within the deadline.
	ErrTimeout = errors.New("llm: generation timed out")
	// ErrUnavailable means the backend could not be reached or
	// returned a transport-level failure.
	ErrUnavailable = errors.New("llm: backend unavailable")
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// Option allows for optional parameters like Temperature, MaxTokens, etc.
type Option func(*Options)

type Options struct {
	Temperature float64
	MaxTokens   int
	Model       string // Override default model
}

func WithTemperature(temp float64) Option {
	return func(o *Options) {
		o.Temperature = temp
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	// Chat sends a chat history to the model and returns the response.
	// Failures are wrapped in ErrTimeout or ErrUnavailable.
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}
