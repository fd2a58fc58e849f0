package llm

import (
	"context"
)

// Message represents a chat message in a provider-agnostic format
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
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
	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (string, error)

	// Generate sends a single prompt to the model (convenience method)
	Generate(ctx context.Context, prompt string, options ...Option) (string, error)
}

// ModelConfig describes one registered model: the provider that serves it,
// per-thousand-token pricing and a quality score in [0,1]. Entries are
// immutable for the process lifetime once registered with the router.
type ModelConfig struct {
	Name                  string
	Provider              string
	CostPerThousandInput  float64
	CostPerThousandOutput float64
	MaxTokens             int
	QualityScore          float64
}

// EstimatedCost projects the cost of a call with inputLength characters of
// input, assuming output volume at half the input volume.
func (c ModelConfig) EstimatedCost(inputLength int) float64 {
	l := float64(inputLength)
	return (l*c.CostPerThousandInput + 0.5*l*c.CostPerThousandOutput) / 1000
}
