package router

import (
	"context"
	"errors"
	"log"
	"math"

	"ai-slidegen-be/pkg/llm"
	"ai-slidegen-be/pkg/retry"
)

// ErrNoSuitableModel is returned when no registered model satisfies the
// quality and cost constraints. Selection coming up empty is a normal
// outcome, not a provider failure.
var ErrNoSuitableModel = errors.New("no suitable model for constraints")

const systemPrompt = "You are a medical-data analysis assistant."

// Router keeps the process-wide model registry and picks the most
// cost-effective model at or above a minimum quality bar. The registry and
// provider clients are read-only after initialization and safe for
// concurrent use without locking.
type Router struct {
	models    []llm.ModelConfig
	providers map[string]llm.LLMProvider
	fallback  llm.LLMProvider
	policy    retry.Policy
}

// NewRouter builds an empty router. fallback is the local degrade target
// invoked when a selected provider call fails; it must never error.
func NewRouter(fallback llm.LLMProvider) *Router {
	return &Router{
		providers: make(map[string]llm.LLMProvider),
		fallback:  fallback,
		policy:    retry.DefaultPolicy,
	}
}

// SetRetryPolicy overrides the backoff applied to provider calls.
func (r *Router) SetRetryPolicy(p retry.Policy) {
	r.policy = p
}

// RegisterProvider attaches an initialized client for the given provider
// name. Providers with missing credentials are simply never registered,
// which excludes their models from selection.
func (r *Router) RegisterProvider(name string, p llm.LLMProvider) {
	r.providers[name] = p
}

// RegisterModel appends a model configuration. Registration order is the
// tie-break order for selection.
func (r *Router) RegisterModel(cfg llm.ModelConfig) {
	r.models = append(r.models, cfg)
}

// SelectModel returns the name of the registered model maximizing
// qualityScore/estimatedCost among those whose provider has a client, whose
// quality meets minQuality and whose estimated cost does not exceed maxCost.
// The second return is false when no model survives the filters.
func (r *Router) SelectModel(inputLength int, minQuality, maxCost float64) (string, bool) {
	bestScore := math.Inf(-1)
	bestName := ""
	found := false

	for _, cfg := range r.models {
		if _, ok := r.providers[cfg.Provider]; !ok {
			continue
		}
		if cfg.QualityScore < minQuality {
			continue
		}
		cost := cfg.EstimatedCost(inputLength)
		if cost > maxCost {
			continue
		}

		score := math.Inf(1) // free models win on cost-effectiveness
		if cost > 0 {
			score = cfg.QualityScore / cost
		}
		// strict > keeps the first-registered model on ties
		if score > bestScore {
			bestScore = score
			bestName = cfg.Name
			found = true
		}
	}

	return bestName, found
}

// ProcessText routes input through the selected model's chat call. Any
// provider failure after retries degrades to the local passthrough instead
// of propagating, so a page is never lost to a provider outage.
func (r *Router) ProcessText(ctx context.Context, input string, minQuality, maxCost float64) (string, error) {
	name, ok := r.SelectModel(len(input), minQuality, maxCost)
	if !ok {
		return "", ErrNoSuitableModel
	}

	cfg := r.configFor(name)
	provider := r.providers[cfg.Provider]

	history := []llm.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: input},
	}

	opts := []llm.Option{llm.WithModel(cfg.Name)}
	if cfg.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(cfg.MaxTokens))
	}

	out, err := retry.Do(ctx, r.policy, func() (string, error) {
		return provider.Chat(ctx, history, opts...)
	})
	if err != nil {
		log.Printf("[WARN] model %s failed, degrading to local passthrough: %v", cfg.Name, err)
		return r.fallback.Chat(ctx, history)
	}

	return out, nil
}

func (r *Router) configFor(name string) llm.ModelConfig {
	for _, cfg := range r.models {
		if cfg.Name == name {
			return cfg
		}
	}
	return llm.ModelConfig{}
}
