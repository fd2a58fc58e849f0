package local

import (
	"context"
	"strings"

	"ai-slidegen-be/pkg/llm"
)

// PassthroughProvider is the deterministic degrade target used when every
// remote provider is unavailable. It returns a tagged copy of the last user
// message instead of failing, so the pipeline always terminates with some
// output per page.
type PassthroughProvider struct {
	Tag string
}

var _ llm.LLMProvider = &PassthroughProvider{}

func NewPassthroughProvider() *PassthroughProvider {
	return &PassthroughProvider{Tag: "[local]"}
}

func (p *PassthroughProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == "user" {
			return p.tagged(history[i].Content), nil
		}
	}
	return p.tagged(""), nil
}

func (p *PassthroughProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return p.tagged(prompt), nil
}

func (p *PassthroughProvider) tagged(s string) string {
	if p.Tag == "" {
		return s
	}
	return strings.TrimSpace(p.Tag + " " + s)
}
