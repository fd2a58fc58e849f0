package router

import (
	"context"
	"errors"
	"testing"
	"time"

	"ai-slidegen-be/pkg/llm"
	"ai-slidegen-be/pkg/llm/local"
	"ai-slidegen-be/pkg/retry"
)

type fakeProvider struct {
	reply string
	err   error
	calls int
}

func (f *fakeProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.reply, nil
}

func (f *fakeProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return f.Chat(ctx, []llm.Message{{Role: "user", Content: prompt}}, options...)
}

func newTestRouter() (*Router, *fakeProvider) {
	fake := &fakeProvider{reply: "summarized"}
	r := NewRouter(local.NewPassthroughProvider())
	r.SetRetryPolicy(retry.Policy{MaxTries: 2, InitialInterval: time.Millisecond})
	r.RegisterProvider("mistral", fake)
	r.RegisterModel(llm.ModelConfig{
		Name: "mistral-large-latest", Provider: "mistral",
		CostPerThousandInput: 0.008, CostPerThousandOutput: 0.024,
		MaxTokens: 4096, QualityScore: 0.9,
	})
	r.RegisterModel(llm.ModelConfig{
		Name: "mistral-small-latest", Provider: "mistral",
		CostPerThousandInput: 0.001, CostPerThousandOutput: 0.003,
		MaxTokens: 4096, QualityScore: 0.7,
	})
	return r, fake
}

func TestSelectModel(t *testing.T) {
	tests := []struct {
		name        string
		inputLength int
		minQuality  float64
		maxCost     float64
		wantModel   string
		wantFound   bool
	}{
		{
			// small is cheaper per quality point, so it wins when allowed
			name:        "best quality per cost wins",
			inputLength: 1000,
			minQuality:  0.5,
			maxCost:     1.0,
			wantModel:   "mistral-small-latest",
			wantFound:   true,
		},
		{
			name:        "quality bar excludes cheap model",
			inputLength: 1000,
			minQuality:  0.8,
			maxCost:     1.0,
			wantModel:   "mistral-large-latest",
			wantFound:   true,
		},
		{
			// large costs (1000*0.008 + 500*0.024)/1000 = 0.02
			name:        "cost cap excludes expensive model",
			inputLength: 1000,
			minQuality:  0.5,
			maxCost:     0.01,
			wantModel:   "mistral-small-latest",
			wantFound:   true,
		},
		{
			name:        "no survivor",
			inputLength: 1000,
			minQuality:  0.95,
			maxCost:     1.0,
			wantFound:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestRouter()
			got, found := r.SelectModel(tt.inputLength, tt.minQuality, tt.maxCost)

			if found != tt.wantFound {
				t.Fatalf("found = %v, want %v", found, tt.wantFound)
			}
			if found && got != tt.wantModel {
				t.Errorf("model = %q, want %q", got, tt.wantModel)
			}
		})
	}
}

func TestSelectModelNeverViolatesConstraints(t *testing.T) {
	r, _ := newTestRouter()

	for _, minQuality := range []float64{0, 0.5, 0.7, 0.9, 0.99} {
		for _, maxCost := range []float64{0.001, 0.01, 0.1, 10} {
			name, found := r.SelectModel(2000, minQuality, maxCost)
			if !found {
				continue
			}
			cfg := r.configFor(name)
			if cfg.QualityScore < minQuality {
				t.Errorf("selected %s with quality %v < minQuality %v", name, cfg.QualityScore, minQuality)
			}
			if cost := cfg.EstimatedCost(2000); cost > maxCost {
				t.Errorf("selected %s with cost %v > maxCost %v", name, cost, maxCost)
			}
		}
	}
}

func TestSelectModelEmptyRegistry(t *testing.T) {
	r := NewRouter(local.NewPassthroughProvider())

	if _, found := r.SelectModel(100, 0, 100); found {
		t.Error("empty registry should select nothing")
	}
}

func TestSelectModelSkipsUninitializedProvider(t *testing.T) {
	r := NewRouter(local.NewPassthroughProvider())
	// model registered, but no client for its provider (missing credentials)
	r.RegisterModel(llm.ModelConfig{Name: "gpt-4o-mini", Provider: "openai", QualityScore: 0.9})

	if _, found := r.SelectModel(100, 0, 100); found {
		t.Error("model without an initialized client must not be selectable")
	}
}

func TestSelectModelPrefersFreeModel(t *testing.T) {
	r, _ := newTestRouter()
	r.RegisterProvider("ollama", &fakeProvider{reply: "local"})
	r.RegisterModel(llm.ModelConfig{Name: "llama3", Provider: "ollama", QualityScore: 0.6})

	got, found := r.SelectModel(1000, 0, 1.0)
	if !found || got != "llama3" {
		t.Errorf("got (%q,%v), want zero-cost llama3 selected", got, found)
	}
}

func TestSelectModelTieKeepsRegistrationOrder(t *testing.T) {
	r := NewRouter(local.NewPassthroughProvider())
	r.RegisterProvider("ollama", &fakeProvider{})
	r.RegisterModel(llm.ModelConfig{Name: "first-free", Provider: "ollama", QualityScore: 0.6})
	r.RegisterModel(llm.ModelConfig{Name: "second-free", Provider: "ollama", QualityScore: 0.6})

	got, found := r.SelectModel(500, 0, 1.0)
	if !found || got != "first-free" {
		t.Errorf("got (%q,%v), want first-registered model on tie", got, found)
	}
}

func TestProcessText(t *testing.T) {
	r, fake := newTestRouter()

	out, err := r.ProcessText(context.Background(), "APOE variant detected", 0.5, 1.0)
	if err != nil {
		t.Fatalf("ProcessText error: %v", err)
	}
	if out != "summarized" {
		t.Errorf("out = %q, want provider reply", out)
	}
	if fake.calls != 1 {
		t.Errorf("provider calls = %d, want 1", fake.calls)
	}
}

func TestProcessTextNoSuitableModel(t *testing.T) {
	r, fake := newTestRouter()

	_, err := r.ProcessText(context.Background(), "text", 0.99, 1.0)
	if !errors.Is(err, ErrNoSuitableModel) {
		t.Fatalf("err = %v, want ErrNoSuitableModel", err)
	}
	if fake.calls != 0 {
		t.Errorf("provider must not be called when selection is empty, got %d calls", fake.calls)
	}
}

func TestProcessTextDegradesToLocalPassthrough(t *testing.T) {
	r, fake := newTestRouter()
	fake.err = errors.New("401 unauthorized")

	out, err := r.ProcessText(context.Background(), "clinical findings", 0.5, 1.0)
	if err != nil {
		t.Fatalf("degrade path must not error, got %v", err)
	}
	if out != "[local] clinical findings" {
		t.Errorf("out = %q, want tagged passthrough of the input", out)
	}
	if fake.calls != 2 {
		t.Errorf("provider calls = %d, want 2 (initial + one retry)", fake.calls)
	}
}
