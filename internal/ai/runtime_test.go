package ai

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestNewRuntimeKnownProviders(t *testing.T) {
	ctx := context.Background()
	if _, err := NewRuntime(ctx, "OpenRouter", RuntimeConfig{APIKey: "k"}); err != nil {
		t.Fatalf("openrouter: %v", err)
	}
	if _, err := NewRuntime(ctx, ProviderOllama, RuntimeConfig{}); err != nil {
		t.Fatalf("ollama: %v", err)
	}
	if _, err := NewRuntime(ctx, ProviderOpenAI, RuntimeConfig{}); err == nil {
		t.Fatalf("openai without key should fail")
	}
	_, err := NewRuntime(ctx, "gemini", RuntimeConfig{})
	if err == nil || !strings.Contains(err.Error(), "bedrock") {
		t.Fatalf("expected unknown provider error listing providers, got %v", err)
	}
}

func TestTextHelper(t *testing.T) {
	if _, err := Text(nil); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("nil response: %v", err)
	}
	if _, err := Text(&GenerateResponse{Choices: []Choice{{Message: Message{Content: "  \n"}}}}); !errors.Is(err, ErrEmptyResponse) {
		t.Fatalf("blank content: %v", err)
	}
	got, err := Text(&GenerateResponse{Choices: []Choice{{Message: Message{Content: "a,b"}}}})
	if err != nil || got != "a,b" {
		t.Fatalf("unexpected %q %v", got, err)
	}
}

func TestRetryPolicyStopsOnNonRetryable(t *testing.T) {
	calls := 0
	p := retryPolicy{attempts: 5, baseDelay: time.Millisecond, maxDelay: time.Millisecond}
	err := p.do(context.Background(), func() error {
		calls++
		return &BadRequestError{APIError: &APIError{StatusCode: 400}}
	})
	if err == nil || calls != 1 {
		t.Fatalf("expected one call and an error, got %d calls, err %v", calls, err)
	}

	calls = 0
	err = p.do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return &ServerError{APIError: &APIError{StatusCode: 503}}
		}
		return nil
	})
	if err != nil || calls != 3 {
		t.Fatalf("expected success on third call, got %d calls, err %v", calls, err)
	}
}

func TestRetryPolicyHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := retryPolicy{attempts: 3, baseDelay: time.Hour}
	err := p.do(ctx, func() error {
		cancel()
		return &ServerError{APIError: &APIError{StatusCode: 500}}
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestModelCatalog(t *testing.T) {
	if m, ok := DefaultModel(ProviderBedrock); !ok || m != "amazon.titan-text-premier-v1:0" {
		t.Fatalf("unexpected bedrock default %q", m)
	}
	if got := PromptBudget(DefaultBedrockModel, 1024); got != 32000-1024 {
		t.Fatalf("unexpected budget %d", got)
	}
	if got := PromptBudget("unknown/model", 1024); got != 0 {
		t.Fatalf("unknown model budget should be 0, got %d", got)
	}
	if cost, ok := EstimateCostUSD("gpt-4o", 1000, 1000); !ok || cost <= 0 {
		t.Fatalf("unexpected cost %v %v", cost, ok)
	}
	MergeCatalog(map[string]ModelInfo{"custom/model": {Provider: ProviderOpenRouter, ContextTokens: 4096}})
	mi, ok := LookupModel("custom/model")
	if !ok || mi.Name != "custom/model" {
		t.Fatalf("merge did not fill name: %+v", mi)
	}
	cat := Catalog()
	for i := 1; i < len(cat); i++ {
		if cat[i-1].Provider > cat[i].Provider {
			t.Fatalf("catalog not sorted by provider")
		}
	}
}
