package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
)

// Model metadata and simple pricing helpers for prompt budgets and cost hints.
// Prices are illustrative and should be verified against provider docs.

type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

var models = map[string]ModelInfo{
	"openai/gpt-4o-mini": {
		Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter,
		ContextTokens: 128000, InputPerK: 0.0006, OutputPerK: 0.0024,
	},
	"anthropic/claude-3-haiku": {
		Name: "anthropic/claude-3-haiku", Provider: ProviderOpenRouter,
		ContextTokens: 200000, InputPerK: 0.00025, OutputPerK: 0.00125,
	},
	"deepseek/deepseek-r1:free": {
		Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter,
		ContextTokens: 128000,
	},
	"gpt-4o-mini": {
		Name: "gpt-4o-mini", Provider: ProviderOpenAI,
		ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006,
	},
	"gpt-4o": {
		Name: "gpt-4o", Provider: ProviderOpenAI,
		ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01,
	},
	DefaultBedrockModel: {
		Name: DefaultBedrockModel, Provider: ProviderBedrock,
		ContextTokens: 32000, InputPerK: 0.0005, OutputPerK: 0.0015,
	},
	"amazon.titan-text-express-v1": {
		Name: "amazon.titan-text-express-v1", Provider: ProviderBedrock,
		ContextTokens: 8000, InputPerK: 0.0002, OutputPerK: 0.0006,
	},
	"llama3.1:8b-instruct": {
		Name: "llama3.1:8b-instruct", Provider: ProviderOllama,
		ContextTokens: 8192,
	},
	"mistral:7b-instruct": {
		Name: "mistral:7b-instruct", Provider: ProviderOllama,
		ContextTokens: 8192,
	},
}

var defaultModels = map[string]string{
	ProviderOpenRouter: "openai/gpt-4o-mini",
	ProviderOpenAI:     "gpt-4o-mini",
	ProviderBedrock:    DefaultBedrockModel,
	ProviderOllama:     "llama3.1:8b-instruct",
}

// DefaultModel returns the model used for provider when none is configured.
func DefaultModel(provider string) (string, bool) {
	m, ok := defaultModels[provider]
	return m, ok
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// EstimateCostUSD estimates total cost in USD for given tokens using model pricing.
// If the model is unknown, returns 0 and ok=false.
func EstimateCostUSD(model string, promptTokens, completionTokens int) (float64, bool) {
	mi, ok := LookupModel(model)
	if !ok {
		return 0, false
	}
	inCost := (float64(promptTokens) / 1000.0) * mi.InputPerK
	outCost := (float64(completionTokens) / 1000.0) * mi.OutputPerK
	return inCost + outCost, true
}

// PromptBudget returns how many prompt tokens fit next to maxOutput completion
// tokens, or 0 when the model is unknown.
func PromptBudget(model string, maxOutput int) int {
	mi, ok := LookupModel(model)
	if !ok || mi.ContextTokens <= maxOutput {
		return 0
	}
	return mi.ContextTokens - maxOutput
}

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
// Example JSON entry:
// { "gpt-4o-mini": {"Name":"gpt-4o-mini","Provider":"openai","ContextTokens":128000,"InputPerK":0.00015,"OutputPerK":0.0006} }
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", path, err)
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		if v.Name == "" {
			v.Name = k
		}
		models[k] = v
	}
}

// Catalog returns the current catalog sorted by provider then name.
func Catalog() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, v := range models {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Provider == out[j].Provider {
			return out[i].Name < out[j].Name
		}
		return out[i].Provider < out[j].Provider
	})
	return out
}
