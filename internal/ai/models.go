package ai

import (
	"encoding/json"
	"os"
	"strings"
)

// Model metadata used for prompt-size warnings and rough cost estimates.
// Prices are indicative only.

type ModelInfo struct {
	Name          string
	Provider      string
	ContextTokens int     // approximate context window
	InputPerK     float64 // USD per 1K input tokens
	OutputPerK    float64 // USD per 1K output tokens
}

// DefaultModel is the model requested when none is configured.
const DefaultModel = "gemini-flash-latest"

var models = map[string]ModelInfo{
	"gemini-flash-latest": {Name: "gemini-flash-latest", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
	"gemini-2.5-flash":    {Name: "gemini-2.5-flash", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.0003, OutputPerK: 0.0025},
	"gemini-2.5-pro":      {Name: "gemini-2.5-pro", Provider: ProviderGemini, ContextTokens: 1048576, InputPerK: 0.00125, OutputPerK: 0.01},
	"gemini-1.5-flash":    {Name: "gemini-1.5-flash", Provider: ProviderGemini, ContextTokens: 1000000, InputPerK: 0.0002, OutputPerK: 0.0008},
	"gpt-4o-mini":         {Name: "gpt-4o-mini", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.00015, OutputPerK: 0.0006},
	"gpt-4o":              {Name: "gpt-4o", Provider: ProviderOpenAI, ContextTokens: 128000, InputPerK: 0.0025, OutputPerK: 0.01},
	"gpt-4.1-mini":        {Name: "gpt-4.1-mini", Provider: ProviderOpenAI, ContextTokens: 1047576, InputPerK: 0.0004, OutputPerK: 0.0016},
	// Common local (Ollama) tags
	"llama3.1:8b":         {Name: "llama3.1:8b", Provider: ProviderOllama, ContextTokens: 8192},
	"mistral-nemo:latest": {Name: "mistral-nemo:latest", Provider: ProviderOllama, ContextTokens: 8192},
	"qwen2.5:7b":          {Name: "qwen2.5:7b", Provider: ProviderOllama, ContextTokens: 32768},
}

// LookupModel returns ModelInfo and ok flag. A "models/" prefix is ignored.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[strings.TrimPrefix(name, "models/")]
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

// LoadCatalogFromJSON loads a JSON object map[string]ModelInfo from a file path.
func LoadCatalogFromJSON(path string) (map[string]ModelInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var m map[string]ModelInfo
	if err := json.NewDecoder(f).Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// MergeCatalog merges/overrides entries in the in-memory catalog.
func MergeCatalog(m map[string]ModelInfo) {
	for k, v := range m {
		models[k] = v
	}
}

// Models returns a snapshot of the catalog entries.
func Models() []ModelInfo {
	out := make([]ModelInfo, 0, len(models))
	for _, mi := range models {
		out = append(out, mi)
	}
	return out
}
