package openai_compat

import (
	"fmt"
	"sort"
)

type preset struct {
	baseURL string
	path    string
	model   string
	// local servers that do not authenticate
	keyless bool
}

var presets = map[string]preset{
	"openai":     {baseURL: "https://api.openai.com", path: "/v1/chat/completions", model: "gpt-4o-mini"},
	"openrouter": {baseURL: "https://openrouter.ai/api", path: "/v1/chat/completions", model: "openai/gpt-4o-mini"},
	"ollama":     {baseURL: "http://localhost:11434", path: "/v1/chat/completions", model: "llama3.2", keyless: true},
	"qwen":       {baseURL: "https://dashscope.aliyuncs.com/compatible-mode/v1", path: "/chat/completions", model: "qwen-plus"},
	"kimi":       {baseURL: "https://api.moonshot.cn/v1", path: "/chat/completions", model: "moonshot-v1-8k"},
}

// NewPreset returns a provider for a well-known OpenAI-compatible service.
// opts are applied after the preset, so they can override it.
func NewPreset(name string, opts ...Option) (*Provider, error) {
	ps, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("openai_compat: unknown preset %q", name)
	}
	return New(append([]Option{
		WithProviderName(name),
		WithBaseURL(ps.baseURL),
		WithChatCompletionsPath(ps.path),
		WithDefaultModel(ps.model),
	}, opts...)...)
}

// PresetNames lists the known presets in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RequiresAPIKey reports whether the preset's service needs a key.
// Unknown names are assumed to need one.
func RequiresAPIKey(name string) bool {
	ps, ok := presets[name]
	return !ok || !ps.keyless
}
