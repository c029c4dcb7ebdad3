package deepseek

import "github.com/luckenco/rgi/llm/providers/openai_compat"

// Option configures the DeepSeek provider.
type Option = openai_compat.Option

// Re-export common OpenAI-compatible options.
var (
	WithBaseURL             = openai_compat.WithBaseURL
	WithDefaultHeader       = openai_compat.WithDefaultHeader
	WithChatCompletionsPath = openai_compat.WithChatCompletionsPath
	WithDefaultModel        = openai_compat.WithDefaultModel
	WithHooks               = openai_compat.WithHooks
)

type ThinkingType string

const (
	ThinkingDisabled ThinkingType = "disabled"
	ThinkingEnabled  ThinkingType = "enabled"
)

// Thinking controls the request field `thinking`.
//
//	{"thinking": {"type": "disabled"}}
type Thinking struct {
	Type ThinkingType `json:"type"`
}

// WithThinking sends cfg as `thinking` on every request.
func WithThinking(cfg Thinking) Option {
	return openai_compat.WithExtraField("thinking", cfg)
}

func WithThinkingDisabled() Option { return WithThinking(Thinking{Type: ThinkingDisabled}) }
func WithThinkingEnabled() Option  { return WithThinking(Thinking{Type: ThinkingEnabled}) }
