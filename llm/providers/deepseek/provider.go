// Package deepseek configures the DeepSeek chat API, which speaks the
// OpenAI wire format with a few extra fields.
package deepseek

import "github.com/luckenco/rgi/llm/providers/openai_compat"

const (
	DefaultBaseURL             = "https://api.deepseek.com"
	DefaultChatCompletionsPath = "/chat/completions"

	// ModelChat is DeepSeek-V3.
	ModelChat = "deepseek-chat"
	// ModelReasoner is DeepSeek-R1. It streams reasoning_content before content.
	ModelReasoner = "deepseek-reasoner"
)

// New returns a DeepSeek provider. Pass it to llm.NewClient with the API key.
func New(opts ...Option) (*openai_compat.Provider, error) {
	return openai_compat.New(append([]openai_compat.Option{
		openai_compat.WithProviderName("deepseek"),
		openai_compat.WithBaseURL(DefaultBaseURL),
		openai_compat.WithChatCompletionsPath(DefaultChatCompletionsPath),
		openai_compat.WithDefaultModel(ModelChat),
	}, opts...)...)
}
