// Package anthropic adapts the Anthropic Messages API to the common request
// and completion types. Streaming is not supported.
package anthropic

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/luckenco/rgi/llm"
	"github.com/luckenco/rgi/llm/params"
	"github.com/luckenco/rgi/llm/schema"
)

const (
	DefaultEndpoint = "https://api.anthropic.com/v1/messages"
	DefaultVersion  = "2023-06-01"
	DefaultModel    = "claude-3-5-sonnet-latest"

	// MaxTemperature is lower than the OpenAI-style 2.0.
	MaxTemperature = 1.0
)

type Provider struct {
	endpoint string
	version  string
	model    string
}

var _ llm.Provider = (*Provider)(nil)

type Option func(*Provider) error

func New(opts ...Option) (*Provider, error) {
	p := &Provider{endpoint: DefaultEndpoint, version: DefaultVersion, model: DefaultModel}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func WithEndpoint(url string) Option {
	return func(p *Provider) error {
		if strings.TrimSpace(url) == "" {
			return errors.New("anthropic: empty endpoint")
		}
		p.endpoint = strings.TrimSpace(url)
		return nil
	}
}

// WithVersion sets the anthropic-version header.
func WithVersion(v string) Option {
	return func(p *Provider) error {
		p.version = v
		return nil
	}
}

func WithDefaultModel(model string) Option {
	return func(p *Provider) error {
		p.model = model
		return nil
	}
}

func (p *Provider) Name() string            { return "anthropic" }
func (p *Provider) Endpoint() string        { return p.endpoint }
func (p *Provider) DefaultModel() string    { return p.model }
func (p *Provider) SupportsStreaming() bool { return false }

func (p *Provider) Headers(apiKey string) http.Header {
	h := make(http.Header)
	if apiKey != "" {
		h.Set("x-api-key", apiKey)
	}
	h.Set("anthropic-version", p.version)
	return h
}

type request struct {
	Model         string      `json:"model"`
	MaxTokens     int         `json:"max_tokens"`
	Messages      []message   `json:"messages"`
	System        string      `json:"system,omitempty"`
	Temperature   *float64    `json:"temperature,omitempty"`
	TopP          *float64    `json:"top_p,omitempty"`
	StopSequences []string    `json:"stop_sequences,omitempty"`
	Tools         []tool      `json:"tools,omitempty"`
	ToolChoice    *toolChoice `json:"tool_choice,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type toolResultBlock struct {
	Type      string `json:"type"`
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
}

type tool struct {
	Name        string            `json:"name"`
	Description string            `json:"description,omitempty"`
	InputSchema schema.Parameters `json:"input_schema"`
}

type toolChoice struct {
	Type string `json:"type"`
	Name string `json:"name,omitempty"`
}

// EncodeRequest maps req onto the Messages API. System messages become the
// top-level system prompt; tool results become user tool_result blocks.
// Penalties, log probabilities and stream options have no equivalent and
// are dropped. A json_object response format is rejected.
func (p *Provider) EncodeRequest(req *llm.ChatRequest) ([]byte, error) {
	if req.ResponseFormat == schema.ResponseFormatJSONObject {
		return nil, errors.New("anthropic: json_object response format is not supported")
	}

	out := request{Model: req.Model, MaxTokens: params.DefaultMaxTokens}
	if req.MaxTokens != nil {
		out.MaxTokens = req.MaxTokens.Int()
	}
	if req.Temperature != nil {
		t := req.Temperature.Float64()
		if t > MaxTemperature {
			return nil, fmt.Errorf("anthropic: temperature %v > %v", t, MaxTemperature)
		}
		out.Temperature = &t
	}
	if req.TopP != nil {
		v := req.TopP.Float64()
		out.TopP = &v
	}
	out.StopSequences = req.Stop.Strings()

	var system []string
	for _, m := range req.Messages {
		switch m.Role() {
		case schema.RoleSystem:
			system = append(system, m.Content())
		case schema.RoleTool:
			out.Messages = append(out.Messages, message{
				Role: "user",
				Content: []toolResultBlock{{
					Type:      "tool_result",
					ToolUseID: m.ToolCallID(),
					Content:   m.Content(),
				}},
			})
		case schema.RoleUser, schema.RoleAssistant:
			out.Messages = append(out.Messages, message{Role: string(m.Role()), Content: m.Content()})
		default:
			return nil, fmt.Errorf("anthropic: unsupported message role %q", m.Role())
		}
	}
	if len(out.Messages) == 0 {
		return nil, errors.New("anthropic: at least one user or assistant message is required")
	}
	out.System = strings.Join(system, "\n\n")

	for _, t := range req.Tools {
		out.Tools = append(out.Tools, tool{Name: t.Name, Description: t.Description, InputSchema: t.Parameters})
	}
	if req.ToolChoice != nil {
		if err := req.ToolChoice.Validate(); err != nil {
			return nil, fmt.Errorf("anthropic: %w", err)
		}
		out.ToolChoice = mapToolChoice(*req.ToolChoice)
	}
	return json.Marshal(out)
}

func mapToolChoice(c schema.ToolChoice) *toolChoice {
	switch {
	case c.FunctionName() != "":
		return &toolChoice{Type: "tool", Name: c.FunctionName()}
	case c == schema.ToolChoiceRequired:
		return &toolChoice{Type: "any"}
	case c == schema.ToolChoiceNone:
		return &toolChoice{Type: "none"}
	default:
		return &toolChoice{Type: "auto"}
	}
}

type response struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       schema.Role    `json:"role"`
	Model      string         `json:"model"`
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      struct {
		InputTokens          int `json:"input_tokens"`
		OutputTokens         int `json:"output_tokens"`
		CacheReadInputTokens int `json:"cache_read_input_tokens"`
	} `json:"usage"`
}

type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

var requiredKeys = []string{"id", "type", "role", "model", "content", "stop_reason", "usage"}

// DecodeCompletion maps a Messages API response onto llm.Completion. Text
// blocks are concatenated; thinking blocks become reasoning content.
func (p *Provider) DecodeCompletion(raw []byte) (*llm.Completion, error) {
	fail := func(err error) (*llm.Completion, error) {
		return nil, &llm.DecodeError{Provider: p.Name(), Raw: raw, Cause: err}
	}

	var keys map[string]json.RawMessage
	if err := json.Unmarshal(raw, &keys); err != nil {
		return fail(err)
	}
	for _, k := range requiredKeys {
		if _, ok := keys[k]; !ok {
			return fail(fmt.Errorf("missing field %s", k))
		}
	}

	var r response
	if err := json.Unmarshal(raw, &r); err != nil {
		return fail(err)
	}
	if r.Type != "message" {
		return fail(fmt.Errorf("unexpected type %q", r.Type))
	}
	reason, err := mapStopReason(r.StopReason)
	if err != nil {
		return fail(err)
	}

	var text, thinking strings.Builder
	for _, b := range r.Content {
		switch b.Type {
		case "text":
			text.WriteString(b.Text)
		case "thinking":
			thinking.WriteString(b.Thinking)
		}
	}
	content := text.String()

	return &llm.Completion{
		ID:     r.ID,
		Model:  r.Model,
		Object: llm.ObjectChatCompletion,
		Choices: []llm.Choice{{
			FinishReason: reason,
			Message: llm.ResponseMessage{
				Content:          &content,
				ReasoningContent: thinking.String(),
				Role:             r.Role,
			},
		}},
		Usage: llm.Usage{
			PromptTokens:         r.Usage.InputTokens,
			CompletionTokens:     r.Usage.OutputTokens,
			TotalTokens:          r.Usage.InputTokens + r.Usage.OutputTokens,
			PromptCacheHitTokens: r.Usage.CacheReadInputTokens,
		},
	}, nil
}

func mapStopReason(s string) (llm.FinishReason, error) {
	switch s {
	case "end_turn", "stop_sequence":
		return llm.FinishReasonStop, nil
	case "max_tokens":
		return llm.FinishReasonLength, nil
	case "tool_use":
		return llm.FinishReasonToolCalls, nil
	case "refusal":
		return llm.FinishReasonContentFilter, nil
	}
	return "", fmt.Errorf("unknown stop_reason %q", s)
}
