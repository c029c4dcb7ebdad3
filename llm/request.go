package llm

import (
	"encoding/json"
	"fmt"

	"github.com/luckenco/rgi/llm/params"
	"github.com/luckenco/rgi/llm/schema"
)

// ChatRequest is an assembled chat-completion request. Optional fields that
// are nil (or empty) are left out of the JSON body entirely.
//
// Build it with a Builder or Assemble; treat it as read-only afterwards and
// use Clone before changing a copy.
type ChatRequest struct {
	Model    string
	Messages []schema.Message

	MaxTokens        *params.MaxTokens
	FrequencyPenalty *params.FrequencyPenalty
	PresencePenalty  *params.PresencePenalty
	Temperature      *params.Temperature
	TopP             *params.TopP
	Stop             params.StopSequences

	Stream        bool
	StreamOptions *schema.StreamOptions

	Tools      []schema.Tool
	ToolChoice *schema.ToolChoice

	ResponseFormat schema.ResponseFormat

	LogProbs    *bool
	TopLogProbs *params.TopLogProbs
}

func (r *ChatRequest) Clone() *ChatRequest {
	if r == nil {
		return nil
	}
	out := *r
	out.Messages = append([]schema.Message(nil), r.Messages...)
	out.Tools = append([]schema.Tool(nil), r.Tools...)
	if r.StreamOptions != nil {
		so := *r.StreamOptions
		out.StreamOptions = &so
	}
	if r.LogProbs != nil {
		lp := *r.LogProbs
		out.LogProbs = &lp
	}
	return &out
}

type chatRequestWire struct {
	Messages         []schema.Message         `json:"messages"`
	Model            string                   `json:"model"`
	MaxTokens        *params.MaxTokens        `json:"max_tokens,omitempty"`
	FrequencyPenalty *params.FrequencyPenalty `json:"frequency_penalty,omitempty"`
	PresencePenalty  *params.PresencePenalty  `json:"presence_penalty,omitempty"`
	Temperature      *params.Temperature      `json:"temperature,omitempty"`
	TopP             *params.TopP             `json:"top_p,omitempty"`
	Stop             *params.StopSequences    `json:"stop,omitempty"`
	Stream           bool                     `json:"stream,omitempty"`
	StreamOptions    *schema.StreamOptions    `json:"stream_options,omitempty"`
	Tools            []schema.Tool            `json:"tools,omitempty"`
	ToolChoice       *schema.ToolChoice       `json:"tool_choice,omitempty"`
	ResponseFormat   *schema.ResponseFormat   `json:"response_format,omitempty"`
	LogProbs         *bool                    `json:"logprobs,omitempty"`
	TopLogProbs      *params.TopLogProbs      `json:"top_logprobs,omitempty"`
}

// MarshalJSON produces the OpenAI-style body.
func (r ChatRequest) MarshalJSON() ([]byte, error) {
	w := chatRequestWire{
		Messages:         r.Messages,
		Model:            r.Model,
		MaxTokens:        r.MaxTokens,
		FrequencyPenalty: r.FrequencyPenalty,
		PresencePenalty:  r.PresencePenalty,
		Temperature:      r.Temperature,
		TopP:             r.TopP,
		Stream:           r.Stream,
		StreamOptions:    r.StreamOptions,
		Tools:            r.Tools,
		ToolChoice:       r.ToolChoice,
		LogProbs:         r.LogProbs,
		TopLogProbs:      r.TopLogProbs,
	}
	if w.Messages == nil {
		w.Messages = []schema.Message{}
	}
	if r.Stop.Len() > 0 {
		stop := r.Stop
		w.Stop = &stop
	}
	if r.ResponseFormat != "" {
		rf := r.ResponseFormat
		w.ResponseFormat = &rf
	}
	return json.Marshal(w)
}

// Builder assembles a ChatRequest. Parameters arrive already range-checked;
// Build only checks what spans several fields.
type Builder struct {
	req    ChatRequest
	strict bool
}

func NewBuilder(model string) *Builder {
	return &Builder{req: ChatRequest{Model: model}}
}

func (b *Builder) Messages(msgs ...schema.Message) *Builder {
	b.req.Messages = append(b.req.Messages, msgs...)
	return b
}

func (b *Builder) MaxTokens(v params.MaxTokens) *Builder {
	b.req.MaxTokens = &v
	return b
}

func (b *Builder) FrequencyPenalty(v params.FrequencyPenalty) *Builder {
	b.req.FrequencyPenalty = &v
	return b
}

func (b *Builder) PresencePenalty(v params.PresencePenalty) *Builder {
	b.req.PresencePenalty = &v
	return b
}

func (b *Builder) Temperature(v params.Temperature) *Builder {
	b.req.Temperature = &v
	return b
}

func (b *Builder) TopP(v params.TopP) *Builder {
	b.req.TopP = &v
	return b
}

func (b *Builder) Stop(v params.StopSequences) *Builder {
	b.req.Stop = v
	return b
}

func (b *Builder) Stream(on bool) *Builder {
	b.req.Stream = on
	return b
}

// IncludeUsage asks for a final usage chunk on streamed responses.
func (b *Builder) IncludeUsage(on bool) *Builder {
	b.req.StreamOptions = &schema.StreamOptions{IncludeUsage: on}
	return b
}

func (b *Builder) Tools(tools ...schema.Tool) *Builder {
	b.req.Tools = append(b.req.Tools, tools...)
	return b
}

func (b *Builder) ToolChoice(c schema.ToolChoice) *Builder {
	if c.IsZero() {
		b.req.ToolChoice = nil
		return b
	}
	b.req.ToolChoice = &c
	return b
}

func (b *Builder) ResponseFormat(f schema.ResponseFormat) *Builder {
	b.req.ResponseFormat = f
	return b
}

func (b *Builder) LogProbs(on bool) *Builder {
	b.req.LogProbs = &on
	return b
}

func (b *Builder) TopLogProbs(v params.TopLogProbs) *Builder {
	b.req.TopLogProbs = &v
	return b
}

// Strict makes Build reject requests that set both temperature and top_p,
// and tools whose required arguments are not declared properties.
func (b *Builder) Strict() *Builder {
	b.strict = true
	return b
}

// Build returns an independent copy of the request, so the Builder can be
// reused.
func (b *Builder) Build() (*ChatRequest, error) {
	if len(b.req.Messages) == 0 {
		return nil, ErrEmptyMessages
	}
	if b.strict {
		if b.req.Temperature != nil && b.req.TopP != nil {
			return nil, ErrSamplingConflict
		}
		for _, t := range b.req.Tools {
			if err := t.Validate(); err != nil {
				return nil, fmt.Errorf("llm: tool %q: %w", t.Name, err)
			}
		}
	}
	return b.req.Clone(), nil
}

// RequestOption configures a Builder inside Assemble.
type RequestOption func(*Builder)

// Assemble builds a request for model from messages and options. It fails
// with ErrEmptyMessages when messages is empty.
func Assemble(model string, messages []schema.Message, opts ...RequestOption) (*ChatRequest, error) {
	b := NewBuilder(model).Messages(messages...)
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b.Build()
}

func WithMaxTokens(v params.MaxTokens) RequestOption {
	return func(b *Builder) { b.MaxTokens(v) }
}

func WithFrequencyPenalty(v params.FrequencyPenalty) RequestOption {
	return func(b *Builder) { b.FrequencyPenalty(v) }
}

func WithPresencePenalty(v params.PresencePenalty) RequestOption {
	return func(b *Builder) { b.PresencePenalty(v) }
}

func WithTemperature(v params.Temperature) RequestOption {
	return func(b *Builder) { b.Temperature(v) }
}

func WithTopP(v params.TopP) RequestOption {
	return func(b *Builder) { b.TopP(v) }
}

func WithStop(v params.StopSequences) RequestOption {
	return func(b *Builder) { b.Stop(v) }
}

func WithStream(on bool) RequestOption {
	return func(b *Builder) { b.Stream(on) }
}

func WithStreamIncludeUsage(on bool) RequestOption {
	return func(b *Builder) { b.IncludeUsage(on) }
}

func WithTools(tools ...schema.Tool) RequestOption {
	return func(b *Builder) { b.Tools(tools...) }
}

func WithToolChoice(c schema.ToolChoice) RequestOption {
	return func(b *Builder) { b.ToolChoice(c) }
}

func WithResponseFormat(f schema.ResponseFormat) RequestOption {
	return func(b *Builder) { b.ResponseFormat(f) }
}

func WithLogProbs(on bool) RequestOption {
	return func(b *Builder) { b.LogProbs(on) }
}

func WithTopLogProbs(v params.TopLogProbs) RequestOption {
	return func(b *Builder) { b.TopLogProbs(v) }
}

func WithStrict() RequestOption {
	return func(b *Builder) { b.Strict() }
}
