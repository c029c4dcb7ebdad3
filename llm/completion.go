package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/luckenco/rgi/llm/schema"
)

// FinishReason is why generation stopped. Unknown values fail decoding: a
// new reason usually means the API changed underneath the caller.
type FinishReason string

const (
	FinishReasonStop                       FinishReason = "stop"
	FinishReasonLength                     FinishReason = "length"
	FinishReasonContentFilter              FinishReason = "content_filter"
	FinishReasonToolCalls                  FinishReason = "tool_calls"
	FinishReasonInsufficientSystemResource FinishReason = "insufficient_system_resource"
)

func (f FinishReason) Valid() bool {
	switch f {
	case FinishReasonStop, FinishReasonLength, FinishReasonContentFilter,
		FinishReasonToolCalls, FinishReasonInsufficientSystemResource:
		return true
	}
	return false
}

func (f *FinishReason) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if !FinishReason(s).Valid() {
		return fmt.Errorf("unknown finish_reason %q", s)
	}
	*f = FinishReason(s)
	return nil
}

// Object is the response "object" discriminator.
type Object string

const (
	ObjectChatCompletion      Object = "chat.completion"
	ObjectChatCompletionChunk Object = "chat.completion.chunk"
)

func (o *Object) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch Object(s) {
	case ObjectChatCompletion, ObjectChatCompletionChunk:
		*o = Object(s)
		return nil
	}
	return fmt.Errorf("unknown object %q", s)
}

// Completion is a whole, non-streamed chat completion.
type Completion struct {
	ID                string   `json:"id"`
	Choices           []Choice `json:"choices"`
	Created           int64    `json:"created"`
	Model             string   `json:"model"`
	SystemFingerprint string   `json:"system_fingerprint"`
	Object            Object   `json:"object"`
	Usage             Usage    `json:"usage"`
}

func (c *Completion) UnmarshalJSON(b []byte) error {
	if err := requireKeys(b, "completion", "id", "choices", "created", "model", "object", "usage"); err != nil {
		return err
	}
	type alias Completion
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Completion(a)
	return nil
}

// Text returns the content of the first choice.
func (c *Completion) Text() string {
	if c == nil || len(c.Choices) == 0 {
		return ""
	}
	return c.Choices[0].Message.Text()
}

type Choice struct {
	FinishReason FinishReason    `json:"finish_reason"`
	Index        int             `json:"index"`
	Message      ResponseMessage `json:"message"`
}

func (c *Choice) UnmarshalJSON(b []byte) error {
	if err := requireKeys(b, "choice", "finish_reason", "index", "message"); err != nil {
		return err
	}
	type alias Choice
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Choice(a)
	return nil
}

type ResponseMessage struct {
	// Content is nil when the model only produced tool calls.
	Content          *string     `json:"content"`
	ReasoningContent string      `json:"reasoning_content,omitempty"`
	Role             schema.Role `json:"role"`
}

func (m *ResponseMessage) UnmarshalJSON(b []byte) error {
	if err := requireKeys(b, "message", "role"); err != nil {
		return err
	}
	type alias ResponseMessage
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*m = ResponseMessage(a)
	return nil
}

func (m ResponseMessage) Text() string {
	if m.Content == nil {
		return ""
	}
	return *m.Content
}

type Usage struct {
	CompletionTokens      int `json:"completion_tokens"`
	PromptTokens          int `json:"prompt_tokens"`
	PromptCacheHitTokens  int `json:"prompt_cache_hit_tokens"`
	PromptCacheMissTokens int `json:"prompt_cache_miss_tokens"`
	TotalTokens           int `json:"total_tokens"`

	CompletionTokensDetails *CompletionTokensDetails `json:"completion_tokens_details,omitempty"`
}

type CompletionTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

func (u *Usage) UnmarshalJSON(b []byte) error {
	if err := requireKeys(b, "usage", "completion_tokens", "prompt_tokens", "total_tokens"); err != nil {
		return err
	}
	type alias Usage
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*u = Usage(a)
	return nil
}

// ReasoningTokens is zero when the provider did not report it.
func (u Usage) ReasoningTokens() int {
	if u.CompletionTokensDetails == nil {
		return 0
	}
	return u.CompletionTokensDetails.ReasoningTokens
}

// DecodeCompletion parses an OpenAI-style response body. Any shape mismatch
// is returned as a *DecodeError.
func DecodeCompletion(raw []byte) (*Completion, error) {
	var c Completion
	if err := json.Unmarshal(raw, &c); err != nil {
		return nil, &DecodeError{Raw: raw, Cause: err}
	}
	if c.Object != ObjectChatCompletion {
		return nil, &DecodeError{Raw: raw, Cause: fmt.Errorf("unexpected object %q", c.Object)}
	}
	return &c, nil
}

// requireKeys fails when b is an object missing any of keys. Null counts as
// present; nullability is the field type's business.
func requireKeys(b []byte, what string, keys ...string) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	var missing []string
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%s: missing field %s", what, strings.Join(missing, ", "))
	}
	return nil
}
