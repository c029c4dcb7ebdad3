package llm

import (
	"encoding/json"
	"fmt"

	"github.com/luckenco/rgi/llm/schema"
)

// Chunk is one streamed increment of a completion.
type Chunk struct {
	ID                string        `json:"id"`
	Choices           []ChunkChoice `json:"choices"`
	Created           int64         `json:"created"`
	Model             string        `json:"model"`
	SystemFingerprint string        `json:"system_fingerprint"`
	Object            Object        `json:"object"`

	// Usage is only set on the final chunk, and only when requested with
	// stream_options.include_usage.
	Usage *Usage `json:"usage,omitempty"`
}

func (c *Chunk) UnmarshalJSON(b []byte) error {
	if err := requireKeys(b, "chunk", "id", "choices", "created", "model", "object"); err != nil {
		return err
	}
	type alias Chunk
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = Chunk(a)
	return nil
}

type ChunkChoice struct {
	Index        int           `json:"index"`
	Delta        Delta         `json:"delta"`
	FinishReason *FinishReason `json:"finish_reason"`
}

func (c *ChunkChoice) UnmarshalJSON(b []byte) error {
	if err := requireKeys(b, "chunk choice", "index", "delta"); err != nil {
		return err
	}
	type alias ChunkChoice
	var a alias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	*c = ChunkChoice(a)
	return nil
}

type Delta struct {
	Content          *string      `json:"content,omitempty"`
	ReasoningContent *string      `json:"reasoning_content,omitempty"`
	Role             *schema.Role `json:"role,omitempty"`
}

// Text returns the content fragment of the first choice, if any.
func (c *Chunk) Text() string {
	if c == nil || len(c.Choices) == 0 || c.Choices[0].Delta.Content == nil {
		return ""
	}
	return *c.Choices[0].Delta.Content
}

// Reasoning returns the reasoning fragment of the first choice, if any.
func (c *Chunk) Reasoning() string {
	if c == nil || len(c.Choices) == 0 || c.Choices[0].Delta.ReasoningContent == nil {
		return ""
	}
	return *c.Choices[0].Delta.ReasoningContent
}

// DecodeChunk parses one SSE data payload.
func DecodeChunk(payload []byte) (*Chunk, error) {
	var c Chunk
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, &DecodeError{Raw: payload, Cause: err}
	}
	if c.Object != ObjectChatCompletionChunk {
		return nil, &DecodeError{Raw: payload, Cause: fmt.Errorf("unexpected object %q", c.Object)}
	}
	return &c, nil
}
