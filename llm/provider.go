package llm

import (
	"encoding/json"
	"net/http"
)

// Provider is the capability set that differs between chat-completion APIs.
// Everything else (transport, retries, stream decoding, error mapping) is
// shared by Client.
type Provider interface {
	Name() string

	// Endpoint is the absolute chat-completion URL.
	Endpoint() string

	// Headers returns the authentication and version headers for apiKey.
	Headers(apiKey string) http.Header

	// DefaultModel is used when a request leaves Model empty.
	DefaultModel() string

	EncodeRequest(req *ChatRequest) ([]byte, error)
	DecodeCompletion(raw []byte) (*Completion, error)

	// SupportsStreaming reports whether the provider speaks the
	// OpenAI-style SSE chunk protocol.
	SupportsStreaming() bool
}

// OpenAIWire implements the wire half of Provider for OpenAI-style APIs.
// Embed it and supply the rest.
type OpenAIWire struct{}

func (OpenAIWire) EncodeRequest(req *ChatRequest) ([]byte, error) {
	return json.Marshal(req)
}

func (OpenAIWire) DecodeCompletion(raw []byte) (*Completion, error) {
	return DecodeCompletion(raw)
}

func (OpenAIWire) SupportsStreaming() bool { return true }

// BearerHeaders is the usual "Authorization: Bearer <key>" header set.
func BearerHeaders(apiKey string) http.Header {
	h := make(http.Header)
	if apiKey != "" {
		h.Set("Authorization", "Bearer "+apiKey)
	}
	return h
}
