package openai_compat

import (
	"net/http"

	"github.com/luckenco/rgi/llm"
)

type Option func(*Provider) error

type Hooks struct {
	PatchHeaders func(h http.Header)

	// BeforeEncode may change a private copy of the request.
	BeforeEncode func(req *llm.ChatRequest)

	// PatchRequest edits the final JSON object. This is the escape hatch for
	// provider-only fields.
	PatchRequest func(m map[string]any)
}

// WithHooks chains h after any hooks already installed.
func WithHooks(h Hooks) Option {
	return func(p *Provider) error {
		prev := p.hooks
		p.hooks.PatchHeaders = chain(prev.PatchHeaders, h.PatchHeaders)
		p.hooks.BeforeEncode = chain(prev.BeforeEncode, h.BeforeEncode)
		p.hooks.PatchRequest = chain(prev.PatchRequest, h.PatchRequest)
		return nil
	}
}

// WithExtraField sets a top-level request field on every request.
func WithExtraField(key string, value any) Option {
	return WithHooks(Hooks{
		PatchRequest: func(m map[string]any) { m[key] = value },
	})
}

func chain[T any](a, b func(T)) func(T) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(v T) {
		a(v)
		b(v)
	}
}
