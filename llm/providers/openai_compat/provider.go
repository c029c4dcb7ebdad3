// Package openai_compat describes any chat API that speaks the OpenAI
// chat-completions wire format: OpenAI itself, OpenRouter, vLLM, Ollama and
// friends. Differences are patched through Hooks.
package openai_compat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/luckenco/rgi/llm"
)

const (
	DefaultBaseURL             = "https://api.openai.com"
	DefaultChatCompletionsPath = "/v1/chat/completions"
	DefaultModel               = "gpt-4o-mini"
)

type Provider struct {
	name    string
	baseURL string
	path    string
	model   string

	headers   http.Header
	streaming bool
	hooks     Hooks
}

var _ llm.Provider = (*Provider)(nil)

func New(opts ...Option) (*Provider, error) {
	p := &Provider{
		name:      "openai_compat",
		baseURL:   DefaultBaseURL,
		path:      DefaultChatCompletionsPath,
		model:     DefaultModel,
		headers:   make(http.Header),
		streaming: true,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(p); err != nil {
			return nil, err
		}
	}
	if p.name == "" {
		return nil, errors.New("openai_compat: empty provider name")
	}
	return p, nil
}

func WithProviderName(name string) Option {
	return func(p *Provider) error {
		p.name = strings.TrimSpace(name)
		return nil
	}
}

// WithBaseURL sets the scheme and host (and optional path prefix) that the
// chat-completions path is appended to.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) error {
		u, err := url.Parse(strings.TrimSpace(baseURL))
		if err != nil {
			return fmt.Errorf("openai_compat: base url: %w", err)
		}
		if u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("openai_compat: base url must be absolute: %q", baseURL)
		}
		p.baseURL = strings.TrimRight(u.String(), "/")
		return nil
	}
}

func WithChatCompletionsPath(path string) Option {
	return func(p *Provider) error {
		path = strings.TrimSpace(path)
		if path == "" {
			return errors.New("openai_compat: empty chat completions path")
		}
		if !strings.HasPrefix(path, "/") {
			path = "/" + path
		}
		p.path = path
		return nil
	}
}

func WithDefaultModel(model string) Option {
	return func(p *Provider) error {
		p.model = model
		return nil
	}
}

func WithDefaultHeader(key, value string) Option {
	return func(p *Provider) error {
		p.headers.Set(key, value)
		return nil
	}
}

// WithoutStreaming marks a server that rejects "stream": true.
func WithoutStreaming() Option {
	return func(p *Provider) error {
		p.streaming = false
		return nil
	}
}

func (p *Provider) Name() string         { return p.name }
func (p *Provider) Endpoint() string     { return p.baseURL + p.path }
func (p *Provider) DefaultModel() string { return p.model }

func (p *Provider) SupportsStreaming() bool { return p.streaming }

func (p *Provider) Headers(apiKey string) http.Header {
	h := llm.BearerHeaders(apiKey)
	for k, vv := range p.headers {
		h[k] = append([]string(nil), vv...)
	}
	if p.hooks.PatchHeaders != nil {
		p.hooks.PatchHeaders(h)
	}
	return h
}

func (p *Provider) EncodeRequest(req *llm.ChatRequest) ([]byte, error) {
	if p.hooks.BeforeEncode != nil {
		req = req.Clone()
		p.hooks.BeforeEncode(req)
	}
	b, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	if p.hooks.PatchRequest == nil {
		return b, nil
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	p.hooks.PatchRequest(m)
	return json.Marshal(m)
}

func (p *Provider) DecodeCompletion(raw []byte) (*llm.Completion, error) {
	return llm.DecodeCompletion(raw)
}
