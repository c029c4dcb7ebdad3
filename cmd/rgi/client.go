package main

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/luckenco/rgi/llm"
	"github.com/luckenco/rgi/llm/providers/anthropic"
	"github.com/luckenco/rgi/llm/providers/deepseek"
	"github.com/luckenco/rgi/llm/providers/openai_compat"
	"github.com/luckenco/rgi/settings"
	"github.com/luckenco/rgi/transcript"
)

// newProvider maps settings to a provider. BaseURL overrides the provider's
// own host.
func newProvider(s settings.Settings) (llm.Provider, error) {
	var (
		p   llm.Provider
		err error
	)
	switch {
	case s.Provider == settings.ProviderDeepSeek:
		var opts []deepseek.Option
		if s.BaseURL != "" {
			opts = append(opts, deepseek.WithBaseURL(s.BaseURL))
		}
		p, err = unwrap(deepseek.New(opts...))
	case s.Provider == settings.ProviderAnthropic:
		var opts []anthropic.Option
		if s.BaseURL != "" {
			opts = append(opts, anthropic.WithEndpoint(strings.TrimRight(s.BaseURL, "/")+"/v1/messages"))
		}
		p, err = unwrap(anthropic.New(opts...))
	case s.Provider == settings.ProviderCompat:
		p, err = unwrap(openai_compat.New(openai_compat.WithBaseURL(s.BaseURL)))
	case slices.Contains(openai_compat.PresetNames(), s.Provider):
		var opts []openai_compat.Option
		if s.BaseURL != "" {
			opts = append(opts, openai_compat.WithBaseURL(s.BaseURL))
		}
		p, err = unwrap(openai_compat.NewPreset(s.Provider, opts...))
	default:
		return nil, fmt.Errorf("unknown provider %q", s.Provider)
	}
	return p, err
}

// unwrap keeps a failed constructor's nil pointer out of the interface.
func unwrap[P llm.Provider](p P, err error) (llm.Provider, error) {
	if err != nil {
		return nil, err
	}
	return p, nil
}

// newClient builds a client for s. The returned close func releases the
// transcript store and is never nil.
func newClient(s settings.Settings, logger *slog.Logger) (*llm.Client, func() error, error) {
	noop := func() error { return nil }

	p, err := newProvider(s)
	if err != nil {
		return nil, noop, err
	}
	opts := []llm.Option{
		llm.WithTimeout(s.Timeout),
		llm.WithStreamTimeout(s.StreamTimeout),
		llm.WithMaxAttempts(s.Retry.MaxAttempts),
		llm.WithLogger(logger),
	}
	if s.RateLimit.RPS > 0 {
		opts = append(opts, llm.WithRateLimit(s.RateLimit.RPS, s.RateLimit.Burst))
	}

	closeFn := noop
	if s.Transcript.Path != "" {
		store, err := transcript.Open(s.Transcript.Path)
		if err != nil {
			return nil, noop, err
		}
		opts = append(opts, llm.WithRecorder(store))
		closeFn = store.Close
	}

	c, err := llm.NewClient(p, s.APIKey, opts...)
	if err != nil {
		_ = closeFn()
		return nil, noop, err
	}
	return c, closeFn, nil
}

// model is the model a request will use: the configured one or the
// provider default.
func model(s settings.Settings, c *llm.Client) string {
	if s.Model != "" {
		return s.Model
	}
	return c.Provider().DefaultModel()
}
