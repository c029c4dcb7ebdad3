package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/luckenco/rgi/httpx"
)

const headerIdempotencyKey = "Idempotency-Key"

// Client sends chat requests to one provider. It is safe for concurrent use.
type Client struct {
	provider Provider
	apiKey   string

	http          *httpx.Client
	endpoint      string
	streamTimeout time.Duration
	headers       http.Header

	logger   *slog.Logger
	recorder Recorder
}

// NewClient builds a Client for provider. apiKey may be empty for local
// servers that do not authenticate.
func NewClient(provider Provider, apiKey string, opts ...Option) (*Client, error) {
	if provider == nil {
		return nil, errors.New("llm: nil provider")
	}
	o := defaultOptions()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&o); err != nil {
			return nil, err
		}
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	logger := o.logger.With("provider", provider.Name())

	retry := o.retry
	if retry.IdempotencyHeader == "" {
		retry.IdempotencyHeader = headerIdempotencyKey
	}
	cfg := httpx.DefaultConfig()
	cfg.Timeout = o.timeout
	cfg.UserAgent = o.userAgent
	cfg.Retry = retry
	cfg.RateLimiter = o.rateLimiter
	cfg.After = append(cfg.After, httpx.LogAttempts(logger, cfg.RequestID.Header))
	if o.transport != nil {
		cfg.Transport = o.transport
	}
	hc, err := httpx.NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}

	endpoint := o.endpoint
	if endpoint == "" {
		endpoint = provider.Endpoint()
	}
	return &Client{
		provider:      provider,
		apiKey:        apiKey,
		http:          hc,
		endpoint:      endpoint,
		streamTimeout: o.streamTimeout,
		headers:       o.headers,
		logger:        logger,
		recorder:      o.recorder,
	}, nil
}

func (c *Client) Provider() Provider { return c.provider }

// Chat sends req as a single, non-streamed call. req.Stream is ignored.
func (c *Client) Chat(ctx context.Context, req *ChatRequest) (*Completion, error) {
	r, body, err := c.prepare(req, false)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	started := time.Now()
	ex := Exchange{ID: id, Provider: c.provider.Name(), Model: r.Model, Request: body, Started: started}

	httpReq, err := c.newRequest(ctx, id, body, false)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "chat request", "model", r.Model, "messages", len(r.Messages), "idempotency_key", id)

	raw, _, err := c.http.DoBytes(httpReq)
	if err != nil {
		err = mapTransportError(c.provider.Name(), err)
		c.record(ctx, ex, time.Since(started), err)
		return nil, err
	}
	ex.Response = raw

	comp, err := c.provider.DecodeCompletion(raw)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Provider = c.provider.Name()
		} else {
			err = &DecodeError{Provider: c.provider.Name(), Raw: raw, Cause: err}
		}
		c.logger.WarnContext(ctx, "decode completion failed", "model", r.Model, "err", err)
		c.record(ctx, ex, time.Since(started), err)
		return nil, err
	}

	if len(comp.Choices) > 0 {
		ex.Content = comp.Choices[0].Message.Text()
		ex.Reasoning = comp.Choices[0].Message.ReasoningContent
		ex.FinishReason = comp.Choices[0].FinishReason
	}
	usage := comp.Usage
	ex.Usage = &usage
	if comp.Model != "" {
		ex.Model = comp.Model
	}
	c.record(ctx, ex, time.Since(started), nil)
	return comp, nil
}

// ChatStream opens a streamed call. The returned stream must be closed.
// Retries only happen before the first response byte reaches the caller.
func (c *Client) ChatStream(ctx context.Context, req *ChatRequest) (*ChunkStream, error) {
	if !c.provider.SupportsStreaming() {
		return nil, fmt.Errorf("%w: %s", ErrStreamingUnsupported, c.provider.Name())
	}
	r, body, err := c.prepare(req, true)
	if err != nil {
		return nil, err
	}
	id := uuid.NewString()
	started := time.Now()
	ex := Exchange{ID: id, Provider: c.provider.Name(), Model: r.Model, Stream: true, Request: body, Started: started}

	httpReq, err := c.newRequest(ctx, id, body, true)
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "chat stream request", "model", r.Model, "messages", len(r.Messages), "idempotency_key", id)

	resp, err := c.http.DoStream(httpReq)
	if err != nil {
		err = mapTransportError(c.provider.Name(), err)
		c.record(ctx, ex, time.Since(started), err)
		return nil, err
	}

	s := newChunkStream(c.provider.Name(), resp.Body, c.logger)
	s.onFinish = func(sum Summary, err error) {
		ex.Content = sum.Content
		ex.Reasoning = sum.Reasoning
		ex.FinishReason = sum.FinishReason
		ex.Usage = sum.Usage
		if sum.Model != "" {
			ex.Model = sum.Model
		}
		c.record(ctx, ex, time.Since(started), err)
	}
	return s, nil
}

func (c *Client) prepare(req *ChatRequest, stream bool) (*ChatRequest, []byte, error) {
	if req == nil || len(req.Messages) == 0 {
		return nil, nil, ErrEmptyMessages
	}
	r := req.Clone()
	r.Stream = stream
	if !stream {
		r.StreamOptions = nil
	}
	if r.Model == "" {
		r.Model = c.provider.DefaultModel()
	}
	body, err := c.provider.EncodeRequest(r)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	return r, body, nil
}

func (c *Client) newRequest(ctx context.Context, id string, body []byte, stream bool) (*http.Request, error) {
	h := c.headers.Clone()
	for k, vv := range c.provider.Headers(c.apiKey) {
		h[k] = append([]string(nil), vv...)
	}
	h.Set("Content-Type", "application/json")
	h.Set(headerIdempotencyKey, id)

	opts := []httpx.RequestOption{httpx.WithHeaders(h), httpx.WithBodyBytes(body)}
	if stream {
		opts = append(opts, httpx.WithHeader("Accept", "text/event-stream"))
		if c.streamTimeout > 0 {
			opts = append(opts, httpx.WithRequestTimeout(c.streamTimeout))
		}
	} else {
		opts = append(opts, httpx.WithHeader("Accept", "application/json"))
	}
	return c.http.NewRequest(ctx, http.MethodPost, c.endpoint, opts...)
}

func (c *Client) record(ctx context.Context, ex Exchange, dur time.Duration, err error) {
	if c.recorder == nil {
		return
	}
	ex.Duration = dur
	ex.Err = err
	// The caller's context may already be done (a canceled stream).
	if rerr := c.recorder.Record(context.WithoutCancel(ctx), ex); rerr != nil {
		c.logger.WarnContext(ctx, "record exchange failed", "id", ex.ID, "err", rerr)
	}
}
