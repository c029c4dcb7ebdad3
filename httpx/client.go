package httpx

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a retrying HTTP client. It is safe for concurrent use.
type Client struct {
	hc *http.Client

	timeout    time.Duration
	userAgent  string
	retry      RetryConfig
	maxErrBody int64
	requestID  RequestIDConfig

	limiter RateLimiter
	before  []BeforeHook
	after   []AfterHook
}

// New builds a Client from DefaultConfig() and opts.
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	if cfg.Timeout < 0 {
		return nil, errors.New("httpx: negative timeout")
	}
	rt := cfg.Transport
	if rt == nil {
		rt = DefaultTransport()
	}
	c := &Client{
		hc:         &http.Client{Transport: rt},
		timeout:    cfg.Timeout,
		userAgent:  cfg.UserAgent,
		retry:      cfg.Retry,
		maxErrBody: cfg.MaxErrorBodyBytes,
		requestID:  cfg.RequestID,
		limiter:    cfg.RateLimiter,
		before:     append([]BeforeHook(nil), cfg.Before...),
		after:      append([]AfterHook(nil), cfg.After...),
	}
	if c.maxErrBody <= 0 {
		c.maxErrBody = DefaultMaxErrorBodyBytes
	}
	if c.requestID.Header != "" && c.requestID.New == nil {
		c.requestID.New = NewRequestID
	}
	return c, nil
}

// DoBytes sends req and reads the whole 2xx body. Any other status is an
// *Error. The body is always closed.
func (c *Client) DoBytes(req *http.Request) ([]byte, *http.Response, error) {
	resp, err := c.do(req, false)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp, &Error{
			Method:     req.Method,
			URL:        req.URL.Redacted(),
			StatusCode: resp.StatusCode,
			RequestID:  c.requestIDOf(req, resp),
			Cause:      err,
		}
	}
	return b, resp, nil
}

// DoStream sends req and returns the open 2xx body for the caller to read,
// e.g. as server-sent events. Config.Timeout does not apply; only the
// request context and WithRequestTimeout bound the exchange, including the
// time spent reading. Retries stop once a 2xx response is returned.
func (c *Client) DoStream(req *http.Request) (*http.Response, error) {
	return c.do(req, true)
}

func (c *Client) do(req *http.Request, stream bool) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("httpx: nil request")
	}
	ctx := req.Context()
	timeout := requestTimeout(ctx)
	if !stream && c.timeout > 0 && (timeout <= 0 || c.timeout < timeout) {
		timeout = c.timeout
	}
	cancel := context.CancelFunc(func() {})
	if timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, timeout)
	}

	resp, err := c.send(ctx, req.Clone(ctx))
	if err != nil {
		cancel()
		return nil, err
	}
	// The deadline must outlive this call: the caller still reads the body.
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

func (c *Client) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	attempts := max(c.retry.MaxAttempts, 1)
	replayable := c.retry.replayable(req)

	for attempt := 1; ; attempt++ {
		if attempt > 1 && req.GetBody != nil {
			b, err := req.GetBody()
			if err != nil {
				return nil, c.failure(req, err, attempt-1, false)
			}
			req.Body = b
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, c.failure(req, err, attempt-1, false)
			}
		}
		for _, h := range c.before {
			if err := h(req, attempt); err != nil {
				return nil, err
			}
		}

		start := time.Now()
		resp, err := c.hc.Do(req)
		if err != nil {
			// A response returned with an error is already closed.
			resp = nil
		}
		for _, h := range c.after {
			h(req, resp, err, time.Since(start), attempt)
		}
		if err == nil && resp.StatusCode < 400 {
			return resp, nil
		}

		var retryable bool
		if err != nil {
			retryable = replayable && retryableErr(err)
		} else {
			retryable = replayable && c.retry.retryStatus(resp.StatusCode)
		}
		if !retryable || attempt >= attempts {
			if err != nil {
				return nil, c.failure(req, err, attempt, retryable)
			}
			return nil, c.statusError(req, resp, attempt, retryable)
		}

		wait := c.retry.delay(attempt, resp)
		if resp != nil {
			// Drain so the connection can be reused.
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))
			_ = resp.Body.Close()
		}
		if err := sleep(ctx, wait); err != nil {
			return nil, c.failure(req, err, attempt, false)
		}
	}
}

func (c *Client) failure(req *http.Request, cause error, attempts int, retryable bool) *Error {
	return &Error{
		Method:    req.Method,
		URL:       req.URL.Redacted(),
		RequestID: c.requestIDOf(req, nil),
		Cause:     cause,
		Retryable: retryable,
		Attempts:  attempts,
	}
}

// statusError consumes and closes resp.
func (c *Client) statusError(req *http.Request, resp *http.Response, attempts int, retryable bool) *Error {
	defer resp.Body.Close()
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, c.maxErrBody))
	ra, _ := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
	return &Error{
		Method:     req.Method,
		URL:        req.URL.Redacted(),
		StatusCode: resp.StatusCode,
		RequestID:  c.requestIDOf(req, resp),
		RetryAfter: ra,
		RawBody:    raw,
		Retryable:  retryable,
		Attempts:   attempts,
	}
}

// requestIDOf prefers the id echoed by the server.
func (c *Client) requestIDOf(req *http.Request, resp *http.Response) string {
	h := c.requestID.Header
	if h == "" {
		return ""
	}
	if resp != nil {
		if id := strings.TrimSpace(resp.Header.Get(h)); id != "" {
			return id
		}
	}
	return strings.TrimSpace(req.Header.Get(h))
}

// cancelOnClose releases the per-call deadline once the body is done with.
type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}
