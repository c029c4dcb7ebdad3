package httpx

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

type RequestOption func(*requestConfig)

type requestConfig struct {
	header  http.Header
	body    []byte
	timeout time.Duration
}

// WithHeader sets one header, replacing earlier values.
func WithHeader(key, value string) RequestOption {
	return func(c *requestConfig) { c.header.Set(key, value) }
}

// WithHeaders copies h, replacing earlier values of the same keys.
func WithHeaders(h http.Header) RequestOption {
	return func(c *requestConfig) {
		for k, vv := range h {
			c.header[http.CanonicalHeaderKey(k)] = append([]string(nil), vv...)
		}
	}
}

// WithBodyBytes sets a body that can be replayed on retry.
func WithBodyBytes(b []byte) RequestOption {
	return func(c *requestConfig) { c.body = append([]byte(nil), b...) }
}

// WithRequestTimeout bounds this request. For DoStream it is the only
// bound besides the context; for buffered calls the earlier of it and
// Config.Timeout wins.
func WithRequestTimeout(d time.Duration) RequestOption {
	return func(c *requestConfig) { c.timeout = d }
}

type requestTimeoutKey struct{}

func requestTimeout(ctx context.Context) time.Duration {
	d, _ := ctx.Value(requestTimeoutKey{}).(time.Duration)
	return d
}

// NewRequest builds a request for an absolute URL with the client's
// User-Agent and a fresh request id.
func (c *Client) NewRequest(ctx context.Context, method, rawURL string, opts ...RequestOption) (*http.Request, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if !u.IsAbs() || u.Host == "" {
		return nil, fmt.Errorf("httpx: url %q is not absolute", rawURL)
	}

	rc := requestConfig{header: make(http.Header)}
	for _, o := range opts {
		if o != nil {
			o(&rc)
		}
	}
	if rc.timeout > 0 {
		ctx = context.WithValue(ctx, requestTimeoutKey{}, rc.timeout)
	}

	var body io.Reader
	if rc.body != nil {
		body = bytes.NewReader(rc.body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, err
	}
	if rc.body != nil {
		b := rc.body
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(b)), nil
		}
	}

	req.Header = rc.header
	if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	if h := c.requestID.Header; h != "" && req.Header.Get(h) == "" {
		if id := c.requestID.New(); id != "" {
			req.Header.Set(h, id)
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return req, nil
}
