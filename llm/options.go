package llm

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/luckenco/rgi/httpx"
	"github.com/luckenco/rgi/version"
)

// Option configures a Client.
type Option func(*options) error

type options struct {
	endpoint      string
	transport     http.RoundTripper
	timeout       time.Duration
	streamTimeout time.Duration
	retry         httpx.RetryConfig
	rateLimiter   httpx.RateLimiter
	logger        *slog.Logger
	userAgent     string
	recorder      Recorder
	headers       http.Header
}

const (
	DefaultTimeout = 60 * time.Second
	// DefaultStreamTimeout is zero: reasoning models can stream for a long time.
	DefaultStreamTimeout time.Duration = 0
)

func defaultOptions() options {
	return options{
		timeout:       DefaultTimeout,
		streamTimeout: DefaultStreamTimeout,
		retry:         httpx.DefaultRetryConfig(),
		userAgent:     version.UserAgent(),
		headers:       make(http.Header),
	}
}

// WithEndpoint overrides the provider's chat-completion URL.
func WithEndpoint(url string) Option {
	return func(o *options) error {
		url = strings.TrimSpace(url)
		if url == "" {
			return errors.New("llm: empty endpoint")
		}
		o.endpoint = url
		return nil
	}
}

// WithHTTPTransport replaces the underlying RoundTripper.
func WithHTTPTransport(rt http.RoundTripper) Option {
	return func(o *options) error {
		o.transport = rt
		return nil
	}
}

// WithTimeout bounds a non-streamed call, retries included.
func WithTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("llm: negative timeout")
		}
		o.timeout = d
		return nil
	}
}

// WithStreamTimeout bounds a whole stream, including reading it. Zero means
// only the caller's context applies.
func WithStreamTimeout(d time.Duration) Option {
	return func(o *options) error {
		if d < 0 {
			return errors.New("llm: negative stream timeout")
		}
		o.streamTimeout = d
		return nil
	}
}

func WithMaxAttempts(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.New("llm: max attempts must be at least 1")
		}
		o.retry.MaxAttempts = n
		return nil
	}
}

func WithRetry(cfg httpx.RetryConfig) Option {
	return func(o *options) error {
		o.retry = cfg
		return nil
	}
}

// WithRateLimit throttles every HTTP attempt to rps per second.
func WithRateLimit(rps float64, burst int) Option {
	return func(o *options) error {
		o.rateLimiter = httpx.NewRateLimiter(rps, burst)
		return nil
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *options) error {
		o.logger = l
		return nil
	}
}

func WithUserAgent(ua string) Option {
	return func(o *options) error {
		o.userAgent = ua
		return nil
	}
}

func WithRecorder(r Recorder) Option {
	return func(o *options) error {
		o.recorder = r
		return nil
	}
}

// WithHeader adds a header to every request. Provider headers win on conflict.
func WithHeader(key, value string) Option {
	return func(o *options) error {
		if strings.TrimSpace(key) == "" {
			return errors.New("llm: empty header name")
		}
		o.headers.Set(key, value)
		return nil
	}
}
