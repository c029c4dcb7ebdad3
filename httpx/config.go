package httpx

import (
	"net/http"
	"time"
)

// Config configures a Client. Start from DefaultConfig.
type Config struct {
	// Timeout bounds a buffered call, retries and backoff included.
	// The earlier of it and the request context's deadline wins. Zero disables it.
	Timeout time.Duration

	// Transport defaults to DefaultTransport().
	Transport http.RoundTripper

	// UserAgent is set on requests that have none.
	UserAgent string

	Retry RetryConfig

	// MaxErrorBodyBytes caps Error.RawBody. Zero means DefaultMaxErrorBodyBytes.
	MaxErrorBodyBytes int64

	RequestID RequestIDConfig

	// RateLimiter is waited on before every attempt. Nil disables it.
	RateLimiter RateLimiter

	// Before and After run around every attempt.
	Before []BeforeHook
	After  []AfterHook
}

const DefaultMaxErrorBodyBytes int64 = 64 << 10

// DefaultConfig returns a baseline with a 60s timeout for buffered calls.
func DefaultConfig() Config {
	return Config{
		Timeout:           60 * time.Second,
		Transport:         DefaultTransport(),
		Retry:             DefaultRetryConfig(),
		MaxErrorBodyBytes: DefaultMaxErrorBodyBytes,
		RequestID:         DefaultRequestIDConfig(),
	}
}

type Option func(*Config)

func WithTimeout(d time.Duration) Option {
	return func(c *Config) { c.Timeout = d }
}

func WithTransport(rt http.RoundTripper) Option {
	return func(c *Config) { c.Transport = rt }
}

func WithUserAgent(ua string) Option {
	return func(c *Config) { c.UserAgent = ua }
}

func WithRetry(cfg RetryConfig) Option {
	return func(c *Config) { c.Retry = cfg }
}

func WithMaxErrorBodyBytes(n int64) Option {
	return func(c *Config) { c.MaxErrorBodyBytes = n }
}

func WithRateLimit(rl RateLimiter) Option {
	return func(c *Config) { c.RateLimiter = rl }
}

func WithBeforeHook(h BeforeHook) Option {
	return func(c *Config) { c.Before = append(c.Before, h) }
}

func WithAfterHook(h AfterHook) Option {
	return func(c *Config) { c.After = append(c.After, h) }
}
