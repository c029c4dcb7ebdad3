package httpx

import (
	"context"
	"errors"
	"io"
	"math/rand/v2"
	"net"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// StatusOverloaded is Anthropic's "overloaded" status.
const StatusOverloaded = 529

// RetryConfig decides which failed attempts are sent again, and when.
type RetryConfig struct {
	// MaxAttempts counts the first attempt too. 1 or less disables retries.
	MaxAttempts int

	// Backoff defaults to DefaultBackoff().
	Backoff Backoff

	// StatusCodes that are retried. Empty means RetryableStatusCodes.
	StatusCodes []int

	// RespectRetryAfter waits as long as a 429 or 503 asks, capped by
	// MaxRetryAfter when that is positive.
	RespectRetryAfter bool
	MaxRetryAfter     time.Duration

	// IdempotencyHeader marks a non-idempotent request as safe to resend
	// when it carries a non-empty value. Empty disables the rule.
	IdempotencyHeader string
}

// RetryableStatusCodes are the statuses retried by default.
var RetryableStatusCodes = []int{
	http.StatusRequestTimeout,
	http.StatusTooManyRequests,
	http.StatusInternalServerError,
	http.StatusBadGateway,
	http.StatusServiceUnavailable,
	http.StatusGatewayTimeout,
	StatusOverloaded,
}

func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts:       3,
		Backoff:           DefaultBackoff(),
		RespectRetryAfter: true,
		MaxRetryAfter:     30 * time.Second,
		IdempotencyHeader: "Idempotency-Key",
	}
}

// replayable reports whether req may be sent more than once.
func (c RetryConfig) replayable(req *http.Request) bool {
	if c.MaxAttempts <= 1 {
		return false
	}
	if req.Body != nil && req.Body != http.NoBody && req.GetBody == nil {
		return false
	}
	switch req.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	}
	return c.IdempotencyHeader != "" && strings.TrimSpace(req.Header.Get(c.IdempotencyHeader)) != ""
}

func (c RetryConfig) retryStatus(code int) bool {
	codes := c.StatusCodes
	if len(codes) == 0 {
		codes = RetryableStatusCodes
	}
	return slices.Contains(codes, code)
}

// delay is the wait after the attempt-th failure.
func (c RetryConfig) delay(attempt int, resp *http.Response) time.Duration {
	if c.RespectRetryAfter && resp != nil &&
		(resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable) {
		if d, ok := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
			if c.MaxRetryAfter > 0 && d > c.MaxRetryAfter {
				d = c.MaxRetryAfter
			}
			return d
		}
	}
	b := c.Backoff
	if b == nil {
		b = DefaultBackoff()
	}
	return b.Next(attempt)
}

type Backoff interface {
	// Next returns the wait after the attempt-th failure, attempt >= 1.
	Next(attempt int) time.Duration
}

// ExponentialBackoff waits Base, 2*Base, 4*Base... up to Max, each spread
// by +/- Jitter (a fraction in [0, 1]).
type ExponentialBackoff struct {
	Base   time.Duration
	Max    time.Duration
	Jitter float64
}

func DefaultBackoff() Backoff {
	return ExponentialBackoff{Base: 500 * time.Millisecond, Max: 8 * time.Second, Jitter: 0.2}
}

func (b ExponentialBackoff) Next(attempt int) time.Duration {
	base, ceil := b.Base, b.Max
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	if ceil < base {
		ceil = base
	}
	d := base
	for i := 1; i < attempt && d < ceil; i++ {
		d *= 2
	}
	d = min(d, ceil)

	j := min(max(b.Jitter, 0), 1)
	if j == 0 {
		return d
	}
	return time.Duration(float64(d) * (1 + (rand.Float64()*2-1)*j))
}

// retryableErr reports transport failures worth another attempt. Context
// errors are not: the deadline covers every attempt.
func retryableErr(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) ||
		errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

// parseRetryAfter reads delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(v); err == nil {
		return max(t.Sub(now), 0), true
	}
	return 0, false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
