package httpx

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// RateLimiter blocks until an attempt may be sent or ctx is done.
// *rate.Limiter satisfies it.
type RateLimiter interface {
	Wait(ctx context.Context) error
}

// BeforeHook runs before every attempt; an error aborts the call.
type BeforeHook func(req *http.Request, attempt int) error

// AfterHook sees every attempt's outcome. resp is nil when err is not.
type AfterHook func(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int)

// RoundTripperFunc adapts a function to an http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// LogAttempts returns an AfterHook that logs each attempt. Successful first
// attempts go to Debug; failures and retries go to Warn.
func LogAttempts(logger *slog.Logger, requestIDHeader string) AfterHook {
	if logger == nil {
		logger = slog.Default()
	}
	return func(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int) {
		attrs := []any{
			"method", req.Method,
			"url", req.URL.Redacted(),
			"attempt", attempt,
			"duration", dur,
		}
		if requestIDHeader != "" {
			if id := req.Header.Get(requestIDHeader); id != "" {
				attrs = append(attrs, "request_id", id)
			}
		}
		status := 0
		if resp != nil {
			status = resp.StatusCode
		}
		switch {
		case err != nil:
			logger.Warn("http attempt failed", append(attrs, "err", err)...)
		case status >= 400:
			logger.Warn("http attempt failed", append(attrs, "status", status)...)
		case attempt > 1:
			logger.Info("http attempt succeeded after retry", append(attrs, "status", status)...)
		default:
			logger.Debug("http attempt", append(attrs, "status", status)...)
		}
	}
}
