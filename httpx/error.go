package httpx

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"
)

// Error is a failed exchange: either a transport failure (StatusCode 0,
// Cause set) or a non-2xx response.
type Error struct {
	Method string
	// URL has any userinfo password redacted.
	URL string

	StatusCode int
	RequestID  string
	RetryAfter time.Duration

	// RawBody is the head of a non-2xx body, at most MaxErrorBodyBytes.
	RawBody []byte

	Cause error

	// Retryable is whether the retry policy would have tried again given
	// more attempts.
	Retryable bool
	Attempts  int
}

func (e *Error) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s: ", e.Method, e.URL)
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, "http %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	} else {
		b.WriteString("request failed")
	}
	if e.RequestID != "" {
		b.WriteString(" request_id=" + e.RequestID)
	}
	if e.Attempts > 1 {
		fmt.Fprintf(&b, " attempts=%d", e.Attempts)
	}
	if e.Cause != nil {
		b.WriteString(": " + e.Cause.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Cause }

func AsError(err error) (*Error, bool) {
	var he *Error
	if errors.As(err, &he) {
		return he, true
	}
	return nil, false
}

func IsRetryable(err error) bool {
	he, ok := AsError(err)
	return ok && he.Retryable
}

// IsTimeout reports whether err was caused by a deadline, either the context's
// or a network-level timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}
