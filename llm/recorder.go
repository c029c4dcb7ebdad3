package llm

import (
	"context"
	"time"
)

// Exchange is one finished call as seen by a Recorder.
type Exchange struct {
	// ID is the Idempotency-Key sent with the request.
	ID       string
	Provider string
	Model    string
	Stream   bool

	// Request is the encoded request body.
	Request []byte
	// Response is the raw response body. It is nil for streams.
	Response []byte

	Content      string
	Reasoning    string
	FinishReason FinishReason
	Usage        *Usage

	// Err is the error the caller received, if any.
	Err error

	Started  time.Time
	Duration time.Duration
}

// Recorder receives every exchange after it finishes. Failures are logged
// and never reach the caller.
type Recorder interface {
	Record(ctx context.Context, ex Exchange) error
}

// RecorderFunc adapts a function to a Recorder.
type RecorderFunc func(ctx context.Context, ex Exchange) error

func (f RecorderFunc) Record(ctx context.Context, ex Exchange) error { return f(ctx, ex) }
