package llm

import (
	"errors"
	"io"
	"log/slog"

	"github.com/luckenco/rgi/llm/internal/sse"
)

// Stream yields chunks until io.EOF.
type Stream interface {
	Recv() (*Chunk, error)
	Close() error
}

const readBufferSize = 4 << 10

// ChunkStream decodes an SSE response body into chunks. It is a pull loop:
// the body is only read while Recv is waiting for a complete event.
//
// The first error is sticky. A payload that fails to decode ends the stream
// with a *ProtocolError; chunks returned before it stay valid. The stream
// ends with io.EOF on "[DONE]" and also when the body ends without it.
//
// Not safe for concurrent use.
type ChunkStream struct {
	provider string
	body     io.ReadCloser
	logger   *slog.Logger

	framer sse.Framer
	buf    []byte
	eof    bool

	err    error
	closed bool

	summary  Summary
	onFinish func(Summary, error)
}

func newChunkStream(provider string, body io.ReadCloser, logger *slog.Logger) *ChunkStream {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChunkStream{
		provider: provider,
		body:     body,
		logger:   logger,
		buf:      make([]byte, readBufferSize),
	}
}

func (s *ChunkStream) Recv() (*Chunk, error) {
	if s.closed {
		return nil, ErrStreamClosed
	}
	if s.err != nil {
		return nil, s.err
	}
	for {
		payload, state := s.framer.Next()
		switch state {
		case sse.Data:
			chunk, err := DecodeChunk([]byte(payload))
			if err != nil {
				var de *DecodeError
				if errors.As(err, &de) {
					de.Provider = s.provider
				}
				s.logger.Warn("malformed stream chunk", "err", err, "chunks", s.summary.Chunks)
				return nil, s.finish(&ProtocolError{Provider: s.provider, Payload: payload, Cause: err})
			}
			s.summary.Apply(chunk)
			return chunk, nil
		case sse.Done:
			s.logger.Debug("stream done", "chunks", s.summary.Chunks)
			return nil, s.finish(io.EOF)
		}

		if s.eof {
			s.logger.Debug("stream ended without [DONE]", "chunks", s.summary.Chunks, "dropped_bytes", s.framer.Buffered())
			return nil, s.finish(io.EOF)
		}
		n, err := s.body.Read(s.buf)
		if n > 0 {
			_, _ = s.framer.Write(s.buf[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.eof = true
				continue
			}
			return nil, s.finish(mapTransportError(s.provider, err))
		}
	}
}

// Summary returns what has been accumulated so far.
func (s *ChunkStream) Summary() Summary { return s.summary }

// Close releases the connection. Closing before the end abandons the rest
// of the stream.
func (s *ChunkStream) Close() error {
	if s.closed {
		return nil
	}
	if s.err == nil {
		s.finish(ErrStreamClosed)
	}
	s.closed = true
	return nil
}

// finish records the terminal state, releases the body and reports the
// outcome once.
func (s *ChunkStream) finish(err error) error {
	s.err = err
	if s.body != nil {
		_ = s.body.Close()
		s.body = nil
	}
	if s.onFinish != nil {
		fn := s.onFinish
		s.onFinish = nil
		var reported error
		if !errors.Is(err, io.EOF) {
			reported = err
		}
		fn(s.summary, reported)
	}
	return err
}

// Summary is a streamed completion folded back together.
type Summary struct {
	ID    string
	Model string

	Content   string
	Reasoning string

	// FinishReason is empty if the stream never reported one.
	FinishReason FinishReason
	Usage        *Usage

	Chunks int
}

// Apply folds one chunk into s. Only the first choice is kept.
func (s *Summary) Apply(c *Chunk) {
	if c == nil {
		return
	}
	s.Chunks++
	if s.ID == "" {
		s.ID = c.ID
	}
	if s.Model == "" {
		s.Model = c.Model
	}
	if c.Usage != nil {
		u := *c.Usage
		s.Usage = &u
	}
	for _, ch := range c.Choices {
		if ch.Index != 0 {
			continue
		}
		if ch.Delta.Content != nil {
			s.Content += *ch.Delta.Content
		}
		if ch.Delta.ReasoningContent != nil {
			s.Reasoning += *ch.Delta.ReasoningContent
		}
		if ch.FinishReason != nil {
			s.FinishReason = *ch.FinishReason
		}
	}
}

// Accumulate drains stream and closes it.
func Accumulate(stream Stream) (Summary, error) {
	defer stream.Close()

	var sum Summary
	for {
		c, err := stream.Recv()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return sum, nil
			}
			return sum, err
		}
		sum.Apply(c)
	}
}
