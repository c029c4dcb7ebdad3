// Package sse frames a server-sent event byte stream into data payloads.
//
// The framer is push-based: bytes are written as they arrive and Next is
// polled until it asks for more. Events end at a blank line ("\n\n"). Every
// "data:" line of an event is its own payload; lines are never joined.
// A "[DONE]" payload terminates the stream and discards whatever follows.
package sse

import (
	"bytes"
	"strings"
)

// DoneSentinel is the payload that ends an OpenAI-style stream.
const DoneSentinel = "[DONE]"

type State int

const (
	// NeedMore means no complete event is buffered.
	NeedMore State = iota
	// Data means a payload was returned.
	Data
	// Done means the sentinel was seen. It is sticky.
	Done
)

func (s State) String() string {
	switch s {
	case NeedMore:
		return "need_more"
	case Data:
		return "data"
	case Done:
		return "done"
	}
	return "unknown"
}

var delimiter = []byte("\n\n")

// Framer is not safe for concurrent use.
type Framer struct {
	buf     []byte
	pending []string
	done    bool
}

// Write buffers p. It never fails; bytes written after termination are dropped.
func (f *Framer) Write(p []byte) (int, error) {
	if !f.done {
		f.buf = append(f.buf, p...)
	}
	return len(p), nil
}

// Buffered reports the number of bytes held that do not yet form a complete event.
func (f *Framer) Buffered() int { return len(f.buf) }

// Next returns the next payload, trimmed of surrounding whitespace.
func (f *Framer) Next() (string, State) {
	for {
		if len(f.pending) > 0 {
			p := f.pending[0]
			f.pending = f.pending[1:]
			return p, Data
		}
		if f.done {
			return "", Done
		}
		i := bytes.Index(f.buf, delimiter)
		if i < 0 {
			return "", NeedMore
		}
		// Splitting on ASCII bytes first keeps multi-byte characters that
		// straddle two writes intact; invalid sequences are replaced here.
		event := strings.ToValidUTF8(string(f.buf[:i]), "\uFFFD")
		f.buf = f.buf[i+len(delimiter):]
		f.parseEvent(event)
	}
}

func (f *Framer) parseEvent(event string) {
	for _, line := range strings.Split(event, "\n") {
		line = strings.TrimSuffix(line, "\r")
		payload, ok := strings.CutPrefix(line, "data:")
		if !ok {
			// comments, event:, id:, retry:
			continue
		}
		payload = strings.TrimSpace(payload)
		if payload == DoneSentinel {
			f.done = true
			f.buf = nil
			return
		}
		f.pending = append(f.pending, payload)
	}
}
