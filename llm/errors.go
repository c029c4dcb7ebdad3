package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/luckenco/rgi/httpx"
	"github.com/luckenco/rgi/llm/params"
	"github.com/luckenco/rgi/llm/schema"
)

var (
	// ErrEmptyMessages is returned when a request is assembled or sent without messages.
	ErrEmptyMessages = errors.New("llm: at least one message is required")

	// ErrSamplingConflict is returned in strict mode when both temperature and top_p are set.
	ErrSamplingConflict = errors.New("llm: set temperature or top_p, not both")

	// ErrInvalidRequest wraps failures to serialize an assembled request.
	ErrInvalidRequest = errors.New("llm: invalid request")

	ErrStreamClosed = errors.New("llm: stream closed")

	ErrStreamingUnsupported = errors.New("llm: provider does not support streaming")
)

type ErrorKind string

const (
	ErrKindAuth       ErrorKind = "auth"
	ErrKindRateLimit  ErrorKind = "rate_limit"
	ErrKindBadRequest ErrorKind = "bad_request"
	ErrKindNotFound   ErrorKind = "not_found"
	ErrKindServer     ErrorKind = "server"
	ErrKindTimeout    ErrorKind = "timeout"
	ErrKindCanceled   ErrorKind = "canceled"
	ErrKindUnknown    ErrorKind = "unknown"
)

// LLMError is a transport failure: the request did not produce a usable
// response body. HTTP errors carry the provider's own message and code when
// the body had the usual {"error":{...}} envelope.
type LLMError struct {
	Provider string
	Kind     ErrorKind

	HTTPStatus   int
	ProviderCode string
	Message      string

	Retryable bool

	// Raw is the (size-limited) response body, if any.
	Raw []byte

	Cause error
}

func (e *LLMError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.HTTPStatus != 0 {
		msg = fmt.Sprintf("%s (http %d)", msg, e.HTTPStatus)
	}
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: %s", e.Provider, msg)
	}
	return fmt.Sprintf("llm: %s", msg)
}

func (e *LLMError) Unwrap() error { return e.Cause }

func AsLLMError(err error) (*LLMError, bool) {
	var e *LLMError
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func IsRateLimit(err error) bool {
	e, ok := AsLLMError(err)
	return ok && e.Kind == ErrKindRateLimit
}

func IsAuth(err error) bool {
	e, ok := AsLLMError(err)
	return ok && e.Kind == ErrKindAuth
}

// IsRetryable reports whether err is a transport failure worth retrying.
// Decode and protocol errors never are.
func IsRetryable(err error) bool {
	e, ok := AsLLMError(err)
	return ok && e.Retryable
}

// DecodeError is a response body that did not match the expected shape.
type DecodeError struct {
	Provider string
	Raw      []byte
	Cause    error
}

func (e *DecodeError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: decode response: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("llm: decode response: %v", e.Cause)
}

func (e *DecodeError) Unwrap() error { return e.Cause }

// ProtocolError ends a stream whose payload could not be decoded. Chunks
// received before it stay valid.
type ProtocolError struct {
	Provider string
	Payload  string
	Cause    error
}

func (e *ProtocolError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("llm %s: malformed stream chunk: %v", e.Provider, e.Cause)
	}
	return fmt.Sprintf("llm: malformed stream chunk: %v", e.Cause)
}

func (e *ProtocolError) Unwrap() error { return e.Cause }

type Category string

const (
	CategoryValidation Category = "validation"
	CategoryAssembly   Category = "assembly"
	CategoryTransport  Category = "transport"
	CategoryDecode     Category = "decode"
	CategoryProtocol   Category = "protocol"
	CategoryUnknown    Category = "unknown"
)

// CategoryOf classifies err. Protocol is checked before decode because a
// ProtocolError wraps the DecodeError of the offending chunk.
func CategoryOf(err error) Category {
	var (
		rangeErr  *params.RangeError
		stopErr   *params.StopError
		protoErr  *ProtocolError
		decodeErr *DecodeError
		llmErr    *LLMError
		toolErr   *schema.UndeclaredRequiredError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &rangeErr), errors.As(err, &stopErr):
		return CategoryValidation
	case errors.Is(err, ErrEmptyMessages), errors.Is(err, ErrSamplingConflict),
		errors.Is(err, ErrInvalidRequest), errors.As(err, &toolErr):
		return CategoryAssembly
	case errors.As(err, &protoErr):
		return CategoryProtocol
	case errors.As(err, &decodeErr):
		return CategoryDecode
	case errors.As(err, &llmErr), errors.Is(err, ErrStreamingUnsupported):
		return CategoryTransport
	}
	return CategoryUnknown
}

type errorEnvelope struct {
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
	} `json:"error"`
}

func mapTransportError(provider string, err error) error {
	if errors.Is(err, context.Canceled) {
		return &LLMError{Provider: provider, Kind: ErrKindCanceled, Message: "request canceled", Cause: err}
	}
	if httpx.IsTimeout(err) {
		return &LLMError{Provider: provider, Kind: ErrKindTimeout, Message: "request deadline exceeded", Retryable: true, Cause: err}
	}

	he, ok := httpx.AsError(err)
	if ok && he.StatusCode != 0 {
		kind, retryable := classifyHTTP(he.StatusCode)
		msg, code := parseErrorEnvelope(he.RawBody)
		if msg == "" {
			msg = http.StatusText(he.StatusCode)
		}
		return &LLMError{
			Provider:     provider,
			Kind:         kind,
			HTTPStatus:   he.StatusCode,
			ProviderCode: code,
			Message:      msg,
			Retryable:    retryable,
			Raw:          append([]byte(nil), he.RawBody...),
			Cause:        err,
		}
	}

	retryable := ok && he.Retryable
	return &LLMError{Provider: provider, Kind: ErrKindUnknown, Message: err.Error(), Retryable: retryable, Cause: err}
}

func classifyHTTP(status int) (ErrorKind, bool) {
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrKindAuth, false
	case http.StatusTooManyRequests:
		return ErrKindRateLimit, true
	case http.StatusBadRequest, http.StatusUnprocessableEntity, http.StatusPaymentRequired:
		return ErrKindBadRequest, false
	case http.StatusNotFound:
		return ErrKindNotFound, false
	case http.StatusRequestTimeout:
		return ErrKindTimeout, true
	default:
		if status >= 500 {
			return ErrKindServer, true
		}
		return ErrKindUnknown, false
	}
}

// parseErrorEnvelope understands both {"error":{"message","code"}} and
// Anthropic's {"type":"error","error":{"type","message"}}.
func parseErrorEnvelope(raw []byte) (message string, code string) {
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil || env.Error == nil {
		return "", ""
	}
	message = env.Error.Message
	switch c := env.Error.Code.(type) {
	case nil:
		code = env.Error.Type
	case string:
		code = c
	default:
		b, _ := json.Marshal(c)
		code = string(b)
	}
	return message, code
}
