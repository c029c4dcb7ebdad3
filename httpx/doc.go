// Package httpx sends chat-completion HTTP requests for package llm.
//
// A Client adds a User-Agent and a request id to every request, throttles
// attempts through an optional RateLimiter, and retries transient failures
// (connection resets, 408/429/5xx and Anthropic's 529) with jittered
// exponential backoff, honoring Retry-After. Only idempotent methods, or
// requests carrying the configured idempotency header, are sent twice.
//
// DoBytes is for buffered calls and is bounded by Config.Timeout. DoStream
// hands back an open body for server-sent events: the client-wide timeout
// does not apply and nothing is retried once the body is returned.
//
// Failures come back as *Error, carrying the status, the request id, the
// parsed Retry-After and the head of the error body.
package httpx
