// Package llm is a client for chat-completion HTTP APIs.
//
// Requests are assembled from range-checked parameters (package params) and
// conversation turns (package schema) with a Builder or Assemble. A Client
// sends them through a Provider, which fixes the endpoint, auth headers,
// default model and wire shape. Responses come back either whole, as a
// Completion, or incrementally through a ChunkStream fed by the SSE framer.
//
// Every failure belongs to one Category (validation, assembly, transport,
// decode, protocol) so callers can branch with CategoryOf or errors.As
// instead of matching messages.
package llm
