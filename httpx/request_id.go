package httpx

import "github.com/google/uuid"

// RequestIDConfig names the correlation header sent with every request.
// An empty Header disables it.
type RequestIDConfig struct {
	Header string
	// New defaults to NewRequestID.
	New func() string
}

func DefaultRequestIDConfig() RequestIDConfig {
	return RequestIDConfig{Header: "X-Request-ID", New: NewRequestID}
}

// NewRequestID returns a random UUID, or "" if the system RNG fails.
func NewRequestID() string {
	id, err := uuid.NewRandom()
	if err != nil {
		return ""
	}
	return id.String()
}
