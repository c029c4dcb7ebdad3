package httpx

import "golang.org/x/time/rate"

// NewRateLimiter allows rps requests per second with the given burst.
// A non-positive rps returns nil, which disables limiting.
func NewRateLimiter(rps float64, burst int) RateLimiter {
	if rps <= 0 {
		return nil
	}
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
