package httpx

import (
	"net"
	"net/http"
	"time"
)

// DefaultTransport clones http.DefaultTransport with shorter dial and TLS
// timeouts and no response-header timeout: a buffered completion only sends
// its headers once generation is done, which can take minutes. Deadlines
// come from the request context instead.
func DefaultTransport() *http.Transport {
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return &http.Transport{Proxy: http.ProxyFromEnvironment}
	}
	t := base.Clone()
	t.DialContext = (&net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext
	t.TLSHandshakeTimeout = 10 * time.Second
	t.ResponseHeaderTimeout = 0
	t.IdleConnTimeout = 90 * time.Second
	// Few hosts, many calls each.
	t.MaxIdleConnsPerHost = 16
	t.ForceAttemptHTTP2 = true
	return t
}
