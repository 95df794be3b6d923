package httpx

import (
	"net/http"
	"time"
)

// Middleware wraps a server-side handler.
type Middleware func(http.Handler) http.Handler

// Chain applies m so that Chain(h, a, b) serves as a(b(h)).
func Chain(h http.Handler, m ...Middleware) http.Handler {
	for i := len(m) - 1; i >= 0; i-- {
		if m[i] != nil {
			h = m[i](h)
		}
	}
	return h
}

func WithBodyLimit(limitBytes int64) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limitBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func WithTimeout(d time.Duration) Middleware {
	return func(next http.Handler) http.Handler {
		return http.TimeoutHandler(next, d, "request timed out")
	}
}

// RoundTripperFunc adapts a function to http.RoundTripper.
type RoundTripperFunc func(*http.Request) (*http.Response, error)

func (f RoundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

// Transport wraps an outbound round tripper.
type Transport func(http.RoundTripper) http.RoundTripper

// ChainTransport mirrors Chain for clients: ChainTransport(rt, a, b) sends
// requests through a, then b, then rt.
func ChainTransport(rt http.RoundTripper, t ...Transport) http.RoundTripper {
	if rt == nil {
		rt = http.DefaultTransport
	}
	for i := len(t) - 1; i >= 0; i-- {
		if t[i] != nil {
			rt = t[i](rt)
		}
	}
	return rt
}
