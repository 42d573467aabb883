package session

import (
	"net/http"
	"time"
)

type bearerTransport struct {
	m    *Manager
	base http.RoundTripper
}

// Transport returns the shared request configuration: a RoundTripper that attaches the current
// bearer token to every request lacking an Authorization header. base defaults to http.DefaultTransport.
func (m *Manager) Transport(base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return &bearerTransport{m: m, base: base}
}

// HTTPClient returns a client for collaborators calling the backend on behalf of the session user.
func (m *Manager) HTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: m.Transport(nil),
		Timeout:   timeout,
	}
}

func (t *bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token := t.m.bearer()
	if token == "" || req.Header.Get("Authorization") != "" {
		return t.base.RoundTrip(req)
	}
	// a RoundTripper must not modify the request
	r := req.Clone(req.Context())
	r.Header.Set("Authorization", "Bearer "+token)
	return t.base.RoundTrip(r)
}
