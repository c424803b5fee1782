// Package network provides the HTTP client shared by every outbound request.
package network

import (
	"net/http"
	"time"

	"github.com/auplay-cli/auplay/constant"
)

// UserAgent identifies auplay to remote hosts.
var UserAgent = constant.Auplay + "/" + constant.Version

// Client is the HTTP client shared across the application.
var Client = &http.Client{
	Timeout:   10 * time.Second,
	Transport: &userAgentTransport{base: newTransport()},
}

func newTransport() *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConnsPerHost = 4
	t.IdleConnTimeout = 30 * time.Second
	t.ResponseHeaderTimeout = 10 * time.Second
	return t
}

type userAgentTransport struct {
	base http.RoundTripper
}

func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}

	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", UserAgent)
	return t.base.RoundTrip(clone)
}
