// internal/common/http/client.go

// Package http wraps the standard client with the fixed timeout the
// property-data provider calls run under.
package http

import (
	"net/http"
	"time"
)

type Client struct {
	httpClient *http.Client
}

// NewClient returns a client whose requests abort after timeout. Callers
// bound individual requests further with their own contexts.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}
