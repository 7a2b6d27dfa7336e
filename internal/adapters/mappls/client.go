// Package mappls implements the place-search and directions ports against
// the Mappls (MapmyIndia) HTTP APIs.
package mappls

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

// Client talks to the Mappls APIs. One client serves both the autosuggest
// and the directions endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        zerolog.Logger
}

// NewClient validates the base URL and builds a client whose HTTP calls are
// bounded by timeout. A zero timeout falls back to 12s so no external call
// can hang the workflow.
func NewClient(baseURL, apiKey string, timeout time.Duration, log zerolog.Logger) (*Client, error) {
	u, err := url.ParseRequestURI(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid mappls base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid mappls base URL scheme %q", u.Scheme)
	}
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}, nil
}
