// Package relay implements the best-effort spreadsheet sync client. The
// relay endpoint is an external collaborator; failures are reported, never
// retried, and never affect the registration outcome.
package relay

import (
	"context"
	"fmt"
	"time"

	"github.com/campusworks/winter-registry/internal/domain"
	"resty.dev/v3"
)

// Client posts registration records to the configured relay URL.
type Client struct {
	http *resty.Client
	url  string
}

// New creates a relay client for the given endpoint URL.
func New(url string) *Client {
	return &Client{
		http: resty.New().SetTimeout(10 * time.Second),
		url:  url,
	}
}

// Send posts rec to the relay endpoint. Any failure is returned wrapped in
// domain.ErrRelayUnavailable.
func (c *Client) Send(ctx context.Context, rec domain.RelayRecord) error {
	res, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(rec).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrRelayUnavailable, err)
	}
	if res.IsError() {
		return fmt.Errorf("%w: status %d", domain.ErrRelayUnavailable, res.StatusCode())
	}
	return nil
}

// Close releases the underlying HTTP client resources.
func (c *Client) Close() error {
	return c.http.Close()
}
