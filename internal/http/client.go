package http

import (
	"log/slog"
	"net/http"
	"time"
)

type Client struct {
	client *http.Client
	logger *slog.Logger
}

// NewClient returns a client with the given timeout; zero means no timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug("request failed", "method", req.Method, "url", req.URL.String(), "elapsed", time.Since(start), "error", err)
		return nil, err
	}
	c.logger.Debug("request done", "method", req.Method, "url", req.URL.String(), "status", resp.StatusCode, "elapsed", time.Since(start))
	return resp, nil
}
