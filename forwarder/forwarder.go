package forwarder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pokuclick/interfaces"
)

var _ interfaces.AggregateStore = (*Client)(nil)

// AggregateDocument is the wire format of the shared total.
type AggregateDocument struct {
	Total int64 `json:"total"`
}

// Client reads and writes the aggregate exposed by another pokuclick host.
type Client struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// NewClient creates a Client for the /aggregate endpoint at url.
func NewClient(url string, timeout time.Duration, logger *zap.Logger) *Client {
	return &Client{
		url:    url,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// Read fetches the current total. A 404 means the record does not exist yet.
func (c *Client) Read(ctx context.Context) (int64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return 0, false, fmt.Errorf("create aggregate request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("fetch aggregate: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return 0, false, nil
	default:
		return 0, false, statusError(resp)
	}

	var doc AggregateDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return 0, false, fmt.Errorf("decode aggregate: %w", err)
	}
	return doc.Total, true, nil
}

// WriteIfChanged replaces the total on the remote host.
func (c *Client) WriteIfChanged(ctx context.Context, value int64) error {
	body, err := json.Marshal(AggregateDocument{Total: value})
	if err != nil {
		return fmt.Errorf("encode aggregate: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create aggregate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("write aggregate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return statusError(resp)
	}
	c.logger.Debug("Forwarded aggregate total",
		zap.String("destination", c.url),
		zap.Int64("total", value),
		zap.Int("status_code", resp.StatusCode))
	return nil
}

func statusError(resp *http.Response) error {
	msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	return fmt.Errorf("aggregate host returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
}
