// Package webhook implements the primary inference backend: a single
// synchronous POST of the encoded image and query to a user-configured
// webhook URL, typically an n8n workflow fronting a vision model.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"image-recognise-go/pkg/types"
)

// DefaultTimeout bounds the single request attempt.
const DefaultTimeout = 30 * time.Second

// Client posts detection requests to a webhook endpoint. One attempt per
// call, no retries: failures are surfaced to the caller as typed errors.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a webhook client for the given endpoint URL. The caller
// is responsible for rejecting an empty endpoint before invoking Detect.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: strings.TrimSpace(endpoint),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
}

// NewClientWithTimeout creates a webhook client with a non-default request
// timeout. A zero or negative timeout falls back to DefaultTimeout.
func NewClientWithTimeout(endpoint string, timeout time.Duration) *Client {
	c := NewClient(endpoint)
	if timeout > 0 {
		c.httpClient.Timeout = timeout
	}
	return c
}

// Endpoint returns the configured webhook URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Detect sends the encoded image and query to the webhook and returns the
// decoded response. Transport failures, timeouts and non-2xx statuses come
// back as *NetworkError; a body that is not valid JSON as *DecodeError.
func (c *Client) Detect(ctx context.Context, imageB64, query string) (*types.DetectionResponse, error) {
	payload, err := json.Marshal(types.DetectionRequest{
		Image: imageB64,
		Query: query,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, &NetworkError{Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Message: err.Error()}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &NetworkError{Message: fmt.Sprintf("server returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))}
	}

	var decoded any
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, &DecodeError{Message: err.Error()}
	}

	return &types.DetectionResponse{
		Body: decoded,
		Raw:  json.RawMessage(body),
	}, nil
}
