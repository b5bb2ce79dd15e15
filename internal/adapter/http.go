package adapter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseBody caps how much of a webhook response body is retained
const maxResponseBody = 4 * 1024

// HTTPResult is the outcome of a single HTTP delivery attempt
type HTTPResult struct {
	StatusCode int
	Body       string
}

// HTTPClient defines an interface for outbound HTTP operations. Retry policy
// belongs to the caller; one call is one attempt.
type HTTPClient interface {
	// Post performs a POST request with the given headers and body
	Post(ctx context.Context, url string, headers map[string]string, body []byte) (*HTTPResult, error)
}

// RealHTTPClient implements HTTPClient using the standard http package
type RealHTTPClient struct {
	client *http.Client
}

// NewHTTPClient creates a new real HTTP client
func NewHTTPClient(timeout time.Duration) HTTPClient {
	return &RealHTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
	}
}

// Post performs a POST request with the given headers and body
func (c *RealHTTPClient) Post(ctx context.Context, url string, headers map[string]string, body []byte) (*HTTPResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to perform request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &HTTPResult{
		StatusCode: resp.StatusCode,
		Body:       string(respBody),
	}, nil
}
