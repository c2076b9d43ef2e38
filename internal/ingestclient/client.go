// Package ingestclient is a minimal API client for pushing captured payloads
// into the server, used by the import tool.
package ingestclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client talks to the insights server's write endpoints.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ImportResult is the server's summary of one bulk import request.
type ImportResult struct {
	OK       bool `json:"ok"`
	Payloads int  `json:"payloads"`
	Total    int  `json:"total"`
	Inserted int  `json:"inserted"`
	Errors   int  `json:"errors"`
	Skipped  int  `json:"skipped"`
}

// NewClient creates a client for the server at baseURL, authenticating with
// the given API key.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// ImportPayload submits one raw captured payload to /api/import/bulk and
// returns the server's counts.
func (c *Client) ImportPayload(ctx context.Context, payload []byte) (*ImportResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/import/bulk", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var result ImportResult
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &result, nil
}
