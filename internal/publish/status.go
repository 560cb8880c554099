package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/GAL1LAO/A2D-Project/internal/logger"
)

// StatusChecker reports whether unprocessed input is waiting
type StatusChecker interface {
	HasUnprocessed(ctx context.Context) bool
}

// StatusClient polls the dashboard status endpoint
type StatusClient struct {
	url    string
	token  string
	client *http.Client
	log    logrus.FieldLogger
}

// NewStatusClient creates a status client for url
func NewStatusClient(url, token string, client *http.Client, log logrus.FieldLogger) *StatusClient {
	if client == nil {
		client = NewHTTPClient(0)
	}
	return &StatusClient{url: url, token: token, client: client, log: logger.OrDefault(log)}
}

// HasUnprocessed accepts `true`/`false` or {"unprocessed": bool}. Any error
// reads as false.
func (c *StatusClient) HasUnprocessed(ctx context.Context) bool {
	v, err := c.check(ctx)
	if err != nil {
		c.log.WithError(err).Warn("Status check failed")
		return false
	}
	return v
}

func (c *StatusClient) check(ctx context.Context) (bool, error) {
	if c.url == "" {
		return false, fmt.Errorf("status URL is not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, fmt.Errorf("status endpoint returned %d", resp.StatusCode)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReplyBytes))
	if err != nil {
		return false, err
	}
	return parseStatus(body)
}

func parseStatus(body []byte) (bool, error) {
	body = bytes.TrimSpace(body)
	var flag bool
	if err := json.Unmarshal(body, &flag); err == nil {
		return flag, nil
	}
	var obj struct {
		Unprocessed *bool `json:"unprocessed"`
	}
	if err := json.Unmarshal(body, &obj); err != nil {
		return false, fmt.Errorf("unexpected status body: %w", err)
	}
	if obj.Unprocessed == nil {
		return false, fmt.Errorf("status body has no unprocessed field")
	}
	return *obj.Unprocessed, nil
}
