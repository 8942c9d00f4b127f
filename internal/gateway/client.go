package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"latte-lab/internal/logger"
)

// ErrMalformed signals a response whose shape matches no expected schema.
var ErrMalformed = errors.New("unexpected response format")

// DomainError is a business-rule failure carried inside a transport-level
// successful response (the error envelope). Its reason is suitable for
// direct display.
type DomainError struct {
	Reason string
}

func (e *DomainError) Error() string {
	return e.Reason
}

// IsDomainError reports whether err is an error envelope and returns its reason.
func IsDomainError(err error) (string, bool) {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Reason, true
	}
	return "", false
}

// Client performs uniform concept-API calls: a POST with a JSON payload to
// {baseURL}{path}, answered by a JSON payload or an error envelope. Response
// shape is decoded once here; callers never re-derive shape-sniffing logic.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *logger.Logger
}

// NewClient creates a concept-API client. The timeout is deliberately
// generous: the backend may take tens of seconds to answer its first request.
func NewClient(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		logger:  log,
	}
}

// errorEnvelope is the shape of a domain-level failure response.
type errorEnvelope struct {
	Error *string `json:"error"`
}

// Call sends one request and returns the raw response payload. It returns
// *DomainError when the payload carries an error envelope, ErrMalformed when
// the body is not valid JSON, and a wrapped transport error otherwise.
func (c *Client) Call(ctx context.Context, path string, payload interface{}) (json.RawMessage, error) {
	requestID := logger.GenerateRequestID()

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.logger.Debug("api_request", fmt.Sprintf("POST %s", path), requestID, map[string]interface{}{
		"path":         path,
		"request_size": len(body),
	})

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Error("api_request_failed", fmt.Sprintf("POST %s failed", path), requestID, err, map[string]interface{}{
			"path": path,
		})
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Error("api_request_failed", fmt.Sprintf("POST %s returned %d", path, resp.StatusCode), requestID, nil, map[string]interface{}{
			"path":        path,
			"status_code": resp.StatusCode,
		})
		return nil, fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if !json.Valid(raw) {
		return nil, ErrMalformed
	}

	// An object carrying an "error" field is a domain-level failure even
	// though the transport succeeded.
	var envelope errorEnvelope
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Error != nil {
		c.logger.Debug("api_domain_error", fmt.Sprintf("POST %s returned error envelope", path), requestID, map[string]interface{}{
			"path":   path,
			"reason": *envelope.Error,
		})
		return nil, &DomainError{Reason: *envelope.Error}
	}

	return json.RawMessage(raw), nil
}
