// Package backend is the typed client for the upstream Atelier REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

var ErrNotFound = errors.New("upstream resource not found")

// APIError is a non-2xx upstream answer. Message is the upstream's own text
// when it sent one.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend: %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Message returns the upstream message carried by err, or fallback.
func Message(err error, fallback string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	devEmail   string
	logger     *slog.Logger
}

// NewClient builds a client for baseURL. A zero timeout means requests are
// bounded only by their context.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "backend"),
	}
}

// WithDevUser sets the identity sent in the development auth header. Builds
// without the devauth tag never send it.
func (c *Client) WithDevUser(email string) *Client {
	c.devEmail = strings.TrimSpace(email)
	return c
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.decorate(req)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "method", method, "path", path, "err", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s %s: %w", method, path, err)
	}
	c.logger.Debug("request done", "method", method, "path", path, "status", resp.StatusCode, "duration", time.Since(started))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{Status: resp.StatusCode, Message: errorMessage(raw, resp.StatusCode)}
	}
	return raw, nil
}

func errorMessage(body []byte, status int) string {
	if gjson.ValidBytes(body) {
		for _, field := range []string{"message", "error"} {
			if value := gjson.GetBytes(body, field); value.Type == gjson.String && value.String() != "" {
				return value.String()
			}
		}
	}
	return fmt.Sprintf("API error: %d %s", status, http.StatusText(status))
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	raw, err := c.do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}
	return decode(raw, path, out)
}

func (c *Client) sendJSON(ctx context.Context, method, path string, body, out any) error {
	raw, err := c.do(ctx, method, path, nil, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	return decode(raw, path, out)
}

func decode(raw []byte, path string, out any) error {
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func segment(id ID) string {
	return url.PathEscape(id.String())
}

func emailQuery(userEmail string) url.Values {
	if userEmail == "" {
		return nil
	}
	return url.Values{"userEmail": {userEmail}}
}
