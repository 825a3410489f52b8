// Package backend talks to the console's HTTP API: conversation summaries,
// message history and outbound delivery.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const defaultTimeout = 15 * time.Second

// Config holds the API location and credentials.
type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client is an HTTP client for the console API.
type Client struct {
	base   string
	token  string
	http   *http.Client
	logger *zap.Logger
}

// New creates a client. An empty BaseURL yields a client whose calls fail
// with ErrNotConfigured.
func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   strings.TrimRight(cfg.BaseURL, "/"),
		token:  cfg.Token,
		http:   &http.Client{Timeout: cfg.Timeout},
		logger: logger,
	}
}

// ErrNotConfigured is returned when no base URL is set.
var ErrNotConfigured = errors.New("backend base url not configured")

// APIError is a non-2xx response or an envelope with success=false.
type APIError struct {
	Op         string
	StatusCode int
	Reason     string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (http %d)", e.Op, e.Reason, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (e envelope) reason() string {
	switch {
	case e.Error != "":
		return e.Error
	case e.Message != "":
		return e.Message
	default:
		return "request failed"
	}
}

// do sends a request and decodes the envelope's data into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if c.base == "" {
		return ErrNotConfigured
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode request: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return fmt.Errorf("%s: read response: %w", op, err)
	}
	c.logger.Debug("backend call",
		zap.String("op", op),
		zap.Int("status", resp.StatusCode),
		zap.Duration("took", time.Since(start)),
	)

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		reason := strings.TrimSpace(string(raw))
		if decodeErr == nil && (env.Error != "" || env.Message != "") {
			reason = env.reason()
		}
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		return &APIError{Op: op, StatusCode: resp.StatusCode, Reason: reason}
	}
	if decodeErr != nil {
		return fmt.Errorf("%s: decode response: %w", op, decodeErr)
	}
	if !env.Success {
		return &APIError{Op: op, Reason: env.reason()}
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("%s: decode data: %w", op, err)
	}
	return nil
}
