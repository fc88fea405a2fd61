package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TokenSource exposes the current bearer token to the client. An empty
// token means anonymous; the request is then sent without an
// Authorization header.
type TokenSource interface {
	Get(ctx context.Context) (string, error)
}

// Client talks to the Impala backend. The bearer token is read from the
// token source at request-build time, so a token written before a call is
// always the one sent.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// NewClient creates an API client for the given origin.
func NewClient(baseURL string, tokens TokenSource, timeout time.Duration, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.Level(127)}))
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		tokens:  tokens,
		logger:  logger,
	}
}

// errorBody is the backend's error response shape.
type errorBody struct {
	Detail string `json:"detail"`
}

// doJSON issues a request with an optional JSON body and decodes a JSON
// response into out (when out is non-nil).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := c.newRequest(ctx, method, path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	token, err := c.tokens.Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading token: %w", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("X-Request-ID", uuid.NewString())

	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	requestID := req.Header.Get("X-Request-ID")
	c.logger.Debug("api request",
		"method", req.Method,
		"path", req.URL.Path,
		"request_id", requestID,
	)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("api transport failure",
			"method", req.Method,
			"path", req.URL.Path,
			"request_id", requestID,
			"error", err,
		)
		return &RequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		err := c.statusError(resp)
		c.logger.Warn("api error response",
			"method", req.Method,
			"path", req.URL.Path,
			"status", resp.StatusCode,
			"request_id", requestID,
			"error", err,
		)
		return err
	}

	if out == nil {
		// Drain so the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func (c *Client) statusError(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}

	var body errorBody
	_ = json.NewDecoder(resp.Body).Decode(&body)

	if resp.StatusCode < 500 {
		return &ValidationError{Status: resp.StatusCode, Detail: body.Detail}
	}
	if body.Detail != "" {
		return fmt.Errorf("server error (status %d): %s", resp.StatusCode, body.Detail)
	}
	return fmt.Errorf("server error (status %d)", resp.StatusCode)
}
