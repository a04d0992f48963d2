package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker"

	"github.com/nhle/studyhub-notify/internal/logging"
)

// StatusSuccess is the envelope status of a successful call.
const StatusSuccess = "success"

// Envelope is the uniform response shape of every StudyHub endpoint.
type Envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Options tunes a Client. Zero values fall back to defaults.
type Options struct {
	Timeout time.Duration

	// BreakerFailures is the number of consecutive failures that opens the
	// circuit breaker. BreakerCooldown is how long it stays open.
	BreakerFailures int
	BreakerCooldown time.Duration

	// HTTPClient replaces the default client, mostly for tests.
	HTTPClient *http.Client
}

// Client is a thin HTTP client for the StudyHub JSON API. It handles
// Bearer token authentication and envelope decoding. It never retries:
// callers decide what a failure means for their part of the UI.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
}

// NewClient creates a new StudyHub HTTP client. The baseURL should be the
// root URL of the server (e.g., https://studyhub.example.edu). The token
// is sent as a Bearer credential; an empty token sends no header.
func NewClient(baseURL, token string, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.BreakerFailures <= 0 {
		opts.BreakerFailures = 5
	}
	if opts.BreakerCooldown <= 0 {
		opts.BreakerCooldown = 30 * time.Second
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	baseURL = strings.TrimRight(baseURL, "/")
	failures := uint32(opts.BreakerFailures)
	log := logging.For("api")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "studyhub:" + baseURL,
		MaxRequests: 1,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= failures
		},
		// Only transport failures and 5xx trip the breaker; a 404 for an
		// already-removed notification says nothing about server health.
		IsSuccessful: func(err error) bool {
			if err == nil {
				return true
			}
			var sErr *StatusError
			if errors.As(err, &sErr) {
				return sErr.StatusCode < 500
			}
			return IsAuthError(err)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Infof("circuit breaker %s changed from %s to %s", name, from, to)
		},
	})

	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: httpClient,
		breaker:    breaker,
	}
}

// BaseURL returns the server root the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs an HTTP GET request and decodes the envelope's data field
// into result. A nil result discards the data.
func (c *Client) Get(
	ctx context.Context,
	path string,
	result interface{},
) error {
	return c.do(ctx, http.MethodGet, path, result)
}

// Post performs a bodiless HTTP POST request and decodes the envelope's
// data field into result.
func (c *Client) Post(
	ctx context.Context,
	path string,
	result interface{},
) error {
	return c.do(ctx, http.MethodPost, path, result)
}

// do runs a single request through the circuit breaker.
func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	result interface{},
) error {
	_, err := c.breaker.Execute(func() (interface{}, error) {
		return nil, c.roundTrip(ctx, method, path, result)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return &TransportError{Method: method, Path: path, Err: err}
	}
	return err
}

// roundTrip builds the request, sends it and decodes the envelope.
func (c *Client) roundTrip(
	ctx context.Context,
	method string,
	path string,
	result interface{},
) error {
	req, err := http.NewRequestWithContext(
		ctx, method, c.baseURL+path, http.NoBody,
	)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &TransportError{Method: method, Path: path, Err: err}
	}

	respBody, readErr := io.ReadAll(resp.Body)
	resp.Body.Close()
	if readErr != nil {
		return &TransportError{
			Method: method,
			Path:   path,
			Err:    fmt.Errorf("reading response body: %w", readErr),
		}
	}

	var env Envelope
	decodeErr := json.Unmarshal(bytes.TrimSpace(respBody), &env)

	if resp.StatusCode == http.StatusUnauthorized {
		msg := env.Message
		if msg == "" {
			msg = "authentication required"
		}
		return &AuthError{BaseURL: c.baseURL, Message: msg}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := env.Message
		if decodeErr != nil {
			msg = truncate(string(respBody), 200)
		}
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     env.Status,
			Message:    msg,
		}
	}

	if decodeErr != nil {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("decoding envelope: %v", decodeErr),
		}
	}

	if env.Status != StatusSuccess {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     env.Status,
			Message:    env.Message,
		}
	}

	if result == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}

	if err := json.Unmarshal(env.Data, result); err != nil {
		return &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Status:     env.Status,
			Message:    fmt.Sprintf("decoding data: %v", err),
		}
	}

	return nil
}

// truncate shortens s to at most n bytes for error messages.
func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
