package rest

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

	"doorcars-storefront/internal/logger"

	"golang.org/x/time/rate"
)

// APIError is a non-success answer from the remote API. Message is the
// backend's own text and is shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend error (status %d): %s", e.StatusCode, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the remote API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusUnauthorized
}

// MessageOf returns the user-facing text of err: the backend message for an
// APIError, the error text otherwise.
func MessageOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

// envelope is the shape every remote API response shares.
type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message,omitempty"`
	Errors    []fieldError    `json:"errors,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
	KeyID     string          `json:"keyId,omitempty"`
	BookingID string          `json:"bookingId,omitempty"`
}

type fieldError struct {
	Msg string `json:"msg"`
}

// message picks errors[0].msg, then message, then fallback.
func (e envelope) message(fallback string) string {
	if len(e.Errors) > 0 && e.Errors[0].Msg != "" {
		return e.Errors[0].Msg
	}
	if e.Message != "" {
		return e.Message
	}
	return fallback
}

// Client calls the remote Door Cars REST API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewClient(baseURL string, timeout time.Duration, requestsPerSecond float64, burst int) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Limit(requestsPerSecond), burst),
	}
}

// request describes one call. Body is JSON encoded unless RawBody is set.
type request struct {
	method      string
	path        string
	token       string
	body        any
	rawBody     io.Reader
	contentType string
	fallback    string
}

func (c *Client) do(ctx context.Context, req request) (*envelope, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("backend rate limit wait: %w", err)
	}

	body := req.rawBody
	contentType := req.contentType
	if body == nil && req.body != nil {
		buf, err := json.Marshal(req.body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.baseURL+req.path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}

	logger.BackendCall(req.method, req.path)
	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		logger.BackendResult(req.method, req.path, 0, time.Since(start), err)
		return nil, fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer resp.Body.Close()

	env := &envelope{}
	decodeErr := json.NewDecoder(resp.Body).Decode(env)

	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.message(req.fallback)}
		logger.BackendResult(req.method, req.path, resp.StatusCode, time.Since(start), apiErr)
		return nil, apiErr
	}
	if decodeErr != nil {
		err := fmt.Errorf("failed to decode %s response: %w", req.path, decodeErr)
		logger.BackendResult(req.method, req.path, resp.StatusCode, time.Since(start), err)
		return nil, err
	}
	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: env.message(req.fallback)}
		logger.BackendResult(req.method, req.path, resp.StatusCode, time.Since(start), apiErr)
		return env, apiErr
	}

	logger.BackendResult(req.method, req.path, resp.StatusCode, time.Since(start), nil)
	return env, nil
}

func decodeData(env *envelope, out any) error {
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}
