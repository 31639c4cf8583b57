// Package client talks to the voice review service over HTTP. It decodes
// the service's response envelope and surfaces server rejections as typed
// errors the CLI can branch on.
package client

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
)

// UploadTimeout bounds a review submission end to end, including the audio
// body transfer.
const UploadTimeout = 60 * time.Second

// ErrTimedOut is returned when a request exceeds its deadline.
var ErrTimedOut = errors.New("request timed out")

// ServerRejectedError carries a non-2xx response so callers can distinguish
// a rejection (bad payload, rate limit, missing movie) from a transport
// fault.
type ServerRejectedError struct {
	Status int
	Body   string
}

func (e *ServerRejectedError) Error() string {
	return fmt.Sprintf("server rejected request: status %d: %s", e.Status, e.Body)
}

// envelope mirrors the service's response wrapper.
type envelope struct {
	Status  string          `json:"status"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client is the base HTTP client shared by the upload and moderation paths.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// New creates a client for the service at baseURL.
func New(baseURL string) *Client {
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// doJSON sends a JSON request and decodes the envelope's data field into
// out. A nil body sends no payload; a nil out discards the data.
func (c *Client) doJSON(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.authorize(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return ErrTimedOut
		}
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

func (c *Client) authorize(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
}

// decodeEnvelope reads a service response, returning ServerRejectedError on
// a non-2xx status and unmarshalling the data field into out otherwise.
func decodeEnvelope(resp *http.Response, out interface{}) error {
	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var env envelope
		if json.Unmarshal(raw, &env) == nil && env.Error != "" {
			return &ServerRejectedError{Status: resp.StatusCode, Body: env.Error}
		}
		return &ServerRejectedError{Status: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if len(env.Data) == 0 {
		// Some endpoints respond with a bare object rather than the envelope.
		return json.Unmarshal(raw, out)
	}
	return json.Unmarshal(env.Data, out)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
