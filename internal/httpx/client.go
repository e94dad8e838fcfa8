package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusError carries the HTTP status of a failed request so callers can
// classify it (rate limit vs transient) for circuit-breaker accounting.
type StatusError struct {
	Status int
	URL    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.Status, e.URL)
}

func retryableStatus(status int) bool {
	switch status {
	case 408, 425, 429, 500, 502, 503, 504:
		return true
	}
	return false
}

// Client is a small retrying JSON client shared by collectors, the enricher
// and the notifier. Non-retryable statuses fail fast; retryable ones back
// off exponentially up to Retries extra attempts.
type Client struct {
	HTTP    *http.Client
	Retries int
	Backoff time.Duration
	Logger  *zap.Logger
}

func New(timeout time.Duration, retries int, backoff time.Duration, logger *zap.Logger) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		Retries: retries,
		Backoff: backoff,
		Logger:  logger,
	}
}

func (c *Client) GetJSON(ctx context.Context, url string, headers map[string]string, out any) error {
	body, err := c.do(ctx, http.MethodGet, url, headers, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if headers == nil {
		headers = map[string]string{}
	}
	headers["Content-Type"] = "application/json"
	_, err = c.do(ctx, http.MethodPost, url, headers, raw)
	return err
}

func (c *Client) do(ctx context.Context, method, url string, headers map[string]string, payload []byte) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.Retries; attempt++ {
		if attempt > 0 {
			delay := c.Backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		var reader io.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		body, err := c.attempt(req)
		if err == nil {
			return body, nil
		}
		lastErr = err

		if c.Logger != nil {
			c.Logger.Warn("http request failed",
				zap.String("url", url),
				zap.Int("attempt", attempt+1),
				zap.Int("max_attempts", c.Retries+1),
				zap.Error(err))
		}

		var statusErr *StatusError
		if errors.As(err, &statusErr) && !retryableStatus(statusErr.Status) {
			return nil, err
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(req *http.Request) ([]byte, error) {
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{Status: resp.StatusCode, URL: req.URL.String()}
	}
	return io.ReadAll(resp.Body)
}

// StatusCode extracts the HTTP status from a request error, if any. Returns
// nil for network-level failures, which the breaker treats as transient.
func StatusCode(err error) *int {
	var se *StatusError
	if errors.As(err, &se) {
		status := se.Status
		return &status
	}
	return nil
}
