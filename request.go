package freecap

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

	"github.com/cenkalti/backoff/v4"
)

// doRequest performs one logical API call with bounded retry. Network
// failures and HTTP 5xx are retried up to MaxRetries extra attempts with
// exponential backoff; 401, 429 and any other non-2xx fail immediately.
func (c *Client) doRequest(ctx context.Context, method, endpoint string, body map[string]any) (map[string]any, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	url := strings.TrimRight(c.cfg.APIURL, "/") + "/" + strings.TrimLeft(endpoint, "/")

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
	}

	schedule := backoff.NewExponentialBackOff()
	schedule.InitialInterval = c.cfg.RetryDelay
	schedule.Multiplier = 2
	schedule.RandomizationFactor = 0
	schedule.MaxInterval = 24 * time.Hour
	schedule.MaxElapsedTime = 0
	schedule.Clock = c.clock
	schedule.Reset()

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := schedule.NextBackOff()
			if delay == backoff.Stop {
				break
			}
			timer := c.clock.Timer(delay)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			}
		}

		c.log.Debug("api request",
			slog.String("method", method),
			slog.String("url", url),
			slog.Int("attempt", attempt+1))

		result, retryable, err := c.attempt(ctx, method, url, payload)
		if err == nil {
			return result, nil
		}
		if !retryable {
			return nil, err
		}
		c.log.Warn("retryable api failure",
			slog.String("endpoint", endpoint),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err))
		lastErr = err
	}

	return nil, lastErr
}

// attempt runs a single HTTP exchange. The bool reports whether a failure
// may be retried.
func (c *Client) attempt(ctx context.Context, method, url string, payload []byte) (map[string]any, bool, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RequestTimeout)
	defer cancel()

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(reqCtx, method, url, body)
	if err != nil {
		return nil, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			// Caller cancellation or deadline, not a network blip.
			return nil, false, ctx.Err()
		}
		return nil, true, apiErrorf(0, nil, "network error: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, apiErrorf(0, nil, "read response: %v", err)
	}

	result := parseBody(raw)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return result, false, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, false, apiErrorf(resp.StatusCode, result, "invalid API key")
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, false, apiErrorf(resp.StatusCode, result, "rate limit exceeded")
	case resp.StatusCode >= 500:
		return nil, true, apiErrorf(resp.StatusCode, result, "server error: %s", truncateBytes(raw, 200))
	default:
		return nil, false, apiErrorf(resp.StatusCode, result, "unexpected response: %s", truncateBytes(raw, 200))
	}
}

// parseBody decodes a JSON object body. Anything else is preserved under
// raw_response so diagnostics survive non-JSON replies; a body that fails
// to parse is never an error on its own.
func parseBody(raw []byte) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var result map[string]any
	if err := json.Unmarshal(raw, &result); err != nil {
		return map[string]any{"raw_response": string(raw)}
	}
	return result
}

func truncateBytes(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
