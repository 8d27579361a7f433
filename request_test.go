package freecap

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient builds a client against a test server with millisecond
// retry delays and silent logs.
func newTestClient(t *testing.T, url string, cfg ClientConfig) *Client {
	t.Helper()
	cfg.APIURL = url
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	c, err := NewClient("test-key", cfg)
	require.NoError(t, err)
	t.Cleanup(c.Close)
	return c
}

func TestDoRequest_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, ClientConfig{MaxRetries: 2, RetryDelay: 20 * time.Millisecond})

	start := time.Now()
	_, err := c.doRequest(context.Background(), http.MethodPost, "/GetTask", nil)
	elapsed := time.Since(start)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
	// Backoff lower bound: 20ms + 40ms between the three attempts.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestDoRequest_NoRetryOnAuthOrRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		wantMsg string
	}{
		{"401 invalid key", http.StatusUnauthorized, "invalid API key"},
		{"429 rate limited", http.StatusTooManyRequests, "rate limit"},
		{"418 other client error", http.StatusTeapot, "unexpected response"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int64
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				calls.Add(1)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			c := newTestClient(t, server.URL, ClientConfig{MaxRetries: 3})

			_, err := c.doRequest(context.Background(), http.MethodPost, "/CreateTask", nil)

			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Contains(t, err.Error(), tt.wantMsg)
			assert.EqualValues(t, 1, calls.Load())
		})
	}
}

func TestDoRequest_NetworkErrorRetried(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	c := newTestClient(t, url, ClientConfig{MaxRetries: 2})

	_, err := c.doRequest(context.Background(), http.MethodPost, "/GetTask", nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Zero(t, apiErr.StatusCode)
	assert.Contains(t, err.Error(), "network error")
}

func TestDoRequest_Headers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "test-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, ClientConfig{UserAgent: "test-agent"})

	result, err := c.doRequest(context.Background(), http.MethodPost, "/GetTask", map[string]any{"taskId": "x"})
	require.NoError(t, err)
	assert.Equal(t, true, result["ok"])
}

func TestDoRequest_NonJSONBodyWrapped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text"))
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, ClientConfig{})

	result, err := c.doRequest(context.Background(), http.MethodPost, "/GetTask", nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"raw_response": "plain text"}, result)
}

func TestDoRequest_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestClient(t, server.URL, ClientConfig{MaxRetries: 3, RetryDelay: time.Minute})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	// First attempt fails with 500, then the backoff sleep is interrupted.
	_, err := c.doRequest(ctx, http.MethodPost, "/GetTask", nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDoRequest_Closed(t *testing.T) {
	c := newTestClient(t, "http://127.0.0.1:0", ClientConfig{})
	c.Close()

	_, err := c.doRequest(context.Background(), http.MethodPost, "/GetTask", nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestDoRequest_MockClockDrivesRetries(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	mock := clock.NewMock()
	c := newTestClient(t, server.URL, ClientConfig{
		MaxRetries: 2,
		RetryDelay: time.Second,
		Clock:      mock,
	})

	done := make(chan error, 1)
	go func() {
		_, err := c.doRequest(context.Background(), http.MethodPost, "/GetTask", nil)
		done <- err
	}()

	// Retry sleeps only pass when the mock clock advances.
	var got error
	require.Eventually(t, func() bool {
		mock.Add(500 * time.Millisecond)
		select {
		case got = <-done:
			return true
		default:
			return false
		}
	}, 5*time.Second, time.Millisecond)

	var apiErr *APIError
	require.ErrorAs(t, got, &apiErr)
	assert.EqualValues(t, 3, calls.Load())
}
