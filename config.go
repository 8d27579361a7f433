package freecap

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/benbjohnson/clock"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/137.0.0.0 Safari/537.36"

// ClientConfig holds all configuration for the FreeCap client.
// Zero values fall back to defaults at NewClient time; the config is
// immutable afterwards.
type ClientConfig struct {
	// APIURL is the base URL of the FreeCap API.
	APIURL string

	// RequestTimeout bounds a single HTTP attempt.
	RequestTimeout time.Duration

	// MaxRetries is the number of additional attempts after the first
	// for retryable failures (network errors, HTTP 5xx).
	MaxRetries int

	// RetryDelay is the backoff base: the wait before retry n is
	// RetryDelay * 2^n.
	RetryDelay time.Duration

	// TaskTimeout is the default end-to-end deadline for SolveCaptcha.
	TaskTimeout time.Duration

	// CheckInterval is the default delay between result polls.
	CheckInterval time.Duration

	// UserAgent is sent on every request.
	UserAgent string

	// Logger receives client logs. Default: slog.Default().
	Logger *slog.Logger

	// HTTPClient overrides the transport. When set, ownership stays with
	// the caller and Close will not touch it.
	HTTPClient *http.Client

	// Clock is the time source for retries and polling.
	Clock clock.Clock
}

// defaults fills in zero-value config fields with sensible defaults.
func (cfg *ClientConfig) defaults() {
	if cfg.APIURL == "" {
		cfg.APIURL = "https://freecap.su"
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = 30 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = 1 * time.Second
	}
	if cfg.TaskTimeout == 0 {
		cfg.TaskTimeout = 120 * time.Second
	}
	if cfg.CheckInterval == 0 {
		cfg.CheckInterval = 3 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.New()
	}
}
