package freecap

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/benbjohnson/clock"
)

// ErrClosed is returned for calls made after Close.
var ErrClosed = errors.New("freecap: client is closed")

// Client talks to the FreeCap captcha-solving API. It is safe for
// concurrent use: configuration is immutable after NewClient and no state
// is shared across solve calls beyond the transport pool.
type Client struct {
	apiKey string
	cfg    ClientConfig
	log    *slog.Logger
	clock  clock.Clock

	httpClient    *http.Client
	ownsTransport bool

	closed    atomic.Bool
	closeOnce sync.Once
}

// NewClient creates a FreeCap client for the given API key.
func NewClient(apiKey string, cfg ClientConfig) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &ValidationError{Message: "API key cannot be empty"}
	}

	cfg.defaults()

	if !strings.HasPrefix(cfg.APIURL, "http://") && !strings.HasPrefix(cfg.APIURL, "https://") {
		return nil, &ValidationError{Message: "API URL must start with http:// or https://"}
	}

	c := &Client{
		apiKey: apiKey,
		cfg:    cfg,
		log:    cfg.Logger,
		clock:  cfg.Clock,
	}
	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
	} else {
		c.httpClient = &http.Client{}
		c.ownsTransport = true
	}
	return c, nil
}

// Close releases the owned transport and marks the client unusable.
// Safe to call more than once. An injected HTTPClient is left open, its
// owner closes it.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.ownsTransport {
			c.httpClient.CloseIdleConnections()
		}
		c.log.Debug("client closed")
	})
}
