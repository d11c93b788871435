package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// ErrStatus matches any StatusError via errors.Is
var ErrStatus = errors.New("unexpected HTTP status")

// StatusError reports a non-2xx response
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error! status: %d", e.StatusCode)
}

// Is lets errors.Is(err, ErrStatus) match
func (e *StatusError) Is(target error) bool {
	return target == ErrStatus
}

const maxBodySize = 16 << 20

// Config configures a Client
type Config struct {
	Name        string        // Breaker name, used in logs
	Timeout     time.Duration // Per-request timeout
	UserAgent   string
	MaxFailures uint32        // Consecutive failures before the breaker opens
	OpenTimeout time.Duration // How long the breaker stays open
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Name:        "http",
		Timeout:     15 * time.Second,
		UserAgent:   "Mozilla/5.0 (X11; Linux x86_64) ankilex",
		MaxFailures: 5,
		OpenTimeout: 30 * time.Second,
	}
}

// Client performs GET requests behind a circuit breaker
type Client struct {
	http      *http.Client
	breaker   *gobreaker.CircuitBreaker
	userAgent string
	logger    *zap.Logger
}

// NewClient creates a client. A nil httpClient gets one with cfg.Timeout.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger) *Client {
	def := DefaultConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = def.MaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = def.OpenTimeout
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	maxFailures := cfg.MaxFailures
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Timeout:     cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		IsSuccessful: isSuccessful,
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Client{
		http:      httpClient,
		breaker:   breaker,
		userAgent: cfg.UserAgent,
		logger:    logger,
	}
}

// Client errors and cancellations say nothing about upstream health
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, context.Canceled) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode < 500
	}
	return false
}

// Get fetches url and returns the response body
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.get(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

// GetString is Get for text documents
func (c *Client) GetString(ctx context.Context, url string) (string, error) {
	body, err := c.Get(ctx, url)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// State reports the breaker state
func (c *Client) State() gobreaker.State {
	return c.breaker.State()
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Debug("Fetching", zap.String("url", url))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
