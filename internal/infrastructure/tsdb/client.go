package tsdb

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
)

// Default timeouts for TSDB operations.
const (
	defaultConnectTimeout = 10 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Client writes time-series data to VictoriaMetrics using InfluxDB line protocol.
//
// Each WritePoint is a single HTTP POST to /write carrying one line. There
// is no batching: the call returns once VictoriaMetrics has accepted or
// rejected the point.
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	baseURL    string
	writeURL   string
	username   string
	password   string
	httpClient *http.Client

	connected bool
	mu        sync.RWMutex
}

// Connect establishes a connection to VictoriaMetrics.
//
// It performs the following:
//  1. Creates an HTTP client
//  2. Verifies connectivity via GET /health
//
// The configured database name is sent as the db query parameter, which
// VictoriaMetrics stores as a "db" label on every series.
//
// Parameters:
//   - ctx: Context for cancellation (used for health check)
//   - cfg: TSDB configuration from config.yaml
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: wrapped ErrConnectionFailed if the health check fails
func Connect(ctx context.Context, cfg config.TSDBConfig) (*Client, error) {
	baseURL := cfg.URL()

	query := url.Values{}
	if cfg.Database != "" {
		query.Set("db", cfg.Database)
	}
	writeURL := baseURL + "/write"
	if len(query) > 0 {
		writeURL += "?" + query.Encode()
	}

	c := &Client{
		baseURL:  baseURL,
		writeURL: writeURL,
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: defaultRequestTimeout,
		},
		connected: true,
	}

	// Verify connectivity
	healthCtx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := c.HealthCheck(healthCtx); err != nil {
		c.connected = false
		return nil, fmt.Errorf("%w: health check failed: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// EnsureDatabase is a no-op: VictoriaMetrics has no databases to create.
// It exists so every backend can be prepared the same way at startup.
func (c *Client) EnsureDatabase(_ context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close marks the client as disconnected and releases idle connections.
//
// Returns:
//   - error: always nil
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.mu.Lock()
	c.connected = false
	c.mu.Unlock()

	c.httpClient.CloseIdleConnections()

	return nil
}

// HealthCheck verifies the VictoriaMetrics connection is alive.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tsdb health check: %w", err)
	}
	defer resp.Body.Close()
	// Drain body to allow connection reuse
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("tsdb health check: status %d", resp.StatusCode)
	}

	return nil
}

// IsConnected returns the current connection state.
//
// Note: This reflects the last known state. For reliability,
// use HealthCheck which performs an active ping.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}
