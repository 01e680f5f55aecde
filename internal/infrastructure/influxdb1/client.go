package influxdb1

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	client "github.com/influxdata/influxdb/client/v2"

	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
)

// Default timeouts for InfluxDB operations.
const (
	defaultPingTimeout    = 5 * time.Second
	defaultRequestTimeout = 30 * time.Second
)

// Client writes power points to an InfluxDB 1.x server over its HTTP API.
//
// It authenticates with username and password and writes into the
// configured database, which EnsureDatabase creates if it is missing.
//
// Thread Safety:
//   - All methods are safe for concurrent use from multiple goroutines.
type Client struct {
	http     client.Client
	database string

	// connected tracks current connection state.
	connected bool
	mu        sync.RWMutex
}

// Connect creates the HTTP client and verifies the server answers /ping.
//
// Parameters:
//   - ctx: Context for cancellation of the connectivity check
//   - cfg: TSDB configuration (host, port, username, password, database)
//
// Returns:
//   - *Client: Connected client ready for use
//   - error: wrapped ErrConnectionFailed if the server cannot be reached
func Connect(ctx context.Context, cfg config.TSDBConfig) (*Client, error) {
	httpClient, err := client.NewHTTPClient(client.HTTPConfig{
		Addr:      cfg.URL(),
		Username:  cfg.Username,
		Password:  cfg.Password,
		UserAgent: "powerbridge",
		Timeout:   defaultRequestTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	c := &Client{
		http:      httpClient,
		database:  cfg.Database,
		connected: true,
	}

	if err := c.HealthCheck(ctx); err != nil {
		httpClient.Close()
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return c, nil
}

// EnsureDatabase issues CREATE DATABASE for the configured database.
// InfluxDB treats creating an existing database as a no-op, so this is
// safe to call on every start.
func (c *Client) EnsureDatabase(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	q := client.NewQuery("CREATE DATABASE "+quoteIdent(c.database), "", "")

	err := c.do(ctx, func() error {
		resp, err := c.http.Query(q)
		if err != nil {
			return err
		}
		return resp.Error()
	})
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCreateDatabaseFailed, c.database, err)
	}

	return nil
}

// WritePoint writes one point with the given fields and no tags.
//
// The point carries no timestamp; the server assigns the ingestion time.
// The call blocks until the server has answered or ctx is done.
func (c *Client) WritePoint(ctx context.Context, measurement string, fields map[string]any) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	pt, err := client.NewPoint(measurement, nil, fields)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	bp, err := client.NewBatchPoints(client.BatchPointsConfig{Database: c.database})
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	bp.AddPoint(pt)

	if err := c.do(ctx, func() error { return c.http.Write(bp) }); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}

	return nil
}

// do runs call and returns its result, or ctx's error if ctx is done first.
// The HTTP request itself is bounded by the client's request timeout.
func (c *Client) do(ctx context.Context, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- call()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// HealthCheck pings the server.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (c *Client) HealthCheck(ctx context.Context) error {
	err := c.do(ctx, func() error {
		_, _, err := c.http.Ping(defaultPingTimeout)
		return err
	})
	if err != nil {
		return fmt.Errorf("influxdb1 health check failed: %w", err)
	}
	return nil
}

// Close releases the HTTP client.
//
// Returns:
//   - error: from the underlying client, normally nil
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.connected {
		return nil
	}
	c.connected = false

	return c.http.Close()
}

// IsConnected returns the current connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// quoteIdent quotes an InfluxQL identifier.
func quoteIdent(name string) string {
	name = strings.ReplaceAll(name, `\`, `\\`)
	name = strings.ReplaceAll(name, `"`, `\"`)
	name = strings.ReplaceAll(name, "\n", `\n`)
	return `"` + name + `"`
}
