package tsdb_test

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
	"github.com/nerrad567/powerbridge/internal/infrastructure/tsdb"
)

// testConfig returns a configuration for a local dev VictoriaMetrics.
func testConfig() config.TSDBConfig {
	host := os.Getenv("TSDB_HOST")
	if host == "" {
		host = "127.0.0.1"
	}
	return config.TSDBConfig{
		Backend:  config.BackendVictoriaMetrics,
		Host:     host,
		Port:     8428,
		Database: "resources",
	}
}

// skipIfNoTSDB skips the test if VictoriaMetrics is not running.
func skipIfNoTSDB(t *testing.T) {
	t.Helper()
	if os.Getenv("RUN_INTEGRATION") == "" {
		client, err := tsdb.Connect(context.Background(), testConfig())
		if err != nil {
			t.Skip("VictoriaMetrics not available, skipping integration test")
		}
		client.Close()
	}
}

// recorder is an httptest handler that emulates /health and /write.
type recorder struct {
	mu          sync.Mutex
	writeStatus int
	bodies      []string
	queries     []string
	authUsers   []string
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	switch req.URL.Path {
	case "/health":
		_, _ = io.WriteString(w, "OK")
	case "/write":
		body, _ := io.ReadAll(req.Body)
		user, _, _ := req.BasicAuth()

		r.mu.Lock()
		r.bodies = append(r.bodies, string(body))
		r.queries = append(r.queries, req.URL.RawQuery)
		r.authUsers = append(r.authUsers, user)
		status := r.writeStatus
		r.mu.Unlock()

		if status == 0 {
			status = http.StatusNoContent
		}
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = io.WriteString(w, "cannot parse line")
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

// serverConfig points cfg at srv.
func serverConfig(t *testing.T, srv *httptest.Server) config.TSDBConfig {
	t.Helper()
	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	if err != nil {
		t.Fatalf("parsing server URL: %v", err)
	}
	port, _ := strconv.Atoi(portStr)

	cfg := testConfig()
	cfg.Host = host
	cfg.Port = port
	return cfg
}

func connectRecorder(t *testing.T, rec *recorder, mutate func(*config.TSDBConfig)) *tsdb.Client {
	t.Helper()
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)

	cfg := serverConfig(t, srv)
	if mutate != nil {
		mutate(&cfg)
	}

	client, err := tsdb.Connect(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect(t *testing.T) {
	client := connectRecorder(t, &recorder{}, nil)

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	cfg := testConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 59999 // Non-existent port

	_, err := tsdb.Connect(context.Background(), cfg)
	if !errors.Is(err, tsdb.ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_Unhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := tsdb.Connect(context.Background(), serverConfig(t, srv))
	if !errors.Is(err, tsdb.ErrConnectionFailed) {
		t.Fatalf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestEnsureDatabase(t *testing.T) {
	rec := &recorder{}
	client := connectRecorder(t, rec, nil)

	for i := 0; i < 2; i++ {
		if err := client.EnsureDatabase(context.Background()); err != nil {
			t.Fatalf("EnsureDatabase() call %d error = %v", i+1, err)
		}
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.bodies) != 0 {
		t.Errorf("EnsureDatabase() wrote %d bodies, want 0", len(rec.bodies))
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWritePoint(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{name: "current", fields: map[string]any{"current": 12.5}, want: "power current=12.5\n"},
		{name: "total", fields: map[string]any{"total": 12374.148}, want: "power total=12374.148\n"},
		{name: "integral float", fields: map[string]any{"current": 3.0}, want: "power current=3\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			client := connectRecorder(t, rec, nil)

			if err := client.WritePoint(context.Background(), "power", tt.fields); err != nil {
				t.Fatalf("WritePoint() error = %v", err)
			}

			rec.mu.Lock()
			defer rec.mu.Unlock()
			if len(rec.bodies) != 1 {
				t.Fatalf("server received %d writes, want 1", len(rec.bodies))
			}
			if rec.bodies[0] != tt.want {
				t.Errorf("body = %q, want %q", rec.bodies[0], tt.want)
			}
			if rec.queries[0] != "db=resources" {
				t.Errorf("query = %q, want %q", rec.queries[0], "db=resources")
			}
		})
	}
}

func TestWritePoint_BasicAuth(t *testing.T) {
	rec := &recorder{}
	client := connectRecorder(t, rec, func(cfg *config.TSDBConfig) {
		cfg.Username = "writer"
		cfg.Password = "secret"
	})

	if err := client.WritePoint(context.Background(), "power", map[string]any{"total": 1.0}); err != nil {
		t.Fatalf("WritePoint() error = %v", err)
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.authUsers[0] != "writer" {
		t.Errorf("basic auth user = %q, want %q", rec.authUsers[0], "writer")
	}
}

func TestWritePoint_Rejected(t *testing.T) {
	rec := &recorder{writeStatus: http.StatusBadRequest}
	client := connectRecorder(t, rec, nil)

	err := client.WritePoint(context.Background(), "power", map[string]any{"total": 4.5})
	if !errors.Is(err, tsdb.ErrWriteFailed) {
		t.Fatalf("WritePoint() error = %v, want ErrWriteFailed", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("WritePoint() error = %v, want status code in message", err)
	}
}

func TestWritePoint_NoFields(t *testing.T) {
	client := connectRecorder(t, &recorder{}, nil)

	err := client.WritePoint(context.Background(), "power", nil)
	if !errors.Is(err, tsdb.ErrWriteFailed) {
		t.Errorf("WritePoint() error = %v, want ErrWriteFailed", err)
	}
}

func TestWritePoint_CancelledContext(t *testing.T) {
	client := connectRecorder(t, &recorder{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.WritePoint(ctx, "power", map[string]any{"total": 4.5})
	if !errors.Is(err, tsdb.ErrWriteFailed) {
		t.Errorf("WritePoint() error = %v, want ErrWriteFailed", err)
	}
}

func TestWritePoint_AfterClose(t *testing.T) {
	client := connectRecorder(t, &recorder{}, nil)
	client.Close()

	err := client.WritePoint(context.Background(), "power", map[string]any{"total": 4.5})
	if !errors.Is(err, tsdb.ErrNotConnected) {
		t.Errorf("WritePoint() after Close error = %v, want ErrNotConnected", err)
	}
	if err := client.EnsureDatabase(context.Background()); !errors.Is(err, tsdb.ErrNotConnected) {
		t.Errorf("EnsureDatabase() after Close error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Health Check Tests
// =============================================================================

func TestHealthCheck_Cancelled(t *testing.T) {
	client := connectRecorder(t, &recorder{}, nil)

	// Create already cancelled context
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := client.HealthCheck(ctx); err == nil {
		t.Error("HealthCheck() should return error for cancelled context")
	}
}

func TestIsConnected_AfterClose(t *testing.T) {
	client := connectRecorder(t, &recorder{}, nil)

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close()")
	}
}

func TestClose_Nil(t *testing.T) {
	var client *tsdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
}

// =============================================================================
// Integration Tests
// =============================================================================

func TestIntegration_WritePoint(t *testing.T) {
	skipIfNoTSDB(t)

	client, err := tsdb.Connect(context.Background(), testConfig())
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.WritePoint(ctx, "power", map[string]any{"current": 163.5}); err != nil {
		t.Errorf("WritePoint() error = %v", err)
	}
}
