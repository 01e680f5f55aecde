package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/nerrad567/powerbridge/internal/bridge"
	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
)

// isolateEnv points config loading away from any .env file in the package dir.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("POWERBRIDGE_ENV_FILE", filepath.Join(t.TempDir(), "missing.env"))
}

// writeConfig writes a YAML config into a temp dir and points POWERBRIDGE_CONFIG at it.
func writeConfig(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	t.Setenv("POWERBRIDGE_CONFIG", path)
}

// fakeInfluxServer answers /ping and /query like InfluxDB 1.x.
func fakeInfluxServer(t *testing.T) (host string, port int) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Influxdb-Version", "1.8.10")
		switch r.URL.Path {
		case "/ping", "/write":
			w.WriteHeader(http.StatusNoContent)
		case "/query":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"results":[{"statement_id":0}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)

	return splitHostPort(t, strings.TrimPrefix(srv.URL, "http://"))
}

// closedPort returns a local port with nothing listening on it.
func closedPort(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	_, port := splitHostPort(t, ln.Addr().String())
	ln.Close()
	return port
}

func splitHostPort(t *testing.T, addr string) (string, int) {
	t.Helper()
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		t.Fatalf("parsing address %q: %v", addr, err)
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

// TestRun_InvalidConfig verifies run fails with invalid config path.
func TestRun_InvalidConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("POWERBRIDGE_CONFIG", "/nonexistent/path/config.yaml")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with invalid config path")
	}
	if code := bridge.ExitCode(err); code != bridge.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", code, bridge.ExitFailure)
	}
}

// TestRun_InvalidBackend verifies validation errors stop startup.
func TestRun_InvalidBackend(t *testing.T) {
	isolateEnv(t)
	writeConfig(t, `
tsdb:
  backend: cassandra
logging:
  level: error
`)

	err := run(context.Background())
	if err == nil {
		t.Fatal("run() should fail with unknown backend")
	}
	if !strings.Contains(err.Error(), "cassandra") {
		t.Errorf("run() error = %v, want it to name the backend", err)
	}
}

// TestRun_DatabaseUnreachable verifies startup fails before the broker is touched.
func TestRun_DatabaseUnreachable(t *testing.T) {
	isolateEnv(t)
	writeConfig(t, fmt.Sprintf(`
mqtt:
  broker:
    host: "127.0.0.1"
    port: %d
tsdb:
  backend: influxdb1
  host: "127.0.0.1"
  port: %d
logging:
  level: error
`, closedPort(t), closedPort(t)))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := run(ctx)
	if err == nil {
		t.Fatal("run() should fail with unreachable database")
	}
	if errors.Is(err, bridge.ErrConnectFailed) {
		t.Errorf("run() error = %v, database failure must not look like a broker failure", err)
	}
	if code := bridge.ExitCode(err); code != bridge.ExitFailure {
		t.Errorf("ExitCode() = %d, want %d", code, bridge.ExitFailure)
	}
}

// TestRun_BrokerUnreachable verifies a refused broker connection exits with
// ExitConnectFailed once the grace period has passed.
func TestRun_BrokerUnreachable(t *testing.T) {
	isolateEnv(t)
	dbHost, dbPort := fakeInfluxServer(t)
	writeConfig(t, fmt.Sprintf(`
mqtt:
  broker:
    host: "127.0.0.1"
    port: %d
    client_id: "powerbridge-test"
  connect_grace: 0
tsdb:
  backend: influxdb1
  host: %q
  port: %d
  database: resources
logging:
  level: error
`, closedPort(t), dbHost, dbPort))

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	err := run(ctx)
	if !errors.Is(err, bridge.ErrConnectFailed) {
		t.Fatalf("run() error = %v, want ErrConnectFailed", err)
	}
	if code := bridge.ExitCode(err); code != bridge.ExitConnectFailed {
		t.Errorf("ExitCode() = %d, want %d", code, bridge.ExitConnectFailed)
	}
}

func TestGetConfigPath(t *testing.T) {
	t.Run("env wins", func(t *testing.T) {
		t.Setenv("POWERBRIDGE_CONFIG", "/etc/powerbridge/config.yaml")
		if got := getConfigPath(); got != "/etc/powerbridge/config.yaml" {
			t.Errorf("getConfigPath() = %q, want env value", got)
		}
	})

	t.Run("no default file", func(t *testing.T) {
		t.Setenv("POWERBRIDGE_CONFIG", "")
		// Tests run in cmd/powerbridge, which has no configs/ directory.
		if got := getConfigPath(); got != "" {
			t.Errorf("getConfigPath() = %q, want empty", got)
		}
	})
}

func TestOpenStore(t *testing.T) {
	dbHost, dbPort := fakeInfluxServer(t)

	t.Run("influxdb1", func(t *testing.T) {
		s, err := openStore(context.Background(), config.TSDBConfig{
			Backend:  config.BackendInfluxDB1,
			Host:     dbHost,
			Port:     dbPort,
			Database: "resources",
		})
		if err != nil {
			t.Fatalf("openStore() error = %v", err)
		}
		defer s.Close()

		if err := s.EnsureDatabase(context.Background()); err != nil {
			t.Errorf("EnsureDatabase() error = %v", err)
		}
		if err := s.WritePoint(context.Background(), "power", map[string]any{"total": 4.5}); err != nil {
			t.Errorf("WritePoint() error = %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := openStore(context.Background(), config.TSDBConfig{Backend: "graphite"})
		if err == nil {
			t.Fatal("openStore() should fail for unknown backend")
		}
	})
}
