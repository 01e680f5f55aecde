// powerbridge forwards power-meter readings from an MQTT bus into a
// time-series database.
//
// It subscribes to resources/power/# (configurable), extracts the first
// number from each payload and writes it as a "current" or "total" field of
// the "power" measurement. It never reconnects: the process exits so that a
// supervisor (systemd, Docker restart policy) can start it again.
//
// Exit status:
//
//	0  stopped by SIGINT or SIGTERM
//	1  connection lost, write failed, or configuration/startup error
//	2  the initial broker connection failed
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nerrad567/powerbridge/internal/bridge"
	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
	"github.com/nerrad567/powerbridge/internal/infrastructure/logging"
	"github.com/nerrad567/powerbridge/internal/infrastructure/mqtt"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// serviceName tags every log entry.
const serviceName = "powerbridge"

// Default configuration file path, used when it exists.
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := run(ctx)
	cancel()

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(bridge.ExitCode(err))
}

// run is the actual application logic, separated from main for testability.
//
// Parameters:
//   - ctx: Context for cancellation and shutdown signals
//
// Returns:
//   - error: nil on signal shutdown; otherwise the failure, which
//     bridge.ExitCode maps to the exit status
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default(serviceName)
	log.Info("starting powerbridge",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, serviceName, version)
	defer func() { _ = log.Sync() }()
	log.Info("configuration loaded",
		"path", configPath,
		"level", cfg.Logging.Level,
	)

	// Connect to the time-series database and make sure the target exists
	db, err := openStore(ctx, cfg.TSDB)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", cfg.TSDB.Backend, err)
	}
	defer func() {
		log.Info("closing database connection")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()

	if err := db.EnsureDatabase(ctx); err != nil {
		return fmt.Errorf("preparing database %q: %w", cfg.TSDB.Database, err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check: %w", err)
	}
	log.Info("database ready",
		"backend", cfg.TSDB.Backend,
		"url", cfg.TSDB.URL(),
		"database", cfg.TSDB.Database,
	)

	// Create the MQTT client; the bridge connects it
	mqttClient := mqtt.New(cfg.MQTT)
	mqttClient.SetLogger(log.With("component", "mqtt"))
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()

	b, err := bridge.New(bridge.Options{
		MQTT:         &mqttBridgeAdapter{client: mqttClient},
		Writer:       db,
		Topic:        cfg.MQTT.Topic,
		QoS:          byte(cfg.MQTT.QoS),
		ConnectGrace: cfg.MQTT.GetConnectGrace(),
		WriteTimeout: cfg.TSDB.GetWriteTimeout(),
		Logger:       log.With("component", "bridge"),
	})
	if err != nil {
		return fmt.Errorf("creating bridge: %w", err)
	}

	log.Info("bridge starting",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"topic", cfg.MQTT.Topic,
	)

	runErr := b.Run(ctx)
	switch {
	case runErr == nil:
		log.Info("shutdown complete")
	case errors.Is(runErr, bridge.ErrConnectFailed):
		log.Error("giving up after failed connect", "error", runErr)
	default:
		log.Error("bridge terminated", "error", runErr)
	}

	return runErr
}

// getConfigPath returns the configuration file path.
//
// POWERBRIDGE_CONFIG wins; otherwise configs/config.yaml is used when it
// exists, and "" (defaults plus environment) when it does not.
func getConfigPath() string {
	if path := os.Getenv("POWERBRIDGE_CONFIG"); path != "" {
		return path
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}

// mqttBridgeAdapter adapts the infrastructure MQTT client to the bridge's
// MQTTClient interface. The only difference is the Subscribe handler type:
// mqtt.MessageHandler is a named type, the bridge uses the plain func.
type mqttBridgeAdapter struct {
	client *mqtt.Client
}

// Connect implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Connect(ctx context.Context) error {
	return a.client.Connect(ctx)
}

// Subscribe implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) Subscribe(topic string, qos byte, handler func(topic string, payload []byte) error) error {
	return a.client.Subscribe(topic, qos, handler)
}

// SetOnConnect implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) SetOnConnect(callback func()) {
	a.client.SetOnConnect(callback)
}

// SetOnDisconnect implements bridge.MQTTClient.
func (a *mqttBridgeAdapter) SetOnDisconnect(callback func(err error)) {
	a.client.SetOnDisconnect(callback)
}
