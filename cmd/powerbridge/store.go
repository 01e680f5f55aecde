package main

import (
	"context"
	"fmt"

	"github.com/nerrad567/powerbridge/internal/bridge"
	"github.com/nerrad567/powerbridge/internal/infrastructure/config"
	"github.com/nerrad567/powerbridge/internal/infrastructure/influxdb"
	"github.com/nerrad567/powerbridge/internal/infrastructure/influxdb1"
	"github.com/nerrad567/powerbridge/internal/infrastructure/tsdb"
)

// store is the database handle the bridge writes through.
// Satisfied by *influxdb1.Client, *influxdb.Client and *tsdb.Client.
type store interface {
	bridge.Writer

	// EnsureDatabase creates the target database if it is missing.
	EnsureDatabase(ctx context.Context) error

	// HealthCheck verifies the server is reachable.
	HealthCheck(ctx context.Context) error

	// Close releases the connection.
	Close() error
}

// openStore connects to the configured time-series backend.
func openStore(ctx context.Context, cfg config.TSDBConfig) (store, error) {
	switch cfg.Backend {
	case config.BackendInfluxDB1:
		client, err := influxdb1.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil

	case config.BackendInfluxDB2:
		client, err := influxdb.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil

	case config.BackendVictoriaMetrics:
		client, err := tsdb.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil

	default:
		return nil, fmt.Errorf("unknown tsdb backend %q", cfg.Backend)
	}
}
