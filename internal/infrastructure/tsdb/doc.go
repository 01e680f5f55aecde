// Package tsdb provides VictoriaMetrics connectivity for powerbridge.
//
// It writes InfluxDB line protocol over HTTP using only net/http, for the
// victoriametrics backend.
//
// # Usage
//
//	cfg := config.TSDBConfig{
//	    Host:     "localhost",
//	    Port:     8428,
//	    Database: "resources",
//	}
//
//	client, err := tsdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.WritePoint(ctx, "power", map[string]any{"current": 163.5})
//
// Points are stored as the series power_current and power_total, labelled
// db="resources".
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes are synchronous. Transport failures and non-2xx responses are
// returned wrapped in ErrWriteFailed.
package tsdb
