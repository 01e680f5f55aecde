// Package influxdb provides InfluxDB 2.x connectivity for powerbridge.
//
// It wraps the official influxdb-client-go v2 library for the influxdb2
// backend: token authentication, bucket setup and blocking point writes.
// The configured database name doubles as the bucket name.
//
// # Usage
//
//	cfg := config.TSDBConfig{
//	    Host:     "localhost",
//	    Port:     8086,
//	    Token:    "your-token",
//	    Org:      "home",
//	    Database: "resources",
//	}
//
//	client, err := influxdb.Connect(ctx, cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.EnsureDatabase(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	err = client.WritePoint(ctx, "power", map[string]any{"total": 12374.148})
//
// # Thread Safety
//
// All methods are safe for concurrent use from multiple goroutines.
//
// # Error Handling
//
// Writes are synchronous and their errors are returned wrapped in
// ErrWriteFailed. Nothing is retried.
package influxdb
