// Package influxdb1 provides InfluxDB 1.x connectivity for powerbridge.
//
// It wraps github.com/influxdata/influxdb/client/v2 for the default
// influxdb1 backend: username/password authentication, idempotent
// CREATE DATABASE at startup and synchronous single-point writes.
//
// # Usage
//
//	client, err := influxdb1.Connect(ctx, cfg.TSDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.EnsureDatabase(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	err = client.WritePoint(ctx, "power", map[string]any{"current": 12.5})
//
// Points are written without tags or timestamp:
//
//	power current=12.5
package influxdb1
