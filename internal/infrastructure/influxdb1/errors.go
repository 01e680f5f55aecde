package influxdb1

import "errors"

// Sentinel errors for InfluxDB 1.x operations.
//
// These errors can be checked using errors.Is() for specific handling:
//
//	if errors.Is(err, influxdb1.ErrWriteFailed) {
//	    // Handle failed write
//	}
var (
	// ErrNotConnected indicates the client is not connected to InfluxDB.
	ErrNotConnected = errors.New("influxdb1: not connected")

	// ErrConnectionFailed indicates the initial connection attempt failed.
	ErrConnectionFailed = errors.New("influxdb1: connection failed")

	// ErrWriteFailed indicates a point could not be written.
	ErrWriteFailed = errors.New("influxdb1: write failed")

	// ErrCreateDatabaseFailed indicates CREATE DATABASE was rejected.
	ErrCreateDatabaseFailed = errors.New("influxdb1: create database failed")
)
