// Package logging provides structured logging for powerbridge.
//
// This package wraps go.uber.org/zap to provide consistent, structured
// logging across both binaries.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Console output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//   - Thread-safe for concurrent use
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "powerbridge", "1.0.0")
//	logger.Info("subscribed", "topic", "resources/power/#")
//	logger.Error("write failed", "error", err)
//
// Never log credentials. Payloads that carry no reading are not logged at all.
package logging
