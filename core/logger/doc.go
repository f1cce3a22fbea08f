// Package logger builds the zap logger shared by the CLI, the HTTP server and the mapper.
//
// # Configuration
//
//   - Level: debug, info, warn, error. debug selects zap's development config, which
//     also turns on the mapper's per-entity decision logs.
//   - Format: json (production) or console (development)
//
// # Request Correlation
//
// WithRayID copies the ray id stored by the rayid middleware onto a child logger so
// every entry of one request can be correlated.
//
// # Usage
//
//	log, _ := logger.New(&logger.Config{Level: "info"})
//	log.Info("Server started")
//
//	// In a request handler:
//	l := logger.WithRayID(log, c)
//	l.Error("Handler failed", zap.Error(err))
package logger
