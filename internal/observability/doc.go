// Package observability provides structured logging and metrics.
//
// This package implements:
//   - zap logger construction from configuration
//   - Prometheus counters for authorization decisions
//   - HTTP request metrics keyed by route pattern
package observability
