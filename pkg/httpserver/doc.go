// Package httpserver wraps http.Server with graceful shutdown on context
// cancellation or SIGINT/SIGTERM, plus a health check handler for probes.
package httpserver
