// Package observability provides an OpenTelemetry metrics extension for
// duostore. The MetricsExtension implements lifecycle hooks to record
// counters for backend connects, disconnects and errors, the fallback
// transition, failed operations and health checks.
//
// For per-attempt tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
