// Package zap implements log.Logger on top of go.uber.org/zap.
//
// Loggers built with New write JSON and mirror every entry to the
// OpenTelemetry log bridge, so logs reach the collector configured by the
// opentelemetry package.
package zap
