// Package metrics wraps an OpenTelemetry meter with cached instruments and
// fluent builders, and declares the counters and histograms recorded by the
// transaction engine.
package metrics
