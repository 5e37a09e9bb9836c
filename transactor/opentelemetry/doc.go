// Package opentelemetry bootstraps trace, metric and log providers for the
// transaction services and carries trace context across HTTP and gRPC.
//
// When telemetry is disabled the providers are still built, without
// exporters, so instrumentation code never needs nil checks.
package opentelemetry
