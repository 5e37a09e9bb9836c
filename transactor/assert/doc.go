// Package assert checks runtime invariants without panicking.
//
// A failed assertion returns an *AssertionError, logs the failure, records an
// event on the active span and, when a MetricsFactory is attached, increments
// assertion_failed_total.
package assert
