// Package runtime provides panic recovery for handlers and goroutines.
//
// Recovered panics are logged with their stack, counted in the
// panic_recovered_total metric once InitPanicMetrics has been called, and
// recorded as an event on the active span.
package runtime
