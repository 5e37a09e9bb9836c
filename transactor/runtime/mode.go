package runtime

import "sync/atomic"

const redactedPanicMsg = "panic recovered (details redacted)"

var productionMode atomic.Bool

// SetProductionMode toggles redaction of panic values and stack traces.
func SetProductionMode(enabled bool) {
	productionMode.Store(enabled)
}

// IsProductionMode reports whether redaction is enabled.
func IsProductionMode() bool {
	return productionMode.Load()
}
