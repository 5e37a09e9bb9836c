package ledger

import (
	"github.com/LerianStudio/lib-transactor/transactor/assert"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
	"go.opentelemetry.io/otel/trace"
)

// Option configures a Ledger.
type Option func(*Ledger)

// WithLogger sets the logger used for rejection and assertion messages.
func WithLogger(logger log.Logger) Option {
	return func(l *Ledger) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// WithTracer sets the tracer used to open one span per operation.
func WithTracer(tracer trace.Tracer) Option {
	return func(l *Ledger) {
		if tracer != nil {
			l.tracer = tracer
		}
	}
}

// WithMetricsFactory enables operation and account metrics.
func WithMetricsFactory(factory *metrics.MetricsFactory) Option {
	return func(l *Ledger) {
		if factory != nil {
			l.metrics = factory
		}
	}
}

// WithAsserter replaces the asserter that checks the balance invariant after each transition.
func WithAsserter(asserter *assert.Asserter) Option {
	return func(l *Ledger) {
		if asserter != nil {
			l.asserter = asserter
		}
	}
}
