package constant

// TelemetrySDKName identifies this library in OTEL telemetry resource attributes.
const TelemetrySDKName = "lib-transactor/opentelemetry"

// MaxMetricLabelLength is the maximum length for metric labels to prevent cardinality explosion.
const MaxMetricLabelLength = 64

// Telemetry attribute keys.
const (
	// AttrPrefixAssertion is the prefix for assertion event attributes.
	AttrPrefixAssertion = "assertion."
	// AttrPrefixPanic is the prefix for panic event attributes.
	AttrPrefixPanic = "panic."
	// AttrTransactionType labels metrics and spans with the operation kind.
	AttrTransactionType = "transaction.type"
	// AttrTransactionOutcome labels metrics with accepted or the rejection code.
	AttrTransactionOutcome = "transaction.outcome"
	// AttrClientID labels spans with the client identifier.
	AttrClientID = "transaction.client_id"
	// AttrTransactionID labels spans with the transaction identifier.
	AttrTransactionID = "transaction.tx_id"
	// AttrBatchSize labels spans with the number of operations in a batch.
	AttrBatchSize = "transaction.batch_size"
)

// Outcome values recorded under AttrTransactionOutcome.
const (
	// OutcomeAccepted marks an operation the ledger applied.
	OutcomeAccepted = "accepted"
)

// Telemetry metric names.
const (
	// MetricPanicRecoveredTotal is the counter metric for recovered panics.
	MetricPanicRecoveredTotal = "panic_recovered_total"
	// MetricAssertionFailedTotal is the counter metric for failed assertions.
	MetricAssertionFailedTotal = "assertion_failed_total"
)

// Telemetry event names.
const (
	// EventAssertionFailed is the span event name for assertion failures.
	EventAssertionFailed = "assertion.failed"
	// EventPanicRecovered is the span event name for recovered panics.
	EventPanicRecovered = "panic.recovered"
	// EventOperationRejected is the span event name for rejected operations.
	EventOperationRejected = "transaction.rejected"
)

// SanitizeMetricLabel truncates a label value to MaxMetricLabelLength
// to prevent metric cardinality explosion in OTEL backends.
func SanitizeMetricLabel(value string) string {
	if len(value) > MaxMetricLabelLength {
		return value[:MaxMetricLabelLength]
	}

	return value
}
