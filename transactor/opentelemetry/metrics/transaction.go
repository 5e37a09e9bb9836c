package metrics

import (
	"context"
	"time"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"go.opentelemetry.io/otel/attribute"
)

// RecordTransactionProcessed counts one applied operation with its type and outcome.
// outcome is constant.OutcomeAccepted or a domain error code.
func (f *MetricsFactory) RecordTransactionProcessed(ctx context.Context, txType, outcome string, attributes ...attribute.KeyValue) error {
	b, err := f.Counter(MetricTransactionsProcessed)
	if err != nil {
		return err
	}

	return b.WithAttributes(
		attribute.String(constant.AttrTransactionType, constant.SanitizeMetricLabel(txType)),
		attribute.String(constant.AttrTransactionOutcome, constant.SanitizeMetricLabel(outcome)),
	).WithAttributes(attributes...).AddOne(ctx)
}

// RecordBatch records the size and duration of one batch request.
func (f *MetricsFactory) RecordBatch(ctx context.Context, size int, elapsed time.Duration, attributes ...attribute.KeyValue) error {
	sizes, err := f.Histogram(MetricBatchSize)
	if err != nil {
		return err
	}

	if err := sizes.WithAttributes(attributes...).Record(ctx, int64(size)); err != nil {
		return err
	}

	durations, err := f.Histogram(MetricBatchDuration)
	if err != nil {
		return err
	}

	return durations.WithAttributes(attributes...).Record(ctx, elapsed.Milliseconds())
}
