package metrics

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
)

// RecordAccountCreated counts an account created on first reference.
func (f *MetricsFactory) RecordAccountCreated(ctx context.Context, attributes ...attribute.KeyValue) error {
	b, err := f.Counter(MetricAccountsCreated)
	if err != nil {
		return err
	}

	return b.WithAttributes(attributes...).AddOne(ctx)
}

// RecordAccountLocked counts an account locked by a chargeback.
func (f *MetricsFactory) RecordAccountLocked(ctx context.Context, attributes ...attribute.KeyValue) error {
	b, err := f.Counter(MetricAccountsLocked)
	if err != nil {
		return err
	}

	return b.WithAttributes(attributes...).AddOne(ctx)
}

// RecordLedgerAccounts sets the account count observed at the end of a batch.
func (f *MetricsFactory) RecordLedgerAccounts(ctx context.Context, count int, attributes ...attribute.KeyValue) error {
	g, err := f.Gauge(MetricLedgerAccounts)
	if err != nil {
		return err
	}

	return g.WithAttributes(attributes...).Set(ctx, int64(count))
}
