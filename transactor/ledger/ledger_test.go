package ledger

import (
	"context"
	"testing"

	"github.com/LerianStudio/lib-transactor/transactor/account"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type want struct {
	available, held, total string
	locked                 bool
}

func assertSnapshot(t *testing.T, snap account.Snapshot, w want) {
	t.Helper()

	assert.True(t, snap.Available.Equal(d(w.available)), "available: got %s want %s", snap.Available, w.available)
	assert.True(t, snap.Held.Equal(d(w.held)), "held: got %s want %s", snap.Held, w.held)
	assert.True(t, snap.Total.Equal(d(w.total)), "total: got %s want %s", snap.Total, w.total)
	assert.Equal(t, w.locked, snap.Locked)
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name   string
		ops    []transaction.Operation
		errors map[int]error
		want   want
	}{
		{
			name: "two deposits",
			ops: []transaction.Operation{
				transaction.NewDeposit(1, 1, d("100.50")),
				transaction.NewDeposit(1, 2, d("200.05")),
			},
			want: want{available: "300.55", held: "0", total: "300.55"},
		},
		{
			name: "withdrawal beyond available",
			ops: []transaction.Operation{
				transaction.NewDeposit(1, 1, d("100.00")),
				transaction.NewWithdrawal(1, 2, d("200.00")),
			},
			errors: map[int]error{1: constant.ErrInsufficientFunds},
			want:   want{available: "100.00", held: "0", total: "100.00"},
		},
		{
			name: "dispute holds deposit",
			ops: []transaction.Operation{
				transaction.NewDeposit(1, 1, d("100.00")),
				transaction.NewDispute(1, 1),
			},
			want: want{available: "0", held: "100.00", total: "100.00"},
		},
		{
			name: "dispute of unknown transaction",
			ops: []transaction.Operation{
				transaction.NewDeposit(1, 1, d("100.00")),
				transaction.NewDispute(1, 2),
			},
			errors: map[int]error{1: constant.ErrNoTransaction},
			want:   want{available: "100.00", held: "0", total: "100.00"},
		},
		{
			name: "chargeback locks account",
			ops: []transaction.Operation{
				transaction.NewDeposit(1, 1, d("100.00")),
				transaction.NewDeposit(1, 2, d("200.00")),
				transaction.NewDispute(1, 2),
				transaction.NewChargeback(1, 2),
				transaction.NewDeposit(1, 3, d("50")),
				transaction.NewWithdrawal(1, 4, d("1")),
				transaction.NewDispute(1, 1),
			},
			errors: map[int]error{
				4: constant.ErrAccountLocked,
				5: constant.ErrAccountLocked,
				6: constant.ErrAccountLocked,
			},
			want: want{available: "100.00", held: "0", total: "100.00", locked: true},
		},
		{
			name: "chargeback without dispute",
			ops: []transaction.Operation{
				transaction.NewDeposit(1, 1, d("100.00")),
				transaction.NewDeposit(1, 2, d("200.00")),
				transaction.NewChargeback(1, 2),
			},
			errors: map[int]error{2: constant.ErrNotDisputed},
			want:   want{available: "300.00", held: "0", total: "300.00"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := New()
			ctx := context.Background()

			for i, op := range tt.ops {
				err := l.Process(ctx, op)

				if expected, ok := tt.errors[i]; ok {
					assert.ErrorIs(t, err, expected, "operation %d", i)
					continue
				}

				require.NoError(t, err, "operation %d", i)
			}

			snap, ok := l.Snapshot(1)
			require.True(t, ok)
			assertSnapshot(t, snap, tt.want)
		})
	}
}

func TestInsufficientFundsShortfall(t *testing.T) {
	l := New()
	ctx := context.Background()

	require.NoError(t, l.Process(ctx, transaction.NewDeposit(1, 1, d("100.00"))))

	err := l.Process(ctx, transaction.NewWithdrawal(1, 2, d("200.00")))

	var domainErr transaction.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, transaction.ErrorInsufficientFunds, domainErr.Code)
	assert.True(t, domainErr.Shortfall.Equal(d("100")))
}

func TestAccountsAreIsolatedPerClient(t *testing.T) {
	l := New()
	ctx := context.Background()

	require.NoError(t, l.Process(ctx, transaction.NewDeposit(1, 1, d("10"))))
	require.NoError(t, l.Process(ctx, transaction.NewDeposit(2, 2, d("20"))))

	// tx ids are scoped to their client.
	assert.ErrorIs(t, l.Process(ctx, transaction.NewDispute(2, 1)), constant.ErrNoTransaction)
	require.NoError(t, l.Process(ctx, transaction.NewDispute(1, 1)))

	accounts := l.Accounts()
	require.Len(t, accounts, 2)
	assertSnapshot(t, accounts[1], want{available: "0", held: "10", total: "10"})
	assertSnapshot(t, accounts[2], want{available: "20", held: "0", total: "20"})
}

func TestFirstReferenceCreatesAccount(t *testing.T) {
	l := New()

	err := l.Process(context.Background(), transaction.NewWithdrawal(9, 1, d("5")))
	assert.ErrorIs(t, err, constant.ErrInsufficientFunds)

	snap, ok := l.Snapshot(9)
	require.True(t, ok)
	assertSnapshot(t, snap, want{available: "0", held: "0", total: "0"})
	assert.Equal(t, 1, l.Len())
}

func TestMalformedOperationCreatesNoAccount(t *testing.T) {
	amount := d("1")

	tests := []struct {
		name string
		op   transaction.Operation
	}{
		{name: "deposit without amount", op: transaction.Operation{Type: transaction.TypeDeposit, Client: 3, Tx: 1}},
		{name: "withdrawal without amount", op: transaction.Operation{Type: transaction.TypeWithdrawal, Client: 3, Tx: 1}},
		{name: "resolve with amount", op: transaction.Operation{Type: transaction.TypeResolve, Client: 3, Tx: 1, Amount: &amount}},
		{name: "unknown type", op: transaction.Operation{Type: "transfer", Client: 3, Tx: 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			l := New()

			err := l.Process(context.Background(), tt.op)

			assert.ErrorIs(t, err, constant.ErrMalformedOperation)
			assert.Equal(t, 0, l.Len())

			_, ok := l.Snapshot(3)
			assert.False(t, ok)
		})
	}
}

func TestSnapshotsAreSortedAndDetached(t *testing.T) {
	l := New()
	ctx := context.Background()

	for _, client := range []uint16{42, 7, 65535, 0, 7} {
		require.NoError(t, l.Process(ctx, transaction.NewDeposit(client, uint32(client)+1, d("1"))))
	}

	snaps := l.Snapshots()
	require.Len(t, snaps, 4)

	clients := make([]uint16, 0, len(snaps))
	for _, s := range snaps {
		clients = append(clients, s.Client)
	}

	assert.Equal(t, []uint16{0, 7, 42, 65535}, clients)
	assert.Equal(t, "2", snaps[1].Available.String())

	require.NoError(t, l.Process(ctx, transaction.NewDeposit(0, 99, d("5"))))
	assert.Equal(t, "1", snaps[0].Available.String(), "earlier snapshots must not change")
}

func TestProcessAll(t *testing.T) {
	l := New()

	result := l.ProcessAll(context.Background(), []transaction.Operation{
		transaction.NewDeposit(2, 1, d("1.0")),
		transaction.NewDeposit(1, 2, d("2.0")),
		transaction.NewDeposit(1, 3, d("2.0")),
		transaction.NewWithdrawal(1, 4, d("1.5")),
		transaction.NewWithdrawal(2, 5, d("3.0")),
		transaction.NewDispute(1, 9),
	})

	assert.Equal(t, 6, result.Processed)
	require.Len(t, result.Rejections, 2)

	assert.Equal(t, 4, result.Rejections[0].Index)
	assert.ErrorIs(t, result.Rejections[0].Err, constant.ErrInsufficientFunds)
	assert.Equal(t, uint16(2), result.Rejections[0].Operation.Client)

	assert.Equal(t, 5, result.Rejections[1].Index)
	assert.ErrorIs(t, result.Rejections[1].Err, constant.ErrNoTransaction)

	require.Len(t, result.Accounts, 2)
	assertSnapshot(t, result.Accounts[0], want{available: "2.5", held: "0", total: "2.5"})
	assertSnapshot(t, result.Accounts[1], want{available: "1", held: "0", total: "1"})
}

func TestProcessAllEmpty(t *testing.T) {
	result := New().ProcessAll(context.Background(), nil)

	assert.Zero(t, result.Processed)
	assert.Empty(t, result.Rejections)
	assert.Empty(t, result.Accounts)
}

func TestIndependentLedgers(t *testing.T) {
	first, second := New(), New()
	ctx := context.Background()

	require.NoError(t, first.Process(ctx, transaction.NewDeposit(1, 1, d("10"))))

	assert.Equal(t, 1, first.Len())
	assert.Equal(t, 0, second.Len())
}

func TestMetrics(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	factory, err := metrics.NewMetricsFactory(mp.Meter("test"), log.NewNop())
	require.NoError(t, err)

	l := New(WithMetricsFactory(factory))

	_ = l.ProcessAll(context.Background(), []transaction.Operation{
		transaction.NewDeposit(1, 1, d("5")),
		transaction.NewDeposit(2, 2, d("5")),
		transaction.NewWithdrawal(1, 3, d("10")),
		transaction.NewDispute(2, 2),
		transaction.NewChargeback(2, 2),
	})

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	find := func(name string) metricdata.Metrics {
		for _, sm := range rm.ScopeMetrics {
			for _, m := range sm.Metrics {
				if m.Name == name {
					return m
				}
			}
		}

		t.Fatalf("metric %q not recorded", name)

		return metricdata.Metrics{}
	}

	sumOf := func(m metricdata.Metrics) int64 {
		sum, ok := m.Data.(metricdata.Sum[int64])
		require.True(t, ok, "expected Sum[int64], got %T", m.Data)

		var total int64
		for _, dp := range sum.DataPoints {
			total += dp.Value
		}

		return total
	}

	assert.Equal(t, int64(2), sumOf(find(metrics.MetricAccountsCreated.Name)))
	assert.Equal(t, int64(1), sumOf(find(metrics.MetricAccountsLocked.Name)))

	processed := find(metrics.MetricTransactionsProcessed.Name)
	assert.Equal(t, int64(5), sumOf(processed))

	sum := processed.Data.(metricdata.Sum[int64])

	var rejectedWithdrawals int64

	for _, dp := range sum.DataPoints {
		typ, _ := dp.Attributes.Value(attribute.Key(constant.AttrTransactionType))
		outcome, _ := dp.Attributes.Value(attribute.Key(constant.AttrTransactionOutcome))

		if typ.AsString() == "withdrawal" && outcome.AsString() == string(transaction.ErrorInsufficientFunds) {
			rejectedWithdrawals += dp.Value
		}
	}

	assert.Equal(t, int64(1), rejectedWithdrawals)

	gauge, ok := find(metrics.MetricLedgerAccounts.Name).Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(2), gauge.DataPoints[0].Value)
}

func TestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	l := New(WithTracer(provider.Tracer("ledger-test")))

	_ = l.ProcessAll(context.Background(), []transaction.Operation{
		transaction.NewDeposit(1, 1, d("5")),
		transaction.NewDispute(1, 2),
	})

	spans := recorder.Ended()
	require.Len(t, spans, 3)

	assert.Equal(t, "ledger.process", spans[0].Name())
	assert.Empty(t, spans[0].Events())

	assert.Equal(t, "ledger.process", spans[1].Name())
	require.Len(t, spans[1].Events(), 1)
	assert.Equal(t, constant.EventOperationRejected, spans[1].Events()[0].Name)
	assert.Equal(t, spans[2].SpanContext().SpanID(), spans[1].Parent().SpanID())

	assert.Equal(t, "ledger.process_all", spans[2].Name())
}

func TestNilOptionsKeepDefaults(t *testing.T) {
	l := New(WithLogger(nil), WithTracer(nil), WithMetricsFactory(nil), WithAsserter(nil))

	require.NotNil(t, l.logger)
	require.NotNil(t, l.tracer)
	require.NotNil(t, l.metrics)
	require.NotNil(t, l.asserter)
	assert.NoError(t, l.Process(context.Background(), transaction.NewDeposit(1, 1, d("1"))))
}
