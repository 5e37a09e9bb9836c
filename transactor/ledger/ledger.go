package ledger

import (
	"context"
	"errors"
	"slices"
	"time"

	"github.com/LerianStudio/lib-transactor/transactor/account"
	"github.com/LerianStudio/lib-transactor/transactor/assert"
	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/opentelemetry/metrics"
	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const component = "ledger"

// Ledger maps client ids to accounts, creating them on first reference.
type Ledger struct {
	accounts map[uint16]*account.Account
	logger   log.Logger
	tracer   trace.Tracer
	metrics  *metrics.MetricsFactory
	asserter *assert.Asserter
}

// Rejection is an operation the ledger refused, with its position in the batch.
type Rejection struct {
	Index     int
	Operation transaction.Operation
	Err       error
}

// Result summarises a batch applied with ProcessAll.
type Result struct {
	Processed  int
	Rejections []Rejection
	Accounts   []account.Snapshot
}

// New creates an empty ledger.
func New(opts ...Option) *Ledger {
	l := &Ledger{
		accounts: make(map[uint16]*account.Account),
		logger:   log.NewNop(),
		tracer:   noop.NewTracerProvider().Tracer(component),
		metrics:  metrics.NewNopFactory(),
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.asserter == nil {
		l.asserter = assert.New(l.logger, component, "process").WithMetrics(l.metrics)
	}

	return l
}

// Process applies op to the account of op.Client and returns the transition's error.
// A malformed operation is rejected before any account is created.
func (l *Ledger) Process(ctx context.Context, op transaction.Operation) error {
	ctx, span := l.tracer.Start(ctx, "ledger.process", trace.WithAttributes(
		attribute.String(constant.AttrTransactionType, string(op.Type)),
		attribute.Int(constant.AttrClientID, int(op.Client)),
		attribute.Int64(constant.AttrTransactionID, int64(op.Tx)),
	))
	defer span.End()

	err := op.Validate()
	if err == nil {
		err = l.apply(ctx, op)
	}

	l.record(ctx, span, op, err)

	return err
}

func (l *Ledger) apply(ctx context.Context, op transaction.Operation) error {
	acc := l.accountFor(ctx, op.Client)

	err := acc.Apply(op)

	if assertErr := l.asserter.That(ctx, acc.Balanced(), "total must equal available + held",
		"client", op.Client, "tx", op.Tx, "type", op.Type); assertErr != nil {
		return errors.Join(err, assertErr)
	}

	if err == nil && op.Type == transaction.TypeChargeback {
		l.logger.Log(ctx, log.LevelInfo, "account locked by chargeback",
			log.Uint32("client", uint32(op.Client)), log.Uint32("tx", op.Tx))

		if mErr := l.metrics.RecordAccountLocked(ctx); mErr != nil {
			l.logger.Log(ctx, log.LevelWarn, "failed to record account lock", log.Err(mErr))
		}
	}

	return err
}

func (l *Ledger) accountFor(ctx context.Context, client uint16) *account.Account {
	if acc, ok := l.accounts[client]; ok {
		return acc
	}

	acc := account.New()
	l.accounts[client] = acc

	if err := l.metrics.RecordAccountCreated(ctx); err != nil {
		l.logger.Log(ctx, log.LevelWarn, "failed to record account creation", log.Err(err))
	}

	return acc
}

func (l *Ledger) record(ctx context.Context, span trace.Span, op transaction.Operation, err error) {
	outcome := constant.OutcomeAccepted

	if err != nil {
		outcome = "error"
		if code, ok := transaction.CodeOf(err); ok {
			outcome = string(code)
		}

		span.AddEvent(constant.EventOperationRejected, trace.WithAttributes(
			attribute.String(constant.AttrTransactionOutcome, outcome),
		))

		if errors.Is(err, assert.ErrAssertionFailed) {
			span.SetStatus(codes.Error, err.Error())
		}

		l.logger.Log(ctx, log.LevelDebug, "operation rejected",
			log.String("operation", op.String()), log.String("code", outcome), log.Err(err))
	}

	if mErr := l.metrics.RecordTransactionProcessed(ctx, string(op.Type), outcome); mErr != nil {
		l.logger.Log(ctx, log.LevelWarn, "failed to record processed operation", log.Err(mErr))
	}
}

// ProcessAll applies ops in order and collects every rejection.
// Processing never stops early.
func (l *Ledger) ProcessAll(ctx context.Context, ops []transaction.Operation) Result {
	start := time.Now()

	ctx, span := l.tracer.Start(ctx, "ledger.process_all", trace.WithAttributes(
		attribute.Int(constant.AttrBatchSize, len(ops)),
	))
	defer span.End()

	result := Result{Processed: len(ops)}

	for i, op := range ops {
		if err := l.Process(ctx, op); err != nil {
			result.Rejections = append(result.Rejections, Rejection{Index: i, Operation: op, Err: err})
		}
	}

	result.Accounts = l.Snapshots()

	span.SetAttributes(attribute.Int("transaction.rejected_count", len(result.Rejections)))

	if err := l.metrics.RecordBatch(ctx, len(ops), time.Since(start)); err != nil {
		l.logger.Log(ctx, log.LevelWarn, "failed to record batch", log.Err(err))
	}

	if err := l.metrics.RecordLedgerAccounts(ctx, len(l.accounts)); err != nil {
		l.logger.Log(ctx, log.LevelWarn, "failed to record ledger size", log.Err(err))
	}

	return result
}

// Accounts returns a snapshot of every account keyed by client id.
func (l *Ledger) Accounts() map[uint16]account.Snapshot {
	out := make(map[uint16]account.Snapshot, len(l.accounts))
	for client, acc := range l.accounts {
		out[client] = acc.Snapshot(client)
	}

	return out
}

// Snapshots returns every account ordered by client id.
func (l *Ledger) Snapshots() []account.Snapshot {
	out := make([]account.Snapshot, 0, len(l.accounts))
	for client, acc := range l.accounts {
		out = append(out, acc.Snapshot(client))
	}

	slices.SortFunc(out, func(a, b account.Snapshot) int {
		return int(a.Client) - int(b.Client)
	})

	return out
}

// Snapshot returns the account of client, if it exists.
func (l *Ledger) Snapshot(client uint16) (account.Snapshot, bool) {
	acc, ok := l.accounts[client]
	if !ok {
		return account.Snapshot{}, false
	}

	return acc.Snapshot(client), true
}

// Len returns the number of accounts.
func (l *Ledger) Len() int {
	return len(l.accounts)
}
