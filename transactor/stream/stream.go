package stream

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/LerianStudio/lib-transactor/transactor/account"
	"github.com/LerianStudio/lib-transactor/transactor/csv"
	"github.com/LerianStudio/lib-transactor/transactor/ledger"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/transaction"
)

// Summary counts what happened to the records of one run.
type Summary struct {
	// Processed is the number of decoded operations handed to the ledger.
	Processed int
	// Rejected is the number of operations the ledger refused.
	Rejected int
	// Skipped is the number of records that could not be decoded.
	Skipped  int
	Accounts []account.Snapshot
}

// Option configures Process.
type Option func(*config)

type config struct {
	logger        log.Logger
	ledgerOptions []ledger.Option
}

// WithLogger sets the logger used for skipped and rejected records.
func WithLogger(logger log.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLedgerOptions passes options to the ledger built for the run.
func WithLedgerOptions(opts ...ledger.Option) Option {
	return func(c *config) {
		c.ledgerOptions = append(c.ledgerOptions, opts...)
	}
}

// Process decodes operations from r, applies them in order and writes the
// report for every account, sorted by client id, to w. Malformed records and
// rejected operations are logged and counted. Only I/O failures are returned.
func Process(ctx context.Context, r io.Reader, w io.Writer, opts ...Option) (Summary, error) {
	cfg := &config{logger: log.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	l := ledger.New(append([]ledger.Option{ledger.WithLogger(cfg.logger)}, cfg.ledgerOptions...)...)
	dec := csv.NewDecoder(r)

	var summary Summary

	for {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		op, err := dec.Next()
		if errors.Is(err, io.EOF) {
			break
		}

		var recErr *csv.RecordError
		if errors.As(err, &recErr) {
			summary.Skipped++

			cfg.logger.Log(ctx, log.LevelWarn, "skipping malformed record",
				log.Int("line", recErr.Line), log.Err(recErr.Err))

			continue
		}

		if err != nil {
			return summary, fmt.Errorf("read operations: %w", err)
		}

		summary.Processed++

		if err := l.Process(ctx, op); err != nil {
			summary.Rejected++

			logRejection(ctx, cfg.logger, op, err)
		}
	}

	summary.Accounts = l.Snapshots()

	if err := csv.WriteReport(w, summary.Accounts); err != nil {
		return summary, fmt.Errorf("write report: %w", err)
	}

	cfg.logger.Log(ctx, log.LevelInfo, "operations processed",
		log.Int("processed", summary.Processed),
		log.Int("rejected", summary.Rejected),
		log.Int("skipped", summary.Skipped),
		log.Int("accounts", len(summary.Accounts)))

	return summary, nil
}

func logRejection(ctx context.Context, logger log.Logger, op transaction.Operation, err error) {
	code := "unknown"
	if c, ok := transaction.CodeOf(err); ok {
		code = string(c)
	}

	logger.Log(ctx, log.LevelWarn, "operation rejected",
		log.String("type", string(op.Type)),
		log.Uint32("client", uint32(op.Client)),
		log.Uint32("tx", op.Tx),
		log.String("code", code),
		log.Err(err))
}
