package rpc

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/LerianStudio/lib-transactor/transactor"
	"github.com/LerianStudio/lib-transactor/transactor/ledger"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// DefaultMaxBatchSize bounds the number of operations accepted in one call.
const DefaultMaxBatchSize = 100000

// Processor implements ProcessServer. Every call runs on a fresh ledger.
type Processor struct {
	MaxBatchSize  int
	LedgerOptions []ledger.Option
}

var _ ProcessServer = (*Processor)(nil)

// Process validates the whole request, applies it in order and returns the
// final accounts. Invalid input fails the call with codes.InvalidArgument
// before any operation runs.
func (p *Processor) Process(ctx context.Context, in *Transactions) (*Accounts, error) {
	logger, tracer, _, factory := transactor.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "rpc.process")
	defer span.End()

	if in == nil {
		in = &Transactions{}
	}

	maxBatch := p.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}

	if len(in.Transactions) > maxBatch {
		return nil, status.Errorf(codes.ResourceExhausted, "batch holds %d operations, limit is %d", len(in.Transactions), maxBatch)
	}

	ops := make([]transaction.Operation, len(in.Transactions))

	for i, t := range in.Transactions {
		op, err := t.Operation()
		if err != nil {
			logger.Log(ctx, log.LevelWarn, "invalid transaction", log.Int("index", i), log.Err(err))

			return nil, status.Errorf(codes.InvalidArgument, "transactions[%d]: %v", i, err)
		}

		ops[i] = op
	}

	opts := append([]ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithTracer(tracer),
		ledger.WithMetricsFactory(factory),
	}, p.LedgerOptions...)

	result := ledger.New(opts...).ProcessAll(ctx, ops)

	logger.Log(ctx, log.LevelInfo, "batch processed",
		log.Int("operations", result.Processed),
		log.Int("rejections", len(result.Rejections)))

	return newAccounts(result), nil
}

// ErrInvalidTransaction marks a request item that cannot become an operation.
var ErrInvalidTransaction = errors.New("invalid transaction")

// Operation converts t into a ledger operation.
func (t Transaction) Operation() (transaction.Operation, error) {
	typ, err := transaction.TypeFromIndex(t.Type)
	if err != nil {
		return transaction.Operation{}, fmt.Errorf("%w: %w", ErrInvalidTransaction, err)
	}

	client, ok := transactor.SafeUint32ToUint16(t.Client)
	if !ok {
		return transaction.Operation{}, fmt.Errorf("%w: client %d exceeds 65535", ErrInvalidTransaction, t.Client)
	}

	op := transaction.Operation{Type: typ, Client: client, Tx: t.Tx}

	if t.Amount != "" {
		amount, err := decimal.NewFromString(t.Amount)
		if err != nil {
			return transaction.Operation{}, fmt.Errorf("%w: amount %q: %w", ErrInvalidTransaction, t.Amount, err)
		}

		if amount.IsNegative() {
			return transaction.Operation{}, fmt.Errorf("%w: negative amount %q", ErrInvalidTransaction, t.Amount)
		}

		op.Amount = &amount
	}

	return op, nil
}

func newAccounts(result ledger.Result) *Accounts {
	out := &Accounts{Accounts: make([]Account, 0, len(result.Accounts))}

	for _, s := range result.Accounts {
		out.Accounts = append(out.Accounts, Account{
			Client:    uint32(s.Client),
			Available: s.Available.String(),
			Held:      s.Held.String(),
			Total:     s.Total.String(),
			Locked:    s.Locked,
		})
	}

	for _, r := range result.Rejections {
		rej := Rejection{
			Index:   int32(r.Index),
			Client:  uint32(r.Operation.Client),
			Tx:      r.Operation.Tx,
			Type:    int32(slices.Index(transaction.Types, r.Operation.Type)),
			Message: r.Err.Error(),
		}

		if code, ok := transaction.CodeOf(r.Err); ok {
			rej.Code = string(code)
		}

		out.Rejections = append(out.Rejections, rej)
	}

	return out
}

// ServerConfig configures NewServer.
type ServerConfig struct {
	Logger       log.Logger
	Interceptors []grpc.UnaryServerInterceptor
	MaxBatchSize int
}

// NewServer returns a gRPC server with processor.Process registered. The
// logging interceptor runs first and panic recovery last, with
// cfg.Interceptors in between.
func NewServer(cfg ServerConfig, opts ...grpc.ServerOption) *grpc.Server {
	chain := make([]grpc.UnaryServerInterceptor, 0, len(cfg.Interceptors)+2)
	chain = append(chain, WithGrpcLogging(WithCustomLogger(cfg.Logger)))
	chain = append(chain, cfg.Interceptors...)
	chain = append(chain, WithRecovery())

	s := grpc.NewServer(append(opts, grpc.ChainUnaryInterceptor(chain...))...)

	RegisterProcessServer(s, &Processor{MaxBatchSize: cfg.MaxBatchSize})

	return s
}
