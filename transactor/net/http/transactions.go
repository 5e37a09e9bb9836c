package http

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/LerianStudio/lib-transactor/transactor"
	"github.com/LerianStudio/lib-transactor/transactor/account"
	"github.com/LerianStudio/lib-transactor/transactor/ledger"
	"github.com/LerianStudio/lib-transactor/transactor/log"
	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

// DefaultMaxBatchSize bounds the number of operations accepted in one request.
const DefaultMaxBatchSize = 100000

const entityAccount = "Account"

// TransactionInput is one operation of a batch request.
type TransactionInput struct {
	Type   string  `json:"type" validate:"required,oneof=deposit withdrawal dispute resolve chargeback"`
	Client *uint32 `json:"client" validate:"required,lte=65535"`
	Tx     *uint32 `json:"tx" validate:"required"`
	Amount string  `json:"amount,omitempty" validate:"omitempty,nonnegative_amount"`
}

// ProcessRequest is the body of POST /v1/transactions/process.
type ProcessRequest struct {
	Transactions []TransactionInput `json:"transactions" validate:"dive"`
}

// AccountOutput is one account of the response, decimals rendered as text.
type AccountOutput struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// RejectionOutput describes an operation the ledger refused.
type RejectionOutput struct {
	Index   int    `json:"index"`
	Client  uint16 `json:"client"`
	Tx      uint32 `json:"tx"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

// ProcessResponse is the body answered by POST /v1/transactions/process.
type ProcessResponse struct {
	Accounts   []AccountOutput   `json:"accounts"`
	Rejections []RejectionOutput `json:"rejections"`
}

// TransactionHandler serves the batch endpoint.
type TransactionHandler struct {
	MaxBatchSize  int
	LedgerOptions []ledger.Option
}

// Operation converts a validated input into a ledger operation.
func (in TransactionInput) Operation() (transaction.Operation, error) {
	typ, err := transaction.ParseType(in.Type)
	if err != nil {
		return transaction.Operation{}, err
	}

	if in.Client == nil || in.Tx == nil {
		return transaction.Operation{}, ErrFieldRequired
	}

	client, ok := transactor.SafeUint32ToUint16(*in.Client)
	if !ok {
		return transaction.Operation{}, fmt.Errorf("%w: 'client' must be at most 65535", ErrFieldLessThanOrEqual)
	}

	op := transaction.Operation{Type: typ, Client: client, Tx: *in.Tx}

	if in.Amount != "" {
		amount, err := decimal.NewFromString(in.Amount)
		if err != nil {
			return transaction.Operation{}, fmt.Errorf("%w: 'amount'", ErrFieldNonNegativeAmount)
		}

		op.Amount = &amount
	}

	return op, nil
}

// Process applies the batch in the request body to a fresh ledger.
//
// @Summary	Process a batch of operations
// @Accept		json
// @Produce	json
// @Param		request	body		ProcessRequest	true	"Operations in order"
// @Success	200		{object}	ProcessResponse
// @Failure	400		{object}	ErrorResponse
// @Failure	413		{object}	ErrorResponse
// @Router		/v1/transactions/process [post]
func (h *TransactionHandler) Process(c *fiber.Ctx) error {
	ctx := c.UserContext()
	logger, tracer, reqID, factory := transactor.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.process_transactions")
	defer span.End()

	var req ProcessRequest
	if err := ParseBodyAndValidate(c, &req); err != nil {
		logger.Log(ctx, log.LevelWarn, "invalid batch request", log.Err(err))

		return BadRequestError(c, "invalid_request", err.Error())
	}

	maxBatch := h.MaxBatchSize
	if maxBatch <= 0 {
		maxBatch = DefaultMaxBatchSize
	}

	if len(req.Transactions) > maxBatch {
		return RequestEntityTooLargeError(c, "batch_too_large",
			"batch holds "+strconv.Itoa(len(req.Transactions))+" operations, limit is "+strconv.Itoa(maxBatch))
	}

	ops := make([]transaction.Operation, len(req.Transactions))

	for i, in := range req.Transactions {
		op, err := in.Operation()
		if err != nil {
			return BadRequestError(c, "invalid_request", fmt.Sprintf("transactions[%d]: %v", i, err))
		}

		ops[i] = op
	}

	opts := append([]ledger.Option{
		ledger.WithLogger(logger),
		ledger.WithTracer(tracer),
		ledger.WithMetricsFactory(factory),
	}, h.LedgerOptions...)

	result := ledger.New(opts...).ProcessAll(ctx, ops)

	logger.Log(ctx, log.LevelInfo, "batch processed",
		log.String("request_id", reqID),
		log.Int("operations", result.Processed),
		log.Int("rejections", len(result.Rejections)))

	return OK(c, NewProcessResponse(result))
}

// NewProcessResponse renders a ledger result.
func NewProcessResponse(result ledger.Result) ProcessResponse {
	resp := ProcessResponse{
		Accounts:   make([]AccountOutput, 0, len(result.Accounts)),
		Rejections: make([]RejectionOutput, 0, len(result.Rejections)),
	}

	for _, s := range result.Accounts {
		resp.Accounts = append(resp.Accounts, newAccountOutput(s))
	}

	for _, r := range result.Rejections {
		resp.Rejections = append(resp.Rejections, newRejectionOutput(r))
	}

	return resp
}

func newAccountOutput(s account.Snapshot) AccountOutput {
	return AccountOutput{
		Client:    s.Client,
		Available: s.Available.String(),
		Held:      s.Held.String(),
		Total:     s.Total.String(),
		Locked:    s.Locked,
	}
}

func newRejectionOutput(r ledger.Rejection) RejectionOutput {
	out := RejectionOutput{
		Index:   r.Index,
		Client:  r.Operation.Client,
		Tx:      r.Operation.Tx,
		Type:    string(r.Operation.Type),
		Message: r.Err.Error(),
	}

	var business transactor.Response
	if errors.As(transactor.ValidateBusinessError(r.Err, entityAccount), &business) {
		out.Code = business.Code
		out.Title = business.Title
		out.Message = business.Message
	}

	return out
}
