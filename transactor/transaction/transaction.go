package transaction

import (
	"errors"
	"fmt"
	"strings"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/shopspring/decimal"
)

// ErrUnknownType is returned by ParseType for tags outside the five supported kinds.
// It is a decoding error and never carries a domain error code.
var ErrUnknownType = errors.New("unknown transaction type")

// Type is the kind of an operation.
type Type string

const (
	// TypeDeposit credits available funds and records the amount for later disputes.
	TypeDeposit Type = constant.DEPOSIT
	// TypeWithdrawal debits available funds.
	TypeWithdrawal Type = constant.WITHDRAWAL
	// TypeDispute moves a recorded deposit from available to held.
	TypeDispute Type = constant.DISPUTE
	// TypeResolve releases a disputed deposit back to available.
	TypeResolve Type = constant.RESOLVE
	// TypeChargeback removes a disputed deposit and locks the account.
	TypeChargeback Type = constant.CHARGEBACK
)

// Types lists every supported kind in wire order (deposit=0 ... chargeback=4).
var Types = []Type{TypeDeposit, TypeWithdrawal, TypeDispute, TypeResolve, TypeChargeback}

// ParseType maps a textual tag to a Type. Matching is case-insensitive and ignores
// surrounding whitespace.
func ParseType(tag string) (Type, error) {
	candidate := Type(strings.ToLower(strings.TrimSpace(tag)))
	if candidate.Valid() {
		return candidate, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownType, tag)
}

// TypeFromIndex maps the numeric wire tag used by the gRPC surface to a Type.
func TypeFromIndex(index int32) (Type, error) {
	if index < 0 || int(index) >= len(Types) {
		return "", fmt.Errorf("%w: %d", ErrUnknownType, index)
	}

	return Types[index], nil
}

// Valid reports whether t is one of the five supported kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeDispute, TypeResolve, TypeChargeback:
		return true
	default:
		return false
	}
}

// RequiresAmount reports whether operations of this kind must carry an amount.
func (t Type) RequiresAmount() bool {
	return t == TypeDeposit || t == TypeWithdrawal
}

// Operation is a single validated request addressed to one client account.
// Amount is nil when absent.
type Operation struct {
	Type   Type             `json:"type"`
	Client uint16           `json:"client"`
	Tx     uint32           `json:"tx"`
	Amount *decimal.Decimal `json:"amount,omitempty"`
}

// NewDeposit builds a deposit operation.
func NewDeposit(client uint16, tx uint32, amount decimal.Decimal) Operation {
	return Operation{Type: TypeDeposit, Client: client, Tx: tx, Amount: &amount}
}

// NewWithdrawal builds a withdrawal operation.
func NewWithdrawal(client uint16, tx uint32, amount decimal.Decimal) Operation {
	return Operation{Type: TypeWithdrawal, Client: client, Tx: tx, Amount: &amount}
}

// NewDispute builds a dispute operation.
func NewDispute(client uint16, tx uint32) Operation {
	return Operation{Type: TypeDispute, Client: client, Tx: tx}
}

// NewResolve builds a resolve operation.
func NewResolve(client uint16, tx uint32) Operation {
	return Operation{Type: TypeResolve, Client: client, Tx: tx}
}

// NewChargeback builds a chargeback operation.
func NewChargeback(client uint16, tx uint32) Operation {
	return Operation{Type: TypeChargeback, Client: client, Tx: tx}
}

// Validate checks the operation shape before it reaches any account.
// Every failure is a MalformedOperation domain error.
func (op Operation) Validate() error {
	if !op.Type.Valid() {
		return NewDomainError(ErrorMalformedOperation, "type", fmt.Sprintf("unsupported operation type %q", op.Type))
	}

	if op.Type.RequiresAmount() {
		if op.Amount == nil {
			return NewDomainError(ErrorMalformedOperation, "amount", string(op.Type)+" requires an amount")
		}

		if op.Amount.IsNegative() {
			return NewDomainError(ErrorMalformedOperation, "amount", "amount must not be negative")
		}

		return nil
	}

	if op.Amount != nil {
		return NewDomainError(ErrorMalformedOperation, "amount", string(op.Type)+" must not carry an amount")
	}

	return nil
}

// String renders the operation for log messages.
func (op Operation) String() string {
	if op.Amount == nil {
		return fmt.Sprintf("%s client=%d tx=%d", op.Type, op.Client, op.Tx)
	}

	return fmt.Sprintf("%s client=%d tx=%d amount=%s", op.Type, op.Client, op.Tx, op.Amount.String())
}
