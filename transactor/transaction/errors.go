package transaction

import (
	"errors"
	"fmt"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/shopspring/decimal"
)

// ErrorCode is a domain error code reported by account transitions.
type ErrorCode string

const (
	// ErrorInsufficientFunds indicates a withdrawal exceeds available funds.
	ErrorInsufficientFunds ErrorCode = "0018"
	// ErrorNoTransaction indicates the referenced transaction is unknown for the client.
	ErrorNoTransaction ErrorCode = "0101"
	// ErrorAlreadyDisputed indicates the transaction is already under dispute.
	ErrorAlreadyDisputed ErrorCode = "0102"
	// ErrorNotDisputed indicates the transaction is not under dispute.
	ErrorNotDisputed ErrorCode = "0103"
	// ErrorAccountLocked indicates the account was locked by a chargeback.
	ErrorAccountLocked ErrorCode = "0104"
	// ErrorMalformedOperation indicates amount presence does not match the operation kind.
	ErrorMalformedOperation ErrorCode = "1001"
)

var sentinels = map[ErrorCode]error{
	ErrorInsufficientFunds:  constant.ErrInsufficientFunds,
	ErrorNoTransaction:      constant.ErrNoTransaction,
	ErrorAlreadyDisputed:    constant.ErrAlreadyDisputed,
	ErrorNotDisputed:        constant.ErrNotDisputed,
	ErrorAccountLocked:      constant.ErrAccountLocked,
	ErrorMalformedOperation: constant.ErrMalformedOperation,
}

// DomainError represents a structured, non-fatal rejection of one operation.
type DomainError struct {
	Code    ErrorCode
	Field   string
	Message string
	// Shortfall is set for ErrorInsufficientFunds: requested minus available.
	Shortfall decimal.Decimal
}

// Error returns the formatted domain error string.
func (e DomainError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}

	return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Field)
}

// Unwrap exposes the matching constant sentinel so errors.Is works across packages.
func (e DomainError) Unwrap() error {
	return sentinels[e.Code]
}

// NewDomainError creates a domain error with code, field, and message.
func NewDomainError(code ErrorCode, field, message string) error {
	return DomainError{Code: code, Field: field, Message: message}
}

// NewInsufficientFunds creates the withdrawal rejection carrying the shortfall.
func NewInsufficientFunds(shortfall decimal.Decimal) error {
	return DomainError{
		Code:      ErrorInsufficientFunds,
		Field:     "amount",
		Message:   "insufficient available funds, short by " + shortfall.String(),
		Shortfall: shortfall,
	}
}

// CodeOf extracts the domain error code from err, if any.
func CodeOf(err error) (ErrorCode, bool) {
	var domainErr DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code, true
	}

	return "", false
}
