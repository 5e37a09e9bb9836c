package transactor

import (
	"errors"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
)

// Response is a business error as reported to remote callers.
type Response struct {
	EntityType string `json:"entityType,omitempty"`
	Title      string `json:"title,omitempty"`
	Message    string `json:"message,omitempty"`
	Code       string `json:"code,omitempty"`
	Err        error  `json:"-"`
}

func (e Response) Error() string {
	return e.Message
}

// Unwrap returns the wrapped error.
func (e Response) Unwrap() error {
	return e.Err
}

type businessError struct {
	title   string
	message string
}

var businessErrors = map[error]businessError{
	constant.ErrInsufficientFunds: {
		title:   "Insufficient Funds Response",
		message: "The withdrawal could not be completed due to insufficient available funds in the account.",
	},
	constant.ErrNoTransaction: {
		title:   "Transaction Not Found",
		message: "The referenced transaction does not exist for this client. Disputes, resolves and chargebacks can only reference an earlier deposit.",
	},
	constant.ErrAlreadyDisputed: {
		title:   "Transaction Already Disputed",
		message: "The referenced transaction is already under dispute.",
	},
	constant.ErrNotDisputed: {
		title:   "Transaction Not Disputed",
		message: "The referenced transaction is not under dispute. Open a dispute before resolving or charging it back.",
	},
	constant.ErrAccountLocked: {
		title:   "Account Locked",
		message: "The account was locked by a chargeback and rejects every further operation.",
	},
	constant.ErrMalformedOperation: {
		title:   "Malformed Operation",
		message: "Deposits and withdrawals require an amount; disputes, resolves and chargebacks must not carry one.",
	},
}

// ValidateBusinessError maps err to a Response when it wraps a known domain
// sentinel. Other errors are returned unchanged.
func ValidateBusinessError(err error, entityType string) error {
	if err == nil {
		return nil
	}

	for sentinel, be := range businessErrors {
		if errors.Is(err, sentinel) {
			return Response{
				EntityType: entityType,
				Code:       sentinel.Error(),
				Title:      be.title,
				Message:    be.message,
				Err:        err,
			}
		}
	}

	return err
}
