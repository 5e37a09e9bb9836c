package account

import (
	"fmt"

	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"github.com/shopspring/decimal"
)

// DisputeState is the per-transaction sub-state of a recorded deposit.
type DisputeState uint8

const (
	// StateNormal marks a deposit that is not under dispute.
	StateNormal DisputeState = iota
	// StateDisputed marks a deposit whose amount is currently held.
	StateDisputed
)

// String returns the textual name of the dispute state.
func (s DisputeState) String() string {
	switch s {
	case StateNormal:
		return "normal"
	case StateDisputed:
		return "disputed"
	default:
		return "unknown"
	}
}

// Record is the history entry kept for each deposit.
type Record struct {
	Amount decimal.Decimal
	State  DisputeState
}

// Account holds one client's balances and deposit history.
// The zero value is not usable; create accounts with New.
type Account struct {
	available decimal.Decimal
	held      decimal.Decimal
	total     decimal.Decimal
	locked    bool
	history   map[uint32]Record
}

// New creates an unlocked account with zero balances and an empty history.
func New() *Account {
	return &Account{
		available: decimal.Zero,
		held:      decimal.Zero,
		total:     decimal.Zero,
		history:   make(map[uint32]Record),
	}
}

// Available returns the funds free to withdraw or dispute.
func (a *Account) Available() decimal.Decimal { return a.available }

// Held returns the funds frozen by open disputes.
func (a *Account) Held() decimal.Decimal { return a.held }

// Total returns available plus held, maintained incrementally.
func (a *Account) Total() decimal.Decimal { return a.total }

// Locked reports whether a chargeback has locked the account.
func (a *Account) Locked() bool { return a.locked }

// Lookup returns the history entry for tx.
func (a *Account) Lookup(tx uint32) (Record, bool) {
	record, ok := a.history[tx]

	return record, ok
}

// Balanced reports whether total == available + held.
func (a *Account) Balanced() bool {
	return a.total.Equal(a.available.Add(a.held))
}

// Apply validates op and dispatches it to the matching transition.
// The client id of op is not checked; routing is the ledger's concern.
func (a *Account) Apply(op transaction.Operation) error {
	if err := op.Validate(); err != nil {
		return err
	}

	switch op.Type {
	case transaction.TypeDeposit:
		return a.Deposit(op.Tx, *op.Amount)
	case transaction.TypeWithdrawal:
		return a.Withdraw(op.Tx, *op.Amount)
	case transaction.TypeDispute:
		return a.Dispute(op.Tx)
	case transaction.TypeResolve:
		return a.Resolve(op.Tx)
	case transaction.TypeChargeback:
		return a.Chargeback(op.Tx)
	}

	return transaction.NewDomainError(transaction.ErrorMalformedOperation, "type", fmt.Sprintf("unsupported operation type %q", op.Type))
}

// Deposit credits amount and records it under tx.
// Reusing an existing tx overwrites its history entry.
func (a *Account) Deposit(tx uint32, amount decimal.Decimal) error {
	if a.locked {
		return errLocked()
	}

	a.available = a.available.Add(amount)
	a.total = a.total.Add(amount)
	a.history[tx] = Record{Amount: amount, State: StateNormal}

	return nil
}

// Withdraw debits amount when enough funds are available.
// Withdrawals are not recorded and cannot be disputed.
func (a *Account) Withdraw(_ uint32, amount decimal.Decimal) error {
	if a.locked {
		return errLocked()
	}

	if a.available.LessThan(amount) {
		return transaction.NewInsufficientFunds(amount.Sub(a.available))
	}

	a.available = a.available.Sub(amount)
	a.total = a.total.Sub(amount)

	return nil
}

// Dispute moves the amount of deposit tx from available to held.
func (a *Account) Dispute(tx uint32) error {
	record, err := a.lookupActive(tx)
	if err != nil {
		return err
	}

	if record.State == StateDisputed {
		return transaction.NewDomainError(transaction.ErrorAlreadyDisputed, "tx", fmt.Sprintf("transaction %d is already disputed", tx))
	}

	a.available = a.available.Sub(record.Amount)
	a.held = a.held.Add(record.Amount)
	a.history[tx] = Record{Amount: record.Amount, State: StateDisputed}

	return nil
}

// Resolve releases the held amount of disputed deposit tx back to available.
func (a *Account) Resolve(tx uint32) error {
	record, err := a.lookupDisputed(tx)
	if err != nil {
		return err
	}

	a.held = a.held.Sub(record.Amount)
	a.available = a.available.Add(record.Amount)
	a.history[tx] = Record{Amount: record.Amount, State: StateNormal}

	return nil
}

// Chargeback removes the held amount of disputed deposit tx and locks the account.
func (a *Account) Chargeback(tx uint32) error {
	record, err := a.lookupDisputed(tx)
	if err != nil {
		return err
	}

	a.held = a.held.Sub(record.Amount)
	a.total = a.total.Sub(record.Amount)
	a.history[tx] = Record{Amount: record.Amount, State: StateNormal}
	a.locked = true

	return nil
}

func (a *Account) lookupActive(tx uint32) (Record, error) {
	if a.locked {
		return Record{}, errLocked()
	}

	record, ok := a.history[tx]
	if !ok {
		return Record{}, transaction.NewDomainError(transaction.ErrorNoTransaction, "tx", fmt.Sprintf("transaction %d not found", tx))
	}

	return record, nil
}

func (a *Account) lookupDisputed(tx uint32) (Record, error) {
	record, err := a.lookupActive(tx)
	if err != nil {
		return Record{}, err
	}

	if record.State != StateDisputed {
		return Record{}, transaction.NewDomainError(transaction.ErrorNotDisputed, "tx", fmt.Sprintf("transaction %d is not disputed", tx))
	}

	return record, nil
}

func errLocked() error {
	return transaction.NewDomainError(transaction.ErrorAccountLocked, "", "account is locked")
}
