package account

import (
	"errors"
	"testing"

	constant "github.com/LerianStudio/lib-transactor/transactor/constants"
	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertBalances(t *testing.T, acc *Account, available, held, total string) {
	t.Helper()

	assert.True(t, acc.Available().Equal(d(available)), "available: got %s want %s", acc.Available(), available)
	assert.True(t, acc.Held().Equal(d(held)), "held: got %s want %s", acc.Held(), held)
	assert.True(t, acc.Total().Equal(d(total)), "total: got %s want %s", acc.Total(), total)
	assert.True(t, acc.Balanced(), "total must equal available + held")
}

func requireCode(t *testing.T, err error, code transaction.ErrorCode) {
	t.Helper()

	require.Error(t, err)

	var domainErr transaction.DomainError
	require.True(t, errors.As(err, &domainErr), "expected DomainError, got %T", err)
	assert.Equal(t, code, domainErr.Code)
}

// ---------------------------------------------------------------------------
// Transitions
// ---------------------------------------------------------------------------

func TestNewAccountIsEmpty(t *testing.T) {
	acc := New()

	assertBalances(t, acc, "0", "0", "0")
	assert.False(t, acc.Locked())

	_, ok := acc.Lookup(1)
	assert.False(t, ok)
}

func TestDeposit(t *testing.T) {
	acc := New()

	require.NoError(t, acc.Deposit(1, d("100.50")))
	require.NoError(t, acc.Deposit(2, d("200.05")))

	assertBalances(t, acc, "300.55", "0", "300.55")

	record, ok := acc.Lookup(2)
	require.True(t, ok)
	assert.True(t, record.Amount.Equal(d("200.05")))
	assert.Equal(t, StateNormal, record.State)
}

func TestWithdraw(t *testing.T) {
	t.Run("sufficient funds", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100")))

		require.NoError(t, acc.Withdraw(2, d("40.25")))

		assertBalances(t, acc, "59.75", "0", "59.75")
	})

	t.Run("exact balance", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("10")))

		require.NoError(t, acc.Withdraw(2, d("10.0000")))

		assertBalances(t, acc, "0", "0", "0")
	})

	t.Run("insufficient funds reports shortfall and leaves balances", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))

		err := acc.Withdraw(2, d("200.00"))

		requireCode(t, err, transaction.ErrorInsufficientFunds)
		assert.ErrorIs(t, err, constant.ErrInsufficientFunds)

		var domainErr transaction.DomainError
		require.True(t, errors.As(err, &domainErr))
		assert.True(t, domainErr.Shortfall.Equal(d("100.00")))

		assertBalances(t, acc, "100", "0", "100")
	})

	t.Run("withdrawal is not recorded", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100")))
		require.NoError(t, acc.Withdraw(2, d("10")))

		_, ok := acc.Lookup(2)
		assert.False(t, ok)

		requireCode(t, acc.Dispute(2), transaction.ErrorNoTransaction)
		assertBalances(t, acc, "90", "0", "90")
	})
}

func TestDispute(t *testing.T) {
	t.Run("moves amount to held", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))

		require.NoError(t, acc.Dispute(1))

		assertBalances(t, acc, "0", "100", "100")

		record, _ := acc.Lookup(1)
		assert.Equal(t, StateDisputed, record.State)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))

		requireCode(t, acc.Dispute(2), transaction.ErrorNoTransaction)
		assertBalances(t, acc, "100", "0", "100")
	})

	t.Run("duplicate dispute", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))
		require.NoError(t, acc.Dispute(1))

		requireCode(t, acc.Dispute(1), transaction.ErrorAlreadyDisputed)
		assertBalances(t, acc, "0", "100", "100")
	})

	t.Run("after partial withdrawal available goes negative", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100")))
		require.NoError(t, acc.Withdraw(2, d("70")))

		require.NoError(t, acc.Dispute(1))

		assertBalances(t, acc, "-70", "100", "30")
	})
}

func TestResolve(t *testing.T) {
	t.Run("releases held funds", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))
		require.NoError(t, acc.Dispute(1))

		require.NoError(t, acc.Resolve(1))

		assertBalances(t, acc, "100", "0", "100")

		record, _ := acc.Lookup(1)
		assert.Equal(t, StateNormal, record.State)
	})

	t.Run("unknown transaction", func(t *testing.T) {
		acc := New()

		requireCode(t, acc.Resolve(9), transaction.ErrorNoTransaction)
	})

	t.Run("not disputed", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))

		requireCode(t, acc.Resolve(1), transaction.ErrorNotDisputed)
		assertBalances(t, acc, "100", "0", "100")
	})

	t.Run("second resolve is rejected", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("5")))
		require.NoError(t, acc.Dispute(1))
		require.NoError(t, acc.Resolve(1))

		requireCode(t, acc.Resolve(1), transaction.ErrorNotDisputed)
	})
}

func TestChargeback(t *testing.T) {
	t.Run("removes held funds and locks", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))
		require.NoError(t, acc.Deposit(2, d("200.00")))
		require.NoError(t, acc.Dispute(2))

		require.NoError(t, acc.Chargeback(2))

		assertBalances(t, acc, "100", "0", "100")
		assert.True(t, acc.Locked())

		record, _ := acc.Lookup(2)
		assert.Equal(t, StateNormal, record.State)
	})

	t.Run("without prior dispute", func(t *testing.T) {
		acc := New()
		require.NoError(t, acc.Deposit(1, d("100.00")))
		require.NoError(t, acc.Deposit(2, d("200.00")))

		requireCode(t, acc.Chargeback(2), transaction.ErrorNotDisputed)

		assertBalances(t, acc, "300", "0", "300")
		assert.False(t, acc.Locked())
	})

	t.Run("unknown transaction", func(t *testing.T) {
		acc := New()

		requireCode(t, acc.Chargeback(3), transaction.ErrorNoTransaction)
		assert.False(t, acc.Locked())
	})
}

func TestLockedAccountRejectsEverything(t *testing.T) {
	acc := New()
	require.NoError(t, acc.Deposit(1, d("100")))
	require.NoError(t, acc.Deposit(2, d("50")))
	require.NoError(t, acc.Dispute(1))
	require.NoError(t, acc.Dispute(2))
	require.NoError(t, acc.Chargeback(1))

	before := acc.Snapshot(1)

	ops := []func() error{
		func() error { return acc.Deposit(3, d("10")) },
		func() error { return acc.Withdraw(4, d("1")) },
		func() error { return acc.Dispute(2) },
		func() error { return acc.Resolve(2) },
		func() error { return acc.Chargeback(2) },
		func() error { return acc.Apply(transaction.NewDeposit(1, 5, d("1"))) },
	}

	for _, op := range ops {
		err := op()
		requireCode(t, err, transaction.ErrorAccountLocked)
		assert.ErrorIs(t, err, constant.ErrAccountLocked)
	}

	after := acc.Snapshot(1)
	assert.True(t, before.Available.Equal(after.Available))
	assert.True(t, before.Held.Equal(after.Held))
	assert.True(t, before.Total.Equal(after.Total))
	assert.Equal(t, before.Locked, after.Locked)

	_, ok := acc.Lookup(3)
	assert.False(t, ok, "deposit on a locked account must not be recorded")
}

// Reusing a deposit tx id silently replaces the earlier history entry; the
// balances keep both credits. This permissive behavior is intentional.
func TestDuplicateDepositOverwritesHistory(t *testing.T) {
	acc := New()
	require.NoError(t, acc.Deposit(1, d("100")))
	require.NoError(t, acc.Deposit(1, d("30")))

	assertBalances(t, acc, "130", "0", "130")

	record, ok := acc.Lookup(1)
	require.True(t, ok)
	assert.True(t, record.Amount.Equal(d("30")))

	require.NoError(t, acc.Dispute(1))
	assertBalances(t, acc, "100", "30", "130")
}

func TestDuplicateDepositResetsDisputeState(t *testing.T) {
	acc := New()
	require.NoError(t, acc.Deposit(1, d("10")))
	require.NoError(t, acc.Dispute(1))
	require.NoError(t, acc.Deposit(1, d("10")))

	record, _ := acc.Lookup(1)
	assert.Equal(t, StateNormal, record.State)
	assertBalances(t, acc, "10", "10", "20")
}

// ---------------------------------------------------------------------------
// Apply dispatch
// ---------------------------------------------------------------------------

func TestApply(t *testing.T) {
	amount := d("2.5")

	tests := []struct {
		name      string
		op        transaction.Operation
		errorCode transaction.ErrorCode
	}{
		{name: "deposit", op: transaction.NewDeposit(1, 10, d("5"))},
		{name: "withdrawal", op: transaction.NewWithdrawal(1, 11, d("1"))},
		{name: "withdrawal beyond funds", op: transaction.NewWithdrawal(1, 11, d("100")), errorCode: transaction.ErrorInsufficientFunds},
		{name: "dispute", op: transaction.NewDispute(1, 1)},
		{name: "resolve not disputed", op: transaction.NewResolve(1, 1), errorCode: transaction.ErrorNotDisputed},
		{name: "chargeback unknown", op: transaction.NewChargeback(1, 99), errorCode: transaction.ErrorNoTransaction},
		{name: "deposit without amount", op: transaction.Operation{Type: transaction.TypeDeposit, Tx: 12}, errorCode: transaction.ErrorMalformedOperation},
		{name: "dispute with amount", op: transaction.Operation{Type: transaction.TypeDispute, Tx: 1, Amount: &amount}, errorCode: transaction.ErrorMalformedOperation},
		{name: "unknown type", op: transaction.Operation{Type: "refund", Tx: 1}, errorCode: transaction.ErrorMalformedOperation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			acc := New()
			require.NoError(t, acc.Deposit(1, d("10")))

			before := acc.Snapshot(1)
			err := acc.Apply(tt.op)

			if tt.errorCode != "" {
				requireCode(t, err, tt.errorCode)

				after := acc.Snapshot(1)
				assert.True(t, before.Available.Equal(after.Available))
				assert.True(t, before.Held.Equal(after.Held))
				assert.True(t, before.Total.Equal(after.Total))

				return
			}

			require.NoError(t, err)
			assert.True(t, acc.Balanced())
		})
	}
}

func TestMalformedOperationOnLockedAccountReportsMalformed(t *testing.T) {
	acc := New()
	require.NoError(t, acc.Deposit(1, d("1")))
	require.NoError(t, acc.Dispute(1))
	require.NoError(t, acc.Chargeback(1))

	requireCode(t, acc.Apply(transaction.Operation{Type: transaction.TypeWithdrawal, Tx: 2}), transaction.ErrorMalformedOperation)
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

func TestDisputeResolveRoundTrip(t *testing.T) {
	acc := New()
	require.NoError(t, acc.Deposit(1, d("12.3456")))
	require.NoError(t, acc.Deposit(2, d("7.0001")))
	require.NoError(t, acc.Withdraw(3, d("0.5")))

	before := acc.Snapshot(1)

	for range 3 {
		require.NoError(t, acc.Dispute(1))
		require.NoError(t, acc.Resolve(1))
	}

	after := acc.Snapshot(1)
	assert.True(t, before.Available.Equal(after.Available))
	assert.True(t, before.Held.Equal(after.Held))
	assert.True(t, before.Total.Equal(after.Total))
	assert.False(t, after.Locked)
}

func TestRepeatedSmallDepositsSumExactly(t *testing.T) {
	const n = 10_001

	acc := New()
	step := d("0.0001")

	for i := range n {
		require.NoError(t, acc.Deposit(uint32(i), step))
	}

	expected := step.Mul(decimal.NewFromInt(n))
	assert.True(t, acc.Available().Equal(expected), "got %s want %s", acc.Available(), expected)
	assert.Equal(t, "1.0001", acc.Total().String())
	assert.True(t, acc.Balanced())
}

func TestInvariantHoldsAcrossMixedSequence(t *testing.T) {
	acc := New()

	steps := []transaction.Operation{
		transaction.NewDeposit(1, 1, d("10.1234")),
		transaction.NewDeposit(1, 2, d("3.3333")),
		transaction.NewWithdrawal(1, 3, d("1.0001")),
		transaction.NewDispute(1, 2),
		transaction.NewWithdrawal(1, 4, d("100")),
		transaction.NewDispute(1, 2),
		transaction.NewResolve(1, 2),
		transaction.NewDispute(1, 1),
		transaction.NewChargeback(1, 1),
		transaction.NewDeposit(1, 5, d("1")),
	}

	for _, op := range steps {
		_ = acc.Apply(op)
		require.True(t, acc.Balanced(), "invariant broken after %s", op)
	}

	assertBalances(t, acc, "2.3332", "0", "2.3332")
	assert.True(t, acc.Locked())
}

func TestSnapshot(t *testing.T) {
	acc := New()
	require.NoError(t, acc.Deposit(1, d("1.5")))

	snap := acc.Snapshot(42)

	assert.Equal(t, uint16(42), snap.Client)
	assert.Equal(t, "1.5", snap.Available.String())
	assert.Equal(t, "0", snap.Held.String())
	assert.Equal(t, "1.5", snap.Total.String())
	assert.False(t, snap.Locked)
}

func TestDisputeStateString(t *testing.T) {
	assert.Equal(t, "normal", StateNormal.String())
	assert.Equal(t, "disputed", StateDisputed.String())
	assert.Equal(t, "unknown", DisputeState(9).String())
}
