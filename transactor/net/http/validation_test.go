package http

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func u32(v uint32) *uint32 { return &v }

func TestValidateStruct(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   TransactionInput
		wantErr error
	}{
		{name: "valid deposit", input: TransactionInput{Type: "deposit", Client: u32(1), Tx: u32(1), Amount: "1.0001"}},
		{name: "valid dispute", input: TransactionInput{Type: "dispute", Client: u32(0), Tx: u32(0)}},
		{name: "zero amount", input: TransactionInput{Type: "withdrawal", Client: u32(1), Tx: u32(2), Amount: "0"}},
		{name: "missing type", input: TransactionInput{Client: u32(1), Tx: u32(1)}, wantErr: ErrFieldRequired},
		{name: "bad type", input: TransactionInput{Type: "Deposit", Client: u32(1), Tx: u32(1)}, wantErr: ErrFieldOneOf},
		{name: "client bound", input: TransactionInput{Type: "deposit", Client: u32(70000), Tx: u32(1)}, wantErr: ErrFieldLessThanOrEqual},
		{name: "negative amount", input: TransactionInput{Type: "deposit", Client: u32(1), Tx: u32(1), Amount: "-0.5"}, wantErr: ErrFieldNonNegativeAmount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := ValidateStruct(ProcessRequest{Transactions: []TransactionInput{tt.input}})
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}

			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestTransactionInputOperation(t *testing.T) {
	t.Parallel()

	op, err := TransactionInput{Type: "deposit", Client: u32(7), Tx: u32(9), Amount: "2.50"}.Operation()
	require.NoError(t, err)
	assert.Equal(t, uint16(7), op.Client)
	assert.Equal(t, uint32(9), op.Tx)
	assert.Equal(t, "2.5", op.Amount.String())

	op, err = TransactionInput{Type: "resolve", Client: u32(7), Tx: u32(9)}.Operation()
	require.NoError(t, err)
	assert.Nil(t, op.Amount)

	_, err = TransactionInput{Type: "deposit", Client: u32(65536), Tx: u32(1)}.Operation()
	assert.ErrorIs(t, err, ErrFieldLessThanOrEqual)
}

func TestToSnakeCase(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "max_batch_size", toSnakeCase("MaxBatchSize"))
	assert.Equal(t, "client", toSnakeCase("client"))
}
