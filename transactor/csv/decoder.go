package csv

import (
	stdcsv "encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/LerianStudio/lib-transactor/transactor/transaction"
	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedRecord marks a row that cannot be decoded into an operation.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrMissingColumn is returned when the header lacks a required column.
	ErrMissingColumn = errors.New("missing column")
	// ErrUnknownType is the decoding counterpart of transaction.ErrUnknownType.
	ErrUnknownType = transaction.ErrUnknownType
)

// Column names of the input header.
const (
	ColumnType   = "type"
	ColumnClient = "client"
	ColumnTx     = "tx"
	ColumnAmount = "amount"
)

// RecordError describes a row the decoder skipped.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("line %d: %s: %v", e.Line, ErrMalformedRecord, e.Err)
}

// Unwrap returns both ErrMalformedRecord and the underlying cause.
func (e *RecordError) Unwrap() []error {
	return []error{ErrMalformedRecord, e.Err}
}

// Decoder reads operations from delimited records.
type Decoder struct {
	r       *stdcsv.Reader
	columns map[string]int
	header  bool
}

// NewDecoder returns a decoder reading from r. The header is read on the first call to Next.
func NewDecoder(r io.Reader) *Decoder {
	cr := stdcsv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	return &Decoder{r: cr}
}

// Header reads and validates the header row. Next calls it when needed.
func (d *Decoder) Header() error {
	if d.header {
		return nil
	}

	record, err := d.r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("read header: %w", io.ErrUnexpectedEOF)
		}

		return fmt.Errorf("read header: %w", err)
	}

	columns := make(map[string]int, len(record))
	for i, name := range record {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, required := range []string{ColumnType, ColumnClient, ColumnTx} {
		if _, ok := columns[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	d.columns = columns
	d.header = true

	return nil
}

// Next returns the next operation, or io.EOF when the input is exhausted.
// A *RecordError means the row was skipped and decoding can continue.
func (d *Decoder) Next() (transaction.Operation, error) {
	if err := d.Header(); err != nil {
		return transaction.Operation{}, err
	}

	record, err := d.r.Read()
	if err != nil {
		var parseErr *stdcsv.ParseError
		if errors.As(err, &parseErr) {
			return transaction.Operation{}, &RecordError{Line: parseErr.Line, Err: parseErr.Err}
		}

		return transaction.Operation{}, err
	}

	line, _ := d.r.FieldPos(0)

	op, err := d.decode(record)
	if err != nil {
		return transaction.Operation{}, &RecordError{Line: line, Err: err}
	}

	return op, nil
}

// All decodes every remaining row. Skipped rows are returned alongside the operations.
func (d *Decoder) All() ([]transaction.Operation, []*RecordError, error) {
	var (
		ops     []transaction.Operation
		skipped []*RecordError
	)

	for {
		op, err := d.Next()
		if errors.Is(err, io.EOF) {
			return ops, skipped, nil
		}

		var recErr *RecordError
		if errors.As(err, &recErr) {
			skipped = append(skipped, recErr)
			continue
		}

		if err != nil {
			return ops, skipped, err
		}

		ops = append(ops, op)
	}
}

func (d *Decoder) cell(record []string, column string) (string, bool) {
	i, ok := d.columns[column]
	if !ok || i >= len(record) {
		return "", false
	}

	return strings.TrimSpace(record[i]), true
}

func (d *Decoder) decode(record []string) (transaction.Operation, error) {
	rawType, ok := d.cell(record, ColumnType)
	if !ok {
		return transaction.Operation{}, fmt.Errorf("missing %s", ColumnType)
	}

	typ, err := transaction.ParseType(rawType)
	if err != nil {
		return transaction.Operation{}, err
	}

	rawClient, ok := d.cell(record, ColumnClient)
	if !ok {
		return transaction.Operation{}, fmt.Errorf("missing %s", ColumnClient)
	}

	client, err := strconv.ParseUint(rawClient, 10, 16)
	if err != nil {
		return transaction.Operation{}, fmt.Errorf("invalid %s %q: %w", ColumnClient, rawClient, err)
	}

	rawTx, ok := d.cell(record, ColumnTx)
	if !ok {
		return transaction.Operation{}, fmt.Errorf("missing %s", ColumnTx)
	}

	tx, err := strconv.ParseUint(rawTx, 10, 32)
	if err != nil {
		return transaction.Operation{}, fmt.Errorf("invalid %s %q: %w", ColumnTx, rawTx, err)
	}

	op := transaction.Operation{Type: typ, Client: uint16(client), Tx: uint32(tx)}

	if rawAmount, ok := d.cell(record, ColumnAmount); ok && rawAmount != "" {
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return transaction.Operation{}, fmt.Errorf("invalid %s %q: %w", ColumnAmount, rawAmount, err)
		}

		if amount.IsNegative() {
			return transaction.Operation{}, fmt.Errorf("negative %s %q", ColumnAmount, rawAmount)
		}

		op.Amount = &amount
	}

	return op, nil
}
