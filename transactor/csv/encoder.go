package csv

import (
	stdcsv "encoding/csv"
	"io"
	"strconv"

	"github.com/LerianStudio/lib-transactor/transactor/account"
)

// ReportHeader is the first row written by an Encoder.
var ReportHeader = []string{"client", "available", "held", "total", "locked"}

// Encoder writes account snapshots as delimited records.
type Encoder struct {
	w      *stdcsv.Writer
	header bool
}

// NewEncoder returns an encoder writing to w.
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: stdcsv.NewWriter(w)}
}

// Encode writes one row, preceded by the header on the first call.
func (e *Encoder) Encode(s account.Snapshot) error {
	if !e.header {
		if err := e.w.Write(ReportHeader); err != nil {
			return err
		}

		e.header = true
	}

	return e.w.Write([]string{
		strconv.FormatUint(uint64(s.Client), 10),
		s.Available.String(),
		s.Held.String(),
		s.Total.String(),
		strconv.FormatBool(s.Locked),
	})
}

// Flush writes buffered rows and reports any write error.
func (e *Encoder) Flush() error {
	e.w.Flush()

	return e.w.Error()
}

// WriteReport writes the header and every snapshot, in the order given, then flushes.
func WriteReport(w io.Writer, snapshots []account.Snapshot) error {
	enc := NewEncoder(w)

	if len(snapshots) == 0 {
		if err := enc.w.Write(ReportHeader); err != nil {
			return err
		}
	}

	for _, s := range snapshots {
		if err := enc.Encode(s); err != nil {
			return err
		}
	}

	return enc.Flush()
}
