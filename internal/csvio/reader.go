// Package csvio adapts the engine's record stream and snapshot contracts to
// CSV files, the engine's primary input and output format.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/kithmonite/engine/internal/models"
	"github.com/kithmonite/engine/internal/services"
)

// Column order of the input format: type, client, tx, amount. The amount
// column may be empty or missing entirely for dispute-family rows.
const (
	colType = iota
	colClient
	colTx
	colAmount
)

// Reader yields transaction records from a CSV stream in file order. Fields
// are trimmed of surrounding whitespace. Rows that fail to decode surface as
// per-row errors so the caller can reject them without stopping the stream.
type Reader struct {
	csv        *csv.Reader
	headerRead bool
}

func NewReader(r io.Reader) *Reader {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	// Dispute rows legitimately omit the amount column.
	cr.FieldsPerRecord = -1
	return &Reader{csv: cr}
}

// Next returns the next record, io.EOF at end of stream, or a decode error
// for the offending row.
func (r *Reader) Next() (models.TransactionRecord, error) {
	if !r.headerRead {
		r.headerRead = true
		if _, err := r.csv.Read(); err != nil {
			if err == io.EOF {
				return models.TransactionRecord{}, io.EOF
			}
			return models.TransactionRecord{}, fmt.Errorf("%w: unreadable header: %v", services.ErrMalformedRecord, err)
		}
	}

	row, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return models.TransactionRecord{}, io.EOF
		}
		return models.TransactionRecord{}, fmt.Errorf("%w: %v", services.ErrMalformedRecord, err)
	}
	return decodeRow(row)
}

func decodeRow(row []string) (models.TransactionRecord, error) {
	if len(row) < 3 {
		return models.TransactionRecord{}, fmt.Errorf("%w: expected at least 3 fields, got %d", services.ErrMalformedRecord, len(row))
	}

	var rec models.TransactionRecord
	rec.Type = models.TransactionKind(strings.ToLower(strings.TrimSpace(row[colType])))

	client, err := parseID(row[colClient])
	if err != nil {
		return rec, fmt.Errorf("%w: client: %v", services.ErrMalformedRecord, err)
	}
	rec.Client = client

	tx, err := parseID(row[colTx])
	if err != nil {
		return rec, fmt.Errorf("%w: tx: %v", services.ErrMalformedRecord, err)
	}
	rec.TxID = tx

	if len(row) > colAmount {
		raw := strings.TrimSpace(row[colAmount])
		if raw != "" {
			amount, err := decimal.NewFromString(raw)
			if err != nil {
				return rec, fmt.Errorf("%w: amount %q: %v", services.ErrMalformedRecord, raw, err)
			}
			rec.Amount = &amount
		}
	}
	return rec, nil
}

func parseID(field string) (uint32, error) {
	id, err := strconv.ParseUint(strings.TrimSpace(field), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(id), nil
}
