package csvio

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/kithmonite/engine/internal/models"
)

// WriteSnapshot renders the final account snapshot as CSV with a header row.
// Amounts are rendered at the given number of fractional digits; total is
// derived from available + held.
func WriteSnapshot(w io.Writer, accounts []models.Account, scale int32) error {
	cw := csv.NewWriter(w)

	if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
		return err
	}
	for _, account := range accounts {
		row := []string{
			strconv.FormatUint(uint64(account.Client), 10),
			account.Available.StringFixed(scale),
			account.Held.StringFixed(scale),
			account.Total().StringFixed(scale),
			strconv.FormatBool(account.Locked),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
