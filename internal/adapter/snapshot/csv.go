// Package snapshot renders replay results as CSV.
package snapshot

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/iho/payreplay/internal/domain"
)

var header = []string{"client", "available", "held", "total", "locked"}

// Write emits one row per account in the given order. Money fields are
// normalized: rounded values print without forced trailing zeros.
func Write(w io.Writer, accounts []domain.AccountSnapshot) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(header); err != nil {
		return err
	}

	for _, account := range accounts {
		row := []string{
			strconv.FormatUint(uint64(account.Client), 10),
			domain.FormatMoney(account.Available),
			domain.FormatMoney(account.Held),
			domain.FormatMoney(account.Total),
			strconv.FormatBool(account.Locked),
		}

		if err := writer.Write(row); err != nil {
			return err
		}
	}

	writer.Flush()

	return writer.Error()
}
