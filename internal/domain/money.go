package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every balance and amount is
// carried at. Inputs may use fewer digits; nothing observable uses more.
const MoneyScale = 4

// RoundMoney rounds d to the money scale using banker's rounding.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.RoundBank(MoneyScale)
}

// FormatMoney renders d rounded to the money scale with trailing zeros
// trimmed, so 1.5000 prints as "1.5" and 2.0000 as "2".
func FormatMoney(d decimal.Decimal) string {
	s := RoundMoney(d).String()
	if strings.ContainsRune(s, '.') {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}

	return s
}
