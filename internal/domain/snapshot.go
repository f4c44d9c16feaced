package domain

import "github.com/shopspring/decimal"

// AccountSnapshot is the immutable view of an account after a replay run.
type AccountSnapshot struct {
	Client    ClientID
	Available decimal.Decimal
	Held      decimal.Decimal
	Total     decimal.Decimal
	Locked    bool
}
