package domain

import (
	"github.com/shopspring/decimal"
)

// ClientID identifies a client. There is exactly one account per client.
type ClientID uint16

// TxID identifies a transaction within a log.
type TxID uint32

// RecordKind is the closed set of transaction kinds a log may carry. The
// tokens are lowercase and matched case-sensitively.
type RecordKind string

const (
	RecordDeposit    RecordKind = "deposit"
	RecordWithdrawal RecordKind = "withdrawal"
	RecordDispute    RecordKind = "dispute"
	RecordResolve    RecordKind = "resolve"
	RecordChargeback RecordKind = "chargeback"
)

// Valid reports whether k names a known transaction kind.
func (k RecordKind) Valid() bool {
	switch k {
	case RecordDeposit, RecordWithdrawal, RecordDispute, RecordResolve, RecordChargeback:
		return true
	}

	return false
}

// RequiresLookup reports whether records of this kind carry no amount of
// their own and instead reference an earlier transaction by id.
func (k RecordKind) RequiresLookup() bool {
	switch k {
	case RecordDispute, RecordResolve, RecordChargeback:
		return true
	}

	return false
}

// Record is one parsed transaction log entry. Deposits and withdrawals
// always carry an amount; dispute, resolve and chargeback never do.
type Record struct {
	Kind   RecordKind
	Client ClientID
	Tx     TxID
	Amount decimal.NullDecimal
}
