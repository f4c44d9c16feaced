package domain

import "github.com/shopspring/decimal"

// DisputeStatus is the derived dispute position of a transaction id on an
// account. It is never stored as such: disputed means the amount sits in the
// held map, charged back means the id is in the completed map, undisputed
// means neither.
type DisputeStatus string

const (
	DisputeStatusUndisputed  DisputeStatus = "undisputed"
	DisputeStatusDisputed    DisputeStatus = "disputed"
	DisputeStatusChargedBack DisputeStatus = "charged_back"
)

// DisputeState pairs a status with the disputed amount. Amount is meaningful
// only while Status is DisputeStatusDisputed.
type DisputeState struct {
	Status DisputeStatus
	Amount decimal.Decimal
}
