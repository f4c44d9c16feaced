package domain

import "errors"

var (
	// Fatal errors: any of these aborts the whole replay.
	ErrMalformedRecord    = errors.New("malformed ledger record")
	ErrHeldFundsOutOfSync = errors.New("held funds bookkeeping out of sync")

	// Non-fatal rejection reasons: the offending record is ignored and
	// replay continues with the account unchanged.
	ErrAccountLocked       = errors.New("account is locked")
	ErrInsufficientFunds   = errors.New("insufficient available funds")
	ErrTransactionNotFound = errors.New("referenced transaction not found")
	ErrAlreadyDisputed     = errors.New("transaction is already disputed")
	ErrAlreadyChargedBack  = errors.New("transaction has already been charged back")
	ErrNotDisputed         = errors.New("transaction is not under dispute")
	ErrMissingAmount       = errors.New("referenced transaction carries no amount")
)
