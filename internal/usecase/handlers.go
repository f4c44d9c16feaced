package usecase

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/iho/payreplay/internal/domain"
)

// applyDeposit credits the available balance. Deposits on a locked account
// are ignored.
func (uc *ReplayUseCase) applyDeposit(logger zerolog.Logger, account *domain.Account, record domain.Record) error {
	if !record.Amount.Valid {
		return fmt.Errorf("deposit tx %d has no amount: %w", record.Tx, domain.ErrMalformedRecord)
	}

	if account.Locked() {
		uc.ignore(logger, record, domain.ErrAccountLocked)
		return nil
	}

	account.SetAvailableFunds(account.AvailableFunds().Add(record.Amount.Decimal))

	return nil
}

// applyWithdrawal debits the available balance. Withdrawals on a locked
// account or beyond the available funds are ignored, leaving the balance
// untouched.
func (uc *ReplayUseCase) applyWithdrawal(logger zerolog.Logger, account *domain.Account, record domain.Record) error {
	if !record.Amount.Valid {
		return fmt.Errorf("withdrawal tx %d has no amount: %w", record.Tx, domain.ErrMalformedRecord)
	}

	if account.Locked() {
		uc.ignore(logger, record, domain.ErrAccountLocked)
		return nil
	}

	available := account.AvailableFunds()
	if available.LessThan(record.Amount.Decimal) {
		uc.ignore(logger, record, domain.ErrInsufficientFunds)
		return nil
	}

	account.SetAvailableFunds(available.Sub(record.Amount.Decimal))

	return nil
}

// applyDispute moves the original transaction's amount from available to
// held. Disputes are allowed on locked accounts. A missing original, a
// re-dispute, a charged-back transaction, or an original without an amount
// are all ignored. Insufficient available funds ignore the dispute unless
// the overdraw option is set.
func (uc *ReplayUseCase) applyDispute(logger zerolog.Logger, account *domain.Account, record domain.Record, original *domain.Record) {
	if original == nil {
		uc.ignore(logger, record, domain.ErrTransactionNotFound)
		return
	}

	switch account.FindDispute(record.Tx).Status {
	case domain.DisputeStatusDisputed:
		uc.ignore(logger, record, domain.ErrAlreadyDisputed)
	case domain.DisputeStatusChargedBack:
		uc.ignore(logger, record, domain.ErrAlreadyChargedBack)
	default:
		if !original.Amount.Valid {
			uc.ignore(logger, record, domain.ErrMissingAmount)
			return
		}

		amount := original.Amount.Decimal

		available := account.AvailableFunds()
		if available.LessThan(amount) && !uc.opts.DisputeOverdraw {
			uc.ignore(logger, record, domain.ErrInsufficientFunds)
			return
		}

		account.SetAvailableFunds(available.Sub(amount))
		account.AddHeldFunds(record.Tx, amount)

		if uc.metrics != nil {
			uc.metrics.DisputesOpened.Inc()
		}
	}
}

// applyResolve releases a disputed amount back to available. Resolves on
// transactions that are not currently disputed are ignored.
func (uc *ReplayUseCase) applyResolve(logger zerolog.Logger, account *domain.Account, record domain.Record, original *domain.Record) error {
	if original == nil {
		uc.ignore(logger, record, domain.ErrTransactionNotFound)
		return nil
	}

	state := account.FindDispute(record.Tx)
	switch state.Status {
	case domain.DisputeStatusDisputed:
		if state.Amount.GreaterThan(account.HeldFunds()) {
			return fmt.Errorf("resolve tx %d: disputed amount %s exceeds held funds %s: %w",
				record.Tx, state.Amount, account.HeldFunds(), domain.ErrHeldFundsOutOfSync)
		}

		account.SetAvailableFunds(account.AvailableFunds().Add(state.Amount))
		account.RemoveHeldFunds(record.Tx)
		// Clearing the slate here is what allows a later re-dispute.
		account.CompleteDispute(record.Tx, domain.DisputeStatusUndisputed)

		if uc.metrics != nil {
			uc.metrics.DisputesResolved.Inc()
		}
	case domain.DisputeStatusChargedBack:
		uc.ignore(logger, record, domain.ErrAlreadyChargedBack)
	default:
		uc.ignore(logger, record, domain.ErrNotDisputed)
	}

	return nil
}

// applyChargeback withdraws a disputed amount for good and freezes the
// account. Chargebacks on transactions that are not currently disputed are
// ignored; the lock, once set, is never cleared.
func (uc *ReplayUseCase) applyChargeback(logger zerolog.Logger, account *domain.Account, record domain.Record, original *domain.Record) error {
	if original == nil {
		uc.ignore(logger, record, domain.ErrTransactionNotFound)
		return nil
	}

	state := account.FindDispute(record.Tx)
	switch state.Status {
	case domain.DisputeStatusDisputed:
		if state.Amount.GreaterThan(account.HeldFunds()) {
			return fmt.Errorf("chargeback tx %d: disputed amount %s exceeds held funds %s: %w",
				record.Tx, state.Amount, account.HeldFunds(), domain.ErrHeldFundsOutOfSync)
		}

		wasLocked := account.Locked()

		account.RemoveHeldFunds(record.Tx)
		account.CompleteDispute(record.Tx, domain.DisputeStatusChargedBack)
		account.SetLocked(true)

		if uc.metrics != nil {
			uc.metrics.Chargebacks.Inc()

			if !wasLocked {
				uc.metrics.AccountsLocked.Inc()
			}
		}
	case domain.DisputeStatusChargedBack:
		uc.ignore(logger, record, domain.ErrAlreadyChargedBack)
	default:
		uc.ignore(logger, record, domain.ErrNotDisputed)
	}

	return nil
}

// ignore absorbs a business failure: the record changes nothing, the reason
// is logged at debug level and counted.
func (uc *ReplayUseCase) ignore(logger zerolog.Logger, record domain.Record, reason error) {
	logger.Debug().
		Str("kind", string(record.Kind)).
		Uint16("client", uint16(record.Client)).
		Uint32("tx", uint32(record.Tx)).
		Err(reason).
		Msg("record ignored")

	if uc.metrics != nil {
		uc.metrics.RecordsIgnored.WithLabelValues(string(record.Kind), reasonLabel(reason)).Inc()
	}
}

// reasonLabel maps an ignore reason to a bounded metric label.
func reasonLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrAccountLocked):
		return "account_locked"
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrTransactionNotFound):
		return "tx_not_found"
	case errors.Is(err, domain.ErrAlreadyDisputed):
		return "already_disputed"
	case errors.Is(err, domain.ErrAlreadyChargedBack):
		return "already_charged_back"
	case errors.Is(err, domain.ErrNotDisputed):
		return "not_disputed"
	case errors.Is(err, domain.ErrMissingAmount):
		return "missing_amount"
	default:
		return "other"
	}
}
