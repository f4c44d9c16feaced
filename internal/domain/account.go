package domain

import (
	"sync"

	"github.com/shopspring/decimal"
)

// Account is the mutable per-client balance state built up during a replay.
// Available funds, the per-transaction held amounts and the lock flag evolve
// as records are applied; total funds are always derived as available plus
// held, never stored.
//
// heldTotal caches the sum of the held map and must stay exactly in sync
// with its contents at the money scale.
//
// Every accessor locks the account. Replay is single-threaded today, but the
// mutex keeps the type safe should runs ever shard per client.
type Account struct {
	mu        sync.Mutex
	client    ClientID
	available decimal.Decimal
	held      map[TxID]decimal.Decimal
	completed map[TxID]DisputeStatus
	heldTotal decimal.Decimal
	locked    bool
}

// NewAccount returns an unlocked account with zero balances.
func NewAccount(client ClientID) *Account {
	return &Account{
		client:    client,
		available: decimal.Zero,
		held:      make(map[TxID]decimal.Decimal),
		completed: make(map[TxID]DisputeStatus),
		heldTotal: decimal.Zero,
	}
}

// Client returns the owning client id.
func (a *Account) Client() ClientID {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.client
}

// AvailableFunds returns the funds free to withdraw, rounded to the money
// scale.
func (a *Account) AvailableFunds() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	return RoundMoney(a.available)
}

// HeldFunds returns the sum of all amounts under dispute, rounded to the
// money scale.
func (a *Account) HeldFunds() decimal.Decimal {
	a.mu.Lock()
	defer a.mu.Unlock()

	return RoundMoney(a.heldTotal)
}

// TotalFunds returns held plus available funds.
func (a *Account) TotalFunds() decimal.Decimal {
	return a.HeldFunds().Add(a.AvailableFunds())
}

// Locked reports whether a chargeback has frozen the account.
func (a *Account) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	return a.locked
}

// FindDispute reports the dispute state of a transaction id: disputed while
// its amount is held, charged back once finalized, undisputed otherwise.
func (a *Account) FindDispute(tx TxID) DisputeState {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount, ok := a.held[tx]; ok {
		return DisputeState{Status: DisputeStatusDisputed, Amount: amount}
	}

	if status, ok := a.completed[tx]; ok {
		return DisputeState{Status: status}
	}

	return DisputeState{Status: DisputeStatusUndisputed}
}

// SetAvailableFunds replaces the available balance with v rounded to the
// money scale. Validation is the caller's job; the write always succeeds.
func (a *Account) SetAvailableFunds(v decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.available = RoundMoney(v)
}

// AddHeldFunds earmarks amount under the disputed transaction's id and grows
// the cached held total. A prior entry for the same id is overwritten;
// callers must not hold the same transaction twice.
func (a *Account) AddHeldFunds(tx TxID, amount decimal.Decimal) {
	a.mu.Lock()
	defer a.mu.Unlock()

	amount = RoundMoney(amount)
	a.held[tx] = amount
	a.heldTotal = a.heldTotal.Add(amount)
}

// RemoveHeldFunds releases the earmark for tx and shrinks the cached held
// total. Absent ids are a no-op.
func (a *Account) RemoveHeldFunds(tx TxID) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if amount, ok := a.held[tx]; ok {
		delete(a.held, tx)
		a.heldTotal = a.heldTotal.Sub(RoundMoney(amount))
	}
}

// SetLocked sets the lock flag.
func (a *Account) SetLocked(locked bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.locked = locked
}

// CompleteDispute records the terminal state of a dispute on tx. Only a
// charged back dispute is retained; any other status clears the slate so the
// same transaction can be disputed again.
func (a *Account) CompleteDispute(tx TxID, status DisputeStatus) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if status == DisputeStatusChargedBack {
		a.completed[tx] = status
	}
}

// Snapshot captures the account's observable state.
func (a *Account) Snapshot() AccountSnapshot {
	available := a.AvailableFunds()
	held := a.HeldFunds()

	return AccountSnapshot{
		Client:    a.Client(),
		Available: available,
		Held:      held,
		Total:     held.Add(available),
		Locked:    a.Locked(),
	}
}
