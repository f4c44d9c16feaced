// Package dto defines the JSON shapes of the HTTP API.
package dto

import (
	"github.com/iho/payreplay/internal/domain"
)

// ReplayAccount is one client's settled balances in API responses.
// Money fields are normalized decimal strings, matching the CSV snapshot.
type ReplayAccount struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// ReplayResponse is the JSON result of replaying a transaction log.
type ReplayResponse struct {
	RunID    string          `json:"run_id"`
	Records  int             `json:"records"`
	Accounts []ReplayAccount `json:"accounts"`
}

// ReplayAccountFromDomain converts an account snapshot to its API shape.
func ReplayAccountFromDomain(s domain.AccountSnapshot) ReplayAccount {
	return ReplayAccount{
		Client:    uint16(s.Client),
		Available: domain.FormatMoney(s.Available),
		Held:      domain.FormatMoney(s.Held),
		Total:     domain.FormatMoney(s.Total),
		Locked:    s.Locked,
	}
}

// ReplayAccountsFromDomain converts account snapshots to API shapes.
func ReplayAccountsFromDomain(snapshots []domain.AccountSnapshot) []ReplayAccount {
	result := make([]ReplayAccount, len(snapshots))
	for i, s := range snapshots {
		result[i] = ReplayAccountFromDomain(s)
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
