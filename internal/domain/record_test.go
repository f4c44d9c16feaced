package domain

import "testing"

func TestRecordKind_Valid(t *testing.T) {
	tests := []struct {
		name     string
		kind     RecordKind
		expected bool
	}{
		{name: "deposit", kind: RecordDeposit, expected: true},
		{name: "withdrawal", kind: RecordWithdrawal, expected: true},
		{name: "dispute", kind: RecordDispute, expected: true},
		{name: "resolve", kind: RecordResolve, expected: true},
		{name: "chargeback", kind: RecordChargeback, expected: true},
		{name: "unknown", kind: RecordKind("transfer"), expected: false},
		{name: "empty", kind: RecordKind(""), expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.Valid(); got != tt.expected {
				t.Errorf("Valid(%q) = %v, expected %v", tt.kind, got, tt.expected)
			}
		})
	}
}

func TestRecordKind_RequiresLookup(t *testing.T) {
	tests := []struct {
		name     string
		kind     RecordKind
		expected bool
	}{
		{name: "deposit carries its own amount", kind: RecordDeposit, expected: false},
		{name: "withdrawal carries its own amount", kind: RecordWithdrawal, expected: false},
		{name: "dispute references a prior record", kind: RecordDispute, expected: true},
		{name: "resolve references a prior record", kind: RecordResolve, expected: true},
		{name: "chargeback references a prior record", kind: RecordChargeback, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.kind.RequiresLookup(); got != tt.expected {
				t.Errorf("RequiresLookup(%q) = %v, expected %v", tt.kind, got, tt.expected)
			}
		})
	}
}
