package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundMoney(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "within scale unchanged",
			value:    "1.1",
			expected: "1.1",
		},
		{
			name:     "half rounds to even low",
			value:    "0.00025",
			expected: "0.0002",
		},
		{
			name:     "half rounds to even high",
			value:    "0.00035",
			expected: "0.0004",
		},
		{
			name:     "above half rounds up",
			value:    "0.00026",
			expected: "0.0003",
		},
		{
			name:     "negative rounds symmetrically",
			value:    "-0.00025",
			expected: "-0.0002",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RoundMoney(decimal.RequireFromString(tt.value))

			if !got.Equal(decimal.RequireFromString(tt.expected)) {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		expected string
	}{
		{
			name:     "integer stays bare",
			value:    "2",
			expected: "2",
		},
		{
			name:     "trailing zeros trimmed",
			value:    "1.5000",
			expected: "1.5",
		},
		{
			name:     "all fractional zeros trimmed to integer",
			value:    "3.0000",
			expected: "3",
		},
		{
			name:     "significant digits preserved",
			value:    "0.0001",
			expected: "0.0001",
		},
		{
			name:     "zero",
			value:    "0",
			expected: "0",
		},
		{
			name:     "negative trimmed",
			value:    "-1.2500",
			expected: "-1.25",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatMoney(decimal.RequireFromString(tt.value))

			if got != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestFormatMoneyAfterRounding(t *testing.T) {
	// RoundBank rescales to four places; formatting has to undo the
	// padding so 1.5 never prints as 1.5000.
	got := FormatMoney(RoundMoney(decimal.RequireFromString("1.5")))

	if got != "1.5" {
		t.Errorf("expected 1.5, got %q", got)
	}
}
