package postgres

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

// Full source and loader behavior against a real database is covered in
// tests/integration.

func TestNumericRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{name: "integer", value: "10"},
		{name: "four decimal places", value: "1.2345"},
		{name: "trailing zeros", value: "2.5000"},
		{name: "negative", value: "-3.75"},
		{name: "zero", value: "0"},
		{name: "large", value: "4294967295.9999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := decimal.RequireFromString(tt.value)

			got, err := toDecimal(toNumeric(want))
			if err != nil {
				t.Fatalf("toDecimal: %v", err)
			}

			if !got.Equal(want) {
				t.Errorf("round trip changed value: %s -> %s", want, got)
			}
		})
	}
}

func TestToDecimalNull(t *testing.T) {
	got, err := toDecimal(pgtype.Numeric{})
	if err != nil {
		t.Fatalf("toDecimal: %v", err)
	}

	if !got.IsZero() {
		t.Errorf("expected zero for null numeric, got %s", got)
	}
}
