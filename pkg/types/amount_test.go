package types

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRoundAmountHalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"1.2345", "1.235"},
		{"1.2344", "1.234"},
		{"-1.2345", "-1.235"},
		{"0.0005", "0.001"},
		{"2", "2.000"},
	}
	for _, tt := range tests {
		got := FormatAmount(RoundAmount(decimal.RequireFromString(tt.in)))
		if got != tt.want {
			t.Fatalf("RoundAmount(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseAmount(t *testing.T) {
	value, err := ParseAmount("12.500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if FormatAmount(value) != "12.500" {
		t.Fatalf("unexpected value %s", FormatAmount(value))
	}
}

func TestParseAmountRejectsOverscale(t *testing.T) {
	if _, err := ParseAmount("12.5001"); err == nil {
		t.Fatal("expected overscaled amount to be rejected")
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	if _, err := ParseAmount("twelve"); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatAmountFixedScale(t *testing.T) {
	if got := FormatAmount(decimal.NewFromInt(3)); got != "3.000" {
		t.Fatalf("unexpected format %q", got)
	}
}
