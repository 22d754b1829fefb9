package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// AmountScale is the number of decimal places carried by every monetary
// field. The business currency settles in thousandths (baisa), so ledger
// rows store exactly three places.
const AmountScale = 3

// RoundAmount normalizes a monetary value to the ledger scale, rounding
// half away from zero. Every value must pass through here before it is
// written to a ledger stream.
func RoundAmount(value decimal.Decimal) decimal.Decimal {
	return value.Round(AmountScale)
}

// ParseAmount converts wire input into a ledger-scale decimal.
func ParseAmount(value string) (decimal.Decimal, error) {
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parsing amount %q: %w", value, err)
	}
	if parsed.Exponent() < -AmountScale {
		return decimal.Zero, fmt.Errorf("amount %q exceeds %d decimal places", value, AmountScale)
	}
	return RoundAmount(parsed), nil
}

// FormatAmount renders a decimal with the fixed ledger scale.
func FormatAmount(value decimal.Decimal) string {
	return value.StringFixed(AmountScale)
}
