package enums

import "fmt"

// EventKind classifies a money-moving event handled by the posting router.
type EventKind string

const (
	EventKindSale           EventKind = "sale"
	EventKindReturn         EventKind = "return"
	EventKindCashAdjustment EventKind = "cash_adjustment"
	EventKindTaxSettlement  EventKind = "tax_settlement"
	EventKindRentalIncome   EventKind = "rental_income"
)

var validEventKinds = []EventKind{
	EventKindSale,
	EventKindReturn,
	EventKindCashAdjustment,
	EventKindTaxSettlement,
	EventKindRentalIncome,
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	return string(k)
}

// IsValid reports whether the value is a known EventKind.
func (k EventKind) IsValid() bool {
	for _, candidate := range validEventKinds {
		if candidate == k {
			return true
		}
	}
	return false
}

// ParseEventKind converts raw input into an EventKind.
func ParseEventKind(value string) (EventKind, error) {
	for _, candidate := range validEventKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event kind %q", value)
}
