package proration

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PricingRules is the immutable rule set threaded through one posting. It is
// constructed once per request; call sites never pass loose rate numbers.
type PricingRules struct {
	TaxEnabled bool
	// TaxRate is a fraction in [0, 1]; tax applies to the discounted base.
	TaxRate decimal.Decimal
	// CommissionMinimum gates vendor commission all-or-nothing: a vendor
	// bucket whose pre-commission subtotal falls below the minimum yields
	// zero commission for the whole transaction.
	CommissionMinimum decimal.Decimal
}

// NewPricingRules validates and builds a rule set.
func NewPricingRules(taxEnabled bool, taxRate, commissionMinimum decimal.Decimal) (PricingRules, error) {
	if taxRate.IsNegative() || taxRate.GreaterThan(decimal.NewFromInt(1)) {
		return PricingRules{}, fmt.Errorf("tax rate %s out of range [0,1]", taxRate)
	}
	if commissionMinimum.IsNegative() {
		return PricingRules{}, fmt.Errorf("commission minimum %s must not be negative", commissionMinimum)
	}
	return PricingRules{
		TaxEnabled:        taxEnabled,
		TaxRate:           taxRate,
		CommissionMinimum: commissionMinimum,
	}, nil
}
