package proration

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muscatcode/suqpos-backend/pkg/types"
)

// LineItem is one cart line entering a sale proration. For vendor-attributed
// items UnitPrice already includes the business commission markup and
// OriginalUnitPrice carries the vendor's pre-commission price; owner items
// carry the same value in both.
type LineItem struct {
	ProductID         uuid.UUID
	ProductName       string
	UnitPrice         decimal.Decimal
	OriginalUnitPrice decimal.Decimal
	Quantity          int64
	VendorID          *uuid.UUID
	VendorName        string
}

// ReturnLine is one previously sold line selected for return. Commission is
// the per-line amount recorded at sale time; it is replayed, never
// recomputed, because commission rules may have changed since the sale.
type ReturnLine struct {
	ProductID           uuid.UUID
	ProductName         string
	UnitPriceOriginal   decimal.Decimal
	UnitPriceByBusiness decimal.Decimal
	Quantity            int64
	Commission          decimal.Decimal
	VendorID            *uuid.UUID
	VendorName          string
}

// ProratedLine is the per-line output fed to sold-product emission.
type ProratedLine struct {
	ProductID           uuid.UUID
	ProductName         string
	UnitPriceOriginal   decimal.Decimal
	UnitPriceByBusiness decimal.Decimal
	Quantity            int64
	Commission          decimal.Decimal
	LineTotal           decimal.Decimal
}

// Bucket aggregates one attribution group: a single vendor, or the owner
// group for lines without vendor attribution (VendorID nil).
type Bucket struct {
	VendorID   *uuid.UUID
	VendorName string
	// GrossSales is the cash-basis sum of selling price times quantity.
	GrossSales decimal.Decimal
	// Subtotal is the attribution-basis sum: pre-commission prices for a
	// vendor bucket, selling prices for the owner bucket. The commission
	// minimum is checked against this value.
	Subtotal      decimal.Decimal
	DiscountShare decimal.Decimal
	Tax           decimal.Decimal
	Commission    decimal.Decimal
	// Total is the cash the till moves for this bucket:
	// GrossSales - DiscountShare + Tax.
	Total decimal.Decimal
	Lines []ProratedLine
}

// Result is the full proration of one sale or return.
type Result struct {
	Buckets       []Bucket
	GrandSubtotal decimal.Decimal
	TotalDiscount decimal.Decimal
	TotalTax      decimal.Decimal
	// GrandTotal equals the sum of bucket totals to the ledger scale.
	GrandTotal decimal.Decimal
}

// OwnerBucket returns the bucket holding owner-supplied lines, if present.
func (r *Result) OwnerBucket() *Bucket {
	for i := range r.Buckets {
		if r.Buckets[i].VendorID == nil {
			return &r.Buckets[i]
		}
	}
	return nil
}

// VendorBuckets returns the vendor-attributed buckets in deterministic order.
func (r *Result) VendorBuckets() []Bucket {
	vendors := make([]Bucket, 0, len(r.Buckets))
	for _, bucket := range r.Buckets {
		if bucket.VendorID != nil {
			vendors = append(vendors, bucket)
		}
	}
	return vendors
}

// Prorate splits a cart into vendor and owner buckets, apportioning the
// manual discount proportionally and computing tax on the discounted base.
// Tax is applied after discount on every path; mixing orders would silently
// change totals.
func Prorate(items []LineItem, discount decimal.Decimal, rules PricingRules) (*Result, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("no line items to prorate")
	}
	if discount.IsNegative() {
		return nil, fmt.Errorf("discount must not be negative")
	}
	for _, item := range items {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("line %s: quantity must be positive", item.ProductName)
		}
		if item.UnitPrice.IsNegative() || item.OriginalUnitPrice.IsNegative() {
			return nil, fmt.Errorf("line %s: price must not be negative", item.ProductName)
		}
	}

	buckets := bucketize(items)

	grandGross := decimal.Zero
	grandSubtotal := decimal.Zero
	for _, b := range buckets {
		grandGross = grandGross.Add(b.GrossSales)
		grandSubtotal = grandSubtotal.Add(b.Subtotal)
	}
	if discount.GreaterThan(grandGross) {
		return nil, fmt.Errorf("discount %s exceeds order subtotal %s",
			types.FormatAmount(discount), types.FormatAmount(grandGross))
	}

	apportionDiscount(buckets, discount, grandGross)

	totalTax := decimal.Zero
	grandTotal := decimal.Zero
	for i := range buckets {
		b := &buckets[i]
		if rules.TaxEnabled {
			b.Tax = types.RoundAmount(b.GrossSales.Sub(b.DiscountShare).Mul(rules.TaxRate))
		}
		if b.VendorID != nil {
			applyCommission(b, rules)
		}
		b.Total = b.GrossSales.Sub(b.DiscountShare).Add(b.Tax)
		totalTax = totalTax.Add(b.Tax)
		grandTotal = grandTotal.Add(b.Total)
	}

	return &Result{
		Buckets:       buckets,
		GrandSubtotal: grandSubtotal,
		TotalDiscount: discount,
		TotalTax:      totalTax,
		GrandTotal:    grandTotal,
	}, nil
}

// ProrateReturn prorates a selection of previously sold lines and negates
// the result so it can feed the same ledger writers as a sale. Per-line
// commission comes from the original sale records.
func ProrateReturn(lines []ReturnLine, rules PricingRules) (*Result, error) {
	if len(lines) == 0 {
		return nil, fmt.Errorf("no return lines to prorate")
	}
	items := make([]LineItem, len(lines))
	for i, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("line %s: quantity must be positive", line.ProductName)
		}
		items[i] = LineItem{
			ProductID:         line.ProductID,
			ProductName:       line.ProductName,
			UnitPrice:         line.UnitPriceByBusiness,
			OriginalUnitPrice: line.UnitPriceOriginal,
			Quantity:          line.Quantity,
			VendorID:          line.VendorID,
			VendorName:        line.VendorName,
		}
	}

	buckets := bucketize(items)

	// Replace computed commissions with the recorded ones, no threshold.
	recorded := make(map[string]decimal.Decimal, len(buckets))
	perLine := make(map[string]map[uuid.UUID]decimal.Decimal, len(buckets))
	for _, line := range lines {
		key := bucketKey(line.VendorID)
		recorded[key] = recorded[key].Add(line.Commission)
		if perLine[key] == nil {
			perLine[key] = map[uuid.UUID]decimal.Decimal{}
		}
		perLine[key][line.ProductID] = perLine[key][line.ProductID].Add(line.Commission)
	}

	grandSubtotal := decimal.Zero
	totalTax := decimal.Zero
	grandTotal := decimal.Zero
	for i := range buckets {
		b := &buckets[i]
		key := bucketKey(b.VendorID)
		if rules.TaxEnabled {
			b.Tax = types.RoundAmount(b.GrossSales.Mul(rules.TaxRate))
		}
		b.Commission = types.RoundAmount(recorded[key])
		b.Total = b.GrossSales.Add(b.Tax)
		for j := range b.Lines {
			b.Lines[j].Commission = perLine[key][b.Lines[j].ProductID]
		}
		negateBucket(b)
		grandSubtotal = grandSubtotal.Add(b.Subtotal)
		totalTax = totalTax.Add(b.Tax)
		grandTotal = grandTotal.Add(b.Total)
	}

	return &Result{
		Buckets:       buckets,
		GrandSubtotal: grandSubtotal,
		TotalDiscount: decimal.Zero,
		TotalTax:      totalTax,
		GrandTotal:    grandTotal,
	}, nil
}

func bucketize(items []LineItem) []Bucket {
	byKey := map[string]*Bucket{}
	for _, item := range items {
		key := bucketKey(item.VendorID)
		bucket, ok := byKey[key]
		if !ok {
			bucket = &Bucket{VendorID: item.VendorID, VendorName: item.VendorName}
			byKey[key] = bucket
		}
		qty := decimal.NewFromInt(item.Quantity)
		lineGross := types.RoundAmount(item.UnitPrice.Mul(qty))
		lineOriginal := types.RoundAmount(item.OriginalUnitPrice.Mul(qty))

		bucket.GrossSales = bucket.GrossSales.Add(lineGross)
		if item.VendorID != nil {
			bucket.Subtotal = bucket.Subtotal.Add(lineOriginal)
		} else {
			bucket.Subtotal = bucket.Subtotal.Add(lineGross)
		}
		bucket.Lines = append(bucket.Lines, ProratedLine{
			ProductID:           item.ProductID,
			ProductName:         item.ProductName,
			UnitPriceOriginal:   item.OriginalUnitPrice,
			UnitPriceByBusiness: item.UnitPrice,
			Quantity:            item.Quantity,
			Commission:          lineGross.Sub(lineOriginal),
			LineTotal:           lineGross,
		})
	}

	keys := make([]string, 0, len(byKey))
	for key := range byKey {
		keys = append(keys, key)
	}
	// Owner bucket first, vendors in stable id order.
	sort.Strings(keys)
	buckets := make([]Bucket, 0, len(byKey))
	for _, key := range keys {
		buckets = append(buckets, *byKey[key])
	}
	return buckets
}

// apportionDiscount assigns each bucket its proportional share, rounded to
// the ledger scale. The rounding remainder lands on the largest bucket so
// shares always sum to the discount exactly.
func apportionDiscount(buckets []Bucket, discount, grandGross decimal.Decimal) {
	if discount.IsZero() || grandGross.IsZero() {
		return
	}
	assigned := decimal.Zero
	largest := 0
	for i := range buckets {
		share := types.RoundAmount(discount.Mul(buckets[i].GrossSales).Div(grandGross))
		buckets[i].DiscountShare = share
		assigned = assigned.Add(share)
		if buckets[i].GrossSales.GreaterThan(buckets[largest].GrossSales) {
			largest = i
		}
	}
	if remainder := discount.Sub(assigned); !remainder.IsZero() {
		buckets[largest].DiscountShare = buckets[largest].DiscountShare.Add(remainder)
	}
}

func applyCommission(b *Bucket, rules PricingRules) {
	if b.Subtotal.LessThan(rules.CommissionMinimum) {
		// All-or-nothing threshold: below the minimum the owner takes no
		// cut and per-line commissions are zeroed for downstream records.
		b.Commission = decimal.Zero
		for i := range b.Lines {
			b.Lines[i].Commission = decimal.Zero
		}
		return
	}
	commission := decimal.Zero
	for _, line := range b.Lines {
		commission = commission.Add(line.Commission)
	}
	b.Commission = types.RoundAmount(commission)
}

func negateBucket(b *Bucket) {
	b.GrossSales = b.GrossSales.Neg()
	b.Subtotal = b.Subtotal.Neg()
	b.DiscountShare = b.DiscountShare.Neg()
	b.Tax = b.Tax.Neg()
	b.Commission = b.Commission.Neg()
	b.Total = b.Total.Neg()
	for i := range b.Lines {
		b.Lines[i].Commission = b.Lines[i].Commission.Neg()
		b.Lines[i].LineTotal = b.Lines[i].LineTotal.Neg()
	}
}

func bucketKey(vendorID *uuid.UUID) string {
	if vendorID == nil {
		return ""
	}
	return vendorID.String()
}
