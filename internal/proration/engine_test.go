package proration

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func mustRules(t *testing.T, taxEnabled bool, rate, minimum string) PricingRules {
	t.Helper()
	rules, err := NewPricingRules(taxEnabled, dec(rate), dec(minimum))
	if err != nil {
		t.Fatalf("unexpected rules error: %v", err)
	}
	return rules
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func ownerLine(price string, qty int64) LineItem {
	return LineItem{
		ProductID:         uuid.New(),
		ProductName:       "owner product",
		UnitPrice:         dec(price),
		OriginalUnitPrice: dec(price),
		Quantity:          qty,
	}
}

func vendorLine(vendorID uuid.UUID, original, selling string, qty int64) LineItem {
	return LineItem{
		ProductID:         uuid.New(),
		ProductName:       "vendor product",
		UnitPrice:         dec(selling),
		OriginalUnitPrice: dec(original),
		Quantity:          qty,
		VendorID:          &vendorID,
		VendorName:        "vendor",
	}
}

func TestProrateOwnerOnlySaleWithTax(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, true, "0.05", "0")

	result, err := Prorate([]LineItem{ownerLine("10.000", 2)}, decimal.Zero, rules)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}

	if len(result.Buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(result.Buckets))
	}
	owner := result.OwnerBucket()
	if owner == nil {
		t.Fatal("expected owner bucket")
	}
	if !owner.Subtotal.Equal(dec("20.000")) {
		t.Fatalf("subtotal = %s, want 20.000", owner.Subtotal)
	}
	if !owner.Tax.Equal(dec("1.000")) {
		t.Fatalf("tax = %s, want 1.000", owner.Tax)
	}
	if !result.GrandTotal.Equal(dec("21.000")) {
		t.Fatalf("grand total = %s, want 21.000", result.GrandTotal)
	}
}

func TestProrateVendorCommissionAboveMinimum(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, false, "0", "5.000")
	vendorID := uuid.New()

	result, err := Prorate([]LineItem{vendorLine(vendorID, "8.000", "8.800", 1)}, decimal.Zero, rules)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}

	vendors := result.VendorBuckets()
	if len(vendors) != 1 {
		t.Fatalf("expected 1 vendor bucket, got %d", len(vendors))
	}
	bucket := vendors[0]
	if !bucket.Commission.Equal(dec("0.800")) {
		t.Fatalf("commission = %s, want 0.800", bucket.Commission)
	}
	if !bucket.Subtotal.Equal(dec("8.000")) {
		t.Fatalf("subtotal = %s, want 8.000", bucket.Subtotal)
	}
	if !result.GrandTotal.Equal(dec("8.800")) {
		t.Fatalf("grand total = %s, want 8.800", result.GrandTotal)
	}
}

func TestProrateCommissionBelowMinimumIsZero(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, false, "0", "10.000")
	vendorID := uuid.New()

	result, err := Prorate([]LineItem{vendorLine(vendorID, "8.000", "8.800", 1)}, decimal.Zero, rules)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}

	bucket := result.VendorBuckets()[0]
	if !bucket.Commission.IsZero() {
		t.Fatalf("commission = %s, want 0", bucket.Commission)
	}
	for _, line := range bucket.Lines {
		if !line.Commission.IsZero() {
			t.Fatalf("line commission = %s, want 0", line.Commission)
		}
	}
}

func TestProrateCommissionThresholdBoundary(t *testing.T) {
	t.Parallel()
	vendorID := uuid.New()
	items := []LineItem{vendorLine(vendorID, "9.999", "10.999", 1)}

	// 0.001 below the minimum: all-or-nothing zero.
	below := mustRules(t, false, "0", "10.000")
	result, err := Prorate(items, decimal.Zero, below)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}
	if !result.VendorBuckets()[0].Commission.IsZero() {
		t.Fatalf("commission below threshold = %s, want 0", result.VendorBuckets()[0].Commission)
	}

	// Exactly at the minimum: full commission.
	at := mustRules(t, false, "0", "9.999")
	result, err = Prorate(items, decimal.Zero, at)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}
	if !result.VendorBuckets()[0].Commission.Equal(dec("1.000")) {
		t.Fatalf("commission at threshold = %s, want 1.000", result.VendorBuckets()[0].Commission)
	}
}

func TestProrateDiscountSharesSumExactly(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, true, "0.05", "0")
	vendorA := uuid.New()
	vendorB := uuid.New()
	items := []LineItem{
		ownerLine("3.333", 1),
		vendorLine(vendorA, "2.000", "2.333", 1),
		vendorLine(vendorB, "4.000", "4.333", 3),
	}
	discount := dec("1.000")

	result, err := Prorate(items, discount, rules)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}

	shares := decimal.Zero
	totals := decimal.Zero
	for _, bucket := range result.Buckets {
		shares = shares.Add(bucket.DiscountShare)
		totals = totals.Add(bucket.Total)
	}
	if !shares.Equal(discount) {
		t.Fatalf("discount shares sum to %s, want %s", shares, discount)
	}
	if !totals.Equal(result.GrandTotal) {
		t.Fatalf("bucket totals sum to %s, grand total %s", totals, result.GrandTotal)
	}
}

func TestProrateRejectsExcessiveDiscount(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, false, "0", "0")

	if _, err := Prorate([]LineItem{ownerLine("5.000", 1)}, dec("5.001"), rules); err == nil {
		t.Fatal("expected discount rejection")
	}
}

func TestProrateRejectsBadLines(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, false, "0", "0")

	if _, err := Prorate(nil, decimal.Zero, rules); err == nil {
		t.Fatal("expected empty cart rejection")
	}
	bad := ownerLine("5.000", 1)
	bad.Quantity = 0
	if _, err := Prorate([]LineItem{bad}, decimal.Zero, rules); err == nil {
		t.Fatal("expected zero quantity rejection")
	}
}

func TestProrateReturnNegatesOriginalSale(t *testing.T) {
	t.Parallel()
	rules := mustRules(t, true, "0.05", "5.000")
	vendorID := uuid.New()
	items := []LineItem{
		ownerLine("10.000", 2),
		vendorLine(vendorID, "8.000", "8.800", 1),
	}

	sale, err := Prorate(items, decimal.Zero, rules)
	if err != nil {
		t.Fatalf("Prorate error: %v", err)
	}

	var returnLines []ReturnLine
	for _, bucket := range sale.Buckets {
		for _, line := range bucket.Lines {
			returnLines = append(returnLines, ReturnLine{
				ProductID:           line.ProductID,
				ProductName:         line.ProductName,
				UnitPriceOriginal:   line.UnitPriceOriginal,
				UnitPriceByBusiness: line.UnitPriceByBusiness,
				Quantity:            line.Quantity,
				Commission:          line.Commission,
				VendorID:            bucket.VendorID,
				VendorName:          bucket.VendorName,
			})
		}
	}

	ret, err := ProrateReturn(returnLines, rules)
	if err != nil {
		t.Fatalf("ProrateReturn error: %v", err)
	}

	if !ret.GrandTotal.Equal(sale.GrandTotal.Neg()) {
		t.Fatalf("return grand total = %s, want %s", ret.GrandTotal, sale.GrandTotal.Neg())
	}
	if len(ret.Buckets) != len(sale.Buckets) {
		t.Fatalf("bucket count mismatch: %d vs %d", len(ret.Buckets), len(sale.Buckets))
	}
	for i := range sale.Buckets {
		orig := sale.Buckets[i]
		negated := ret.Buckets[i]
		if !negated.GrossSales.Equal(orig.GrossSales.Neg()) {
			t.Fatalf("bucket %d gross = %s, want %s", i, negated.GrossSales, orig.GrossSales.Neg())
		}
		if !negated.Tax.Equal(orig.Tax.Neg()) {
			t.Fatalf("bucket %d tax = %s, want %s", i, negated.Tax, orig.Tax.Neg())
		}
		if !negated.Commission.Equal(orig.Commission.Neg()) {
			t.Fatalf("bucket %d commission = %s, want %s", i, negated.Commission, orig.Commission.Neg())
		}
		if !negated.Total.Equal(orig.Total.Neg()) {
			t.Fatalf("bucket %d total = %s, want %s", i, negated.Total, orig.Total.Neg())
		}
	}
}
