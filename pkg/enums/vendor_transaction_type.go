package enums

import "fmt"

// VendorTransactionType maps to the vendor_transaction_type_enum enum in Postgres.
type VendorTransactionType string

const (
	VendorTransactionTypeProductSale VendorTransactionType = "product_sale"
	VendorTransactionTypeRental      VendorTransactionType = "rental"
	VendorTransactionTypeTax         VendorTransactionType = "tax"
)

var validVendorTransactionTypes = []VendorTransactionType{
	VendorTransactionTypeProductSale,
	VendorTransactionTypeRental,
	VendorTransactionTypeTax,
}

// IsValid reports whether the value matches the canonical enum.
func (t VendorTransactionType) IsValid() bool {
	for _, candidate := range validVendorTransactionTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseVendorTransactionType converts raw input into VendorTransactionType.
func ParseVendorTransactionType(value string) (VendorTransactionType, error) {
	for _, candidate := range validVendorTransactionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor transaction type %q", value)
}
