package enums

import "fmt"

// VendorTransactionStatus tracks the lifecycle of a vendor-attributed posting.
type VendorTransactionStatus string

const (
	VendorTransactionStatusCompleted VendorTransactionStatus = "completed"
	VendorTransactionStatusPending   VendorTransactionStatus = "pending"
	VendorTransactionStatusCancelled VendorTransactionStatus = "cancelled"
)

var validVendorTransactionStatuses = []VendorTransactionStatus{
	VendorTransactionStatusCompleted,
	VendorTransactionStatusPending,
	VendorTransactionStatusCancelled,
}

// IsValid reports whether the value matches the canonical enum.
func (s VendorTransactionStatus) IsValid() bool {
	for _, candidate := range validVendorTransactionStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseVendorTransactionStatus converts raw input into VendorTransactionStatus.
func ParseVendorTransactionStatus(value string) (VendorTransactionStatus, error) {
	for _, candidate := range validVendorTransactionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vendor transaction status %q", value)
}
