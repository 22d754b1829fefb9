package enums

import "fmt"

// PostingStep names one stage of the posting saga for an event.
type PostingStep string

const (
	PostingStepProrated     PostingStep = "prorated"
	PostingStepCashLedger   PostingStep = "cash_ledger"
	PostingStepVendorProfit PostingStep = "vendor_profit"
	PostingStepSoldProducts PostingStep = "sold_products"
	PostingStepAuditTrail   PostingStep = "audit_trail"
)

// PostingStepStatus records the outcome persisted for a saga step.
type PostingStepStatus string

const (
	PostingStepStatusCompleted PostingStepStatus = "completed"
	PostingStepStatusFailed    PostingStepStatus = "failed"
)

var validPostingStepStatuses = []PostingStepStatus{
	PostingStepStatusCompleted,
	PostingStepStatusFailed,
}

// IsValid reports whether the value matches the canonical enum.
func (s PostingStepStatus) IsValid() bool {
	for _, candidate := range validPostingStepStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePostingStepStatus converts raw input into PostingStepStatus.
func ParsePostingStepStatus(value string) (PostingStepStatus, error) {
	for _, candidate := range validPostingStepStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid posting step status %q", value)
}
