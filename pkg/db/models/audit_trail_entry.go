package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muscatcode/suqpos-backend/pkg/enums"
)

// AuditTrailEntry records one money-moving sub-event business-wide. Entries
// are not chained; each row stands alone and carries enough denormalized
// data to report without joining the ledgers.
type AuditTrailEntry struct {
	ID                      uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID              uuid.UUID           `gorm:"column:business_id;type:uuid;not null;index:idx_audit_trail_business"`
	BusinessName            string              `gorm:"column:business_name;not null"`
	BranchName              string              `gorm:"column:branch_name;not null"`
	VendorID                *uuid.UUID          `gorm:"column:vendor_id;type:uuid"`
	VendorName              *string             `gorm:"column:vendor_name"`
	TransactionType         string              `gorm:"column:transaction_type;not null"`
	Amount                  decimal.Decimal     `gorm:"column:amount;type:numeric(12,3);not null"`
	OwnerProfitContribution decimal.Decimal     `gorm:"column:owner_profit_contribution;type:numeric(12,3);not null"`
	PaymentMethod           enums.PaymentMethod `gorm:"column:payment_method;type:payment_method_enum;not null"`
	Currency                enums.Currency      `gorm:"column:currency;not null;default:OMR"`
	TransactionReason       string              `gorm:"column:transaction_reason;not null"`
	Details                 json.RawMessage     `gorm:"column:details;type:jsonb"`
	IdempotencyKey          *string             `gorm:"column:idempotency_key;uniqueIndex:ux_audit_trail_entries_idem"`
	CreatedAt               time.Time           `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default gorm naming.
func (AuditTrailEntry) TableName() string {
	return "audit_trail_entries"
}
