package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// VendorProfitHead is the single mutable row per (business, branch, vendor)
// scope, advanced by compare-and-swap exactly like CashLedgerHead.
type VendorProfitHead struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID        uuid.UUID       `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_vendor_profit_heads_scope"`
	BranchID          uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:ux_vendor_profit_heads_scope"`
	VendorID          uuid.UUID       `gorm:"column:vendor_id;type:uuid;not null;uniqueIndex:ux_vendor_profit_heads_scope"`
	LastTransactionID *uuid.UUID      `gorm:"column:last_transaction_id;type:uuid"`
	Accumulated       decimal.Decimal `gorm:"column:accumulated;type:numeric(12,3);not null"`
	Version           int64           `gorm:"column:version;not null"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default gorm naming.
func (VendorProfitHead) TableName() string {
	return "vendor_profit_heads"
}
