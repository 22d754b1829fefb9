package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashLedgerHead is the single mutable row per (business, branch) scope.
// Appends re-read it, then advance Version with a compare-and-swap; a failed
// swap means another writer got in first and the append must re-resolve.
type CashLedgerHead struct {
	ID          uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID  uuid.UUID       `gorm:"column:business_id;type:uuid;not null;uniqueIndex:ux_cash_ledger_heads_scope"`
	BranchID    uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;uniqueIndex:ux_cash_ledger_heads_scope"`
	LastEntryID *uuid.UUID      `gorm:"column:last_entry_id;type:uuid"`
	Balance     decimal.Decimal `gorm:"column:balance;type:numeric(12,3);not null"`
	Version     int64           `gorm:"column:version;not null"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default gorm naming.
func (CashLedgerHead) TableName() string {
	return "cash_ledger_heads"
}
