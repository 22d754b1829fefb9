package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashLedgerEntry is one immutable row in a branch cash chain. Entries are
// never updated or deleted; corrections append compensating rows.
type CashLedgerEntry struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	BusinessID        uuid.UUID       `gorm:"column:business_id;type:uuid;not null;index:idx_cash_ledger_entries_scope;uniqueIndex:ux_cash_ledger_entries_chain_seq"`
	BranchID          uuid.UUID       `gorm:"column:branch_id;type:uuid;not null;index:idx_cash_ledger_entries_scope;uniqueIndex:ux_cash_ledger_entries_chain_seq"`
	CashierName       *string         `gorm:"column:cashier_name"`
	PreviousTotalCash decimal.Decimal `gorm:"column:previous_total_cash;type:numeric(12,3);not null"`
	NewTotalCash      decimal.Decimal `gorm:"column:new_total_cash;type:numeric(12,3);not null"`
	CashAdditions     decimal.Decimal `gorm:"column:cash_additions;type:numeric(12,3);not null"`
	CashRemovals      decimal.Decimal `gorm:"column:cash_removals;type:numeric(12,3);not null"`
	Reason            *string         `gorm:"column:reason"`
	TotalReturns      decimal.Decimal `gorm:"column:total_returns;type:numeric(12,3);not null"`
	// ChainSeq is the scope-local insertion sequence number; it carries the
	// total order that the chain invariant is defined over.
	ChainSeq       int64     `gorm:"column:chain_seq;not null;uniqueIndex:ux_cash_ledger_entries_chain_seq"`
	IdempotencyKey *string   `gorm:"column:idempotency_key;uniqueIndex:ux_cash_ledger_entries_idem"`
	EffectiveDate  time.Time `gorm:"column:effective_date;type:date;not null"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default gorm naming.
func (CashLedgerEntry) TableName() string {
	return "cash_ledger_entries"
}
