package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muscatcode/suqpos-backend/pkg/enums"
)

// VendorTransaction is one immutable row in a vendor profit chain, one per
// vendor-attributed event for a (business, branch, vendor) scope. Display
// names are denormalized so reports never join back to master data.
type VendorTransaction struct {
	TransactionID uuid.UUID                     `gorm:"column:transaction_id;type:uuid;primaryKey"`
	Type          enums.VendorTransactionType   `gorm:"column:type;type:vendor_transaction_type_enum;not null"`
	BusinessID    uuid.UUID                     `gorm:"column:business_id;type:uuid;not null;index:idx_vendor_transactions_scope;uniqueIndex:ux_vendor_transactions_chain_seq"`
	BusinessName  string                        `gorm:"column:business_name;not null"`
	BranchID      uuid.UUID                     `gorm:"column:branch_id;type:uuid;not null;index:idx_vendor_transactions_scope;uniqueIndex:ux_vendor_transactions_chain_seq"`
	BranchName    string                        `gorm:"column:branch_name;not null"`
	VendorID      uuid.UUID                     `gorm:"column:vendor_id;type:uuid;not null;index:idx_vendor_transactions_scope;uniqueIndex:ux_vendor_transactions_chain_seq"`
	VendorName    string                        `gorm:"column:vendor_name;not null"`
	Amount        decimal.Decimal               `gorm:"column:amount;type:numeric(12,3);not null"`
	Profit        decimal.Decimal               `gorm:"column:profit;type:numeric(12,3);not null"`
	// AccumulatedProfit carries the running total for the scope; it equals
	// the previous entry's accumulated profit plus this entry's profit.
	AccumulatedProfit decimal.Decimal               `gorm:"column:accumulated_profit;type:numeric(12,3);not null"`
	Status            enums.VendorTransactionStatus `gorm:"column:status;type:vendor_transaction_status_enum;not null"`
	Notes             *string                       `gorm:"column:notes"`

	// product_sale payload
	ProductName     *string          `gorm:"column:product_name"`
	ProductQuantity *int64           `gorm:"column:product_quantity"`
	UnitPrice       *decimal.Decimal `gorm:"column:unit_price;type:numeric(12,3)"`
	TotalPrice      *decimal.Decimal `gorm:"column:total_price;type:numeric(12,3)"`

	// rental payload
	RentalStartDate *time.Time `gorm:"column:rental_start_date;type:date"`
	RentalEndDate   *time.Time `gorm:"column:rental_end_date;type:date"`
	RentalPeriod    *string    `gorm:"column:rental_period"`

	// tax payload
	TaxPeriod      *string `gorm:"column:tax_period"`
	TaxDescription *string `gorm:"column:tax_description"`

	ChainSeq       int64     `gorm:"column:chain_seq;not null;uniqueIndex:ux_vendor_transactions_chain_seq"`
	IdempotencyKey *string   `gorm:"column:idempotency_key;uniqueIndex:ux_vendor_transactions_idem"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default gorm naming.
func (VendorTransaction) TableName() string {
	return "vendor_transactions"
}
