package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SoldProduct is the per-line output emitted for receipt rendering and for
// later returns. Vendor lines keep both the vendor's original price and the
// business selling price so the commission can be replayed without
// recomputing it from current settings.
type SoldProduct struct {
	ID                            uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SaleID                        uuid.UUID       `gorm:"column:sale_id;type:uuid;not null;index:idx_sold_products_sale"`
	BusinessID                    uuid.UUID       `gorm:"column:business_id;type:uuid;not null"`
	BranchID                      uuid.UUID       `gorm:"column:branch_id;type:uuid;not null"`
	ProductID                     uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName                   string          `gorm:"column:product_name;not null"`
	UnitPriceOriginal             decimal.Decimal `gorm:"column:unit_price_original;type:numeric(12,3);not null"`
	UnitPriceByBusiness           decimal.Decimal `gorm:"column:unit_price_by_business;type:numeric(12,3);not null"`
	Quantity                      int64           `gorm:"column:quantity;not null"`
	CommissionForBusinessFromVendor decimal.Decimal `gorm:"column:commission_for_business_from_vendor;type:numeric(12,3);not null"`
	TotalPrice                    decimal.Decimal `gorm:"column:total_price;type:numeric(12,3);not null"`
	VendorID                      *uuid.UUID      `gorm:"column:vendor_id;type:uuid"`
	VendorName                    *string         `gorm:"column:vendor_name"`
	CreatedAt                     time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// TableName overrides the default gorm naming.
func (SoldProduct) TableName() string {
	return "sold_products"
}
