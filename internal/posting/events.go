package posting

import (
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/internal/proration"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"github.com/shopspring/decimal"
)

// Event is one money-moving request routed through the posting saga. The
// concrete types below are the only implementations; the router switches
// over them exhaustively.
type Event interface {
	Kind() enums.EventKind
	Scope() EventScope
	Key() string
}

// EventScope identifies where an event lands and who recorded it.
type EventScope struct {
	BusinessID   uuid.UUID
	BusinessName string
	BranchID     uuid.UUID
	BranchName   string
	CashierName  *string
}

// SaleEvent posts a cart of line items as a completed sale.
type SaleEvent struct {
	IdempotencyKey string
	SaleID         uuid.UUID
	EventScope     EventScope
	PaymentMethod  enums.PaymentMethod
	Items          []proration.LineItem
	Discount       decimal.Decimal
}

func (e SaleEvent) Kind() enums.EventKind { return enums.EventKindSale }
func (e SaleEvent) Scope() EventScope     { return e.EventScope }
func (e SaleEvent) Key() string           { return e.IdempotencyKey }

// ReturnEvent reverses previously sold lines against the original sale.
type ReturnEvent struct {
	IdempotencyKey string
	SaleID         uuid.UUID
	EventScope     EventScope
	PaymentMethod  enums.PaymentMethod
	Lines          []proration.ReturnLine
	Reason         *string
}

func (e ReturnEvent) Kind() enums.EventKind { return enums.EventKindReturn }
func (e ReturnEvent) Scope() EventScope     { return e.EventScope }
func (e ReturnEvent) Key() string           { return e.IdempotencyKey }

// CashAdjustmentEvent moves cash in or out of the till without a sale.
type CashAdjustmentEvent struct {
	IdempotencyKey string
	EventScope     EventScope
	Additions      decimal.Decimal
	Removals       decimal.Decimal
	Reason         string
}

func (e CashAdjustmentEvent) Kind() enums.EventKind { return enums.EventKindCashAdjustment }
func (e CashAdjustmentEvent) Scope() EventScope     { return e.EventScope }
func (e CashAdjustmentEvent) Key() string           { return e.IdempotencyKey }

// TaxSettlementEvent collects a vendor's tax share in cash and deducts it
// from the vendor's accumulated profit.
type TaxSettlementEvent struct {
	IdempotencyKey string
	EventScope     EventScope
	VendorID       uuid.UUID
	VendorName     string
	Amount         decimal.Decimal
	Period         string
	Description    string
}

func (e TaxSettlementEvent) Kind() enums.EventKind { return enums.EventKindTaxSettlement }
func (e TaxSettlementEvent) Scope() EventScope     { return e.EventScope }
func (e TaxSettlementEvent) Key() string           { return e.IdempotencyKey }

// RentalIncomeEvent collects booth rent from a vendor in cash and deducts it
// from the vendor's accumulated profit.
type RentalIncomeEvent struct {
	IdempotencyKey string
	EventScope     EventScope
	VendorID       uuid.UUID
	VendorName     string
	Amount         decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	Period         string
}

func (e RentalIncomeEvent) Kind() enums.EventKind { return enums.EventKindRentalIncome }
func (e RentalIncomeEvent) Scope() EventScope     { return e.EventScope }
func (e RentalIncomeEvent) Key() string           { return e.IdempotencyKey }
