package controllers

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/muscatcode/suqpos-backend/internal/posting"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/types"
)

type postingResponse struct {
	Kind               string                      `json:"kind"`
	GrandTotal         string                      `json:"grand_total,omitempty"`
	TotalTax           string                      `json:"total_tax,omitempty"`
	TotalDiscount      string                      `json:"total_discount,omitempty"`
	CashEntry          *cashEntryResponse          `json:"cash_entry,omitempty"`
	VendorTransactions []vendorTransactionResponse `json:"vendor_transactions,omitempty"`
	SoldProducts       []soldProductResponse       `json:"sold_products,omitempty"`
	AuditEntries       []auditEntryResponse        `json:"audit_entries,omitempty"`
}

func newPostingResponse(result *posting.Result) postingResponse {
	if result == nil {
		return postingResponse{}
	}
	resp := postingResponse{
		Kind:      string(result.Kind),
		CashEntry: newCashEntryResponse(result.CashEntry),
	}
	if result.Proration != nil {
		resp.GrandTotal = types.FormatAmount(result.Proration.GrandTotal)
		resp.TotalTax = types.FormatAmount(result.Proration.TotalTax)
		resp.TotalDiscount = types.FormatAmount(result.Proration.TotalDiscount)
	}
	for _, tx := range result.VendorTransactions {
		resp.VendorTransactions = append(resp.VendorTransactions, newVendorTransactionResponse(tx))
	}
	for _, sold := range result.SoldProducts {
		resp.SoldProducts = append(resp.SoldProducts, newSoldProductResponse(sold))
	}
	for _, entry := range result.AuditEntries {
		resp.AuditEntries = append(resp.AuditEntries, newAuditEntryResponse(entry))
	}
	return resp
}

type cashEntryResponse struct {
	ID                uuid.UUID `json:"id"`
	BusinessID        uuid.UUID `json:"business_id"`
	BranchID          uuid.UUID `json:"branch_id"`
	CashierName       *string   `json:"cashier_name,omitempty"`
	PreviousTotalCash string    `json:"previous_total_cash"`
	NewTotalCash      string    `json:"new_total_cash"`
	CashAdditions     string    `json:"cash_additions"`
	CashRemovals      string    `json:"cash_removals"`
	TotalReturns      string    `json:"total_returns"`
	Reason            *string   `json:"reason,omitempty"`
	ChainSeq          int64     `json:"chain_seq"`
	EffectiveDate     string    `json:"effective_date"`
	CreatedAt         time.Time `json:"created_at"`
}

func newCashEntryResponse(entry *models.CashLedgerEntry) *cashEntryResponse {
	if entry == nil {
		return nil
	}
	return &cashEntryResponse{
		ID:                entry.ID,
		BusinessID:        entry.BusinessID,
		BranchID:          entry.BranchID,
		CashierName:       entry.CashierName,
		PreviousTotalCash: types.FormatAmount(entry.PreviousTotalCash),
		NewTotalCash:      types.FormatAmount(entry.NewTotalCash),
		CashAdditions:     types.FormatAmount(entry.CashAdditions),
		CashRemovals:      types.FormatAmount(entry.CashRemovals),
		TotalReturns:      types.FormatAmount(entry.TotalReturns),
		Reason:            entry.Reason,
		ChainSeq:          entry.ChainSeq,
		EffectiveDate:     entry.EffectiveDate.Format("2006-01-02"),
		CreatedAt:         entry.CreatedAt,
	}
}

type vendorTransactionResponse struct {
	TransactionID     uuid.UUID       `json:"transaction_id"`
	Type              string          `json:"type"`
	BusinessID        uuid.UUID       `json:"business_id"`
	BranchID          uuid.UUID       `json:"branch_id"`
	VendorID          uuid.UUID       `json:"vendor_id"`
	VendorName        string          `json:"vendor_name"`
	Amount            string          `json:"amount"`
	Profit            string          `json:"profit"`
	AccumulatedProfit string          `json:"accumulated_profit"`
	Status            string          `json:"status"`
	Notes             *string         `json:"notes,omitempty"`
	Payload           json.RawMessage `json:"payload,omitempty"`
	ChainSeq          int64           `json:"chain_seq"`
	CreatedAt         time.Time       `json:"created_at"`
}

func newVendorTransactionResponse(tx models.VendorTransaction) vendorTransactionResponse {
	resp := vendorTransactionResponse{
		TransactionID:     tx.TransactionID,
		Type:              string(tx.Type),
		BusinessID:        tx.BusinessID,
		BranchID:          tx.BranchID,
		VendorID:          tx.VendorID,
		VendorName:        tx.VendorName,
		Amount:            types.FormatAmount(tx.Amount),
		Profit:            types.FormatAmount(tx.Profit),
		AccumulatedProfit: types.FormatAmount(tx.AccumulatedProfit),
		Status:            string(tx.Status),
		Notes:             tx.Notes,
		ChainSeq:          tx.ChainSeq,
		CreatedAt:         tx.CreatedAt,
	}
	if payload := vendorPayloadJSON(tx); payload != nil {
		resp.Payload = payload
	}
	return resp
}

func vendorPayloadJSON(tx models.VendorTransaction) json.RawMessage {
	fields := map[string]any{}
	if tx.ProductName != nil {
		fields["product_name"] = *tx.ProductName
	}
	if tx.ProductQuantity != nil {
		fields["product_quantity"] = *tx.ProductQuantity
	}
	if tx.UnitPrice != nil {
		fields["unit_price"] = types.FormatAmount(*tx.UnitPrice)
	}
	if tx.TotalPrice != nil {
		fields["total_price"] = types.FormatAmount(*tx.TotalPrice)
	}
	if tx.RentalStartDate != nil {
		fields["rental_start_date"] = tx.RentalStartDate.Format("2006-01-02")
	}
	if tx.RentalEndDate != nil {
		fields["rental_end_date"] = tx.RentalEndDate.Format("2006-01-02")
	}
	if tx.RentalPeriod != nil {
		fields["rental_period"] = *tx.RentalPeriod
	}
	if tx.TaxPeriod != nil {
		fields["tax_period"] = *tx.TaxPeriod
	}
	if tx.TaxDescription != nil {
		fields["tax_description"] = *tx.TaxDescription
	}
	if len(fields) == 0 {
		return nil
	}
	payload, err := json.Marshal(fields)
	if err != nil {
		return nil
	}
	return payload
}

type soldProductResponse struct {
	ID                  uuid.UUID  `json:"id"`
	SaleID              uuid.UUID  `json:"sale_id"`
	ProductID           uuid.UUID  `json:"product_id"`
	ProductName         string     `json:"product_name"`
	UnitPriceOriginal   string     `json:"unit_price_original"`
	UnitPriceByBusiness string     `json:"unit_price_by_business"`
	Quantity            int64      `json:"quantity"`
	Commission          string     `json:"commission"`
	TotalPrice          string     `json:"total_price"`
	VendorID            *uuid.UUID `json:"vendor_id,omitempty"`
	VendorName          *string    `json:"vendor_name,omitempty"`
}

func newSoldProductResponse(sold models.SoldProduct) soldProductResponse {
	return soldProductResponse{
		ID:                  sold.ID,
		SaleID:              sold.SaleID,
		ProductID:           sold.ProductID,
		ProductName:         sold.ProductName,
		UnitPriceOriginal:   types.FormatAmount(sold.UnitPriceOriginal),
		UnitPriceByBusiness: types.FormatAmount(sold.UnitPriceByBusiness),
		Quantity:            sold.Quantity,
		Commission:          types.FormatAmount(sold.CommissionForBusinessFromVendor),
		TotalPrice:          types.FormatAmount(sold.TotalPrice),
		VendorID:            sold.VendorID,
		VendorName:          sold.VendorName,
	}
}

type auditEntryResponse struct {
	ID                      uuid.UUID       `json:"id"`
	BusinessID              uuid.UUID       `json:"business_id"`
	BusinessName            string          `json:"business_name"`
	BranchName              string          `json:"branch_name"`
	VendorID                *uuid.UUID      `json:"vendor_id,omitempty"`
	VendorName              *string         `json:"vendor_name,omitempty"`
	TransactionType         string          `json:"transaction_type"`
	Amount                  string          `json:"amount"`
	OwnerProfitContribution string          `json:"owner_profit_contribution"`
	PaymentMethod           string          `json:"payment_method"`
	Currency                string          `json:"currency"`
	TransactionReason       string          `json:"transaction_reason"`
	Details                 json.RawMessage `json:"details,omitempty"`
	CreatedAt               time.Time       `json:"created_at"`
}

func newAuditEntryResponse(entry models.AuditTrailEntry) auditEntryResponse {
	return auditEntryResponse{
		ID:                      entry.ID,
		BusinessID:              entry.BusinessID,
		BusinessName:            entry.BusinessName,
		BranchName:              entry.BranchName,
		VendorID:                entry.VendorID,
		VendorName:              entry.VendorName,
		TransactionType:         entry.TransactionType,
		Amount:                  types.FormatAmount(entry.Amount),
		OwnerProfitContribution: types.FormatAmount(entry.OwnerProfitContribution),
		PaymentMethod:           string(entry.PaymentMethod),
		Currency:                string(entry.Currency),
		TransactionReason:       entry.TransactionReason,
		Details:                 entry.Details,
		CreatedAt:               entry.CreatedAt,
	}
}
