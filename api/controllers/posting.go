package controllers

import (
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muscatcode/suqpos-backend/api/responses"
	"github.com/muscatcode/suqpos-backend/api/validators"
	"github.com/muscatcode/suqpos-backend/internal/posting"
	"github.com/muscatcode/suqpos-backend/internal/proration"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	pkgerrors "github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/types"
)

type scopeRequest struct {
	BusinessID   uuid.UUID `json:"business_id" validate:"required"`
	BusinessName string    `json:"business_name" validate:"required"`
	BranchID     uuid.UUID `json:"branch_id" validate:"required"`
	BranchName   string    `json:"branch_name" validate:"required"`
	CashierName  *string   `json:"cashier_name,omitempty"`
}

func (s scopeRequest) toScope() posting.EventScope {
	return posting.EventScope{
		BusinessID:   s.BusinessID,
		BusinessName: s.BusinessName,
		BranchID:     s.BranchID,
		BranchName:   s.BranchName,
		CashierName:  s.CashierName,
	}
}

type saleItemRequest struct {
	ProductID         uuid.UUID  `json:"product_id" validate:"required"`
	ProductName       string     `json:"product_name" validate:"required"`
	UnitPrice         string     `json:"unit_price" validate:"required"`
	OriginalUnitPrice string     `json:"original_unit_price" validate:"required"`
	Quantity          int64      `json:"quantity" validate:"required,min=1"`
	VendorID          *uuid.UUID `json:"vendor_id,omitempty"`
	VendorName        string     `json:"vendor_name,omitempty"`
}

type saleRequest struct {
	SaleID        uuid.UUID         `json:"sale_id" validate:"required"`
	Scope         scopeRequest      `json:"scope" validate:"required"`
	PaymentMethod string            `json:"payment_method" validate:"required"`
	Discount      string            `json:"discount,omitempty"`
	Items         []saleItemRequest `json:"items" validate:"required,min=1,dive"`
}

// PostSale runs a completed cart through the posting pipeline.
func PostSale(svc posting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		key, err := idempotencyKeyFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload saleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		discount := decimal.Zero
		if payload.Discount != "" {
			discount, err = types.ParseAmount(payload.Discount)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount"))
				return
			}
		}

		items := make([]proration.LineItem, 0, len(payload.Items))
		for _, item := range payload.Items {
			unitPrice, err := types.ParseAmount(item.UnitPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid unit price"))
				return
			}
			originalPrice, err := types.ParseAmount(item.OriginalUnitPrice)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid original unit price"))
				return
			}
			items = append(items, proration.LineItem{
				ProductID:         item.ProductID,
				ProductName:       item.ProductName,
				UnitPrice:         unitPrice,
				OriginalUnitPrice: originalPrice,
				Quantity:          item.Quantity,
				VendorID:          item.VendorID,
				VendorName:        item.VendorName,
			})
		}

		result, err := svc.Post(r.Context(), posting.SaleEvent{
			IdempotencyKey: key,
			SaleID:         payload.SaleID,
			EventScope:     payload.Scope.toScope(),
			PaymentMethod:  method,
			Items:          items,
			Discount:       discount,
		})
		if err != nil {
			writePostingError(r, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPostingResponse(result))
	}
}

type returnLineRequest struct {
	ProductID           uuid.UUID  `json:"product_id" validate:"required"`
	ProductName         string     `json:"product_name" validate:"required"`
	UnitPriceOriginal   string     `json:"unit_price_original" validate:"required"`
	UnitPriceByBusiness string     `json:"unit_price_by_business" validate:"required"`
	Quantity            int64      `json:"quantity" validate:"required,min=1"`
	Commission          string     `json:"commission,omitempty"`
	VendorID            *uuid.UUID `json:"vendor_id,omitempty"`
	VendorName          string     `json:"vendor_name,omitempty"`
}

type returnRequest struct {
	SaleID        uuid.UUID           `json:"sale_id" validate:"required"`
	Scope         scopeRequest        `json:"scope" validate:"required"`
	PaymentMethod string              `json:"payment_method" validate:"required"`
	Reason        *string             `json:"reason,omitempty"`
	Lines         []returnLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// PostReturn reverses previously sold lines against the original sale.
func PostReturn(svc posting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		key, err := idempotencyKeyFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload returnRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		method, err := enums.ParsePaymentMethod(payload.PaymentMethod)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment method"))
			return
		}

		lines := make([]proration.ReturnLine, 0, len(payload.Lines))
		for _, line := range payload.Lines {
			original, err := types.ParseAmount(line.UnitPriceOriginal)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid original unit price"))
				return
			}
			byBusiness, err := types.ParseAmount(line.UnitPriceByBusiness)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid selling unit price"))
				return
			}
			commission := decimal.Zero
			if line.Commission != "" {
				commission, err = types.ParseAmount(line.Commission)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission"))
					return
				}
			}
			lines = append(lines, proration.ReturnLine{
				ProductID:           line.ProductID,
				ProductName:         line.ProductName,
				UnitPriceOriginal:   original,
				UnitPriceByBusiness: byBusiness,
				Quantity:            line.Quantity,
				Commission:          commission,
				VendorID:            line.VendorID,
				VendorName:          line.VendorName,
			})
		}

		result, err := svc.Post(r.Context(), posting.ReturnEvent{
			IdempotencyKey: key,
			SaleID:         payload.SaleID,
			EventScope:     payload.Scope.toScope(),
			PaymentMethod:  method,
			Lines:          lines,
			Reason:         payload.Reason,
		})
		if err != nil {
			writePostingError(r, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPostingResponse(result))
	}
}

type cashAdjustmentRequest struct {
	Scope     scopeRequest `json:"scope" validate:"required"`
	Additions string       `json:"additions,omitempty"`
	Removals  string       `json:"removals,omitempty"`
	Reason    string       `json:"reason" validate:"required"`
}

// PostCashAdjustment moves cash in or out of the till without a sale.
func PostCashAdjustment(svc posting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		key, err := idempotencyKeyFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload cashAdjustmentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		additions := decimal.Zero
		if payload.Additions != "" {
			additions, err = types.ParseAmount(payload.Additions)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid additions"))
				return
			}
		}
		removals := decimal.Zero
		if payload.Removals != "" {
			removals, err = types.ParseAmount(payload.Removals)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid removals"))
				return
			}
		}

		result, err := svc.Post(r.Context(), posting.CashAdjustmentEvent{
			IdempotencyKey: key,
			EventScope:     payload.Scope.toScope(),
			Additions:      additions,
			Removals:       removals,
			Reason:         payload.Reason,
		})
		if err != nil {
			writePostingError(r, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPostingResponse(result))
	}
}

type taxSettlementRequest struct {
	Scope       scopeRequest `json:"scope" validate:"required"`
	VendorID    uuid.UUID    `json:"vendor_id" validate:"required"`
	VendorName  string       `json:"vendor_name" validate:"required"`
	Amount      string       `json:"amount" validate:"required"`
	Period      string       `json:"period" validate:"required"`
	Description string       `json:"description,omitempty"`
}

// PostTaxSettlement collects a vendor's tax share in cash.
func PostTaxSettlement(svc posting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		key, err := idempotencyKeyFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload taxSettlementRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := types.ParseAmount(payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		result, err := svc.Post(r.Context(), posting.TaxSettlementEvent{
			IdempotencyKey: key,
			EventScope:     payload.Scope.toScope(),
			VendorID:       payload.VendorID,
			VendorName:     payload.VendorName,
			Amount:         amount,
			Period:         payload.Period,
			Description:    payload.Description,
		})
		if err != nil {
			writePostingError(r, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPostingResponse(result))
	}
}

type rentalIncomeRequest struct {
	Scope      scopeRequest `json:"scope" validate:"required"`
	VendorID   uuid.UUID    `json:"vendor_id" validate:"required"`
	VendorName string       `json:"vendor_name" validate:"required"`
	Amount     string       `json:"amount" validate:"required"`
	StartDate  string       `json:"start_date" validate:"required"`
	EndDate    string       `json:"end_date" validate:"required"`
	Period     string       `json:"period" validate:"required"`
}

// PostRentalIncome collects booth rent from a vendor in cash.
func PostRentalIncome(svc posting.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "posting service unavailable"))
			return
		}

		key, err := idempotencyKeyFromHeader(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rentalIncomeRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		amount, err := types.ParseAmount(payload.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		startDate, err := time.Parse("2006-01-02", payload.StartDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid start date"))
			return
		}
		endDate, err := time.Parse("2006-01-02", payload.EndDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid end date"))
			return
		}

		result, err := svc.Post(r.Context(), posting.RentalIncomeEvent{
			IdempotencyKey: key,
			EventScope:     payload.Scope.toScope(),
			VendorID:       payload.VendorID,
			VendorName:     payload.VendorName,
			Amount:         amount,
			StartDate:      startDate,
			EndDate:        endDate,
			Period:         payload.Period,
		})
		if err != nil {
			writePostingError(r, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, newPostingResponse(result))
	}
}

func idempotencyKeyFromHeader(r *http.Request) (string, error) {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required")
	}
	return key, nil
}

// writePostingError surfaces partial posts with the step detail a client
// needs to decide whether to resubmit.
func writePostingError(r *http.Request, logg *logger.Logger, w http.ResponseWriter, err error) {
	var partial *posting.PartialPostError
	if stderrors.As(err, &partial) {
		completed := make([]string, 0, len(partial.Completed))
		for _, step := range partial.Completed {
			completed = append(completed, string(step))
		}
		wrapped := pkgerrors.Wrap(pkgerrors.CodePartialPost, err, "event was only partially posted").WithDetails(map[string]any{
			"failed_step":     string(partial.Failed),
			"completed_steps": completed,
		})
		responses.WriteError(r.Context(), logg, w, wrapped)
		return
	}
	responses.WriteError(r.Context(), logg, w, err)
}
