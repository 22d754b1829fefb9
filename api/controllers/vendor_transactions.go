package controllers

import (
	"net/http"

	"github.com/muscatcode/suqpos-backend/api/responses"
	"github.com/muscatcode/suqpos-backend/api/validators"
	"github.com/muscatcode/suqpos-backend/internal/vendorprofit"
	pkgerrors "github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/muscatcode/suqpos-backend/pkg/types"
)

type accumulatedProfitResponse struct {
	BusinessID        string `json:"business_id"`
	BranchID          string `json:"branch_id"`
	VendorID          string `json:"vendor_id"`
	AccumulatedProfit string `json:"accumulated_profit"`
}

// VendorAccumulatedProfit returns the running profit total for a vendor scope.
func VendorAccumulatedProfit(svc vendorprofit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor profit service unavailable"))
			return
		}

		businessID, err := validators.ParseQueryUUID(r, "business_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := validators.ParseQueryUUID(r, "branch_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		accumulated, err := svc.Accumulated(r.Context(), businessID, branchID, vendorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, accumulatedProfitResponse{
			BusinessID:        businessID.String(),
			BranchID:          branchID.String(),
			VendorID:          vendorID.String(),
			AccumulatedProfit: types.FormatAmount(accumulated),
		})
	}
}

type vendorHistoryResponse struct {
	Transactions []vendorTransactionResponse `json:"transactions"`
	Cursor       string                      `json:"cursor"`
}

// VendorTransactionHistory returns paginated vendor transactions for a scope.
func VendorTransactionHistory(svc vendorprofit.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "vendor profit service unavailable"))
			return
		}

		businessID, err := validators.ParseQueryUUID(r, "business_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		branchID, err := validators.ParseQueryUUID(r, "branch_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		vendorID, err := validators.ParseQueryUUID(r, "vendor_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		transactions, next, err := svc.History(r.Context(), businessID, branchID, vendorID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := vendorHistoryResponse{Transactions: make([]vendorTransactionResponse, 0, len(transactions))}
		for _, tx := range transactions {
			resp.Transactions = append(resp.Transactions, newVendorTransactionResponse(tx))
		}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}
