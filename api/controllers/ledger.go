package controllers

import (
	"net/http"
	"strings"

	"github.com/muscatcode/suqpos-backend/api/responses"
	"github.com/muscatcode/suqpos-backend/api/validators"
	"github.com/muscatcode/suqpos-backend/internal/ledger"
	pkgerrors "github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/muscatcode/suqpos-backend/pkg/types"
)

type balanceResponse struct {
	BusinessID string `json:"business_id"`
	BranchID   string `json:"branch_id"`
	Balance    string `json:"balance"`
	Currency   string `json:"currency"`
}

// LedgerBalance resolves the branch cash position from the chain head.
func LedgerBalance(svc ledger.Service, currency string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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

		balance, err := svc.ResolveBalance(r.Context(), businessID, branchID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, balanceResponse{
			BusinessID: businessID.String(),
			BranchID:   branchID.String(),
			Balance:    types.FormatAmount(balance),
			Currency:   currency,
		})
	}
}

type ledgerHistoryResponse struct {
	Entries []cashEntryResponse `json:"entries"`
	Cursor  string              `json:"cursor"`
}

// LedgerHistory returns paginated cash ledger entries for a branch.
func LedgerHistory(svc ledger.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "ledger service unavailable"))
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

		params, err := paginationParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, next, err := svc.History(r.Context(), businessID, branchID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := ledgerHistoryResponse{Entries: make([]cashEntryResponse, 0, len(entries))}
		for i := range entries {
			resp.Entries = append(resp.Entries, *newCashEntryResponse(&entries[i]))
		}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}

func paginationParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}, nil
}
