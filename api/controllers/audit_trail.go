package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/muscatcode/suqpos-backend/api/responses"
	"github.com/muscatcode/suqpos-backend/api/validators"
	"github.com/muscatcode/suqpos-backend/internal/audittrail"
	pkgerrors "github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
)

type auditHistoryResponse struct {
	Entries []auditEntryResponse `json:"entries"`
	Cursor  string               `json:"cursor"`
}

// AuditTrailHistory returns paginated audit entries for a business, optionally
// narrowed to one vendor or a date window.
func AuditTrailHistory(svc audittrail.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "audit trail service unavailable"))
			return
		}

		businessID, err := validators.ParseQueryUUID(r, "business_id", true)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		query := audittrail.HistoryQuery{BusinessID: businessID}

		vendorID, err := validators.ParseQueryUUID(r, "vendor_id", false)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if vendorID != uuid.Nil {
			query.VendorID = &vendorID
		}

		if query.From, err = validators.ParseQueryDate(r, "from"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if query.To, err = validators.ParseQueryDate(r, "to"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if query.Pagination, err = paginationParams(r); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries, next, err := svc.History(r.Context(), query)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := auditHistoryResponse{Entries: make([]auditEntryResponse, 0, len(entries))}
		for _, entry := range entries {
			resp.Entries = append(resp.Entries, newAuditEntryResponse(entry))
		}
		if next != nil {
			resp.Cursor = pagination.EncodeCursor(*next)
		}
		responses.WriteSuccess(w, resp)
	}
}
