package audittrail

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/muscatcode/suqpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Service defines operations that record audit trail entries.
type Service interface {
	// Record writes one audit entry. A retry carrying an already used
	// idempotency key returns the original entry.
	Record(ctx context.Context, input RecordInput) (*models.AuditTrailEntry, error)
	History(ctx context.Context, query HistoryQuery) ([]models.AuditTrailEntry, *pagination.Cursor, error)
}

type service struct {
	repo Repository
}

// RecordInput captures the immutable data an audit entry requires.
type RecordInput struct {
	BusinessID              uuid.UUID
	BusinessName            string
	BranchName              string
	VendorID                *uuid.UUID
	VendorName              *string
	TransactionType         string
	Amount                  decimal.Decimal
	OwnerProfitContribution decimal.Decimal
	PaymentMethod           enums.PaymentMethod
	TransactionReason       string
	Details                 json.RawMessage
	IdempotencyKey          *string
}

// HistoryQuery filters the audit listing.
type HistoryQuery struct {
	BusinessID uuid.UUID
	VendorID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	Pagination pagination.Params
}

// NewService wires an audit trail service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("audit trail repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Record(ctx context.Context, input RecordInput) (*models.AuditTrailEntry, error) {
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(errors.CodeResolution, err, "look up audit idempotency key")
		}
		if existing != nil {
			return existing, nil
		}
	}

	entry := &models.AuditTrailEntry{
		ID:                      uuid.New(),
		BusinessID:              input.BusinessID,
		BusinessName:            input.BusinessName,
		BranchName:              input.BranchName,
		VendorID:                input.VendorID,
		VendorName:              input.VendorName,
		TransactionType:         input.TransactionType,
		Amount:                  types.RoundAmount(input.Amount),
		OwnerProfitContribution: types.RoundAmount(input.OwnerProfitContribution),
		PaymentMethod:           input.PaymentMethod,
		Currency:                enums.CurrencyOMR,
		TransactionReason:       input.TransactionReason,
		Details:                 input.Details,
		IdempotencyKey:          input.IdempotencyKey,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		if input.IdempotencyKey != nil && db.IsUniqueViolation(err, "ux_audit_trail_entries_idem") {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
			if findErr == nil && existing != nil {
				return existing, nil
			}
			return nil, errors.Wrap(errors.CodeIdempotency, err, "audit idempotency key already used")
		}
		return nil, errors.Wrap(errors.CodeResolution, err, "record audit entry")
	}
	return entry, nil
}

func (s *service) History(ctx context.Context, query HistoryQuery) ([]models.AuditTrailEntry, *pagination.Cursor, error) {
	if query.BusinessID == uuid.Nil {
		return nil, nil, errors.New(errors.CodeValidation, "business id is required")
	}
	if query.From != nil && query.To != nil && query.To.Before(*query.From) {
		return nil, nil, errors.New(errors.CodeValidation, "history window end precedes start")
	}
	cursor, err := pagination.ParseCursor(query.Pagination.Cursor)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}
	entries, next, err := s.repo.List(ctx, listAuditParams{
		BusinessID: query.BusinessID,
		VendorID:   query.VendorID,
		From:       query.From,
		To:         query.To,
		Limit:      query.Pagination.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeResolution, err, "list audit entries")
	}
	return entries, next, nil
}

func validateRecordInput(input RecordInput) error {
	if input.BusinessID == uuid.Nil {
		return errors.New(errors.CodeValidation, "business id is required")
	}
	if input.BusinessName == "" || input.BranchName == "" {
		return errors.New(errors.CodeValidation, "business and branch names are required")
	}
	if input.TransactionType == "" {
		return errors.New(errors.CodeValidation, "transaction type is required")
	}
	if input.TransactionReason == "" {
		return errors.New(errors.CodeValidation, "transaction reason is required")
	}
	if !input.PaymentMethod.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid payment method %q", input.PaymentMethod))
	}
	if input.VendorID != nil && (input.VendorName == nil || *input.VendorName == "") {
		return errors.New(errors.CodeValidation, "vendor name is required when vendor id is set")
	}
	if input.IdempotencyKey != nil && *input.IdempotencyKey == "" {
		return errors.New(errors.CodeValidation, "idempotency key must not be empty")
	}
	return nil
}
