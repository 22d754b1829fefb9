package audittrail

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeRepository struct {
	entries  []models.AuditTrailEntry
	createFn func(ctx context.Context, entry *models.AuditTrailEntry) error
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Create(ctx context.Context, entry *models.AuditTrailEntry) error {
	if f.createFn != nil {
		if err := f.createFn(ctx, entry); err != nil {
			return err
		}
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.AuditTrailEntry, error) {
	for i := range f.entries {
		entry := &f.entries[i]
		if entry.IdempotencyKey != nil && *entry.IdempotencyKey == key {
			return entry, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, params listAuditParams) ([]models.AuditTrailEntry, *pagination.Cursor, error) {
	var out []models.AuditTrailEntry
	for _, entry := range f.entries {
		if entry.BusinessID != params.BusinessID {
			continue
		}
		if params.VendorID != nil && (entry.VendorID == nil || *entry.VendorID != *params.VendorID) {
			continue
		}
		out = append(out, entry)
	}
	return out, nil, nil
}

func recordInput(businessID uuid.UUID) RecordInput {
	return RecordInput{
		BusinessID:              businessID,
		BusinessName:            "Muttrah Trading",
		BranchName:              "Souq Branch",
		TransactionType:         "sale",
		Amount:                  decimal.RequireFromString("21.000"),
		OwnerProfitContribution: decimal.RequireFromString("20.000"),
		PaymentMethod:           enums.PaymentMethodCash,
		TransactionReason:       "walk-in sale",
		Details:                 json.RawMessage(`{"receipt":"R-1042"}`),
	}
}

func TestService_Record(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	businessID := uuid.New()

	entry, err := svc.Record(context.Background(), recordInput(businessID))
	if err != nil {
		t.Fatalf("Record error: %v", err)
	}
	if entry.Currency != enums.CurrencyOMR {
		t.Fatalf("currency = %q, want OMR", entry.Currency)
	}
	if !entry.Amount.Equal(decimal.RequireFromString("21.000")) {
		t.Fatalf("amount = %s, want 21.000", entry.Amount)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(repo.entries))
	}
}

func TestService_RecordIdempotentReplay(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	key := "evt-7:audit"
	input := recordInput(uuid.New())
	input.IdempotencyKey = &key

	first, err := svc.Record(context.Background(), input)
	if err != nil {
		t.Fatalf("first Record error: %v", err)
	}
	replay, err := svc.Record(context.Background(), input)
	if err != nil {
		t.Fatalf("replay Record error: %v", err)
	}
	if replay.ID != first.ID {
		t.Fatal("replay created a new audit entry")
	}
	if len(repo.entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(repo.entries))
	}
}

func TestService_RecordValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(input *RecordInput)
	}{
		{
			name:   "missing business id",
			mutate: func(input *RecordInput) { input.BusinessID = uuid.Nil },
		},
		{
			name:   "missing branch name",
			mutate: func(input *RecordInput) { input.BranchName = "" },
		},
		{
			name:   "missing reason",
			mutate: func(input *RecordInput) { input.TransactionReason = "" },
		},
		{
			name:   "invalid payment method",
			mutate: func(input *RecordInput) { input.PaymentMethod = "barter" },
		},
		{
			name: "vendor id without name",
			mutate: func(input *RecordInput) {
				vendorID := uuid.New()
				input.VendorID = &vendorID
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := recordInput(uuid.New())
			tt.mutate(&input)
			_, err := svc.Record(context.Background(), input)
			if !errors.IsCode(err, errors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestService_HistoryFiltersVendor(t *testing.T) {
	repo := &fakeRepository{}
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	businessID := uuid.New()
	vendorID := uuid.New()
	vendorName := "Al Dakhili Crafts"

	if _, err := svc.Record(context.Background(), recordInput(businessID)); err != nil {
		t.Fatalf("Record error: %v", err)
	}
	withVendor := recordInput(businessID)
	withVendor.VendorID = &vendorID
	withVendor.VendorName = &vendorName
	if _, err := svc.Record(context.Background(), withVendor); err != nil {
		t.Fatalf("Record error: %v", err)
	}

	entries, _, err := svc.History(context.Background(), HistoryQuery{
		BusinessID: businessID,
		VendorID:   &vendorID,
	})
	if err != nil {
		t.Fatalf("History error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("filtered entries = %d, want 1", len(entries))
	}
	if entries[0].VendorID == nil || *entries[0].VendorID != vendorID {
		t.Fatal("vendor filter returned wrong entry")
	}
}
