package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeRepository struct {
	entries []models.CashLedgerEntry
	head    *models.CashLedgerHead

	casFn func(head *models.CashLedgerHead, expectedVersion int64) (bool, error)
}

func (f *fakeRepository) WithTx(tx *gorm.DB) Repository {
	return f
}

func (f *fakeRepository) Head(ctx context.Context, businessID, branchID uuid.UUID) (*models.CashLedgerHead, error) {
	if f.head == nil || f.head.BusinessID != businessID || f.head.BranchID != branchID {
		return nil, nil
	}
	copied := *f.head
	return &copied, nil
}

func (f *fakeRepository) InsertHead(ctx context.Context, head *models.CashLedgerHead) error {
	f.head = head
	return nil
}

func (f *fakeRepository) UpdateHeadCAS(ctx context.Context, head *models.CashLedgerHead, expectedVersion int64) (bool, error) {
	if f.casFn != nil {
		return f.casFn(head, expectedVersion)
	}
	if f.head == nil || f.head.Version != expectedVersion {
		return false, nil
	}
	copied := *head
	f.head = &copied
	return true, nil
}

func (f *fakeRepository) CreateEntry(ctx context.Context, entry *models.CashLedgerEntry) error {
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeRepository) LatestEntry(ctx context.Context, businessID, branchID uuid.UUID) (*models.CashLedgerEntry, error) {
	var latest *models.CashLedgerEntry
	for i := range f.entries {
		entry := &f.entries[i]
		if entry.BusinessID != businessID || entry.BranchID != branchID {
			continue
		}
		if latest == nil || entry.ChainSeq > latest.ChainSeq {
			latest = entry
		}
	}
	return latest, nil
}

func (f *fakeRepository) FindByIdempotencyKey(ctx context.Context, key string) (*models.CashLedgerEntry, error) {
	for i := range f.entries {
		entry := &f.entries[i]
		if entry.IdempotencyKey != nil && *entry.IdempotencyKey == key {
			return entry, nil
		}
	}
	return nil, nil
}

func (f *fakeRepository) List(ctx context.Context, params listEntriesParams) ([]models.CashLedgerEntry, *pagination.Cursor, error) {
	return f.entries, nil, nil
}

func newTestService(t *testing.T, repo Repository, maxRetries int) Service {
	t.Helper()
	svc, err := NewService(fakeTxRunner{}, repo, maxRetries, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func amount(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func TestService_AppendSeedsChain(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 3)
	businessID := uuid.New()
	branchID := uuid.New()

	entry, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("21.000"),
		EffectiveDate: time.Date(2025, 8, 12, 10, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Append error: %v", err)
	}

	if entry.ChainSeq != 1 {
		t.Fatalf("chain seq = %d, want 1", entry.ChainSeq)
	}
	if !entry.PreviousTotalCash.IsZero() {
		t.Fatalf("previous total = %s, want 0", entry.PreviousTotalCash)
	}
	if !entry.NewTotalCash.Equal(amount("21.000")) {
		t.Fatalf("new total = %s, want 21.000", entry.NewTotalCash)
	}
	if repo.head == nil || repo.head.Version != 1 {
		t.Fatalf("head not seeded: %+v", repo.head)
	}
	if !repo.head.Balance.Equal(amount("21.000")) {
		t.Fatalf("head balance = %s, want 21.000", repo.head.Balance)
	}
}

func TestService_AppendChainsOnPrevious(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 3)
	businessID := uuid.New()
	branchID := uuid.New()

	first, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("21.000"),
	})
	if err != nil {
		t.Fatalf("first Append error: %v", err)
	}

	second, err := svc.Append(context.Background(), AppendInput{
		BusinessID:   businessID,
		BranchID:     branchID,
		CashRemovals: amount("8.800"),
		TotalReturns: amount("8.800"),
	})
	if err != nil {
		t.Fatalf("second Append error: %v", err)
	}

	if !second.PreviousTotalCash.Equal(first.NewTotalCash) {
		t.Fatalf("chain broken: previous %s, prior new total %s", second.PreviousTotalCash, first.NewTotalCash)
	}
	if !second.NewTotalCash.Equal(amount("12.200")) {
		t.Fatalf("new total = %s, want 12.200", second.NewTotalCash)
	}
	if second.ChainSeq != first.ChainSeq+1 {
		t.Fatalf("chain seq = %d, want %d", second.ChainSeq, first.ChainSeq+1)
	}
}

func TestService_AppendIdempotentReplay(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 3)
	key := "pos-1-receipt-42"
	input := AppendInput{
		BusinessID:     uuid.New(),
		BranchID:       uuid.New(),
		CashAdditions:  amount("5.500"),
		IdempotencyKey: &key,
	}

	first, err := svc.Append(context.Background(), input)
	if err != nil {
		t.Fatalf("first Append error: %v", err)
	}
	replay, err := svc.Append(context.Background(), input)
	if err != nil {
		t.Fatalf("replay Append error: %v", err)
	}

	if replay.ID != first.ID {
		t.Fatalf("replay created a new entry: %s vs %s", replay.ID, first.ID)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("entry count = %d, want 1", len(repo.entries))
	}
	if !repo.head.Balance.Equal(amount("5.500")) {
		t.Fatalf("balance drifted on replay: %s", repo.head.Balance)
	}
}

func TestService_AppendRetriesOnHeadContention(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 3)
	businessID := uuid.New()
	branchID := uuid.New()

	if _, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("1.000"),
	}); err != nil {
		t.Fatalf("seed Append error: %v", err)
	}

	failures := 1
	repo.casFn = func(head *models.CashLedgerHead, expectedVersion int64) (bool, error) {
		if failures > 0 {
			failures--
			return false, nil
		}
		repo.casFn = nil
		return repo.UpdateHeadCAS(context.Background(), head, expectedVersion)
	}

	entry, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("2.000"),
	})
	if err != nil {
		t.Fatalf("Append error after contention: %v", err)
	}
	if !entry.NewTotalCash.Equal(amount("3.000")) {
		t.Fatalf("new total = %s, want 3.000", entry.NewTotalCash)
	}
}

func TestService_AppendGivesUpAfterRetries(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 2)
	businessID := uuid.New()
	branchID := uuid.New()

	if _, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("1.000"),
	}); err != nil {
		t.Fatalf("seed Append error: %v", err)
	}

	repo.casFn = func(head *models.CashLedgerHead, expectedVersion int64) (bool, error) {
		return false, nil
	}

	_, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("2.000"),
	})
	if !errors.IsCode(err, errors.CodeConcurrency) {
		t.Fatalf("expected concurrency conflict, got %v", err)
	}
}

func TestService_AppendValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 3)

	tests := []struct {
		name  string
		input AppendInput
	}{
		{
			name: "missing business id",
			input: AppendInput{
				BranchID:      uuid.New(),
				CashAdditions: amount("1.000"),
			},
		},
		{
			name: "missing branch id",
			input: AppendInput{
				BusinessID:    uuid.New(),
				CashAdditions: amount("1.000"),
			},
		},
		{
			name: "negative additions",
			input: AppendInput{
				BusinessID:    uuid.New(),
				BranchID:      uuid.New(),
				CashAdditions: amount("-1.000"),
			},
		},
		{
			name: "no cash movement",
			input: AppendInput{
				BusinessID: uuid.New(),
				BranchID:   uuid.New(),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Append(context.Background(), tt.input)
			if !errors.IsCode(err, errors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if len(repo.entries) != 0 {
		t.Fatalf("invalid input persisted entries: %d", len(repo.entries))
	}
}

func TestService_ResolveBalance(t *testing.T) {
	repo := &fakeRepository{}
	svc := newTestService(t, repo, 3)
	businessID := uuid.New()
	branchID := uuid.New()

	balance, err := svc.ResolveBalance(context.Background(), businessID, branchID)
	if err != nil {
		t.Fatalf("ResolveBalance error: %v", err)
	}
	if !balance.IsZero() {
		t.Fatalf("empty branch balance = %s, want 0", balance)
	}

	if _, err := svc.Append(context.Background(), AppendInput{
		BusinessID:    businessID,
		BranchID:      branchID,
		CashAdditions: amount("21.000"),
		CashRemovals:  amount("0.500"),
	}); err != nil {
		t.Fatalf("Append error: %v", err)
	}

	balance, err = svc.ResolveBalance(context.Background(), businessID, branchID)
	if err != nil {
		t.Fatalf("ResolveBalance error: %v", err)
	}
	if !balance.Equal(amount("20.500")) {
		t.Fatalf("balance = %s, want 20.500", balance)
	}
}
