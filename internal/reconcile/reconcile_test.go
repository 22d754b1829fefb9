package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
)

type fakeStates struct {
	states []models.PostingState
}

func (f *fakeStates) ListSince(ctx context.Context, since time.Time) ([]models.PostingState, error) {
	return f.states, nil
}

type fakeCash struct {
	entries map[string]*models.CashLedgerEntry
}

func (f *fakeCash) FindByIdempotencyKey(ctx context.Context, key string) (*models.CashLedgerEntry, error) {
	return f.entries[key], nil
}

func state(key string, kind enums.EventKind, step enums.PostingStep, status enums.PostingStepStatus) models.PostingState {
	return models.PostingState{
		ID:             uuid.New(),
		IdempotencyKey: key,
		EventKind:      kind,
		Step:           string(step),
		Status:         status,
	}
}

func cashEntry(key string) *models.CashLedgerEntry {
	derived := key + ":cash"
	return &models.CashLedgerEntry{ID: uuid.New(), IdempotencyKey: &derived}
}

func newService(t *testing.T, states *fakeStates, cash *fakeCash) *Service {
	t.Helper()
	svc, err := New(states, cash, 24*time.Hour, nil, nil)
	if err != nil {
		t.Fatalf("unexpected service error: %v", err)
	}
	return svc
}

func TestRun_CleanPass(t *testing.T) {
	states := &fakeStates{states: []models.PostingState{
		state("evt-1", enums.EventKindSale, enums.PostingStepProrated, enums.PostingStepStatusCompleted),
		state("evt-1", enums.EventKindSale, enums.PostingStepCashLedger, enums.PostingStepStatusCompleted),
		state("evt-1", enums.EventKindSale, enums.PostingStepVendorProfit, enums.PostingStepStatusCompleted),
		state("evt-1", enums.EventKindSale, enums.PostingStepSoldProducts, enums.PostingStepStatusCompleted),
		state("evt-1", enums.EventKindSale, enums.PostingStepAuditTrail, enums.PostingStepStatusCompleted),
	}}
	cash := &fakeCash{entries: map[string]*models.CashLedgerEntry{
		"evt-1:cash": cashEntry("evt-1"),
	}}

	report, err := newService(t, states, cash).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if report.KeysChecked != 1 {
		t.Fatalf("keys checked = %d, want 1", report.KeysChecked)
	}
	if len(report.Mismatches) != 0 {
		t.Fatalf("unexpected mismatches: %v", report.Mismatches)
	}
}

func TestRun_FlagsStalledSaga(t *testing.T) {
	states := &fakeStates{states: []models.PostingState{
		state("evt-2", enums.EventKindSale, enums.PostingStepProrated, enums.PostingStepStatusCompleted),
		state("evt-2", enums.EventKindSale, enums.PostingStepCashLedger, enums.PostingStepStatusCompleted),
		state("evt-2", enums.EventKindSale, enums.PostingStepVendorProfit, enums.PostingStepStatusFailed),
	}}
	cash := &fakeCash{entries: map[string]*models.CashLedgerEntry{
		"evt-2:cash": cashEntry("evt-2"),
	}}

	report, err := newService(t, states, cash).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Mismatches) != 3 {
		t.Fatalf("mismatch count = %d, want 3 (vendor_profit, sold_products, audit_trail)", len(report.Mismatches))
	}
	streams := make(map[string]bool)
	for _, mismatch := range report.Mismatches {
		streams[mismatch.Stream] = true
	}
	for _, want := range []string{"vendor_profit", "sold_products", "audit_trail"} {
		if !streams[want] {
			t.Fatalf("missing mismatch for %s: %v", want, report.Mismatches)
		}
	}
}

func TestRun_FlagsMissingCashEntry(t *testing.T) {
	states := &fakeStates{states: []models.PostingState{
		state("evt-3", enums.EventKindCashAdjustment, enums.PostingStepCashLedger, enums.PostingStepStatusCompleted),
		state("evt-3", enums.EventKindCashAdjustment, enums.PostingStepAuditTrail, enums.PostingStepStatusCompleted),
	}}
	cash := &fakeCash{entries: map[string]*models.CashLedgerEntry{}}

	report, err := newService(t, states, cash).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Mismatches) != 1 {
		t.Fatalf("mismatch count = %d, want 1", len(report.Mismatches))
	}
	if report.Mismatches[0].Stream != "cash_ledger" {
		t.Fatalf("stream = %s, want cash_ledger", report.Mismatches[0].Stream)
	}
}

func TestRun_CompletedSaleWithoutCashEntryIsNotFlagged(t *testing.T) {
	// A card or online sale completes its cash step without an entry.
	states := &fakeStates{states: []models.PostingState{
		state("evt-5", enums.EventKindSale, enums.PostingStepProrated, enums.PostingStepStatusCompleted),
		state("evt-5", enums.EventKindSale, enums.PostingStepCashLedger, enums.PostingStepStatusCompleted),
		state("evt-5", enums.EventKindSale, enums.PostingStepVendorProfit, enums.PostingStepStatusCompleted),
		state("evt-5", enums.EventKindSale, enums.PostingStepSoldProducts, enums.PostingStepStatusCompleted),
		state("evt-5", enums.EventKindSale, enums.PostingStepAuditTrail, enums.PostingStepStatusCompleted),
	}}
	cash := &fakeCash{entries: map[string]*models.CashLedgerEntry{}}

	report, err := newService(t, states, cash).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Mismatches) != 0 {
		t.Fatalf("unexpected mismatches: %v", report.Mismatches)
	}
}

func TestRun_IgnoresEventsWhereCashNeverLanded(t *testing.T) {
	states := &fakeStates{states: []models.PostingState{
		state("evt-4", enums.EventKindSale, enums.PostingStepProrated, enums.PostingStepStatusCompleted),
		state("evt-4", enums.EventKindSale, enums.PostingStepCashLedger, enums.PostingStepStatusFailed),
	}}
	cash := &fakeCash{entries: map[string]*models.CashLedgerEntry{}}

	report, err := newService(t, states, cash).Run(context.Background())
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	if len(report.Mismatches) != 0 {
		t.Fatalf("failed-whole event should not be flagged: %v", report.Mismatches)
	}
}
