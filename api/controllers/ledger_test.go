package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muscatcode/suqpos-backend/internal/ledger"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
)

type fakeLedgerService struct {
	balanceFn func(ctx context.Context, businessID, branchID uuid.UUID) (decimal.Decimal, error)
	historyFn func(ctx context.Context, businessID, branchID uuid.UUID, params pagination.Params) ([]models.CashLedgerEntry, *pagination.Cursor, error)
}

func (s *fakeLedgerService) Append(ctx context.Context, input ledger.AppendInput) (*models.CashLedgerEntry, error) {
	return nil, nil
}

func (s *fakeLedgerService) ResolveBalance(ctx context.Context, businessID, branchID uuid.UUID) (decimal.Decimal, error) {
	if s.balanceFn != nil {
		return s.balanceFn(ctx, businessID, branchID)
	}
	return decimal.Zero, nil
}

func (s *fakeLedgerService) History(ctx context.Context, businessID, branchID uuid.UUID, params pagination.Params) ([]models.CashLedgerEntry, *pagination.Cursor, error) {
	if s.historyFn != nil {
		return s.historyFn(ctx, businessID, branchID, params)
	}
	return nil, nil, nil
}

func TestLedgerBalanceSuccess(t *testing.T) {
	businessID := uuid.New()
	branchID := uuid.New()
	svc := &fakeLedgerService{
		balanceFn: func(ctx context.Context, b, br uuid.UUID) (decimal.Decimal, error) {
			if b != businessID || br != branchID {
				t.Fatalf("unexpected scope %s/%s", b, br)
			}
			return decimal.RequireFromString("125.500"), nil
		},
	}

	url := "/api/v1/ledger/balance?business_id=" + businessID.String() + "&branch_id=" + branchID.String()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	LedgerBalance(svc, "OMR", testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data balanceResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Balance != "125.500" {
		t.Fatalf("unexpected balance %q", envelope.Data.Balance)
	}
	if envelope.Data.Currency != "OMR" {
		t.Fatalf("unexpected currency %q", envelope.Data.Currency)
	}
}

func TestLedgerBalanceRequiresScope(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/ledger/balance?business_id="+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	LedgerBalance(&fakeLedgerService{}, "OMR", testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestLedgerHistoryPagination(t *testing.T) {
	businessID := uuid.New()
	branchID := uuid.New()
	next := &pagination.Cursor{CreatedAt: time.Now().UTC(), ID: uuid.New()}
	svc := &fakeLedgerService{
		historyFn: func(ctx context.Context, b, br uuid.UUID, params pagination.Params) ([]models.CashLedgerEntry, *pagination.Cursor, error) {
			if params.Limit != 2 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			entries := []models.CashLedgerEntry{
				{ID: uuid.New(), BusinessID: b, BranchID: br, ChainSeq: 2, EffectiveDate: time.Now().UTC()},
				{ID: uuid.New(), BusinessID: b, BranchID: br, ChainSeq: 1, EffectiveDate: time.Now().UTC()},
			}
			return entries, next, nil
		},
	}

	url := "/api/v1/ledger/entries?business_id=" + businessID.String() + "&branch_id=" + branchID.String() + "&limit=2"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	LedgerHistory(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	var envelope struct {
		Data ledgerHistoryResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if len(envelope.Data.Entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(envelope.Data.Entries))
	}
	if envelope.Data.Cursor == "" {
		t.Fatal("expected next cursor")
	}
	if envelope.Data.Entries[0].ChainSeq != 2 {
		t.Fatalf("expected newest first, got seq %d", envelope.Data.Entries[0].ChainSeq)
	}
}

func TestLedgerHistoryRejectsBadLimit(t *testing.T) {
	url := "/api/v1/ledger/entries?business_id=" + uuid.NewString() + "&branch_id=" + uuid.NewString() + "&limit=0"
	req := httptest.NewRequest(http.MethodGet, url, nil)
	resp := httptest.NewRecorder()
	LedgerHistory(&fakeLedgerService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
