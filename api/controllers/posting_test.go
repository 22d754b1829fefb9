package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/muscatcode/suqpos-backend/internal/posting"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	pkgerrors "github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/logger"
)

type fakePostingService struct {
	postFn func(ctx context.Context, event posting.Event) (*posting.Result, error)
}

func (s *fakePostingService) Post(ctx context.Context, event posting.Event) (*posting.Result, error) {
	if s.postFn != nil {
		return s.postFn(ctx, event)
	}
	return &posting.Result{Kind: event.Kind()}, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func saleBody(businessID, branchID, productID uuid.UUID) string {
	return fmt.Sprintf(`{
		"sale_id": %q,
		"scope": {
			"business_id": %q,
			"business_name": "Muttrah Souq",
			"branch_id": %q,
			"branch_name": "Corniche"
		},
		"payment_method": "cash",
		"discount": "1.000",
		"items": [
			{
				"product_id": %q,
				"product_name": "Frankincense",
				"unit_price": "10.000",
				"original_unit_price": "10.000",
				"quantity": 2
			}
		]
	}`, uuid.NewString(), businessID, branchID, productID)
}

func TestPostSaleSuccess(t *testing.T) {
	businessID := uuid.New()
	branchID := uuid.New()
	productID := uuid.New()

	var captured posting.Event
	svc := &fakePostingService{
		postFn: func(ctx context.Context, event posting.Event) (*posting.Result, error) {
			captured = event
			return &posting.Result{
				Kind:      enums.EventKindSale,
				CashEntry: &models.CashLedgerEntry{ID: uuid.New(), BusinessID: businessID, BranchID: branchID, ChainSeq: 1},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(saleBody(businessID, branchID, productID)))
	req.Header.Set("Idempotency-Key", "sale-1")
	resp := httptest.NewRecorder()
	PostSale(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}

	sale, ok := captured.(posting.SaleEvent)
	if !ok {
		t.Fatalf("expected SaleEvent got %T", captured)
	}
	if sale.IdempotencyKey != "sale-1" {
		t.Fatalf("unexpected idempotency key %q", sale.IdempotencyKey)
	}
	if sale.EventScope.BusinessID != businessID {
		t.Fatalf("unexpected business %s", sale.EventScope.BusinessID)
	}
	if len(sale.Items) != 1 || sale.Items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", sale.Items)
	}
	if !sale.Discount.Equal(decimal.RequireFromString("1.000")) {
		t.Fatalf("unexpected discount %s", sale.Discount)
	}

	var envelope struct {
		Data postingResponse `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.Kind != string(enums.EventKindSale) {
		t.Fatalf("unexpected kind %q", envelope.Data.Kind)
	}
	if envelope.Data.CashEntry == nil {
		t.Fatal("expected cash entry in response")
	}
}

func TestPostSaleRequiresIdempotencyKey(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(saleBody(uuid.New(), uuid.New(), uuid.New())))
	resp := httptest.NewRecorder()
	PostSale(&fakePostingService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPostSaleRejectsUnknownPaymentMethod(t *testing.T) {
	body := strings.Replace(saleBody(uuid.New(), uuid.New(), uuid.New()), `"cash"`, `"barter"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "sale-2")
	resp := httptest.NewRecorder()
	PostSale(&fakePostingService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPostSaleRejectsOverscaledAmount(t *testing.T) {
	body := strings.Replace(saleBody(uuid.New(), uuid.New(), uuid.New()), `"10.000"`, `"10.0001"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "sale-3")
	resp := httptest.NewRecorder()
	PostSale(&fakePostingService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestPostSalePartialPostSurfacesFailedStep(t *testing.T) {
	svc := &fakePostingService{
		postFn: func(ctx context.Context, event posting.Event) (*posting.Result, error) {
			return nil, &posting.PartialPostError{
				Completed: []enums.PostingStep{enums.PostingStepProrated, enums.PostingStepCashLedger},
				Failed:    enums.PostingStepVendorProfit,
				Err:       pkgerrors.New(pkgerrors.CodeDependency, "vendor head unavailable"),
			}
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sales", strings.NewReader(saleBody(uuid.New(), uuid.New(), uuid.New())))
	req.Header.Set("Idempotency-Key", "sale-4")
	resp := httptest.NewRecorder()
	PostSale(svc, testLogger())(resp, req)

	if resp.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", resp.Code)
	}
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				FailedStep     string   `json:"failed_step"`
				CompletedSteps []string `json:"completed_steps"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &payload); err != nil {
		t.Fatalf("parse error response: %v", err)
	}
	if payload.Error.Code != string(pkgerrors.CodePartialPost) {
		t.Fatalf("expected code %s got %s", pkgerrors.CodePartialPost, payload.Error.Code)
	}
	if payload.Error.Details.FailedStep != string(enums.PostingStepVendorProfit) {
		t.Fatalf("expected failed step %s got %s", enums.PostingStepVendorProfit, payload.Error.Details.FailedStep)
	}
	if len(payload.Error.Details.CompletedSteps) != 2 {
		t.Fatalf("expected 2 completed steps got %v", payload.Error.Details.CompletedSteps)
	}
}

func TestPostCashAdjustmentSuccess(t *testing.T) {
	var captured posting.Event
	svc := &fakePostingService{
		postFn: func(ctx context.Context, event posting.Event) (*posting.Result, error) {
			captured = event
			return &posting.Result{Kind: enums.EventKindCashAdjustment}, nil
		},
	}

	body := fmt.Sprintf(`{
		"scope": {
			"business_id": %q,
			"business_name": "Muttrah Souq",
			"branch_id": %q,
			"branch_name": "Corniche"
		},
		"removals": "5.000",
		"reason": "supplier payment"
	}`, uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cash-adjustments", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "adj-1")
	resp := httptest.NewRecorder()
	PostCashAdjustment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	adj, ok := captured.(posting.CashAdjustmentEvent)
	if !ok {
		t.Fatalf("expected CashAdjustmentEvent got %T", captured)
	}
	if !adj.Removals.Equal(decimal.RequireFromString("5.000")) {
		t.Fatalf("unexpected removals %s", adj.Removals)
	}
	if adj.Reason != "supplier payment" {
		t.Fatalf("unexpected reason %q", adj.Reason)
	}
}

func TestPostRentalIncomeRejectsBadDates(t *testing.T) {
	body := fmt.Sprintf(`{
		"scope": {
			"business_id": %q,
			"business_name": "Muttrah Souq",
			"branch_id": %q,
			"branch_name": "Corniche"
		},
		"vendor_id": %q,
		"vendor_name": "Al Dakhan Oud",
		"amount": "30.000",
		"start_date": "not-a-date",
		"end_date": "2026-09-30",
		"period": "2026-09"
	}`, uuid.New(), uuid.New(), uuid.New())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/rental-income", strings.NewReader(body))
	req.Header.Set("Idempotency-Key", "rent-1")
	resp := httptest.NewRecorder()
	PostRentalIncome(&fakePostingService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}
