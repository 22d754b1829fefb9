package posting

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/internal/audittrail"
	"github.com/muscatcode/suqpos-backend/internal/ledger"
	"github.com/muscatcode/suqpos-backend/internal/proration"
	"github.com/muscatcode/suqpos-backend/internal/vendorprofit"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/metrics"
	"github.com/muscatcode/suqpos-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Service routes money-moving events into the ledger streams.
type Service interface {
	// Post runs the event through its posting steps. Completed steps are
	// persisted per idempotency key, so a retried event never double-posts
	// a stream. Once the cash entry has landed, later failures surface as
	// a PartialPostError rather than a total failure.
	Post(ctx context.Context, event Event) (*Result, error)
}

// Result collects everything one event wrote.
type Result struct {
	Kind               enums.EventKind
	Proration          *proration.Result
	CashEntry          *models.CashLedgerEntry
	VendorTransactions []models.VendorTransaction
	SoldProducts       []models.SoldProduct
	AuditEntries       []models.AuditTrailEntry
}

// PartialPostError reports an event whose cash entry landed but whose
// remaining steps did not all complete. The failed step can be replayed by
// resubmitting the event with the same idempotency key.
type PartialPostError struct {
	Completed []enums.PostingStep
	Failed    enums.PostingStep
	Result    *Result
	Err       error
}

func (e *PartialPostError) Error() string {
	return fmt.Sprintf("posting incomplete at step %s: %v", e.Failed, e.Err)
}

func (e *PartialPostError) Unwrap() error {
	return e.Err
}

type service struct {
	ledger  ledger.Service
	vendors vendorprofit.Service
	audit   audittrail.Service
	states  StateRepository
	sold    SoldProductRepository
	rules   proration.PricingRules
	metrics *metrics.PostingMetrics
}

// NewService wires the posting router with the stream writers it drives.
func NewService(
	ledgerSvc ledger.Service,
	vendorSvc vendorprofit.Service,
	auditSvc audittrail.Service,
	states StateRepository,
	sold SoldProductRepository,
	rules proration.PricingRules,
	posting *metrics.PostingMetrics,
) (Service, error) {
	if ledgerSvc == nil || vendorSvc == nil || auditSvc == nil {
		return nil, fmt.Errorf("ledger, vendor profit and audit services required")
	}
	if states == nil {
		return nil, fmt.Errorf("posting state repository required")
	}
	if sold == nil {
		return nil, fmt.Errorf("sold product repository required")
	}
	return &service{
		ledger:  ledgerSvc,
		vendors: vendorSvc,
		audit:   auditSvc,
		states:  states,
		sold:    sold,
		rules:   rules,
		metrics: posting,
	}, nil
}

func (s *service) Post(ctx context.Context, event Event) (*Result, error) {
	if event == nil {
		return nil, errors.New(errors.CodeValidation, "event is required")
	}
	start := time.Now()
	result, err := s.dispatch(ctx, event)
	s.metrics.ObserveDuration(string(event.Kind()), time.Since(start))

	outcome := "success"
	if err != nil {
		outcome = "failure"
		var partial *PartialPostError
		if stderrors.As(err, &partial) {
			outcome = "partial"
		}
	}
	s.metrics.IncOutcome(string(event.Kind()), outcome)
	return result, err
}

func (s *service) dispatch(ctx context.Context, event Event) (*Result, error) {
	if event.Key() == "" {
		return nil, errors.New(errors.CodeValidation, "idempotency key is required")
	}
	scope := event.Scope()
	if scope.BusinessID == uuid.Nil || scope.BranchID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "business id and branch id are required")
	}
	if scope.BusinessName == "" || scope.BranchName == "" {
		return nil, errors.New(errors.CodeValidation, "business and branch names are required")
	}

	completed, err := s.completedSteps(ctx, event.Key())
	if err != nil {
		return nil, errors.Wrap(errors.CodeResolution, err, "load posting state")
	}

	switch ev := event.(type) {
	case SaleEvent:
		return s.postSale(ctx, ev, completed)
	case ReturnEvent:
		return s.postReturn(ctx, ev, completed)
	case CashAdjustmentEvent:
		return s.postCashAdjustment(ctx, ev, completed)
	case TaxSettlementEvent:
		return s.postTaxSettlement(ctx, ev, completed)
	case RentalIncomeEvent:
		return s.postRentalIncome(ctx, ev, completed)
	default:
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("unsupported event kind %q", event.Kind()))
	}
}

func (s *service) completedSteps(ctx context.Context, key string) (map[enums.PostingStep]bool, error) {
	states, err := s.states.ListByKey(ctx, key)
	if err != nil {
		return nil, err
	}
	completed := make(map[enums.PostingStep]bool, len(states))
	for _, state := range states {
		if state.Status == enums.PostingStepStatusCompleted {
			completed[enums.PostingStep(state.Step)] = true
		}
	}
	return completed, nil
}

func (s *service) runStep(ctx context.Context, key string, kind enums.EventKind, step enums.PostingStep, completed map[enums.PostingStep]bool, fn func() error) error {
	if err := fn(); err != nil {
		cause := err.Error()
		_ = s.states.MarkFailed(ctx, key, kind, step, cause)
		return err
	}
	if !completed[step] {
		if err := s.states.MarkCompleted(ctx, key, kind, step); err != nil {
			return errors.Wrap(errors.CodeResolution, err, "record posting step")
		}
		completed[step] = true
	}
	return nil
}

func (s *service) postSale(ctx context.Context, ev SaleEvent, completed map[enums.PostingStep]bool) (*Result, error) {
	if ev.SaleID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "sale id is required")
	}
	if !ev.PaymentMethod.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid payment method %q", ev.PaymentMethod))
	}

	result := &Result{Kind: enums.EventKindSale}
	kind := enums.EventKindSale

	var prorated proration.Result
	err := s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepProrated, completed, func() error {
		out, prErr := proration.Prorate(ev.Items, ev.Discount, s.rules)
		if prErr != nil {
			return errors.Wrap(errors.CodeValidation, prErr, "prorate sale")
		}
		prorated = *out
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Proration = &prorated

	cashKey := ev.IdempotencyKey + ":cash"
	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepCashLedger, completed, func() error {
		// Card and online sales settle outside the drawer; only a cash
		// payment moves the branch balance.
		if ev.PaymentMethod != enums.PaymentMethodCash {
			return nil
		}
		entry, appendErr := s.ledger.Append(ctx, ledger.AppendInput{
			BusinessID:     ev.EventScope.BusinessID,
			BranchID:       ev.EventScope.BranchID,
			CashierName:    ev.EventScope.CashierName,
			CashAdditions:  prorated.GrandTotal,
			CashRemovals:   decimal.Zero,
			TotalReturns:   decimal.Zero,
			Reason:         strPtr("sale"),
			IdempotencyKey: &cashKey,
		})
		if appendErr != nil {
			return appendErr
		}
		result.CashEntry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepVendorProfit, completed, func() error {
		transactions, vendErr := s.postVendorBuckets(ctx, ev.IdempotencyKey, ev.EventScope, prorated.VendorBuckets())
		if vendErr != nil {
			return vendErr
		}
		result.VendorTransactions = transactions
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepVendorProfit, result, err)
	}

	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepSoldProducts, completed, func() error {
		if completed[enums.PostingStepSoldProducts] {
			lines, listErr := s.sold.ListBySale(ctx, ev.SaleID)
			if listErr != nil {
				return listErr
			}
			result.SoldProducts = lines
			return nil
		}
		lines := soldProductsFor(ev, &prorated)
		if err := s.sold.ReplaceForSale(ctx, ev.SaleID, lines); err != nil {
			return err
		}
		result.SoldProducts = lines
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepSoldProducts, result, err)
	}

	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepAuditTrail, completed, func() error {
		entries, auditErr := s.auditBuckets(ctx, ev.IdempotencyKey, ev.EventScope, ev.PaymentMethod, "sale", "walk-in sale", ev.SaleID, &prorated)
		if auditErr != nil {
			return auditErr
		}
		result.AuditEntries = entries
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepAuditTrail, result, err)
	}

	return result, nil
}

func (s *service) postReturn(ctx context.Context, ev ReturnEvent, completed map[enums.PostingStep]bool) (*Result, error) {
	if ev.SaleID == uuid.Nil {
		return nil, errors.New(errors.CodeValidation, "original sale id is required")
	}
	if !ev.PaymentMethod.IsValid() {
		return nil, errors.New(errors.CodeValidation, fmt.Sprintf("invalid payment method %q", ev.PaymentMethod))
	}

	result := &Result{Kind: enums.EventKindReturn}
	kind := enums.EventKindReturn

	var prorated proration.Result
	err := s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepProrated, completed, func() error {
		out, prErr := proration.ProrateReturn(ev.Lines, s.rules)
		if prErr != nil {
			return errors.Wrap(errors.CodeValidation, prErr, "prorate return")
		}
		prorated = *out
		return nil
	})
	if err != nil {
		return nil, err
	}
	result.Proration = &prorated

	refund := prorated.GrandTotal.Neg()
	cashKey := ev.IdempotencyKey + ":cash"
	reason := "return"
	if ev.Reason != nil {
		reason = *ev.Reason
	}
	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepCashLedger, completed, func() error {
		// Refunds for card and online sales are settled off the drawer.
		if ev.PaymentMethod != enums.PaymentMethodCash {
			return nil
		}
		entry, appendErr := s.ledger.Append(ctx, ledger.AppendInput{
			BusinessID:     ev.EventScope.BusinessID,
			BranchID:       ev.EventScope.BranchID,
			CashierName:    ev.EventScope.CashierName,
			CashAdditions:  decimal.Zero,
			CashRemovals:   refund,
			TotalReturns:   refund,
			Reason:         &reason,
			IdempotencyKey: &cashKey,
		})
		if appendErr != nil {
			return appendErr
		}
		result.CashEntry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepVendorProfit, completed, func() error {
		transactions, vendErr := s.postVendorBuckets(ctx, ev.IdempotencyKey, ev.EventScope, prorated.VendorBuckets())
		if vendErr != nil {
			return vendErr
		}
		result.VendorTransactions = transactions
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepVendorProfit, result, err)
	}

	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepAuditTrail, completed, func() error {
		entries, auditErr := s.auditBuckets(ctx, ev.IdempotencyKey, ev.EventScope, ev.PaymentMethod, "return", reason, ev.SaleID, &prorated)
		if auditErr != nil {
			return auditErr
		}
		result.AuditEntries = entries
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepAuditTrail, result, err)
	}

	return result, nil
}

func (s *service) postCashAdjustment(ctx context.Context, ev CashAdjustmentEvent, completed map[enums.PostingStep]bool) (*Result, error) {
	if ev.Reason == "" {
		return nil, errors.New(errors.CodeValidation, "adjustment reason is required")
	}

	result := &Result{Kind: enums.EventKindCashAdjustment}
	kind := enums.EventKindCashAdjustment

	cashKey := ev.IdempotencyKey + ":cash"
	err := s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepCashLedger, completed, func() error {
		entry, appendErr := s.ledger.Append(ctx, ledger.AppendInput{
			BusinessID:     ev.EventScope.BusinessID,
			BranchID:       ev.EventScope.BranchID,
			CashierName:    ev.EventScope.CashierName,
			CashAdditions:  ev.Additions,
			CashRemovals:   ev.Removals,
			TotalReturns:   decimal.Zero,
			Reason:         &ev.Reason,
			IdempotencyKey: &cashKey,
		})
		if appendErr != nil {
			return appendErr
		}
		result.CashEntry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.runStep(ctx, ev.IdempotencyKey, kind, enums.PostingStepAuditTrail, completed, func() error {
		auditKey := ev.IdempotencyKey + ":audit:owner"
		entry, auditErr := s.audit.Record(ctx, audittrail.RecordInput{
			BusinessID:              ev.EventScope.BusinessID,
			BusinessName:            ev.EventScope.BusinessName,
			BranchName:              ev.EventScope.BranchName,
			TransactionType:         string(enums.EventKindCashAdjustment),
			Amount:                  types.RoundAmount(ev.Additions.Sub(ev.Removals)),
			OwnerProfitContribution: decimal.Zero,
			PaymentMethod:           enums.PaymentMethodCash,
			TransactionReason:       ev.Reason,
			IdempotencyKey:          &auditKey,
		})
		if auditErr != nil {
			return auditErr
		}
		result.AuditEntries = []models.AuditTrailEntry{*entry}
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepAuditTrail, result, err)
	}

	return result, nil
}

func (s *service) postTaxSettlement(ctx context.Context, ev TaxSettlementEvent, completed map[enums.PostingStep]bool) (*Result, error) {
	if ev.VendorID == uuid.Nil || ev.VendorName == "" {
		return nil, errors.New(errors.CodeValidation, "vendor id and name are required")
	}
	if !ev.Amount.IsPositive() {
		return nil, errors.New(errors.CodeValidation, "settlement amount must be positive")
	}
	if ev.Period == "" {
		return nil, errors.New(errors.CodeValidation, "tax period is required")
	}

	return s.postVendorCharge(ctx, vendorChargeInput{
		key:    ev.IdempotencyKey,
		kind:   enums.EventKindTaxSettlement,
		scope:  ev.EventScope,
		vendor: ev.VendorID,
		name:   ev.VendorName,
		amount: ev.Amount,
		reason: "tax settlement " + ev.Period,
		accumulate: vendorprofit.AccumulateInput{
			Type:   enums.VendorTransactionTypeTax,
			Amount: ev.Amount,
			Profit: ev.Amount.Neg(),
			Status: enums.VendorTransactionStatusCompleted,
			Tax: &vendorprofit.TaxPayload{
				Period:      ev.Period,
				Description: ev.Description,
			},
		},
	}, completed)
}

func (s *service) postRentalIncome(ctx context.Context, ev RentalIncomeEvent, completed map[enums.PostingStep]bool) (*Result, error) {
	if ev.VendorID == uuid.Nil || ev.VendorName == "" {
		return nil, errors.New(errors.CodeValidation, "vendor id and name are required")
	}
	if !ev.Amount.IsPositive() {
		return nil, errors.New(errors.CodeValidation, "rental amount must be positive")
	}
	if ev.EndDate.Before(ev.StartDate) {
		return nil, errors.New(errors.CodeValidation, "rental end date precedes start date")
	}

	return s.postVendorCharge(ctx, vendorChargeInput{
		key:    ev.IdempotencyKey,
		kind:   enums.EventKindRentalIncome,
		scope:  ev.EventScope,
		vendor: ev.VendorID,
		name:   ev.VendorName,
		amount: ev.Amount,
		reason: "booth rental " + ev.Period,
		accumulate: vendorprofit.AccumulateInput{
			Type:   enums.VendorTransactionTypeRental,
			Amount: ev.Amount,
			Profit: ev.Amount,
			Status: enums.VendorTransactionStatusCompleted,
			Rental: &vendorprofit.RentalPayload{
				StartDate: ev.StartDate,
				EndDate:   ev.EndDate,
				Period:    ev.Period,
			},
		},
	}, completed)
}

type vendorChargeInput struct {
	key        string
	kind       enums.EventKind
	scope      EventScope
	vendor     uuid.UUID
	name       string
	amount     decimal.Decimal
	reason     string
	accumulate vendorprofit.AccumulateInput
}

// postVendorCharge is the shared path for amounts collected from a vendor
// in cash at the till: tax settlements reduce the vendor chain, rental
// income counts as profit in full, and the audit trail gets one entry.
func (s *service) postVendorCharge(ctx context.Context, in vendorChargeInput, completed map[enums.PostingStep]bool) (*Result, error) {
	result := &Result{Kind: in.kind}

	cashKey := in.key + ":cash"
	err := s.runStep(ctx, in.key, in.kind, enums.PostingStepCashLedger, completed, func() error {
		entry, appendErr := s.ledger.Append(ctx, ledger.AppendInput{
			BusinessID:     in.scope.BusinessID,
			BranchID:       in.scope.BranchID,
			CashierName:    in.scope.CashierName,
			CashAdditions:  in.amount,
			CashRemovals:   decimal.Zero,
			TotalReturns:   decimal.Zero,
			Reason:         &in.reason,
			IdempotencyKey: &cashKey,
		})
		if appendErr != nil {
			return appendErr
		}
		result.CashEntry = entry
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = s.runStep(ctx, in.key, in.kind, enums.PostingStepVendorProfit, completed, func() error {
		vendorKey := in.key + ":vendor:" + in.vendor.String()
		acc := in.accumulate
		acc.BusinessID = in.scope.BusinessID
		acc.BusinessName = in.scope.BusinessName
		acc.BranchID = in.scope.BranchID
		acc.BranchName = in.scope.BranchName
		acc.VendorID = in.vendor
		acc.VendorName = in.name
		acc.IdempotencyKey = &vendorKey
		tx, accErr := s.vendors.Accumulate(ctx, acc)
		if accErr != nil {
			return accErr
		}
		result.VendorTransactions = []models.VendorTransaction{*tx}
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepVendorProfit, result, err)
	}

	err = s.runStep(ctx, in.key, in.kind, enums.PostingStepAuditTrail, completed, func() error {
		auditKey := in.key + ":audit:" + in.vendor.String()
		entry, auditErr := s.audit.Record(ctx, audittrail.RecordInput{
			BusinessID:              in.scope.BusinessID,
			BusinessName:            in.scope.BusinessName,
			BranchName:              in.scope.BranchName,
			VendorID:                &in.vendor,
			VendorName:              &in.name,
			TransactionType:         string(in.kind),
			Amount:                  types.RoundAmount(in.amount),
			OwnerProfitContribution: types.RoundAmount(in.amount),
			PaymentMethod:           enums.PaymentMethodCash,
			TransactionReason:       in.reason,
			IdempotencyKey:          &auditKey,
		})
		if auditErr != nil {
			return auditErr
		}
		result.AuditEntries = []models.AuditTrailEntry{*entry}
		return nil
	})
	if err != nil {
		return result, s.partial(completed, enums.PostingStepAuditTrail, result, err)
	}

	return result, nil
}

// postVendorBuckets records one vendor transaction per prorated bucket.
// The posted profit is the bucket commission, the owner's markup on the
// vendor's lines, so the vendor chain accumulates what the owner has
// earned from that vendor.
func (s *service) postVendorBuckets(ctx context.Context, key string, scope EventScope, buckets []proration.Bucket) ([]models.VendorTransaction, error) {
	var transactions []models.VendorTransaction
	for b := range buckets {
		bucket := &buckets[b]
		vendorKey := fmt.Sprintf("%s:vendor:%s", key, bucket.VendorID)
		amount := types.RoundAmount(bucket.GrossSales.Sub(bucket.DiscountShare))
		tx, err := s.vendors.Accumulate(ctx, vendorprofit.AccumulateInput{
			Type:           enums.VendorTransactionTypeProductSale,
			BusinessID:     scope.BusinessID,
			BusinessName:   scope.BusinessName,
			BranchID:       scope.BranchID,
			BranchName:     scope.BranchName,
			VendorID:       *bucket.VendorID,
			VendorName:     bucket.VendorName,
			Amount:         amount,
			Profit:         types.RoundAmount(bucket.Commission),
			Status:         enums.VendorTransactionStatusCompleted,
			Product:        bucketProductPayload(bucket),
			IdempotencyKey: &vendorKey,
		})
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *tx)
	}
	return transactions, nil
}

// bucketProductPayload summarizes a bucket's lines for the transaction
// payload. Multi-product buckets carry the joined names and the gross
// average unit price.
func bucketProductPayload(bucket *proration.Bucket) *vendorprofit.ProductPayload {
	names := make([]string, 0, len(bucket.Lines))
	var quantity int64
	for _, line := range bucket.Lines {
		names = append(names, line.ProductName)
		quantity += line.Quantity
	}
	unitPrice := decimal.Zero
	if len(bucket.Lines) == 1 {
		unitPrice = bucket.Lines[0].UnitPriceByBusiness
	} else if quantity != 0 {
		unitPrice = types.RoundAmount(bucket.GrossSales.Div(decimal.NewFromInt(quantity)))
	}
	return &vendorprofit.ProductPayload{
		Name:      strings.Join(names, ", "),
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Total:     bucket.GrossSales,
	}
}

// auditBuckets records one audit entry per attribution bucket. The owner
// entry contributes the full owner bucket total, tax included; vendor
// entries contribute only the commission earned from that vendor's lines.
func (s *service) auditBuckets(ctx context.Context, key string, scope EventScope, method enums.PaymentMethod, txType, reason string, saleID uuid.UUID, prorated *proration.Result) ([]models.AuditTrailEntry, error) {
	var entries []models.AuditTrailEntry
	for i := range prorated.Buckets {
		bucket := &prorated.Buckets[i]

		suffix := "owner"
		var vendorID *uuid.UUID
		var vendorName *string
		contribution := types.RoundAmount(bucket.Total)
		if bucket.VendorID != nil {
			suffix = bucket.VendorID.String()
			vendorID = bucket.VendorID
			vendorName = &bucket.VendorName
			contribution = bucket.Commission
		}

		details, err := json.Marshal(map[string]any{
			"sale_id":        saleID,
			"lines":          len(bucket.Lines),
			"tax":            types.FormatAmount(bucket.Tax),
			"discount_share": types.FormatAmount(bucket.DiscountShare),
		})
		if err != nil {
			return nil, err
		}

		auditKey := key + ":audit:" + suffix
		entry, err := s.audit.Record(ctx, audittrail.RecordInput{
			BusinessID:              scope.BusinessID,
			BusinessName:            scope.BusinessName,
			BranchName:              scope.BranchName,
			VendorID:                vendorID,
			VendorName:              vendorName,
			TransactionType:         txType,
			Amount:                  bucket.Total,
			OwnerProfitContribution: contribution,
			PaymentMethod:           method,
			TransactionReason:       reason,
			Details:                 details,
			IdempotencyKey:          &auditKey,
		})
		if err != nil {
			return nil, err
		}
		entries = append(entries, *entry)
	}
	return entries, nil
}

func (s *service) partial(completed map[enums.PostingStep]bool, failed enums.PostingStep, result *Result, err error) error {
	steps := make([]enums.PostingStep, 0, len(completed))
	for _, step := range []enums.PostingStep{
		enums.PostingStepProrated,
		enums.PostingStepCashLedger,
		enums.PostingStepVendorProfit,
		enums.PostingStepSoldProducts,
		enums.PostingStepAuditTrail,
	} {
		if completed[step] {
			steps = append(steps, step)
		}
	}
	return &PartialPostError{
		Completed: steps,
		Failed:    failed,
		Result:    result,
		Err:       err,
	}
}

func soldProductsFor(ev SaleEvent, prorated *proration.Result) []models.SoldProduct {
	var lines []models.SoldProduct
	for i := range prorated.Buckets {
		bucket := &prorated.Buckets[i]
		for _, line := range bucket.Lines {
			sold := models.SoldProduct{
				ID:                              uuid.New(),
				SaleID:                          ev.SaleID,
				BusinessID:                      ev.EventScope.BusinessID,
				BranchID:                        ev.EventScope.BranchID,
				ProductID:                       line.ProductID,
				ProductName:                     line.ProductName,
				UnitPriceOriginal:               line.UnitPriceOriginal,
				UnitPriceByBusiness:             line.UnitPriceByBusiness,
				Quantity:                        line.Quantity,
				CommissionForBusinessFromVendor: line.Commission,
				TotalPrice:                      line.LineTotal,
				VendorID:                        bucket.VendorID,
			}
			if bucket.VendorID != nil {
				name := bucket.VendorName
				sold.VendorName = &name
			}
			lines = append(lines, sold)
		}
	}
	return lines
}

func strPtr(value string) *string {
	return &value
}
