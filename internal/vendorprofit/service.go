package vendorprofit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/metrics"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/muscatcode/suqpos-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines operations over per-vendor profit chains.
type Service interface {
	// Accumulate records one vendor-attributed transaction at the current
	// head of the vendor chain. Profit may be negative for returns; the
	// accumulated total is allowed to go below zero.
	Accumulate(ctx context.Context, input AccumulateInput) (*models.VendorTransaction, error)
	// Accumulated returns the running profit total for a vendor scope.
	// A vendor with no transactions resolves to zero.
	Accumulated(ctx context.Context, businessID, branchID, vendorID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, businessID, branchID, vendorID uuid.UUID, params pagination.Params) ([]models.VendorTransaction, *pagination.Cursor, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type service struct {
	tx         txRunner
	repo       Repository
	maxRetries int
	metrics    *metrics.PostingMetrics
}

// ProductPayload carries the sold-product details of a product_sale transaction.
type ProductPayload struct {
	Name      string
	Quantity  int64
	UnitPrice decimal.Decimal
	Total     decimal.Decimal
}

// RentalPayload carries the booth rental details of a rental transaction.
type RentalPayload struct {
	StartDate time.Time
	EndDate   time.Time
	Period    string
}

// TaxPayload carries the settlement details of a tax transaction.
type TaxPayload struct {
	Period      string
	Description string
}

// AccumulateInput captures one vendor transaction before it is chained.
type AccumulateInput struct {
	Type           enums.VendorTransactionType
	BusinessID     uuid.UUID
	BusinessName   string
	BranchID       uuid.UUID
	BranchName     string
	VendorID       uuid.UUID
	VendorName     string
	Amount         decimal.Decimal
	Profit         decimal.Decimal
	Status         enums.VendorTransactionStatus
	Notes          *string
	Product        *ProductPayload
	Rental         *RentalPayload
	Tax            *TaxPayload
	IdempotencyKey *string
}

// NewService wires a vendor profit service with the provided dependencies.
func NewService(tx txRunner, repo Repository, maxRetries int, posting *metrics.PostingMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("vendor profit repository required")
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &service{tx: tx, repo: repo, maxRetries: maxRetries, metrics: posting}, nil
}

var errHeadMoved = fmt.Errorf("vendor profit head moved")

func (s *service) Accumulate(ctx context.Context, input AccumulateInput) (*models.VendorTransaction, error) {
	if err := validateAccumulateInput(input); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(errors.CodeResolution, err, "look up vendor transaction idempotency key")
		}
		if existing != nil {
			return existing, nil
		}
	}

	amount := types.RoundAmount(input.Amount)
	profit := types.RoundAmount(input.Profit)

	var transaction *models.VendorTransaction
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.IncRetry("vendor_profit")
		}

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			head, err := repo.Head(ctx, input.BusinessID, input.BranchID, input.VendorID)
			if err != nil {
				return err
			}

			previous := decimal.Zero
			version := int64(0)
			if head != nil {
				previous = head.Accumulated
				version = head.Version
			}
			accumulated := types.RoundAmount(previous.Add(profit))

			transaction = &models.VendorTransaction{
				TransactionID:     uuid.New(),
				Type:              input.Type,
				BusinessID:        input.BusinessID,
				BusinessName:      input.BusinessName,
				BranchID:          input.BranchID,
				BranchName:        input.BranchName,
				VendorID:          input.VendorID,
				VendorName:        input.VendorName,
				Amount:            amount,
				Profit:            profit,
				AccumulatedProfit: accumulated,
				Status:            input.Status,
				Notes:             input.Notes,
				ChainSeq:          version + 1,
				IdempotencyKey:    input.IdempotencyKey,
			}
			applyPayload(transaction, input)

			if err := repo.CreateTransaction(ctx, transaction); err != nil {
				return err
			}

			if head == nil {
				seed := &models.VendorProfitHead{
					ID:                uuid.New(),
					BusinessID:        input.BusinessID,
					BranchID:          input.BranchID,
					VendorID:          input.VendorID,
					LastTransactionID: &transaction.TransactionID,
					Accumulated:       accumulated,
					Version:           1,
				}
				return repo.InsertHead(ctx, seed)
			}

			head.LastTransactionID = &transaction.TransactionID
			head.Accumulated = accumulated
			head.Version = version + 1
			swapped, err := repo.UpdateHeadCAS(ctx, head, version)
			if err != nil {
				return err
			}
			if !swapped {
				return errHeadMoved
			}
			return nil
		})
		if err == nil {
			return transaction, nil
		}
		if err == errHeadMoved || db.IsUniqueViolation(err, "ux_vendor_profit_heads_scope") || db.IsUniqueViolation(err, "ux_vendor_transactions_chain_seq") {
			continue
		}
		if input.IdempotencyKey != nil && db.IsUniqueViolation(err, "ux_vendor_transactions_idem") {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
			if findErr == nil && existing != nil {
				return existing, nil
			}
			return nil, errors.Wrap(errors.CodeIdempotency, err, "vendor transaction idempotency key already used")
		}
		return nil, errors.Wrap(errors.CodeResolution, err, "append vendor transaction")
	}

	return nil, errors.New(errors.CodeConcurrency, "vendor profit head contended, retries exhausted")
}

func (s *service) Accumulated(ctx context.Context, businessID, branchID, vendorID uuid.UUID) (decimal.Decimal, error) {
	if businessID == uuid.Nil || branchID == uuid.Nil || vendorID == uuid.Nil {
		return decimal.Zero, errors.New(errors.CodeValidation, "business id, branch id and vendor id are required")
	}
	head, err := s.repo.Head(ctx, businessID, branchID, vendorID)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.CodeResolution, err, "resolve accumulated vendor profit")
	}
	if head == nil {
		return decimal.Zero, nil
	}
	return head.Accumulated, nil
}

func (s *service) History(ctx context.Context, businessID, branchID, vendorID uuid.UUID, params pagination.Params) ([]models.VendorTransaction, *pagination.Cursor, error) {
	if businessID == uuid.Nil || branchID == uuid.Nil || vendorID == uuid.Nil {
		return nil, nil, errors.New(errors.CodeValidation, "business id, branch id and vendor id are required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}
	transactions, next, err := s.repo.List(ctx, listTransactionsParams{
		BusinessID: businessID,
		BranchID:   branchID,
		VendorID:   vendorID,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeResolution, err, "list vendor transactions")
	}
	return transactions, next, nil
}

func applyPayload(transaction *models.VendorTransaction, input AccumulateInput) {
	switch {
	case input.Product != nil:
		transaction.ProductName = &input.Product.Name
		transaction.ProductQuantity = &input.Product.Quantity
		unitPrice := types.RoundAmount(input.Product.UnitPrice)
		total := types.RoundAmount(input.Product.Total)
		transaction.UnitPrice = &unitPrice
		transaction.TotalPrice = &total
	case input.Rental != nil:
		start := input.Rental.StartDate
		end := input.Rental.EndDate
		transaction.RentalStartDate = &start
		transaction.RentalEndDate = &end
		transaction.RentalPeriod = &input.Rental.Period
	case input.Tax != nil:
		transaction.TaxPeriod = &input.Tax.Period
		transaction.TaxDescription = &input.Tax.Description
	}
}

func validateAccumulateInput(input AccumulateInput) error {
	if !input.Type.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid vendor transaction type %q", input.Type))
	}
	if !input.Status.IsValid() {
		return errors.New(errors.CodeValidation, fmt.Sprintf("invalid vendor transaction status %q", input.Status))
	}
	if input.BusinessID == uuid.Nil || input.BranchID == uuid.Nil || input.VendorID == uuid.Nil {
		return errors.New(errors.CodeValidation, "business id, branch id and vendor id are required")
	}
	if input.BusinessName == "" || input.BranchName == "" || input.VendorName == "" {
		return errors.New(errors.CodeValidation, "business, branch and vendor names are required")
	}
	switch input.Type {
	case enums.VendorTransactionTypeProductSale:
		if input.Product == nil {
			return errors.New(errors.CodeValidation, "product transaction requires a product payload")
		}
		if input.Product.Quantity == 0 {
			return errors.New(errors.CodeValidation, "product quantity must not be zero")
		}
	case enums.VendorTransactionTypeRental:
		if input.Rental == nil {
			return errors.New(errors.CodeValidation, "rental transaction requires a rental payload")
		}
		if input.Rental.EndDate.Before(input.Rental.StartDate) {
			return errors.New(errors.CodeValidation, "rental end date precedes start date")
		}
	case enums.VendorTransactionTypeTax:
		if input.Tax == nil {
			return errors.New(errors.CodeValidation, "tax transaction requires a tax payload")
		}
		if input.Tax.Period == "" {
			return errors.New(errors.CodeValidation, "tax period is required")
		}
	}
	if input.IdempotencyKey != nil && *input.IdempotencyKey == "" {
		return errors.New(errors.CodeValidation, "idempotency key must not be empty")
	}
	return nil
}
