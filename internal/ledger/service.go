package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/errors"
	"github.com/muscatcode/suqpos-backend/pkg/metrics"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"github.com/muscatcode/suqpos-backend/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Service defines operations over the branch cash ledger.
type Service interface {
	// Append records one cash movement at the current head of the branch
	// chain and returns the stored entry. Retried submissions carrying the
	// same idempotency key return the original entry.
	Append(ctx context.Context, input AppendInput) (*models.CashLedgerEntry, error)
	// ResolveBalance returns the branch cash position from the chain head.
	// A branch with no entries resolves to zero.
	ResolveBalance(ctx context.Context, businessID, branchID uuid.UUID) (decimal.Decimal, error)
	History(ctx context.Context, businessID, branchID uuid.UUID, params pagination.Params) ([]models.CashLedgerEntry, *pagination.Cursor, error)
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

// AppendInput captures one cash movement before it is chained.
type AppendInput struct {
	BusinessID     uuid.UUID
	BranchID       uuid.UUID
	CashierName    *string
	CashAdditions  decimal.Decimal
	CashRemovals   decimal.Decimal
	TotalReturns   decimal.Decimal
	Reason         *string
	IdempotencyKey *string
	EffectiveDate  time.Time
}

// NewService wires a cash ledger service with the provided dependencies.
func NewService(tx txRunner, repo Repository, maxRetries int, posting *metrics.PostingMetrics) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("cash ledger repository required")
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &service{tx: tx, repo: repo, maxRetries: maxRetries, metrics: posting}, nil
}

var errHeadMoved = fmt.Errorf("cash ledger head moved")

func (s *service) Append(ctx context.Context, input AppendInput) (*models.CashLedgerEntry, error) {
	if err := validateAppendInput(input); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != nil {
		existing, err := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
		if err != nil {
			return nil, errors.Wrap(errors.CodeResolution, err, "look up cash ledger idempotency key")
		}
		if existing != nil {
			return existing, nil
		}
	}

	additions := types.RoundAmount(input.CashAdditions)
	removals := types.RoundAmount(input.CashRemovals)
	returns := types.RoundAmount(input.TotalReturns)

	var entry *models.CashLedgerEntry
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if attempt > 0 {
			s.metrics.IncRetry("cash_ledger")
		}

		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			head, err := repo.Head(ctx, input.BusinessID, input.BranchID)
			if err != nil {
				return err
			}

			previous := decimal.Zero
			version := int64(0)
			if head != nil {
				previous = head.Balance
				version = head.Version
			}
			newTotal := types.RoundAmount(previous.Add(additions).Sub(removals))

			entry = &models.CashLedgerEntry{
				ID:                uuid.New(),
				BusinessID:        input.BusinessID,
				BranchID:          input.BranchID,
				CashierName:       input.CashierName,
				PreviousTotalCash: previous,
				NewTotalCash:      newTotal,
				CashAdditions:     additions,
				CashRemovals:      removals,
				Reason:            input.Reason,
				TotalReturns:      returns,
				ChainSeq:          version + 1,
				IdempotencyKey:    input.IdempotencyKey,
				EffectiveDate:     effectiveDate(input.EffectiveDate),
			}
			if err := repo.CreateEntry(ctx, entry); err != nil {
				return err
			}

			if head == nil {
				seed := &models.CashLedgerHead{
					ID:          uuid.New(),
					BusinessID:  input.BusinessID,
					BranchID:    input.BranchID,
					LastEntryID: &entry.ID,
					Balance:     newTotal,
					Version:     1,
				}
				if err := repo.InsertHead(ctx, seed); err != nil {
					return err
				}
				return nil
			}

			head.LastEntryID = &entry.ID
			head.Balance = newTotal
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
			return entry, nil
		}
		if err == errHeadMoved || db.IsUniqueViolation(err, "ux_cash_ledger_heads_scope") || db.IsUniqueViolation(err, "ux_cash_ledger_entries_chain_seq") {
			continue
		}
		if input.IdempotencyKey != nil && db.IsUniqueViolation(err, "ux_cash_ledger_entries_idem") {
			existing, findErr := s.repo.FindByIdempotencyKey(ctx, *input.IdempotencyKey)
			if findErr == nil && existing != nil {
				return existing, nil
			}
			return nil, errors.Wrap(errors.CodeIdempotency, err, "cash ledger idempotency key already used")
		}
		return nil, errors.Wrap(errors.CodeResolution, err, "append cash ledger entry")
	}

	return nil, errors.New(errors.CodeConcurrency, "cash ledger head contended, retries exhausted")
}

func (s *service) ResolveBalance(ctx context.Context, businessID, branchID uuid.UUID) (decimal.Decimal, error) {
	if businessID == uuid.Nil || branchID == uuid.Nil {
		return decimal.Zero, errors.New(errors.CodeValidation, "business id and branch id are required")
	}
	head, err := s.repo.Head(ctx, businessID, branchID)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.CodeResolution, err, "resolve cash balance")
	}
	if head == nil {
		return decimal.Zero, nil
	}
	return head.Balance, nil
}

func (s *service) History(ctx context.Context, businessID, branchID uuid.UUID, params pagination.Params) ([]models.CashLedgerEntry, *pagination.Cursor, error) {
	if businessID == uuid.Nil || branchID == uuid.Nil {
		return nil, nil, errors.New(errors.CodeValidation, "business id and branch id are required")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeValidation, err, "invalid cursor")
	}
	entries, next, err := s.repo.List(ctx, listEntriesParams{
		BusinessID: businessID,
		BranchID:   branchID,
		Limit:      params.Limit,
		Cursor:     cursor,
	})
	if err != nil {
		return nil, nil, errors.Wrap(errors.CodeResolution, err, "list cash ledger entries")
	}
	return entries, next, nil
}

func validateAppendInput(input AppendInput) error {
	if input.BusinessID == uuid.Nil {
		return errors.New(errors.CodeValidation, "business id is required")
	}
	if input.BranchID == uuid.Nil {
		return errors.New(errors.CodeValidation, "branch id is required")
	}
	if input.CashAdditions.IsNegative() {
		return errors.New(errors.CodeValidation, "cash additions must not be negative")
	}
	if input.CashRemovals.IsNegative() {
		return errors.New(errors.CodeValidation, "cash removals must not be negative")
	}
	if input.TotalReturns.IsNegative() {
		return errors.New(errors.CodeValidation, "total returns must not be negative")
	}
	if input.CashAdditions.IsZero() && input.CashRemovals.IsZero() {
		return errors.New(errors.CodeValidation, "entry must move cash")
	}
	if input.IdempotencyKey != nil && *input.IdempotencyKey == "" {
		return errors.New(errors.CodeValidation, "idempotency key must not be empty")
	}
	return nil
}

func effectiveDate(value time.Time) time.Time {
	if value.IsZero() {
		value = time.Now().UTC()
	}
	return value.Truncate(24 * time.Hour)
}
