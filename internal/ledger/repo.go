package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for the cash ledger chain and its head row.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Head(ctx context.Context, businessID, branchID uuid.UUID) (*models.CashLedgerHead, error)
	InsertHead(ctx context.Context, head *models.CashLedgerHead) error
	// UpdateHeadCAS advances the head only when its stored version still
	// matches expectedVersion. A false return means another writer won.
	UpdateHeadCAS(ctx context.Context, head *models.CashLedgerHead, expectedVersion int64) (bool, error)
	CreateEntry(ctx context.Context, entry *models.CashLedgerEntry) error
	LatestEntry(ctx context.Context, businessID, branchID uuid.UUID) (*models.CashLedgerEntry, error)
	FindByIdempotencyKey(ctx context.Context, key string) (*models.CashLedgerEntry, error)
	List(ctx context.Context, params listEntriesParams) ([]models.CashLedgerEntry, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a cash ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listEntriesParams struct {
	BusinessID uuid.UUID
	BranchID   uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Head(ctx context.Context, businessID, branchID uuid.UUID) (*models.CashLedgerHead, error) {
	var head models.CashLedgerHead
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND branch_id = ?", businessID, branchID).
		First(&head).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &head, nil
}

func (r *repositoryImpl) InsertHead(ctx context.Context, head *models.CashLedgerHead) error {
	return r.db.WithContext(ctx).Create(head).Error
}

func (r *repositoryImpl) UpdateHeadCAS(ctx context.Context, head *models.CashLedgerHead, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CashLedgerHead{}).
		Where("id = ? AND version = ?", head.ID, expectedVersion).
		Updates(map[string]any{
			"last_entry_id": head.LastEntryID,
			"balance":       head.Balance,
			"version":       head.Version,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CreateEntry(ctx context.Context, entry *models.CashLedgerEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) LatestEntry(ctx context.Context, businessID, branchID uuid.UUID) (*models.CashLedgerEntry, error) {
	var entry models.CashLedgerEntry
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND branch_id = ?", businessID, branchID).
		Order("chain_seq DESC").
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*models.CashLedgerEntry, error) {
	var entry models.CashLedgerEntry
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listEntriesParams) ([]models.CashLedgerEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.CashLedgerEntry{}).
		Where("business_id = ? AND branch_id = ?", params.BusinessID, params.BranchID)
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.CashLedgerEntry
	if err := query.Order("created_at DESC, id DESC").Limit(limit).Find(&entries).Error; err != nil {
		return nil, nil, err
	}

	if len(entries) > normalized {
		next := entries[normalized]
		entries = entries[:normalized]
		return entries, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.ID}, nil
	}
	return entries, nil, nil
}
