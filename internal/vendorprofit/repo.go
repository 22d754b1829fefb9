package vendorprofit

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for vendor profit chains and their heads.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Head(ctx context.Context, businessID, branchID, vendorID uuid.UUID) (*models.VendorProfitHead, error)
	InsertHead(ctx context.Context, head *models.VendorProfitHead) error
	// UpdateHeadCAS advances the head only when its stored version still
	// matches expectedVersion. A false return means another writer won.
	UpdateHeadCAS(ctx context.Context, head *models.VendorProfitHead, expectedVersion int64) (bool, error)
	CreateTransaction(ctx context.Context, tx *models.VendorTransaction) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.VendorTransaction, error)
	List(ctx context.Context, params listTransactionsParams) ([]models.VendorTransaction, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns a vendor profit repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listTransactionsParams struct {
	BusinessID uuid.UUID
	BranchID   uuid.UUID
	VendorID   uuid.UUID
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Head(ctx context.Context, businessID, branchID, vendorID uuid.UUID) (*models.VendorProfitHead, error) {
	var head models.VendorProfitHead
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND branch_id = ? AND vendor_id = ?", businessID, branchID, vendorID).
		First(&head).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &head, nil
}

func (r *repositoryImpl) InsertHead(ctx context.Context, head *models.VendorProfitHead) error {
	return r.db.WithContext(ctx).Create(head).Error
}

func (r *repositoryImpl) UpdateHeadCAS(ctx context.Context, head *models.VendorProfitHead, expectedVersion int64) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.VendorProfitHead{}).
		Where("id = ? AND version = ?", head.ID, expectedVersion).
		Updates(map[string]any{
			"last_transaction_id": head.LastTransactionID,
			"accumulated":         head.Accumulated,
			"version":             head.Version,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repositoryImpl) CreateTransaction(ctx context.Context, tx *models.VendorTransaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

func (r *repositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*models.VendorTransaction, error) {
	var tx models.VendorTransaction
	err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (r *repositoryImpl) List(ctx context.Context, params listTransactionsParams) ([]models.VendorTransaction, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.VendorTransaction{}).
		Where("business_id = ? AND branch_id = ? AND vendor_id = ?", params.BusinessID, params.BranchID, params.VendorID)
	if params.Cursor != nil {
		query = query.Where("(created_at, transaction_id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var transactions []models.VendorTransaction
	if err := query.Order("created_at DESC, transaction_id DESC").Limit(limit).Find(&transactions).Error; err != nil {
		return nil, nil, err
	}

	if len(transactions) > normalized {
		next := transactions[normalized]
		transactions = transactions[:normalized]
		return transactions, &pagination.Cursor{CreatedAt: next.CreatedAt, ID: next.TransactionID}, nil
	}
	return transactions, nil, nil
}
