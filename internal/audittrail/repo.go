package audittrail

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/pagination"
	"gorm.io/gorm"
)

// Repository manages persistence for audit trail entries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, entry *models.AuditTrailEntry) error
	FindByIdempotencyKey(ctx context.Context, key string) (*models.AuditTrailEntry, error)
	List(ctx context.Context, params listAuditParams) ([]models.AuditTrailEntry, *pagination.Cursor, error)
}

type repositoryImpl struct {
	db *gorm.DB
}

// NewRepository returns an audit trail repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

type listAuditParams struct {
	BusinessID uuid.UUID
	VendorID   *uuid.UUID
	From       *time.Time
	To         *time.Time
	Limit      int
	Cursor     *pagination.Cursor
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

func (r *repositoryImpl) Create(ctx context.Context, entry *models.AuditTrailEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *repositoryImpl) FindByIdempotencyKey(ctx context.Context, key string) (*models.AuditTrailEntry, error) {
	var entry models.AuditTrailEntry
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

func (r *repositoryImpl) List(ctx context.Context, params listAuditParams) ([]models.AuditTrailEntry, *pagination.Cursor, error) {
	limit := pagination.LimitWithBuffer(params.Limit)
	normalized := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Model(&models.AuditTrailEntry{}).
		Where("business_id = ?", params.BusinessID)
	if params.VendorID != nil {
		query = query.Where("vendor_id = ?", *params.VendorID)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at < ?", *params.To)
	}
	if params.Cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", params.Cursor.CreatedAt, params.Cursor.ID)
	}

	var entries []models.AuditTrailEntry
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
