package posting

import (
	"context"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"gorm.io/gorm"
)

// SoldProductRepository persists the per-line receipt output of a sale.
type SoldProductRepository interface {
	WithTx(tx *gorm.DB) SoldProductRepository
	// ReplaceForSale atomically rewrites the line set for a sale. Re-running
	// an interrupted emission therefore never leaves duplicate lines.
	ReplaceForSale(ctx context.Context, saleID uuid.UUID, lines []models.SoldProduct) error
	ListBySale(ctx context.Context, saleID uuid.UUID) ([]models.SoldProduct, error)
}

type soldProductRepositoryImpl struct {
	db *gorm.DB
}

// NewSoldProductRepository returns a sold product repository bound to the provided database.
func NewSoldProductRepository(db *gorm.DB) SoldProductRepository {
	return &soldProductRepositoryImpl{db: db}
}

func (r *soldProductRepositoryImpl) WithTx(tx *gorm.DB) SoldProductRepository {
	if tx == nil {
		return r
	}
	return &soldProductRepositoryImpl{db: tx}
}

func (r *soldProductRepositoryImpl) ReplaceForSale(ctx context.Context, saleID uuid.UUID, lines []models.SoldProduct) error {
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Delete(&models.SoldProduct{}).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *soldProductRepositoryImpl) ListBySale(ctx context.Context, saleID uuid.UUID) ([]models.SoldProduct, error) {
	var lines []models.SoldProduct
	if err := r.db.WithContext(ctx).
		Where("sale_id = ?", saleID).
		Order("created_at ASC, id ASC").
		Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
