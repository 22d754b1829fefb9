package posting

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/muscatcode/suqpos-backend/pkg/db"
	"github.com/muscatcode/suqpos-backend/pkg/db/models"
	"github.com/muscatcode/suqpos-backend/pkg/enums"
	"gorm.io/gorm"
)

// StateRepository persists saga step completion per idempotency key.
type StateRepository interface {
	WithTx(tx *gorm.DB) StateRepository
	ListByKey(ctx context.Context, key string) ([]models.PostingState, error)
	// MarkCompleted records a step as done. Marking an already recorded
	// step again is a no-op.
	MarkCompleted(ctx context.Context, key string, kind enums.EventKind, step enums.PostingStep) error
	MarkFailed(ctx context.Context, key string, kind enums.EventKind, step enums.PostingStep, cause string) error
	// ListSince returns all step rows recorded at or after the given time,
	// oldest first. The reconcile job scans these for missing siblings.
	ListSince(ctx context.Context, since time.Time) ([]models.PostingState, error)
}

type stateRepositoryImpl struct {
	db *gorm.DB
}

// NewStateRepository returns a posting state repository bound to the provided database.
func NewStateRepository(db *gorm.DB) StateRepository {
	return &stateRepositoryImpl{db: db}
}

func (r *stateRepositoryImpl) WithTx(tx *gorm.DB) StateRepository {
	if tx == nil {
		return r
	}
	return &stateRepositoryImpl{db: tx}
}

func (r *stateRepositoryImpl) ListByKey(ctx context.Context, key string) ([]models.PostingState, error) {
	var states []models.PostingState
	if err := r.db.WithContext(ctx).
		Where("idempotency_key = ?", key).
		Order("created_at ASC").
		Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}

func (r *stateRepositoryImpl) MarkCompleted(ctx context.Context, key string, kind enums.EventKind, step enums.PostingStep) error {
	state := &models.PostingState{
		ID:             uuid.New(),
		IdempotencyKey: key,
		EventKind:      kind,
		Step:           string(step),
		Status:         enums.PostingStepStatusCompleted,
	}
	err := r.db.WithContext(ctx).Create(state).Error
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, "ux_posting_states_key_step") {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.PostingState{}).
		Where("idempotency_key = ? AND step = ?", key, string(step)).
		Updates(map[string]any{
			"status": enums.PostingStepStatusCompleted,
			"error":  nil,
		}).Error
}

func (r *stateRepositoryImpl) MarkFailed(ctx context.Context, key string, kind enums.EventKind, step enums.PostingStep, cause string) error {
	state := &models.PostingState{
		ID:             uuid.New(),
		IdempotencyKey: key,
		EventKind:      kind,
		Step:           string(step),
		Status:         enums.PostingStepStatusFailed,
		Error:          &cause,
	}
	err := r.db.WithContext(ctx).Create(state).Error
	if err == nil {
		return nil
	}
	if !db.IsUniqueViolation(err, "ux_posting_states_key_step") {
		return err
	}
	return r.db.WithContext(ctx).
		Model(&models.PostingState{}).
		Where("idempotency_key = ? AND step = ? AND status <> ?", key, string(step), enums.PostingStepStatusCompleted).
		Updates(map[string]any{
			"status": enums.PostingStepStatusFailed,
			"error":  cause,
		}).Error
}

func (r *stateRepositoryImpl) ListSince(ctx context.Context, since time.Time) ([]models.PostingState, error) {
	var states []models.PostingState
	if err := r.db.WithContext(ctx).
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Find(&states).Error; err != nil {
		return nil, err
	}
	return states, nil
}
