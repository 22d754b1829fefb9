package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/muscatcode/suqpos-backend/pkg/enums"
)

// PostingState persists the completion of one saga step for one logical
// event. A retry with the same idempotency key skips steps already marked
// completed, so no ledger stream is double-posted.
type PostingState struct {
	ID             uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	IdempotencyKey string                  `gorm:"column:idempotency_key;not null;uniqueIndex:ux_posting_states_key_step"`
	EventKind      enums.EventKind         `gorm:"column:event_kind;type:event_kind_enum;not null"`
	Step           string                  `gorm:"column:step;not null;uniqueIndex:ux_posting_states_key_step"`
	Status         enums.PostingStepStatus `gorm:"column:status;type:posting_step_status_enum;not null"`
	Error          *string                 `gorm:"column:error"`
	CreatedAt      time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName overrides the default gorm naming.
func (PostingState) TableName() string {
	return "posting_states"
}
