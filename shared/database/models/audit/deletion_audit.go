package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Deletion audit step outcomes
const (
	StepStarted   = "started"
	StepCompleted = "completed"
	StepFailed    = "failed"
)

// DeletionAudit is one row per account-deletion step attempt. The
// deletion sequence has no rollback, so this trail is what makes a
// partial failure diagnosable and retryable.
type DeletionAudit struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	UserID       uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	Step         string    `json:"step" gorm:"type:varchar(50);not null"`
	Status       string    `json:"status" gorm:"type:varchar(20);not null;index"`
	Detail       string    `json:"detail,omitempty" gorm:"type:text"`
	RowsAffected int64     `json:"rows_affected"`
	CreatedAt    time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

// TableName returns the table name for DeletionAudit
func (DeletionAudit) TableName() string {
	return "deletion_audits"
}

func (d *DeletionAudit) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
