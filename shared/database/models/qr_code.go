package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QR code lifecycle states. A code is "assigned" iff BoxID is set.
const (
	QRStatusGenerated = "generated"
	QRStatusPrinted   = "printed"
	QRStatusAssigned  = "assigned"
)

// QrCode is a printable short identifier owned by a workspace,
// linkable to at most one box
type QrCode struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	WorkspaceID uuid.UUID  `json:"workspace_id" gorm:"type:uuid;not null;index"`
	ShortID     string     `json:"short_id" gorm:"size:10;uniqueIndex;not null"`
	Status      string     `json:"status" gorm:"size:20;not null;default:'generated'"`
	BoxID       *uuid.UUID `json:"box_id" gorm:"type:uuid;uniqueIndex"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (q *QrCode) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
