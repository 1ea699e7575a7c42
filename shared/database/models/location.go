package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Location is a node in a per-workspace storage hierarchy. Path is a
// materialized path of sanitized segments joined by "." under a root
// marker (e.g. "root.garage.shelf_2"), maintained by the location
// service inside the same transaction as name changes.
type Location struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	WorkspaceID uuid.UUID `json:"workspace_id" gorm:"type:uuid;not null;index"`
	Name        string    `json:"name" gorm:"size:255;not null"`
	Description string    `json:"description" gorm:"size:1000"`
	Path        string    `json:"path" gorm:"size:1024;not null;index"`
	ParentID    *uuid.UUID `json:"parent_id" gorm:"type:uuid;index"`
	IsDeleted   bool      `json:"is_deleted" gorm:"default:false;index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (l *Location) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
