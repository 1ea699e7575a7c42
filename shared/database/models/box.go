package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Box is an inventory unit, optionally placed in a location and
// optionally linked to one QR code. Tags are stored comma-joined.
type Box struct {
	ID          uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	WorkspaceID uuid.UUID  `json:"workspace_id" gorm:"type:uuid;not null;index"`
	LocationID  *uuid.UUID `json:"location_id" gorm:"type:uuid;index"`
	Name        string     `json:"name" gorm:"size:255;not null"`
	Description string     `json:"description" gorm:"size:1000"`
	Tags        string     `json:"-" gorm:"type:text"`
	ShortID     string     `json:"short_id" gorm:"size:10;uniqueIndex;not null"`
	SearchText  string     `json:"-" gorm:"type:text;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (b *Box) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BeforeSave keeps the derived search column in sync with the
// searchable fields
func (b *Box) BeforeSave(tx *gorm.DB) error {
	b.SearchText = strings.ToLower(strings.Join([]string{b.Name, b.Description, b.Tags}, " "))
	return nil
}

// TagList splits the stored tag string into individual tags
func (b *Box) TagList() []string {
	if b.Tags == "" {
		return []string{}
	}
	return strings.Split(b.Tags, ",")
}

// SetTags stores tags as a comma-joined string
func (b *Box) SetTags(tags []string) {
	b.Tags = strings.Join(tags, ",")
}
