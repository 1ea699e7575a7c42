package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Theme preference values accepted for a profile
const (
	ThemeLight  = "light"
	ThemeDark   = "dark"
	ThemeSystem = "system"
)

// Profile represents an authenticated user account
type Profile struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email           string    `json:"email" gorm:"uniqueIndex;not null"`
	Password        string    `json:"-" gorm:"not null"`
	FullName        string    `json:"full_name" gorm:"size:255"`
	ThemePreference string    `json:"theme_preference" gorm:"size:20;default:'system'"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
