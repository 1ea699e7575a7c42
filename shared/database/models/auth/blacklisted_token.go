package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BlacklistedToken holds revoked token hashes until their natural expiry
type BlacklistedToken struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID        uuid.UUID `json:"user_id" gorm:"type:uuid;not null;index"`
	TokenHash     string    `json:"token_hash" gorm:"size:255;not null;index"`
	ExpiresAt     time.Time `json:"expires_at" gorm:"not null"`
	BlacklistedAt time.Time `json:"blacklisted_at" gorm:"not null"`
	Reason        string    `json:"reason" gorm:"size:255"`
	CreatedAt     time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (b *BlacklistedToken) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
