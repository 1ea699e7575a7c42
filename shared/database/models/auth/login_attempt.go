package auth

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LoginAttempt records a login try for rate limiting and audit
type LoginAttempt struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"size:255;not null;index"`
	IPAddress string    `json:"ip_address" gorm:"size:50;index"`
	Success   bool      `json:"success" gorm:"default:false"`
	Reason    string    `json:"reason" gorm:"size:255"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
}

func (l *LoginAttempt) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
