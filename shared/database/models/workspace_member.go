package models

import (
	"time"

	"github.com/google/uuid"
)

// Workspace member roles. Every workspace has exactly one member with
// RoleOwner, matching Workspace.OwnerID.
const (
	RoleOwner    = "owner"
	RoleAdmin    = "admin"
	RoleMember   = "member"
	RoleReadOnly = "read_only"
)

// WorkspaceMember links a profile to a workspace with a role
type WorkspaceMember struct {
	WorkspaceID uuid.UUID `json:"workspace_id" gorm:"type:uuid;primaryKey"`
	UserID      uuid.UUID `json:"user_id" gorm:"type:uuid;primaryKey"`
	Role        string    `json:"role" gorm:"size:20;not null;default:'member'"`
	JoinedAt    time.Time `json:"joined_at" gorm:"autoCreateTime"`
}

// IsValidRole reports whether role is one of the defined member roles
func IsValidRole(role string) bool {
	switch role {
	case RoleOwner, RoleAdmin, RoleMember, RoleReadOnly:
		return true
	}
	return false
}
