package access

import (
	"errors"

	"gorm.io/gorm"

	"github.com/google/uuid"

	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/utils/cache"
)

// ErrNotMember is returned when the user has no membership in the
// workspace. Handlers answer it with 404, not 403, so a caller cannot
// probe for workspace existence.
var ErrNotMember = errors.New("not a member of this workspace")

// MemberRole resolves the caller's role in a workspace, consulting the
// Redis cache before the database.
func MemberRole(db *gorm.DB, workspaceID, userID uuid.UUID) (string, error) {
	cm := cache.GetCacheManager()
	if role := cm.GetMemberRole(workspaceID.String(), userID.String()); role != "" {
		return role, nil
	}

	var member models.WorkspaceMember
	err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotMember
		}
		return "", err
	}

	cm.SetMemberRole(workspaceID.String(), userID.String(), member.Role)
	return member.Role, nil
}

// CanRead reports whether a role may read workspace contents
func CanRead(role string) bool {
	return models.IsValidRole(role)
}

// CanWrite reports whether a role may create and modify inventory
func CanWrite(role string) bool {
	switch role {
	case models.RoleOwner, models.RoleAdmin, models.RoleMember:
		return true
	}
	return false
}

// CanManage reports whether a role may administer the workspace
// (members, workspace settings, deletion of shared resources)
func CanManage(role string) bool {
	return role == models.RoleOwner || role == models.RoleAdmin
}
