package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shelfwise-backend/inventory-service/middleware"
	"shelfwise-backend/shared/utils/access"
)

// parseUUIDParam parses a path parameter as UUID, answering 400 itself
// on failure
func parseUUIDParam(ctx *gin.Context, name string) (uuid.UUID, bool) {
	value, err := uuid.Parse(ctx.Param(name))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid " + name + " format",
			"message": err.Error(),
		})
		return uuid.Nil, false
	}
	return value, true
}

// requireMembership resolves the caller's role in a workspace. A
// non-member gets 404 — membership is what makes a workspace visible
// at all, so "no access" and "does not exist" are deliberately the
// same answer.
func requireMembership(ctx *gin.Context, db *gorm.DB, workspaceID uuid.UUID) (string, bool) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return "", false
	}

	role, err := access.MemberRole(db, workspaceID, userID)
	if err != nil {
		if err == access.ErrNotMember {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":   "Workspace not found",
				"message": "Workspace with the given ID does not exist",
			})
			return "", false
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to check workspace access",
			"message": err.Error(),
		})
		return "", false
	}

	return role, true
}

// forbidden answers 403 for a role violation inside a workspace the
// caller belongs to
func forbidden(ctx *gin.Context, message string) {
	ctx.JSON(http.StatusForbidden, gin.H{
		"error":   "Forbidden",
		"message": message,
	})
}
