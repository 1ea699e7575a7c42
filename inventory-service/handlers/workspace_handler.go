package handlers

import (
	"net/http"
	"time"

	"shelfwise-backend/inventory-service/middleware"
	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/utils/access"
	"shelfwise-backend/shared/utils/cache"
	"shelfwise-backend/shared/utils/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WorkspaceResponse represents workspace data for API responses
type WorkspaceResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Role      string    `json:"role,omitempty"`
	CreatedAt string    `json:"created_at"`
	UpdatedAt string    `json:"updated_at"`
}

// CreateWorkspaceRequest represents request body for creating a workspace
type CreateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

// UpdateWorkspaceRequest represents request body for renaming a workspace
type UpdateWorkspaceRequest struct {
	Name string `json:"name" binding:"required"`
}

// AddMemberRequest invites a profile into a workspace by email
type AddMemberRequest struct {
	Email string `json:"email" binding:"required"`
	Role  string `json:"role"`
}

func workspaceResponse(ws models.Workspace, role string) WorkspaceResponse {
	return WorkspaceResponse{
		ID:        ws.ID,
		Name:      ws.Name,
		OwnerID:   ws.OwnerID,
		Role:      role,
		CreatedAt: ws.CreatedAt.Format(time.RFC3339),
		UpdatedAt: ws.UpdatedAt.Format(time.RFC3339),
	}
}

// GetWorkspaces lists every workspace the caller is a member of
// @Summary List workspaces
// @Description Get all workspaces the authenticated user belongs to
// @Tags workspaces
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Workspace list"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /workspaces [get]
func GetWorkspaces(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	db := database.DB

	var memberships []models.WorkspaceMember
	if err := db.Where("user_id = ?", userID).Find(&memberships).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve workspaces",
			"message": err.Error(),
		})
		return
	}

	roleByWorkspace := make(map[uuid.UUID]string, len(memberships))
	workspaceIDs := make([]uuid.UUID, 0, len(memberships))
	for _, m := range memberships {
		roleByWorkspace[m.WorkspaceID] = m.Role
		workspaceIDs = append(workspaceIDs, m.WorkspaceID)
	}

	var workspaces []models.Workspace
	if len(workspaceIDs) > 0 {
		if err := db.Where("id IN ?", workspaceIDs).Order("created_at ASC").Find(&workspaces).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to retrieve workspaces",
				"message": err.Error(),
			})
			return
		}
	}

	responses := make([]WorkspaceResponse, 0, len(workspaces))
	for _, ws := range workspaces {
		responses = append(responses, workspaceResponse(ws, roleByWorkspace[ws.ID]))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    responses,
	})
}

// GetWorkspace retrieves a single workspace by ID
// @Summary Get workspace by ID
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Workspace data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /workspaces/{id} [get]
func GetWorkspace(ctx *gin.Context) {
	workspaceID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	role, ok := requireMembership(ctx, db, workspaceID)
	if !ok {
		return
	}

	var ws models.Workspace
	if err := db.First(&ws, "id = ?", workspaceID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Workspace not found",
			"message": "Workspace with the given ID does not exist",
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    workspaceResponse(ws, role),
	})
}

// CreateWorkspace creates a new workspace with the caller as owner
// @Summary Create a workspace
// @Tags workspaces
// @Accept json
// @Produce json
// @Param workspace body CreateWorkspaceRequest true "Workspace information"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created workspace"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 500 {object} map[string]string "Server error"
// @Router /workspaces [post]
func CreateWorkspace(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req CreateWorkspaceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": gin.H{"name": err.Error()}})
		return
	}

	db := database.DB

	ws := models.Workspace{
		Name:    req.Name,
		OwnerID: userID,
	}

	// Workspace and its owner membership are created atomically so the
	// one-owner-member invariant holds from the first commit
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&ws).Error; err != nil {
			return err
		}
		member := models.WorkspaceMember{
			WorkspaceID: ws.ID,
			UserID:      userID,
			Role:        models.RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create workspace",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Workspace created successfully",
		"data":    workspaceResponse(ws, models.RoleOwner),
	})
}

// UpdateWorkspace renames a workspace
// @Summary Update a workspace
// @Tags workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID" format(uuid)
// @Param workspace body UpdateWorkspaceRequest true "Updated workspace information"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated workspace"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient role"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /workspaces/{id} [patch]
func UpdateWorkspace(ctx *gin.Context) {
	workspaceID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateWorkspaceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if err := validation.ValidateName(req.Name); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": gin.H{"name": err.Error()}})
		return
	}

	db := database.DB

	role, ok := requireMembership(ctx, db, workspaceID)
	if !ok {
		return
	}
	if !access.CanManage(role) {
		forbidden(ctx, "Only owners and admins can rename a workspace")
		return
	}

	var ws models.Workspace
	if err := db.First(&ws, "id = ?", workspaceID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "Workspace not found"})
		return
	}

	ws.Name = req.Name
	if err := db.Save(&ws).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update workspace",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Workspace updated successfully",
		"data":    workspaceResponse(ws, role),
	})
}

// DeleteWorkspace removes a workspace and all its contents
// @Summary Delete a workspace
// @Description Delete a workspace with its locations, boxes, QR codes and memberships
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Success message"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Only the owner can delete"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /workspaces/{id} [delete]
func DeleteWorkspace(ctx *gin.Context) {
	workspaceID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	role, ok := requireMembership(ctx, db, workspaceID)
	if !ok {
		return
	}
	if role != models.RoleOwner {
		forbidden(ctx, "Only the workspace owner can delete it")
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.Box{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.QrCode{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.Location{}).Error; err != nil {
			return err
		}
		if err := tx.Where("workspace_id = ?", workspaceID).Delete(&models.WorkspaceMember{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Workspace{}, "id = ?", workspaceID).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete workspace",
			"message": err.Error(),
		})
		return
	}

	cache.GetCacheManager().InvalidateWorkspaceMembers(workspaceID.String())

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Workspace deleted successfully",
	})
}

// GetWorkspaceMembers lists workspace members
// @Summary List workspace members
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Member list"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /workspaces/{id}/members [get]
func GetWorkspaceMembers(ctx *gin.Context) {
	workspaceID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	if _, ok := requireMembership(ctx, db, workspaceID); !ok {
		return
	}

	var members []models.WorkspaceMember
	if err := db.Where("workspace_id = ?", workspaceID).Order("joined_at ASC").Find(&members).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve members",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    members,
	})
}

// AddWorkspaceMember invites a profile into the workspace
// @Summary Add a workspace member
// @Tags workspaces
// @Accept json
// @Produce json
// @Param id path string true "Workspace ID" format(uuid)
// @Param member body AddMemberRequest true "Member email and role"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Added member"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient role"
// @Failure 404 {object} map[string]string "Workspace or profile not found"
// @Failure 409 {object} map[string]string "Already a member"
// @Router /workspaces/{id}/members [post]
func AddWorkspaceMember(ctx *gin.Context) {
	workspaceID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req AddMemberRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if !models.IsValidRole(req.Role) || req.Role == models.RoleOwner {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid role",
			"message": "Role must be one of: admin, member, read_only",
		})
		return
	}

	email, err := validation.NormalizeEmail(req.Email)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": gin.H{"email": err.Error()}})
		return
	}

	db := database.DB

	role, ok := requireMembership(ctx, db, workspaceID)
	if !ok {
		return
	}
	if !access.CanManage(role) {
		forbidden(ctx, "Only owners and admins can add members")
		return
	}

	var profile models.Profile
	if err := db.Where("email = ?", email).First(&profile).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Profile not found",
			"message": "No profile is registered with this email",
		})
		return
	}

	var existing models.WorkspaceMember
	if err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, profile.ID).First(&existing).Error; err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "Already a member",
			"message": "This profile already belongs to the workspace",
		})
		return
	}

	member := models.WorkspaceMember{
		WorkspaceID: workspaceID,
		UserID:      profile.ID,
		Role:        req.Role,
	}
	if err := db.Create(&member).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to add member",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Member added successfully",
		"data":    member,
	})
}

// RemoveWorkspaceMember removes a member from the workspace
// @Summary Remove a workspace member
// @Tags workspaces
// @Produce json
// @Param id path string true "Workspace ID" format(uuid)
// @Param user_id path string true "User ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Success message"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient role or owner removal"
// @Failure 404 {object} map[string]string "Workspace or member not found"
// @Router /workspaces/{id}/members/{user_id} [delete]
func RemoveWorkspaceMember(ctx *gin.Context) {
	workspaceID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}
	memberID, ok := parseUUIDParam(ctx, "user_id")
	if !ok {
		return
	}

	callerID, _ := middleware.CurrentUserID(ctx)
	db := database.DB

	role, ok := requireMembership(ctx, db, workspaceID)
	if !ok {
		return
	}

	// Members may leave on their own; removing others needs a managing role
	if memberID != callerID && !access.CanManage(role) {
		forbidden(ctx, "Only owners and admins can remove other members")
		return
	}

	var member models.WorkspaceMember
	if err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, memberID).First(&member).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Member not found",
			"message": "This profile does not belong to the workspace",
		})
		return
	}

	if member.Role == models.RoleOwner {
		forbidden(ctx, "The workspace owner cannot be removed")
		return
	}

	if err := db.Where("workspace_id = ? AND user_id = ?", workspaceID, memberID).
		Delete(&models.WorkspaceMember{}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to remove member",
			"message": err.Error(),
		})
		return
	}

	cache.GetCacheManager().InvalidateMemberRole(workspaceID.String(), memberID.String())

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Member removed successfully",
	})
}
