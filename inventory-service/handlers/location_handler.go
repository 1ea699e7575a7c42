package handlers

import (
	"net/http"
	"strings"
	"time"

	"shelfwise-backend/inventory-service/services"
	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/utils/access"
	"shelfwise-backend/shared/utils/pathutil"
	"shelfwise-backend/shared/utils/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LocationResponse represents location data for API responses
type LocationResponse struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Path        string     `json:"path"`
	Breadcrumb  string     `json:"breadcrumb"`
	ParentID    *uuid.UUID `json:"parent_id"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// CreateLocationRequest represents request body for creating a location
type CreateLocationRequest struct {
	WorkspaceID uuid.UUID  `json:"workspace_id" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	ParentID    *uuid.UUID `json:"parent_id"`
}

// UpdateLocationRequest carries a partial location update; at least one
// field must be present
type UpdateLocationRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

func locationResponse(loc models.Location) LocationResponse {
	return LocationResponse{
		ID:          loc.ID,
		WorkspaceID: loc.WorkspaceID,
		Name:        loc.Name,
		Description: loc.Description,
		Path:        loc.Path,
		Breadcrumb:  pathutil.Breadcrumb(loc.Path),
		ParentID:    loc.ParentID,
		CreatedAt:   loc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   loc.UpdatedAt.Format(time.RFC3339),
	}
}

// GetLocations lists a workspace's locations in hierarchy order
// @Summary List locations
// @Description Get all non-deleted locations of a workspace, ordered by path
// @Tags locations
// @Produce json
// @Param workspace_id query string true "Workspace ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Location list"
// @Failure 400 {object} map[string]string "Missing workspace_id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /locations [get]
func GetLocations(ctx *gin.Context) {
	workspaceID, err := uuid.Parse(ctx.Query("workspace_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid workspace_id format",
			"message": "workspace_id query parameter is required",
		})
		return
	}

	db := database.DB

	if _, ok := requireMembership(ctx, db, workspaceID); !ok {
		return
	}

	var locations []models.Location
	if err := db.Where("workspace_id = ? AND is_deleted = ?", workspaceID, false).
		Order("path ASC").Find(&locations).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve locations",
			"message": err.Error(),
		})
		return
	}

	responses := make([]LocationResponse, 0, len(locations))
	for _, loc := range locations {
		responses = append(responses, locationResponse(loc))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    responses,
	})
}

// GetLocation retrieves a single location by ID
// @Summary Get location by ID
// @Tags locations
// @Produce json
// @Param id path string true "Location ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Location data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Location not found"
// @Router /locations/{id} [get]
func GetLocation(ctx *gin.Context) {
	locationID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	loc, ok := findAccessibleLocation(ctx, db, locationID)
	if !ok {
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    locationResponse(*loc),
	})
}

// CreateLocation creates a location, optionally under a parent
// @Summary Create a location
// @Description Create a location; depth is limited to 5 levels and 100 children per parent
// @Tags locations
// @Accept json
// @Produce json
// @Param location body CreateLocationRequest true "Location information"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created location"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Workspace or parent not found"
// @Failure 409 {object} map[string]string "Duplicate sibling name"
// @Router /locations [post]
func CreateLocation(ctx *gin.Context) {
	var req CreateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.FieldErrors{}
	fieldErrors.AddError("name", validation.ValidateName(req.Name))
	fieldErrors.AddError("description", validation.ValidateDescription(req.Description))
	if fieldErrors.HasErrors() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": fieldErrors})
		return
	}

	db := database.DB

	role, ok := requireMembership(ctx, db, req.WorkspaceID)
	if !ok {
		return
	}
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot create locations")
		return
	}

	var parentPath string
	if req.ParentID != nil {
		var parent models.Location
		if err := db.Where("id = ? AND workspace_id = ? AND is_deleted = ?",
			*req.ParentID, req.WorkspaceID, false).First(&parent).Error; err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":   "Parent location not found",
				"message": "The specified parent does not exist in this workspace",
			})
			return
		}
		parentPath = parent.Path

		// Depth and fan-out limits are validated before any mutation
		if pathutil.Depth(parent.Path)+1 > pathutil.MaxDepth {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":  "Validation failed",
				"errors": gin.H{"parent_id": "maximum location depth of 5 exceeded"},
			})
			return
		}

		var siblingCount int64
		db.Model(&models.Location{}).
			Where("parent_id = ? AND is_deleted = ?", *req.ParentID, false).
			Count(&siblingCount)
		if siblingCount >= pathutil.MaxChildren {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":  "Validation failed",
				"errors": gin.H{"parent_id": "a location can hold at most 100 children"},
			})
			return
		}
	}

	newPath := pathutil.BuildPath(parentPath, req.Name)

	// Sanitized segments must be unique among siblings because the
	// path, not the display name, is the hierarchy key
	var conflict models.Location
	if err := db.Where("workspace_id = ? AND path = ? AND is_deleted = ?",
		req.WorkspaceID, newPath, false).First(&conflict).Error; err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "Duplicate location name",
			"message": "A sibling location with an equivalent name already exists",
		})
		return
	}

	loc := models.Location{
		WorkspaceID: req.WorkspaceID,
		Name:        req.Name,
		Description: req.Description,
		Path:        newPath,
		ParentID:    req.ParentID,
	}
	if err := db.Create(&loc).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create location",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Location created successfully",
		"data":    locationResponse(loc),
	})
}

// UpdateLocation renames a location and/or changes its description
// @Summary Update a location
// @Description Rename a location (rewriting every descendant path) and/or set its description
// @Tags locations
// @Accept json
// @Produce json
// @Param id path string true "Location ID" format(uuid)
// @Param location body UpdateLocationRequest true "Fields to update, at least one"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated location"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Location not found"
// @Failure 409 {object} map[string]string "Duplicate sibling name"
// @Router /locations/{id} [patch]
func UpdateLocation(ctx *gin.Context) {
	locationID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateLocationRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if req.Name == nil && req.Description == nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}

	fieldErrors := validation.FieldErrors{}
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
		fieldErrors.AddError("name", validation.ValidateName(*req.Name))
	}
	if req.Description != nil {
		fieldErrors.AddError("description", validation.ValidateDescription(*req.Description))
	}
	if fieldErrors.HasErrors() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": fieldErrors})
		return
	}

	db := database.DB

	loc, ok := findAccessibleLocation(ctx, db, locationID)
	if !ok {
		return
	}

	role, _ := requireMembership(ctx, db, loc.WorkspaceID)
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot modify locations")
		return
	}

	if req.Description != nil {
		loc.Description = *req.Description
	}

	renamed := req.Name != nil && *req.Name != loc.Name
	if !renamed {
		if req.Name != nil {
			loc.Name = *req.Name
		}
		if err := db.Save(loc).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to update location",
				"message": err.Error(),
			})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Location updated successfully",
			"data":    locationResponse(*loc),
		})
		return
	}

	var parentPath string
	if loc.ParentID != nil {
		var parent models.Location
		if err := db.First(&parent, "id = ?", *loc.ParentID).Error; err == nil {
			parentPath = parent.Path
		}
	}

	oldPath := loc.Path
	newPath := pathutil.BuildPath(parentPath, *req.Name)

	if newPath != oldPath {
		var conflict models.Location
		if err := db.Where("workspace_id = ? AND path = ? AND id != ? AND is_deleted = ?",
			loc.WorkspaceID, newPath, loc.ID, false).First(&conflict).Error; err == nil {
			ctx.JSON(http.StatusConflict, gin.H{
				"error":   "Duplicate location name",
				"message": "A sibling location with an equivalent name already exists",
			})
			return
		}
	}

	// The location and every descendant path are rewritten in one
	// transaction so path and name can never disagree
	err := db.Transaction(func(tx *gorm.DB) error {
		loc.Name = *req.Name
		loc.Path = newPath
		if err := tx.Save(loc).Error; err != nil {
			return err
		}

		if newPath == oldPath {
			return nil
		}

		var descendants []models.Location
		if err := tx.Where("workspace_id = ? AND path LIKE ? ESCAPE '\\'",
			loc.WorkspaceID, pathutil.SubtreePattern(oldPath)).Find(&descendants).Error; err != nil {
			return err
		}

		for _, descendant := range descendants {
			rewritten := pathutil.ReplacePrefix(descendant.Path, oldPath, newPath)
			if err := tx.Model(&models.Location{}).
				Where("id = ?", descendant.ID).
				Update("path", rewritten).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update location",
			"message": err.Error(),
		})
		return
	}

	event := services.NewEvent(services.EventLocationRenamed, "Location renamed")
	event.WorkspaceID = &loc.WorkspaceID
	event.Payload = map[string]interface{}{"location_id": loc.ID, "path": loc.Path}
	services.GetWebSocketManager().BroadcastToAll(event)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Location updated successfully",
		"data":    locationResponse(*loc),
	})
}

// DeleteLocation soft-deletes a location subtree
// @Summary Delete a location
// @Description Soft-delete a location and its descendants; boxes inside become unassigned
// @Tags locations
// @Produce json
// @Param id path string true "Location ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Success message"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Location not found"
// @Router /locations/{id} [delete]
func DeleteLocation(ctx *gin.Context) {
	locationID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	loc, ok := findAccessibleLocation(ctx, db, locationID)
	if !ok {
		return
	}

	role, _ := requireMembership(ctx, db, loc.WorkspaceID)
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot delete locations")
		return
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		var subtreeIDs []uuid.UUID
		if err := tx.Model(&models.Location{}).
			Where("workspace_id = ? AND (id = ? OR path LIKE ? ESCAPE '\\')",
				loc.WorkspaceID, loc.ID, pathutil.SubtreePattern(loc.Path)).
			Pluck("id", &subtreeIDs).Error; err != nil {
			return err
		}

		// Boxes placed anywhere in the subtree become unassigned
		if err := tx.Model(&models.Box{}).
			Where("location_id IN ?", subtreeIDs).
			Update("location_id", nil).Error; err != nil {
			return err
		}

		return tx.Model(&models.Location{}).
			Where("id IN ?", subtreeIDs).
			Update("is_deleted", true).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete location",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Location deleted successfully",
	})
}

// findAccessibleLocation loads a location and checks workspace
// membership, answering 404 for both a missing row and a foreign
// workspace
func findAccessibleLocation(ctx *gin.Context, db *gorm.DB, locationID uuid.UUID) (*models.Location, bool) {
	var loc models.Location
	if err := db.Where("id = ? AND is_deleted = ?", locationID, false).First(&loc).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Location not found",
			"message": "Location with the given ID does not exist",
		})
		return nil, false
	}

	if _, ok := requireMembership(ctx, db, loc.WorkspaceID); !ok {
		return nil, false
	}

	return &loc, true
}
