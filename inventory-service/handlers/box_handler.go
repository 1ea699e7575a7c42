package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"shelfwise-backend/inventory-service/services"
	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/utils/access"
	utils "shelfwise-backend/shared/utils/auth"
	"shelfwise-backend/shared/utils/query"
	"shelfwise-backend/shared/utils/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Allow-listed filter and sort fields for box listings
var (
	boxFilterFields = map[string]string{
		"location_id": "location_id",
	}
	boxSortFields = map[string]string{
		"name":       "name",
		"created_at": "created_at",
		"updated_at": "updated_at",
	}
	boxSearchFields = []string{"search_text"}
)

// BoxResponse represents box data for API responses
type BoxResponse struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	LocationID  *uuid.UUID `json:"location_id"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	ShortID     string     `json:"short_id"`
	QRShortID   *string    `json:"qr_short_id"`
	CreatedAt   string     `json:"created_at"`
	UpdatedAt   string     `json:"updated_at"`
}

// CreateBoxRequest represents request body for creating a box
type CreateBoxRequest struct {
	WorkspaceID uuid.UUID  `json:"workspace_id" binding:"required"`
	Name        string     `json:"name" binding:"required"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	LocationID  *uuid.UUID `json:"location_id"`
}

// UpdateBoxRequest carries a partial box update. location_id accepts an
// empty string to move the box out of its location.
type UpdateBoxRequest struct {
	Name        *string   `json:"name"`
	Description *string   `json:"description"`
	Tags        *[]string `json:"tags"`
	LocationID  *string   `json:"location_id"`
}

// AssignQRRequest links an existing QR code to a box by its short id
type AssignQRRequest struct {
	ShortID string `json:"short_id" binding:"required"`
}

func boxResponse(box models.Box, qrShortID *string) BoxResponse {
	return BoxResponse{
		ID:          box.ID,
		WorkspaceID: box.WorkspaceID,
		LocationID:  box.LocationID,
		Name:        box.Name,
		Description: box.Description,
		Tags:        box.TagList(),
		ShortID:     box.ShortID,
		QRShortID:   qrShortID,
		CreatedAt:   box.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   box.UpdatedAt.Format(time.RFC3339),
	}
}

// qrShortIDsByBox loads assigned QR short ids for a set of boxes
func qrShortIDsByBox(db *gorm.DB, boxIDs []uuid.UUID) map[uuid.UUID]string {
	result := make(map[uuid.UUID]string)
	if len(boxIDs) == 0 {
		return result
	}

	var codes []models.QrCode
	if err := db.Where("box_id IN ?", boxIDs).Find(&codes).Error; err != nil {
		return result
	}
	for _, code := range codes {
		if code.BoxID != nil {
			result[*code.BoxID] = code.ShortID
		}
	}
	return result
}

// GetBoxes lists boxes with filtering, search, sorting and pagination
// @Summary List boxes
// @Description Get a workspace's boxes; supports filters[location_id], filters[tag], search (min 3 chars), sort and pagination
// @Tags boxes
// @Produce json
// @Param workspace_id query string true "Workspace ID" format(uuid)
// @Param search query string false "Substring search over name, description and tags"
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Paginated box list"
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /boxes [get]
func GetBoxes(ctx *gin.Context) {
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

	params := query.ParseQueryParams(ctx)

	if err := validation.ValidateSearchQuery(params.Search); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": gin.H{"search": err.Error()},
		})
		return
	}

	baseQuery := query.ApplyWorkspaceScope(db.Model(&models.Box{}), workspaceID)
	baseQuery = query.ApplyFilters(baseQuery, params.Filters, boxFilterFields)

	// Tags are stored comma-joined; wrapping both sides in commas makes
	// the match exact instead of substring
	if tag, ok := params.Filters["tag"]; ok && tag != "" {
		baseQuery = baseQuery.Where("(',' || tags || ',') LIKE ?", "%,"+strings.TrimSpace(tag)+",%")
	}

	baseQuery = query.ApplySearch(baseQuery, params.Search, boxSearchFields)

	var total int64
	if err := baseQuery.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to count boxes",
			"message": err.Error(),
		})
		return
	}

	baseQuery = query.ApplySort(baseQuery, params.Sort, boxSortFields)
	baseQuery = query.ApplyPagination(baseQuery, params.Page, params.Limit)

	var boxes []models.Box
	if err := baseQuery.Find(&boxes).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve boxes",
			"message": err.Error(),
		})
		return
	}

	boxIDs := make([]uuid.UUID, 0, len(boxes))
	for _, box := range boxes {
		boxIDs = append(boxIDs, box.ID)
	}
	qrByBox := qrShortIDsByBox(db, boxIDs)

	responses := make([]BoxResponse, 0, len(boxes))
	for _, box := range boxes {
		var qrShortID *string
		if shortID, ok := qrByBox[box.ID]; ok {
			qrShortID = &shortID
		}
		responses = append(responses, boxResponse(box, qrShortID))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       responses,
		"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
	})
}

// GetBox retrieves a single box by ID
// @Summary Get box by ID
// @Tags boxes
// @Produce json
// @Param id path string true "Box ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Box data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Box not found"
// @Router /boxes/{id} [get]
func GetBox(ctx *gin.Context) {
	boxID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	box, ok := findAccessibleBox(ctx, db, boxID)
	if !ok {
		return
	}

	qrByBox := qrShortIDsByBox(db, []uuid.UUID{box.ID})
	var qrShortID *string
	if shortID, found := qrByBox[box.ID]; found {
		qrShortID = &shortID
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    boxResponse(*box, qrShortID),
	})
}

// CreateBox creates a box in a workspace
// @Summary Create a box
// @Tags boxes
// @Accept json
// @Produce json
// @Param box body CreateBoxRequest true "Box information"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created box"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Workspace or location not found"
// @Router /boxes [post]
func CreateBox(ctx *gin.Context) {
	var req CreateBoxRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}
	req.Name = strings.TrimSpace(req.Name)

	fieldErrors := validation.FieldErrors{}
	fieldErrors.AddError("name", validation.ValidateName(req.Name))
	fieldErrors.AddError("description", validation.ValidateDescription(req.Description))
	fieldErrors.AddError("tags", validation.ValidateTags(req.Tags))
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
		forbidden(ctx, "Read-only members cannot create boxes")
		return
	}

	if req.LocationID != nil {
		if !locationBelongsToWorkspace(ctx, db, *req.LocationID, req.WorkspaceID) {
			return
		}
	}

	box := models.Box{
		WorkspaceID: req.WorkspaceID,
		LocationID:  req.LocationID,
		Name:        req.Name,
		Description: req.Description,
	}
	box.SetTags(trimTags(req.Tags))

	// Short id collisions are rare; retry a few times against the
	// unique index before giving up
	var createErr error
	for attempt := 0; attempt < 3; attempt++ {
		shortID, err := utils.GenerateShortID("BX")
		if err != nil {
			createErr = err
			break
		}
		box.ShortID = shortID
		if createErr = db.Create(&box).Error; createErr == nil {
			break
		}
	}
	if createErr != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to create box",
			"message": createErr.Error(),
		})
		return
	}

	event := services.NewEvent(services.EventBoxCreated, "Box created")
	event.WorkspaceID = &box.WorkspaceID
	event.Payload = map[string]interface{}{"box_id": box.ID, "name": box.Name}
	services.GetWebSocketManager().BroadcastToAll(event)

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Box created successfully",
		"data":    boxResponse(box, nil),
	})
}

// UpdateBox updates box fields and/or moves it between locations
// @Summary Update a box
// @Description Partially update a box; set location_id to an empty string to unassign it from its location
// @Tags boxes
// @Accept json
// @Produce json
// @Param id path string true "Box ID" format(uuid)
// @Param box body UpdateBoxRequest true "Fields to update, at least one"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated box"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Box or location not found"
// @Router /boxes/{id} [patch]
func UpdateBox(ctx *gin.Context) {
	boxID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req UpdateBoxRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if req.Name == nil && req.Description == nil && req.Tags == nil && req.LocationID == nil {
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
	if req.Tags != nil {
		fieldErrors.AddError("tags", validation.ValidateTags(*req.Tags))
	}
	if fieldErrors.HasErrors() {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": fieldErrors})
		return
	}

	db := database.DB

	box, ok := findAccessibleBox(ctx, db, boxID)
	if !ok {
		return
	}

	role, _ := requireMembership(ctx, db, box.WorkspaceID)
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot modify boxes")
		return
	}

	if req.LocationID != nil {
		if *req.LocationID == "" {
			box.LocationID = nil
		} else {
			locationID, err := uuid.Parse(*req.LocationID)
			if err != nil {
				ctx.JSON(http.StatusBadRequest, gin.H{
					"error":  "Validation failed",
					"errors": gin.H{"location_id": "invalid location_id format"},
				})
				return
			}
			// Boxes cannot be moved across workspaces
			if !locationBelongsToWorkspace(ctx, db, locationID, box.WorkspaceID) {
				return
			}
			box.LocationID = &locationID
		}
	}

	if req.Name != nil {
		box.Name = *req.Name
	}
	if req.Description != nil {
		box.Description = *req.Description
	}
	if req.Tags != nil {
		box.SetTags(trimTags(*req.Tags))
	}

	if err := db.Save(box).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to update box",
			"message": err.Error(),
		})
		return
	}

	event := services.NewEvent(services.EventBoxUpdated, "Box updated")
	event.WorkspaceID = &box.WorkspaceID
	event.Payload = map[string]interface{}{"box_id": box.ID}
	services.GetWebSocketManager().BroadcastToAll(event)

	qrByBox := qrShortIDsByBox(db, []uuid.UUID{box.ID})
	var qrShortID *string
	if shortID, found := qrByBox[box.ID]; found {
		qrShortID = &shortID
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Box updated successfully",
		"data":    boxResponse(*box, qrShortID),
	})
}

// DeleteBox deletes a box and frees its QR code
// @Summary Delete a box
// @Description Delete a box; its assigned QR code, if any, returns to the generated state in the same transaction
// @Tags boxes
// @Produce json
// @Param id path string true "Box ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Success message"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Box not found"
// @Router /boxes/{id} [delete]
func DeleteBox(ctx *gin.Context) {
	boxID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	box, ok := findAccessibleBox(ctx, db, boxID)
	if !ok {
		return
	}

	role, _ := requireMembership(ctx, db, box.WorkspaceID)
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot delete boxes")
		return
	}

	// The QR reset rides in the delete transaction so a crash can never
	// leave a code pointing at a box that is gone. Deleting a box sends
	// its code all the way back to the generated state.
	err := db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.QrCode{}).
			Where("box_id = ?", box.ID).
			Updates(map[string]interface{}{
				"box_id": nil,
				"status": models.QRStatusGenerated,
			}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Box{}, "id = ?", box.ID).Error
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete box",
			"message": err.Error(),
		})
		return
	}

	event := services.NewEvent(services.EventBoxDeleted, "Box deleted")
	event.WorkspaceID = &box.WorkspaceID
	event.Payload = map[string]interface{}{"box_id": box.ID}
	services.GetWebSocketManager().BroadcastToAll(event)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Box deleted successfully",
	})
}

// AssignQRToBox links a QR code to a box by short id
// @Summary Assign a QR code to a box
// @Tags boxes
// @Accept json
// @Produce json
// @Param id path string true "Box ID" format(uuid)
// @Param assignment body AssignQRRequest true "QR short id"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated box"
// @Failure 400 {object} map[string]string "Invalid short id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Box or QR code not found"
// @Failure 409 {object} map[string]string "Code or box already assigned"
// @Router /boxes/{id}/qr [post]
func AssignQRToBox(ctx *gin.Context) {
	boxID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	var req AssignQRRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if err := validation.ValidateQRShortID(req.ShortID); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": gin.H{"short_id": err.Error()},
		})
		return
	}

	db := database.DB

	box, ok := findAccessibleBox(ctx, db, boxID)
	if !ok {
		return
	}

	role, _ := requireMembership(ctx, db, box.WorkspaceID)
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot assign QR codes")
		return
	}

	var qr models.QrCode
	if err := db.Where("workspace_id = ? AND short_id = ?", box.WorkspaceID, req.ShortID).
		First(&qr).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "QR code not found",
			"message": "No QR code with that short id exists in this workspace",
		})
		return
	}

	if qr.BoxID != nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "QR code already assigned",
			"message": "This QR code is already linked to a box",
		})
		return
	}

	var existing models.QrCode
	if err := db.Where("box_id = ?", box.ID).First(&existing).Error; err == nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "Box already has a QR code",
			"message": "Unassign the current code before linking a new one",
		})
		return
	}

	if err := db.Model(&models.QrCode{}).
		Where("id = ?", qr.ID).
		Updates(map[string]interface{}{
			"box_id": box.ID,
			"status": models.QRStatusAssigned,
		}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to assign QR code",
			"message": err.Error(),
		})
		return
	}

	event := services.NewEvent(services.EventQRAssigned, "QR code assigned")
	event.WorkspaceID = &box.WorkspaceID
	event.Payload = map[string]interface{}{"box_id": box.ID, "short_id": qr.ShortID}
	services.GetWebSocketManager().BroadcastToAll(event)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "QR code assigned successfully",
		"data":    boxResponse(*box, &qr.ShortID),
	})
}

// UnassignQRFromBox removes the QR code link from a box
// @Summary Unassign a box's QR code
// @Description Unlink the box's QR code; the code returns to the printed state and can be reused
// @Tags boxes
// @Produce json
// @Param id path string true "Box ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Success message"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Box has no QR code"
// @Router /boxes/{id}/qr [delete]
func UnassignQRFromBox(ctx *gin.Context) {
	boxID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	box, ok := findAccessibleBox(ctx, db, boxID)
	if !ok {
		return
	}

	role, _ := requireMembership(ctx, db, box.WorkspaceID)
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot unassign QR codes")
		return
	}

	var qr models.QrCode
	if err := db.Where("box_id = ?", box.ID).First(&qr).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "No QR code assigned",
			"message": "This box has no linked QR code",
		})
		return
	}

	if err := db.Model(&models.QrCode{}).
		Where("id = ?", qr.ID).
		Updates(map[string]interface{}{
			"box_id": nil,
			"status": models.QRStatusPrinted,
		}).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to unassign QR code",
			"message": err.Error(),
		})
		return
	}

	event := services.NewEvent(services.EventQRUnassigned, "QR code unassigned")
	event.WorkspaceID = &box.WorkspaceID
	event.Payload = map[string]interface{}{"box_id": box.ID, "short_id": qr.ShortID}
	services.GetWebSocketManager().BroadcastToAll(event)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "QR code unassigned successfully",
	})
}

// findAccessibleBox loads a box and checks workspace membership,
// answering 404 for both a missing row and a foreign workspace
func findAccessibleBox(ctx *gin.Context, db *gorm.DB, boxID uuid.UUID) (*models.Box, bool) {
	var box models.Box
	if err := db.First(&box, "id = ?", boxID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":   "Box not found",
				"message": "Box with the given ID does not exist",
			})
		} else {
			ctx.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to retrieve box",
				"message": err.Error(),
			})
		}
		return nil, false
	}

	if _, ok := requireMembership(ctx, db, box.WorkspaceID); !ok {
		return nil, false
	}

	return &box, true
}

// locationBelongsToWorkspace verifies a target location exists, is not
// deleted and lives in the given workspace; answers 404 otherwise
func locationBelongsToWorkspace(ctx *gin.Context, db *gorm.DB, locationID, workspaceID uuid.UUID) bool {
	var loc models.Location
	if err := db.Where("id = ? AND workspace_id = ? AND is_deleted = ?",
		locationID, workspaceID, false).First(&loc).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "Location not found",
			"message": "The target location does not exist in this workspace",
		})
		return false
	}
	return true
}

func trimTags(tags []string) []string {
	trimmed := make([]string, 0, len(tags))
	for _, tag := range tags {
		trimmed = append(trimmed, strings.TrimSpace(tag))
	}
	return trimmed
}
