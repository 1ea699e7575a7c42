package handlers

import (
	"net/http"
	"time"

	"shelfwise-backend/inventory-service/services"
	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/utils/access"
	utils "shelfwise-backend/shared/utils/auth"
	"shelfwise-backend/shared/utils/cache"
	"shelfwise-backend/shared/utils/qrlabel"
	"shelfwise-backend/shared/utils/query"
	"shelfwise-backend/shared/utils/validation"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	qrFilterFields = map[string]string{
		"status": "status",
	}
	qrSortFields = map[string]string{
		"short_id":   "short_id",
		"status":     "status",
		"created_at": "created_at",
	}
)

// QRCodeHandler serves QR code inventory and label printing
type QRCodeHandler struct {
	labels *services.LabelService
}

// NewQRCodeHandler creates a QR code handler. labels may be nil when
// object storage is unavailable; label printing then answers 503.
func NewQRCodeHandler(labels *services.LabelService) *QRCodeHandler {
	return &QRCodeHandler{labels: labels}
}

// QRCodeResponse represents QR code data for API responses
type QRCodeResponse struct {
	ID          uuid.UUID  `json:"id"`
	WorkspaceID uuid.UUID  `json:"workspace_id"`
	ShortID     string     `json:"short_id"`
	Status      string     `json:"status"`
	BoxID       *uuid.UUID `json:"box_id"`
	CreatedAt   string     `json:"created_at"`
}

// CreateQRBatchRequest asks for a batch of fresh QR codes
type CreateQRBatchRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id" binding:"required"`
	Quantity    int       `json:"quantity" binding:"required"`
}

// GenerateLabelsRequest asks for a printable PDF of existing codes
type GenerateLabelsRequest struct {
	WorkspaceID uuid.UUID `json:"workspace_id" binding:"required"`
	ShortIDs    []string  `json:"short_ids" binding:"required"`
	Format      string    `json:"format"`
	Rows        int       `json:"rows"`
	Cols        int       `json:"cols"`
}

func qrCodeResponse(code models.QrCode) QRCodeResponse {
	return QRCodeResponse{
		ID:          code.ID,
		WorkspaceID: code.WorkspaceID,
		ShortID:     code.ShortID,
		Status:      code.Status,
		BoxID:       code.BoxID,
		CreatedAt:   code.CreatedAt.Format(time.RFC3339),
	}
}

// GetQRCodes lists a workspace's QR codes
// @Summary List QR codes
// @Description Get a workspace's QR codes; supports filters[status], sort and pagination
// @Tags qrcodes
// @Produce json
// @Param workspace_id query string true "Workspace ID" format(uuid)
// @Param page query int false "Page number"
// @Param limit query int false "Items per page"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Paginated QR code list"
// @Failure 400 {object} map[string]string "Missing workspace_id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /qr-codes [get]
func (h *QRCodeHandler) GetQRCodes(ctx *gin.Context) {
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

	baseQuery := query.ApplyWorkspaceScope(db.Model(&models.QrCode{}), workspaceID)
	baseQuery = query.ApplyFilters(baseQuery, params.Filters, qrFilterFields)

	var total int64
	if err := baseQuery.Count(&total).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to count QR codes",
			"message": err.Error(),
		})
		return
	}

	baseQuery = query.ApplySort(baseQuery, params.Sort, qrSortFields)
	baseQuery = query.ApplyPagination(baseQuery, params.Page, params.Limit)

	var codes []models.QrCode
	if err := baseQuery.Find(&codes).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve QR codes",
			"message": err.Error(),
		})
		return
	}

	responses := make([]QRCodeResponse, 0, len(codes))
	for _, code := range codes {
		responses = append(responses, qrCodeResponse(code))
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success":    true,
		"data":       responses,
		"pagination": query.BuildPaginationResponse(params.Page, params.Limit, total),
	})
}

// CreateQRCodeBatch generates a batch of unassigned QR codes
// @Summary Generate QR codes
// @Description Create between 1 and 100 fresh unassigned QR codes in a workspace
// @Tags qrcodes
// @Accept json
// @Produce json
// @Param batch body CreateQRBatchRequest true "Batch request"
// @Security BearerAuth
// @Success 201 {object} map[string]interface{} "Created codes"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "Workspace not found"
// @Router /qr-codes/batch [post]
func (h *QRCodeHandler) CreateQRCodeBatch(ctx *gin.Context) {
	var req CreateQRBatchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if err := validation.ValidateBatchQuantity(req.Quantity); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": gin.H{"quantity": err.Error()},
		})
		return
	}

	db := database.DB

	role, ok := requireMembership(ctx, db, req.WorkspaceID)
	if !ok {
		return
	}
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot generate QR codes")
		return
	}

	cacheManager := cache.GetCacheManager()

	codes := make([]models.QrCode, 0, req.Quantity)
	err := db.Transaction(func(tx *gorm.DB) error {
		for i := 0; i < req.Quantity; i++ {
			code, err := createUniqueQRCode(tx, cacheManager, req.WorkspaceID)
			if err != nil {
				return err
			}
			codes = append(codes, *code)
		}
		return nil
	})
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate QR codes",
			"message": err.Error(),
		})
		return
	}

	responses := make([]QRCodeResponse, 0, len(codes))
	for _, code := range codes {
		responses = append(responses, qrCodeResponse(code))
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "QR codes generated successfully",
		"data":    responses,
	})
}

// createUniqueQRCode generates a short id, reserves it and inserts the
// row, retrying on the rare collision
func createUniqueQRCode(tx *gorm.DB, cacheManager *cache.CacheManager, workspaceID uuid.UUID) (*models.QrCode, error) {
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		shortID, err := utils.GenerateShortID("QR")
		if err != nil {
			return nil, err
		}

		if !cacheManager.ReserveShortID(shortID) {
			continue
		}

		code := models.QrCode{
			WorkspaceID: workspaceID,
			ShortID:     shortID,
			Status:      models.QRStatusGenerated,
		}
		if lastErr = tx.Create(&code).Error; lastErr == nil {
			return &code, nil
		}
		cacheManager.ReleaseShortID(shortID)
	}
	return nil, lastErr
}

// GenerateLabels renders selected codes as a printable PDF
// @Summary Generate a label sheet
// @Description Render the given QR codes as a PDF (A4 grid or adhesive label formats) and return a time-limited download URL; rendered codes move from generated to printed
// @Tags qrcodes
// @Accept json
// @Produce json
// @Param labels body GenerateLabelsRequest true "Label sheet request"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Download URL"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace or codes not found"
// @Failure 503 {object} map[string]string "Label storage unavailable"
// @Router /qr-codes/labels [post]
func (h *QRCodeHandler) GenerateLabels(ctx *gin.Context) {
	var req GenerateLabelsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if len(req.ShortIDs) == 0 {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": gin.H{"short_ids": "at least one short id is required"},
		})
		return
	}

	for _, shortID := range req.ShortIDs {
		if err := validation.ValidateQRShortID(shortID); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":  "Validation failed",
				"errors": gin.H{"short_ids": err.Error()},
			})
			return
		}
	}

	format := qrlabel.LabelFormat(req.Format)
	if req.Format == "" {
		format = qrlabel.FormatA4Grid
	}
	switch format {
	case qrlabel.FormatA4Grid, qrlabel.FormatLabelSmall, qrlabel.FormatLabelLarge:
	default:
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": gin.H{"format": "format must be one of: a4_grid, label_36x89, label_62x100"},
		})
		return
	}

	db := database.DB

	if _, ok := requireMembership(ctx, db, req.WorkspaceID); !ok {
		return
	}

	if h.labels == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "Label storage unavailable",
			"message": "Label printing requires object storage, which is not configured",
		})
		return
	}

	// Every requested code must belong to the caller's workspace
	var count int64
	if err := db.Model(&models.QrCode{}).
		Where("workspace_id = ? AND short_id IN ?", req.WorkspaceID, req.ShortIDs).
		Count(&count).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to verify QR codes",
			"message": err.Error(),
		})
		return
	}
	if count != int64(len(req.ShortIDs)) {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "QR codes not found",
			"message": "One or more short ids do not exist in this workspace",
		})
		return
	}

	downloadURL, err := h.labels.GenerateSheet(req.ShortIDs, format, req.Rows, req.Cols)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate label sheet",
			"message": err.Error(),
		})
		return
	}

	// Rendering a sheet is what "printing" means here; freshly
	// generated codes advance, assigned codes keep their state
	db.Model(&models.QrCode{}).
		Where("workspace_id = ? AND short_id IN ? AND status = ?",
			req.WorkspaceID, req.ShortIDs, models.QRStatusGenerated).
		Update("status", models.QRStatusPrinted)

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Label sheet generated successfully",
		"data": gin.H{
			"download_url": downloadURL,
			"format":       string(format),
			"count":        len(req.ShortIDs),
		},
	})
}

// ScanQRCode resolves a scanned short id
// @Summary Resolve a scanned QR code
// @Description Look up a QR code by short id; membership in the owning workspace is required to see where it points
// @Tags qrcodes
// @Produce json
// @Param short_id path string true "QR short id, e.g. QR-7GK2ZX"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Code status and box reference"
// @Failure 400 {object} map[string]string "Invalid short id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "QR code not found"
// @Router /scan/{short_id} [get]
func (h *QRCodeHandler) ScanQRCode(ctx *gin.Context) {
	shortID := ctx.Param("short_id")
	if err := validation.ValidateQRShortID(shortID); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":  "Validation failed",
			"errors": gin.H{"short_id": err.Error()},
		})
		return
	}

	db := database.DB

	var code models.QrCode
	if err := db.Where("short_id = ?", shortID).First(&code).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "QR code not found",
			"message": "No QR code with that short id exists",
		})
		return
	}

	// A scan from outside the owning workspace looks identical to a
	// missing code
	if _, ok := requireMembership(ctx, db, code.WorkspaceID); !ok {
		return
	}

	response := gin.H{
		"short_id":     code.ShortID,
		"status":       code.Status,
		"workspace_id": code.WorkspaceID,
	}

	if code.BoxID != nil {
		var box models.Box
		if err := db.First(&box, "id = ?", *code.BoxID).Error; err == nil {
			response["box"] = boxResponse(box, &code.ShortID)
		}
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    response,
	})
}

// DeleteQRCode deletes an unassigned QR code
// @Summary Delete a QR code
// @Description Delete a QR code; assigned codes must be unassigned first
// @Tags qrcodes
// @Produce json
// @Param id path string true "QR code ID" format(uuid)
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Success message"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Read-only member"
// @Failure 404 {object} map[string]string "QR code not found"
// @Failure 409 {object} map[string]string "Code still assigned"
// @Router /qr-codes/{id} [delete]
func (h *QRCodeHandler) DeleteQRCode(ctx *gin.Context) {
	codeID, ok := parseUUIDParam(ctx, "id")
	if !ok {
		return
	}

	db := database.DB

	var code models.QrCode
	if err := db.First(&code, "id = ?", codeID).Error; err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{
			"error":   "QR code not found",
			"message": "QR code with the given ID does not exist",
		})
		return
	}

	role, ok := requireMembership(ctx, db, code.WorkspaceID)
	if !ok {
		return
	}
	if !access.CanWrite(role) {
		forbidden(ctx, "Read-only members cannot delete QR codes")
		return
	}

	if code.BoxID != nil {
		ctx.JSON(http.StatusConflict, gin.H{
			"error":   "QR code is assigned",
			"message": "Unassign the code from its box before deleting it",
		})
		return
	}

	if err := db.Delete(&models.QrCode{}, "id = ?", code.ID).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete QR code",
			"message": err.Error(),
		})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "QR code deleted successfully",
	})
}
