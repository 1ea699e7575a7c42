package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/utils/export"
	"shelfwise-backend/shared/utils/pathutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ExportInventory streams a workspace's inventory as CSV or JSON
// @Summary Export inventory
// @Description Download a workspace's boxes as CSV (default) or JSON; optionally scoped to one location subtree
// @Tags export
// @Produce text/csv
// @Produce json
// @Param workspace_id query string true "Workspace ID" format(uuid)
// @Param location_id query string false "Limit export to this location's subtree" format(uuid)
// @Param format query string false "csv (default) or json"
// @Security BearerAuth
// @Success 200 {string} string "Exported inventory"
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Workspace or location not found"
// @Router /export/inventory [get]
func ExportInventory(ctx *gin.Context) {
	workspaceID, err := uuid.Parse(ctx.Query("workspace_id"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid workspace_id format",
			"message": "workspace_id query parameter is required",
		})
		return
	}

	format := strings.ToLower(ctx.DefaultQuery("format", "csv"))
	if format != "csv" && format != "json" {
		ctx.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid format",
			"message": "format must be csv or json",
		})
		return
	}

	db := database.DB

	if _, ok := requireMembership(ctx, db, workspaceID); !ok {
		return
	}

	boxQuery := db.Where("workspace_id = ?", workspaceID)

	if rawLocationID := ctx.Query("location_id"); rawLocationID != "" {
		locationID, err := uuid.Parse(rawLocationID)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid location_id format",
				"message": err.Error(),
			})
			return
		}

		var root models.Location
		if err := db.Where("id = ? AND workspace_id = ? AND is_deleted = ?",
			locationID, workspaceID, false).First(&root).Error; err != nil {
			ctx.JSON(http.StatusNotFound, gin.H{
				"error":   "Location not found",
				"message": "Location with the given ID does not exist in this workspace",
			})
			return
		}

		// The scope covers the location and its whole subtree
		var subtreeIDs []uuid.UUID
		if err := db.Model(&models.Location{}).
			Where("workspace_id = ? AND (id = ? OR path LIKE ? ESCAPE '\\')",
				workspaceID, root.ID, pathutil.SubtreePattern(root.Path)).
			Pluck("id", &subtreeIDs).Error; err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to resolve location subtree",
				"message": err.Error(),
			})
			return
		}
		boxQuery = boxQuery.Where("location_id IN ?", subtreeIDs)
	}

	var boxes []models.Box
	if err := boxQuery.Order("name ASC").Find(&boxes).Error; err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to retrieve boxes",
			"message": err.Error(),
		})
		return
	}

	rows := buildExportRows(db, workspaceID, boxes)

	filename := fmt.Sprintf("inventory-%s.%s", time.Now().Format("2006-01-02"), format)
	ctx.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))

	if format == "json" {
		ctx.Header("Content-Type", "application/json")
		if err := export.WriteJSON(ctx.Writer, rows); err != nil {
			ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write export"})
		}
		return
	}

	ctx.Header("Content-Type", "text/csv; charset=utf-8")
	if err := export.WriteCSV(ctx.Writer, rows); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write export"})
	}
}

// buildExportRows flattens boxes with their location breadcrumbs and QR
// links into export rows
func buildExportRows(db *gorm.DB, workspaceID uuid.UUID, boxes []models.Box) []export.InventoryRow {
	breadcrumbs := make(map[uuid.UUID]string)
	var locations []models.Location
	if err := db.Where("workspace_id = ?", workspaceID).Find(&locations).Error; err == nil {
		for _, loc := range locations {
			breadcrumbs[loc.ID] = pathutil.Breadcrumb(loc.Path)
		}
	}

	boxIDs := make([]uuid.UUID, 0, len(boxes))
	for _, box := range boxes {
		boxIDs = append(boxIDs, box.ID)
	}
	qrByBox := qrShortIDsByBox(db, boxIDs)

	rows := make([]export.InventoryRow, 0, len(boxes))
	for _, box := range boxes {
		location := pathutil.Breadcrumb("")
		if box.LocationID != nil {
			if crumb, ok := breadcrumbs[*box.LocationID]; ok {
				location = crumb
			}
		}

		qrCode := ""
		status := "unlinked"
		if shortID, ok := qrByBox[box.ID]; ok {
			qrCode = shortID
			status = models.QRStatusAssigned
		}

		rows = append(rows, export.InventoryRow{
			Name:        box.Name,
			Description: box.Description,
			Tags:        strings.Join(box.TagList(), ", "),
			Location:    location,
			QRCode:      qrCode,
			Status:      status,
			ShortID:     box.ShortID,
		})
	}
	return rows
}
