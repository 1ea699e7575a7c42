package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
)

func TestExportInventoryCSV(t *testing.T) {
	router, _, workspace := setupLocationTest(t)
	router.GET("/api/export/inventory", ExportInventory)

	garage := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Garage",
	}))

	box := models.Box{
		WorkspaceID: workspace.ID,
		LocationID:  &garage.ID,
		Name:        "Power Tools",
		ShortID:     "BX-EXPTAA",
	}
	box.SetTags([]string{"tools", "electric"})
	require.NoError(t, database.DB.Create(&box).Error)

	recorder := doJSON(t, router, http.MethodGet,
		"/api/export/inventory?workspace_id="+workspace.ID.String(), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
	assert.Contains(t, recorder.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, recorder.Header().Get("Content-Disposition"), "attachment")

	lines := strings.Split(strings.TrimSpace(recorder.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Name,Description,Tags,Location,QR Code,Status,Short ID", strings.TrimSpace(lines[0]))
	assert.Contains(t, lines[1], "Power Tools")
	assert.Contains(t, lines[1], "garage")
}

func TestExportInventorySubtreeScope(t *testing.T) {
	router, _, workspace := setupLocationTest(t)
	router.GET("/api/export/inventory", ExportInventory)

	// Sibling whose path differs from the scope root only where the
	// scope root carries an underscore
	neighbor := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "My1Box",
	}))
	shelf := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Shelf", "parent_id": neighbor.ID,
	}))
	target := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "My Box",
	}))
	bin := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Bin", "parent_id": target.ID,
	}))

	inScope := models.Box{
		WorkspaceID: workspace.ID,
		LocationID:  &bin.ID,
		Name:        "Scoped Tools",
		ShortID:     "BX-EXPTBB",
	}
	require.NoError(t, database.DB.Create(&inScope).Error)

	outOfScope := models.Box{
		WorkspaceID: workspace.ID,
		LocationID:  &shelf.ID,
		Name:        "Neighbor Tools",
		ShortID:     "BX-EXPTCC",
	}
	require.NoError(t, database.DB.Create(&outOfScope).Error)

	recorder := doJSON(t, router, http.MethodGet,
		"/api/export/inventory?workspace_id="+workspace.ID.String()+
			"&location_id="+target.ID.String(), nil)
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	body := recorder.Body.String()
	assert.Contains(t, body, "Scoped Tools")
	assert.NotContains(t, body, "Neighbor Tools")
}
