package handlers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
)

func setupBoxTest(t *testing.T) (*gin.Engine, models.Workspace) {
	t.Helper()

	router, _, workspace := setupLocationTest(t)
	router.GET("/api/boxes", GetBoxes)
	router.GET("/api/boxes/:id", GetBox)
	router.POST("/api/boxes", CreateBox)
	router.PATCH("/api/boxes/:id", UpdateBox)
	router.DELETE("/api/boxes/:id", DeleteBox)
	router.POST("/api/boxes/:id/qr", AssignQRToBox)
	router.DELETE("/api/boxes/:id/qr", UnassignQRFromBox)
	return router, workspace
}

func createdBox(t *testing.T, body []byte) BoxResponse {
	t.Helper()

	var envelope struct {
		Data BoxResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope.Data
}

func TestCreateBoxGeneratesShortID(t *testing.T) {
	router, workspace := setupBoxTest(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Power Tools",
		"description":  "Drill and sanders",
		"tags":         []string{"tools", "electric"},
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	box := createdBox(t, recorder.Body.Bytes())
	assert.Regexp(t, `^BX-[A-Z0-9]{6}$`, box.ShortID)
	assert.Equal(t, []string{"tools", "electric"}, box.Tags)
	assert.Nil(t, box.QRShortID)
}

func TestBoxSearchAndTagFilter(t *testing.T) {
	router, workspace := setupBoxTest(t)

	for _, spec := range []struct {
		name string
		tags []string
	}{
		{"Power Tools", []string{"tools", "electric"}},
		{"Hand Tools", []string{"tools"}},
		{"Winter Jackets", []string{"clothes"}},
	} {
		recorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
			"workspace_id": workspace.ID,
			"name":         spec.name,
			"tags":         spec.tags,
		})
		require.Equal(t, http.StatusCreated, recorder.Code)
	}

	base := "/api/boxes?workspace_id=" + workspace.ID.String()

	// Search is case-insensitive over name, description and tags
	listing := doJSON(t, router, http.MethodGet, base+"&search=tools", nil)
	require.Equal(t, http.StatusOK, listing.Code, listing.Body.String())
	var envelope struct {
		Data []BoxResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listing.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 2)

	// Short queries are rejected, not silently broadened
	tooShort := doJSON(t, router, http.MethodGet, base+"&search=to", nil)
	assert.Equal(t, http.StatusBadRequest, tooShort.Code)

	// The tag filter matches whole tags only
	tagged := doJSON(t, router, http.MethodGet, base+"&filters[tag]=electric", nil)
	require.Equal(t, http.StatusOK, tagged.Code)
	envelope.Data = nil
	require.NoError(t, json.Unmarshal(tagged.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "Power Tools", envelope.Data[0].Name)
}

func TestAssignAndUnassignQR(t *testing.T) {
	router, workspace := setupBoxTest(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Tools",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	box := createdBox(t, recorder.Body.Bytes())

	code := models.QrCode{
		WorkspaceID: workspace.ID,
		ShortID:     "QR-TESTAA",
		Status:      models.QRStatusPrinted,
	}
	require.NoError(t, database.DB.Create(&code).Error)

	assigned := doJSON(t, router, http.MethodPost, "/api/boxes/"+box.ID.String()+"/qr", gin.H{
		"short_id": "QR-TESTAA",
	})
	require.Equal(t, http.StatusOK, assigned.Code, assigned.Body.String())

	var stored models.QrCode
	require.NoError(t, database.DB.First(&stored, "id = ?", code.ID).Error)
	require.NotNil(t, stored.BoxID)
	assert.Equal(t, box.ID, *stored.BoxID)
	assert.Equal(t, models.QRStatusAssigned, stored.Status)

	// A second assignment of the same code conflicts
	otherRecorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Other Box",
	})
	require.Equal(t, http.StatusCreated, otherRecorder.Code)
	other := createdBox(t, otherRecorder.Body.Bytes())

	conflict := doJSON(t, router, http.MethodPost, "/api/boxes/"+other.ID.String()+"/qr", gin.H{
		"short_id": "QR-TESTAA",
	})
	assert.Equal(t, http.StatusConflict, conflict.Code)

	// Unassigning frees the code for reuse
	unassigned := doJSON(t, router, http.MethodDelete, "/api/boxes/"+box.ID.String()+"/qr", nil)
	require.Equal(t, http.StatusOK, unassigned.Code)

	var released models.QrCode
	require.NoError(t, database.DB.First(&released, "id = ?", code.ID).Error)
	assert.Nil(t, released.BoxID)
	assert.Equal(t, models.QRStatusPrinted, released.Status)
}

func TestDeleteBoxResetsQRCode(t *testing.T) {
	router, workspace := setupBoxTest(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Doomed Box",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	box := createdBox(t, recorder.Body.Bytes())

	code := models.QrCode{
		WorkspaceID: workspace.ID,
		ShortID:     "QR-TESTBB",
		Status:      models.QRStatusAssigned,
		BoxID:       &box.ID,
	}
	require.NoError(t, database.DB.Create(&code).Error)

	deleted := doJSON(t, router, http.MethodDelete, "/api/boxes/"+box.ID.String(), nil)
	require.Equal(t, http.StatusOK, deleted.Code, deleted.Body.String())

	var stored models.QrCode
	require.NoError(t, database.DB.First(&stored, "id = ?", code.ID).Error)
	assert.Nil(t, stored.BoxID)
	assert.Equal(t, models.QRStatusGenerated, stored.Status)

	assert.ErrorIs(t, database.DB.First(&models.Box{}, "id = ?", box.ID).Error, gorm.ErrRecordNotFound)
}

func TestCreateBoxTrimsName(t *testing.T) {
	router, workspace := setupBoxTest(t)

	recorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
		"workspace_id": workspace.ID,
		"name":         "  Power Tools  ",
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	box := createdBox(t, recorder.Body.Bytes())
	assert.Equal(t, "Power Tools", box.Name)

	var stored models.Box
	require.NoError(t, database.DB.First(&stored, "id = ?", box.ID).Error)
	assert.Equal(t, "Power Tools", stored.Name)
}

func TestUpdateBoxMoveAndClearLocation(t *testing.T) {
	router, workspace := setupBoxTest(t)

	loc := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Garage",
	}))

	recorder := doJSON(t, router, http.MethodPost, "/api/boxes", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Tools",
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	box := createdBox(t, recorder.Body.Bytes())

	moved := doJSON(t, router, http.MethodPatch, "/api/boxes/"+box.ID.String(), gin.H{
		"location_id": loc.ID.String(),
	})
	require.Equal(t, http.StatusOK, moved.Code, moved.Body.String())
	movedBox := createdBox(t, moved.Body.Bytes())
	require.NotNil(t, movedBox.LocationID)
	assert.Equal(t, loc.ID, *movedBox.LocationID)

	cleared := doJSON(t, router, http.MethodPatch, "/api/boxes/"+box.ID.String(), gin.H{
		"location_id": "",
	})
	require.Equal(t, http.StatusOK, cleared.Code)
	clearedBox := createdBox(t, cleared.Body.Bytes())
	assert.Nil(t, clearedBox.LocationID)

	empty := doJSON(t, router, http.MethodPatch, "/api/boxes/"+box.ID.String(), gin.H{})
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}
