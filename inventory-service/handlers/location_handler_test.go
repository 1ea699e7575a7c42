package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/database/models/audit"
	"shelfwise-backend/shared/database/models/auth"
)

func setupLocationTest(t *testing.T) (*gin.Engine, models.Profile, models.Workspace) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Profile{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Location{},
		&models.Box{},
		&models.QrCode{},
		&auth.UserSession{},
		&auth.BlacklistedToken{},
		&auth.LoginAttempt{},
		&audit.DeletionAudit{},
	))

	previous := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = previous })

	user := models.Profile{Email: "owner@example.com", Password: "hashed"}
	require.NoError(t, db.Create(&user).Error)

	workspace := models.Workspace{Name: "Home", OwnerID: user.ID}
	require.NoError(t, db.Create(&workspace).Error)
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      user.ID,
		Role:        models.RoleOwner,
	}).Error)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("userID", user.ID)
		c.Next()
	})
	router.GET("/api/locations", GetLocations)
	router.GET("/api/locations/:id", GetLocation)
	router.POST("/api/locations", CreateLocation)
	router.PATCH("/api/locations/:id", UpdateLocation)
	router.DELETE("/api/locations/:id", DeleteLocation)

	return router, user, workspace
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createdLocation(t *testing.T, recorder *httptest.ResponseRecorder) LocationResponse {
	t.Helper()
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var envelope struct {
		Data LocationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &envelope))
	return envelope.Data
}

func TestCreateLocationHierarchy(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	garage := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Garage",
	}))
	assert.Equal(t, "root.garage", garage.Path)
	assert.Equal(t, "garage", garage.Breadcrumb)

	shelf := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Shelf 2",
		"parent_id":    garage.ID,
	}))
	assert.Equal(t, "root.garage.shelf_2", shelf.Path)
	assert.Equal(t, "garage > shelf_2", shelf.Breadcrumb)
}

func TestCreateLocationDuplicateSanitizedSibling(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	first := doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Półka #1",
	})
	created := createdLocation(t, first)
	assert.Equal(t, "root.polka_1", created.Path)

	// A visually different name collapsing to the same segment collides
	second := doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID,
		"name":         "polka!1",
	})
	assert.Equal(t, http.StatusConflict, second.Code, second.Body.String())
}

func TestCreateLocationDepthLimit(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	var parentID *uuid.UUID
	for depth := 1; depth <= 5; depth++ {
		body := gin.H{
			"workspace_id": workspace.ID,
			"name":         fmt.Sprintf("Level %d", depth),
		}
		if parentID != nil {
			body["parent_id"] = *parentID
		}
		loc := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", body))
		id := loc.ID
		parentID = &id
	}

	tooDeep := doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID,
		"name":         "Level 6",
		"parent_id":    *parentID,
	})
	assert.Equal(t, http.StatusBadRequest, tooDeep.Code, tooDeep.Body.String())
}

func TestRenameLocationAtDepthLimit(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	var parentID *uuid.UUID
	var leaf LocationResponse
	for depth := 1; depth <= 5; depth++ {
		body := gin.H{
			"workspace_id": workspace.ID,
			"name":         fmt.Sprintf("Level %d", depth),
		}
		if parentID != nil {
			body["parent_id"] = *parentID
		}
		leaf = createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", body))
		id := leaf.ID
		parentID = &id
	}
	require.Equal(t, "root.level_1.level_2.level_3.level_4.level_5", leaf.Path)

	// Renaming keeps the depth, so the limit never blocks it
	renamed := doJSON(t, router, http.MethodPatch, "/api/locations/"+leaf.ID.String(), gin.H{
		"name": "Deep Bin",
	})
	require.Equal(t, http.StatusOK, renamed.Code, renamed.Body.String())

	var stored models.Location
	require.NoError(t, database.DB.First(&stored, "id = ?", leaf.ID).Error)
	assert.Equal(t, "root.level_1.level_2.level_3.level_4.deep_bin", stored.Path)
}

func TestRenameLocationRewritesDescendants(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	garage := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Garage",
	}))
	shelf := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Shelf 1", "parent_id": garage.ID,
	}))
	bin := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Bin A", "parent_id": shelf.ID,
	}))
	require.Equal(t, "root.garage.shelf_1.bin_a", bin.Path)

	renamed := doJSON(t, router, http.MethodPatch, "/api/locations/"+garage.ID.String(), gin.H{
		"name": "Storage Room",
	})
	require.Equal(t, http.StatusOK, renamed.Code, renamed.Body.String())

	var storedBin models.Location
	require.NoError(t, database.DB.First(&storedBin, "id = ?", bin.ID).Error)
	assert.Equal(t, "root.storage_room.shelf_1.bin_a", storedBin.Path)

	var storedShelf models.Location
	require.NoError(t, database.DB.First(&storedShelf, "id = ?", shelf.ID).Error)
	assert.Equal(t, "root.storage_room.shelf_1", storedShelf.Path)
}

func TestRenameLocationSiblingConflict(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Garage",
	}))
	attic := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Attic",
	}))

	conflict := doJSON(t, router, http.MethodPatch, "/api/locations/"+attic.ID.String(), gin.H{
		"name": "garage!",
	})
	assert.Equal(t, http.StatusConflict, conflict.Code, conflict.Body.String())
}

func TestDeleteLocationSubtreeUnassignsBoxes(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	garage := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Garage",
	}))
	shelf := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Shelf 1", "parent_id": garage.ID,
	}))

	box := models.Box{
		WorkspaceID: workspace.ID,
		LocationID:  &shelf.ID,
		Name:        "Tools",
		ShortID:     "BX-TESTAA",
	}
	require.NoError(t, database.DB.Create(&box).Error)

	deleted := doJSON(t, router, http.MethodDelete, "/api/locations/"+garage.ID.String(), nil)
	require.Equal(t, http.StatusOK, deleted.Code, deleted.Body.String())

	var storedBox models.Box
	require.NoError(t, database.DB.First(&storedBox, "id = ?", box.ID).Error)
	assert.Nil(t, storedBox.LocationID)

	var storedShelf models.Location
	require.NoError(t, database.DB.First(&storedShelf, "id = ?", shelf.ID).Error)
	assert.True(t, storedShelf.IsDeleted)

	// Deleted subtree no longer appears in the listing
	listing := doJSON(t, router, http.MethodGet, "/api/locations?workspace_id="+workspace.ID.String(), nil)
	require.Equal(t, http.StatusOK, listing.Code)
	var envelope struct {
		Data []LocationResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(listing.Body.Bytes(), &envelope))
	assert.Empty(t, envelope.Data)
}

func TestDeleteLocationLeavesSimilarSiblingAlone(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	// "My Box" sanitizes to my_box; "My1Box" to my1box. The underscore
	// must not act as a single-character wildcard in subtree queries.
	neighbor := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "My1Box",
	}))
	shelf := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Shelf", "parent_id": neighbor.ID,
	}))
	target := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "My Box",
	}))
	require.Equal(t, "root.my_box", target.Path)
	require.Equal(t, "root.my1box.shelf", shelf.Path)

	box := models.Box{
		WorkspaceID: workspace.ID,
		LocationID:  &shelf.ID,
		Name:        "Neighbor Tools",
		ShortID:     "BX-TESTBB",
	}
	require.NoError(t, database.DB.Create(&box).Error)

	deleted := doJSON(t, router, http.MethodDelete, "/api/locations/"+target.ID.String(), nil)
	require.Equal(t, http.StatusOK, deleted.Code, deleted.Body.String())

	var storedShelf models.Location
	require.NoError(t, database.DB.First(&storedShelf, "id = ?", shelf.ID).Error)
	assert.False(t, storedShelf.IsDeleted)

	var storedBox models.Box
	require.NoError(t, database.DB.First(&storedBox, "id = ?", box.ID).Error)
	require.NotNil(t, storedBox.LocationID)
	assert.Equal(t, shelf.ID, *storedBox.LocationID)
}

func TestCreateLocationTrimsName(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	loc := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "  Garage  ",
	}))
	assert.Equal(t, "Garage", loc.Name)
	assert.Equal(t, "root.garage", loc.Path)

	var stored models.Location
	require.NoError(t, database.DB.First(&stored, "id = ?", loc.ID).Error)
	assert.Equal(t, "Garage", stored.Name)
}

func TestLocationAccessFromOutsideWorkspace(t *testing.T) {
	router, _, workspace := setupLocationTest(t)

	loc := createdLocation(t, doJSON(t, router, http.MethodPost, "/api/locations", gin.H{
		"workspace_id": workspace.ID, "name": "Garage",
	}))

	// A second user who never joined the workspace sees 404, not 403
	stranger := models.Profile{Email: "stranger@example.com", Password: "hashed"}
	require.NoError(t, database.DB.Create(&stranger).Error)

	strangerRouter := gin.New()
	strangerRouter.Use(func(c *gin.Context) {
		c.Set("userID", stranger.ID)
		c.Next()
	})
	strangerRouter.GET("/api/locations/:id", GetLocation)

	req := httptest.NewRequest(http.MethodGet, "/api/locations/"+loc.ID.String(), nil)
	recorder := httptest.NewRecorder()
	strangerRouter.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}
