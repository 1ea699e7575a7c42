package services

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/database/models/audit"
	"shelfwise-backend/shared/database/models/auth"
)

var shortIDSerial int64

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

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

	return db
}

func createUser(t *testing.T, db *gorm.DB, email string) models.Profile {
	t.Helper()

	profile := models.Profile{Email: email, Password: "hashed", FullName: "Test User"}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

// createWorkspaceWithContent builds a workspace owned by ownerID holding
// one location, one box in it and one QR code assigned to that box
func createWorkspaceWithContent(t *testing.T, db *gorm.DB, ownerID uuid.UUID, name string) models.Workspace {
	t.Helper()

	workspace := models.Workspace{Name: name, OwnerID: ownerID}
	require.NoError(t, db.Create(&workspace).Error)
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: workspace.ID,
		UserID:      ownerID,
		Role:        models.RoleOwner,
	}).Error)

	location := models.Location{
		WorkspaceID: workspace.ID,
		Name:        "Garage",
		Path:        "root.garage",
	}
	require.NoError(t, db.Create(&location).Error)

	serial := atomic.AddInt64(&shortIDSerial, 1)
	box := models.Box{
		WorkspaceID: workspace.ID,
		LocationID:  &location.ID,
		Name:        "Tools",
		ShortID:     fmt.Sprintf("BX-%06d", serial),
	}
	require.NoError(t, db.Create(&box).Error)

	code := models.QrCode{
		WorkspaceID: workspace.ID,
		ShortID:     fmt.Sprintf("QR-%06d", serial),
		Status:      models.QRStatusAssigned,
		BoxID:       &box.ID,
	}
	require.NoError(t, db.Create(&code).Error)

	return workspace
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()

	var count int64
	require.NoError(t, db.Model(model).Where(query, args...).Count(&count).Error)
	return count
}

func TestDeleteAccountWithoutWorkspaces(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "solo@example.com")

	service := NewAccountDeletionService(db, nil)
	require.NoError(t, service.DeleteAccount(user.ID))

	assert.Zero(t, countRows(t, db, &models.Profile{}, "id = ?", user.ID))

	// Every sweep step is recorded even when there was nothing to sweep
	steps := []DeletionStep{
		StepVerifying, StepScoping, StepDeletingBoxes, StepResettingCodes,
		StepDeletingLocations, StepDeletingMemberships, StepDeletingWorkspaces,
		StepDeletingProfile, StepRevokingAuth, StepDone,
	}
	for _, step := range steps {
		count := countRows(t, db, &audit.DeletionAudit{},
			"user_id = ? AND step = ? AND status = ?", user.ID, string(step), audit.StepCompleted)
		assert.Equal(t, int64(1), count, "missing completed audit for step %s", step)
	}
}

func TestDeleteAccountCascadesOwnedWorkspaces(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "owner@example.com")
	ws1 := createWorkspaceWithContent(t, db, user.ID, "Home")
	ws2 := createWorkspaceWithContent(t, db, user.ID, "Office")

	// A second user with their own workspace must stay untouched
	other := createUser(t, db, "bystander@example.com")
	otherWS := createWorkspaceWithContent(t, db, other.ID, "Other Home")

	// The second user also joined one of the doomed workspaces
	require.NoError(t, db.Create(&models.WorkspaceMember{
		WorkspaceID: ws1.ID,
		UserID:      other.ID,
		Role:        models.RoleMember,
	}).Error)

	service := NewAccountDeletionService(db, nil)
	require.NoError(t, service.DeleteAccount(user.ID))

	for _, wsID := range []uuid.UUID{ws1.ID, ws2.ID} {
		assert.Zero(t, countRows(t, db, &models.Workspace{}, "id = ?", wsID))
		assert.Zero(t, countRows(t, db, &models.Box{}, "workspace_id = ?", wsID))
		assert.Zero(t, countRows(t, db, &models.Location{}, "workspace_id = ?", wsID))
		assert.Zero(t, countRows(t, db, &models.WorkspaceMember{}, "workspace_id = ?", wsID))
	}
	assert.Zero(t, countRows(t, db, &models.Profile{}, "id = ?", user.ID))

	// The bystander's world is intact
	assert.Equal(t, int64(1), countRows(t, db, &models.Profile{}, "id = ?", other.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Workspace{}, "id = ?", otherWS.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Box{}, "workspace_id = ?", otherWS.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.QrCode{},
		"workspace_id = ? AND status = ?", otherWS.ID, models.QRStatusAssigned))
}

func TestDeleteAccountUnknownUser(t *testing.T) {
	db := openTestDB(t)
	existing := createUser(t, db, "keep@example.com")

	service := NewAccountDeletionService(db, nil)
	err := service.DeleteAccount(uuid.New())
	assert.ErrorIs(t, err, ErrUserAccountNotFound)

	// Verification is read-only, so nothing was mutated
	assert.Equal(t, int64(1), countRows(t, db, &models.Profile{}, "id = ?", existing.ID))
}

func TestDeleteAccountStepFailureKeepsProfile(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "unlucky@example.com")
	createWorkspaceWithContent(t, db, user.ID, "Home")

	// Sabotage the box sweep; steps before it stay committed, steps
	// after it never run
	require.NoError(t, db.Migrator().DropTable(&models.Box{}))

	service := NewAccountDeletionService(db, nil)
	err := service.DeleteAccount(user.ID)
	require.Error(t, err)

	var deletionErr *AccountDeletionError
	require.ErrorAs(t, err, &deletionErr)
	assert.Equal(t, StepDeletingBoxes, deletionErr.Step)

	// The profile and workspace survive the aborted run
	assert.Equal(t, int64(1), countRows(t, db, &models.Profile{}, "id = ?", user.ID))
	assert.Equal(t, int64(1), countRows(t, db, &models.Workspace{}, "owner_id = ?", user.ID))

	// The failure is in the audit trail
	assert.Equal(t, int64(1), countRows(t, db, &audit.DeletionAudit{},
		"user_id = ? AND step = ? AND status = ?",
		user.ID, string(StepDeletingBoxes), audit.StepFailed))
	assert.Zero(t, countRows(t, db, &audit.DeletionAudit{},
		"user_id = ? AND step = ?", user.ID, string(StepDeletingProfile)))
}

func TestDeleteAccountRevokesSessions(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "sessions@example.com")

	sessions := []auth.UserSession{
		{
			UserID:    user.ID,
			SessionID: "session-one",
			TokenHash: "hash-one",
			IsActive:  true,
			ExpiresAt: time.Now().Add(time.Hour),
		},
		{
			UserID:    user.ID,
			SessionID: "session-two",
			TokenHash: "hash-two",
			IsActive:  true,
			ExpiresAt: time.Now().Add(2 * time.Hour),
		},
	}
	for i := range sessions {
		require.NoError(t, db.Create(&sessions[i]).Error)
	}

	service := NewAccountDeletionService(db, nil)
	require.NoError(t, service.DeleteAccount(user.ID))

	assert.Zero(t, countRows(t, db, &auth.UserSession{},
		"user_id = ? AND is_active = ?", user.ID, true))
	assert.Equal(t, int64(2), countRows(t, db, &auth.BlacklistedToken{}, "user_id = ?", user.ID))

	var entry auth.BlacklistedToken
	require.NoError(t, db.Where("user_id = ? AND token_hash = ?", user.ID, "hash-one").First(&entry).Error)
	assert.Equal(t, "account deleted", entry.Reason)
}

func TestDeleteAccountQRReset(t *testing.T) {
	db := openTestDB(t)
	user := createUser(t, db, "qrreset@example.com")
	workspace := createWorkspaceWithContent(t, db, user.ID, "Home")

	service := NewAccountDeletionService(db, nil)
	require.NoError(t, service.DeleteAccount(user.ID))

	// Codes in the deleted workspace survive box deletion but lose
	// their assignment
	assert.Zero(t, countRows(t, db, &models.QrCode{},
		"workspace_id = ? AND status = ?", workspace.ID, models.QRStatusAssigned))
	assert.Zero(t, countRows(t, db, &models.QrCode{},
		"workspace_id = ? AND box_id IS NOT NULL", workspace.ID))
}
