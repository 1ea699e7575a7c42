package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/database/models/audit"
	"shelfwise-backend/shared/database/models/auth"
)

// DeletionStep identifies one stage of the account-deletion sequence
type DeletionStep string

const (
	StepVerifying           DeletionStep = "verifying"
	StepScoping             DeletionStep = "scoping"
	StepDeletingBoxes       DeletionStep = "deleting_boxes"
	StepResettingCodes      DeletionStep = "resetting_codes"
	StepDeletingLocations   DeletionStep = "deleting_locations"
	StepDeletingMemberships DeletionStep = "deleting_memberships"
	StepDeletingWorkspaces  DeletionStep = "deleting_workspaces"
	StepDeletingProfile     DeletionStep = "deleting_profile"
	StepRevokingAuth        DeletionStep = "revoking_auth"
	StepDone                DeletionStep = "done"
)

// ErrUserAccountNotFound means the user id resolves to no profile. The
// verification step performs no mutation, so this error guarantees the
// store was untouched.
var ErrUserAccountNotFound = errors.New("user account not found")

// AccountDeletionError wraps a store failure in steps between scoping
// and profile deletion. The sequence has no rollback: everything before
// the failing step stays committed.
type AccountDeletionError struct {
	Step DeletionStep
	Err  error
}

func (e *AccountDeletionError) Error() string {
	return fmt.Sprintf("account deletion failed at step %s: %v", e.Step, e.Err)
}

func (e *AccountDeletionError) Unwrap() error {
	return e.Err
}

// AuthRevocationError wraps a failure while revoking authentication
// state after the profile row is already gone
type AuthRevocationError struct {
	Err error
}

func (e *AuthRevocationError) Error() string {
	return fmt.Sprintf("failed to revoke authentication state: %v", e.Err)
}

func (e *AuthRevocationError) Unwrap() error {
	return e.Err
}

// AccountDeletionService irreversibly removes a user and everything it
// exclusively owns. Each step commits independently against the store;
// steps that delete by filter are idempotent, so the whole operation
// may be retried after a partial failure without duplicate effects.
type AccountDeletionService struct {
	db     *gorm.DB
	events *WebSocketManager
}

// NewAccountDeletionService builds the orchestrator. events may be nil
// when no feed is attached (tests, CLI tooling).
func NewAccountDeletionService(db *gorm.DB, events *WebSocketManager) *AccountDeletionService {
	return &AccountDeletionService{db: db, events: events}
}

// DeleteAccount runs the ordered deletion sequence for userID:
// verify profile, resolve owned workspaces, then sweep boxes, QR
// assignments, locations, memberships, workspaces, the profile row and
// finally the user's authentication state. The first failing step
// aborts; nothing is compensated.
func (s *AccountDeletionService) DeleteAccount(userID uuid.UUID) error {
	// Step 1: verify the profile exists. Read-only.
	s.beginStep(userID, StepVerifying)
	var profile models.Profile
	if err := s.db.First(&profile, "id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.failStep(userID, StepVerifying, ErrUserAccountNotFound.Error())
			return ErrUserAccountNotFound
		}
		s.failStep(userID, StepVerifying, err.Error())
		return &AccountDeletionError{Step: StepVerifying, Err: err}
	}
	s.completeStep(userID, StepVerifying, 0)

	// Step 2: resolve the workspaces this user owns. Workspaces the
	// user merely joined are out of scope.
	s.beginStep(userID, StepScoping)
	var workspaceIDs []uuid.UUID
	if err := s.db.Model(&models.Workspace{}).
		Where("owner_id = ?", userID).
		Pluck("id", &workspaceIDs).Error; err != nil {
		s.failStep(userID, StepScoping, err.Error())
		return &AccountDeletionError{Step: StepScoping, Err: err}
	}
	s.completeStep(userID, StepScoping, int64(len(workspaceIDs)))

	// Step 3: boxes in owned workspaces
	if err := s.runSweep(userID, StepDeletingBoxes, workspaceIDs, func(ids []uuid.UUID) (int64, error) {
		res := s.db.Where("workspace_id IN ?", ids).Delete(&models.Box{})
		return res.RowsAffected, res.Error
	}); err != nil {
		return err
	}

	// Step 4: reset assigned QR codes. Box deletion already resets the
	// linked code, so this is a defensive re-sweep.
	if err := s.runSweep(userID, StepResettingCodes, workspaceIDs, func(ids []uuid.UUID) (int64, error) {
		res := s.db.Model(&models.QrCode{}).
			Where("workspace_id IN ? AND status = ?", ids, models.QRStatusAssigned).
			Updates(map[string]interface{}{
				"status": models.QRStatusGenerated,
				"box_id": nil,
			})
		return res.RowsAffected, res.Error
	}); err != nil {
		return err
	}

	// Step 5: locations
	if err := s.runSweep(userID, StepDeletingLocations, workspaceIDs, func(ids []uuid.UUID) (int64, error) {
		res := s.db.Where("workspace_id IN ?", ids).Delete(&models.Location{})
		return res.RowsAffected, res.Error
	}); err != nil {
		return err
	}

	// Step 6: memberships, the owner's and any invited collaborators'
	if err := s.runSweep(userID, StepDeletingMemberships, workspaceIDs, func(ids []uuid.UUID) (int64, error) {
		res := s.db.Where("workspace_id IN ?", ids).Delete(&models.WorkspaceMember{})
		return res.RowsAffected, res.Error
	}); err != nil {
		return err
	}

	// Step 7: the workspaces themselves, filtered by owner rather than
	// the resolved id set
	s.beginStep(userID, StepDeletingWorkspaces)
	res := s.db.Where("owner_id = ?", userID).Delete(&models.Workspace{})
	if res.Error != nil {
		s.failStep(userID, StepDeletingWorkspaces, res.Error.Error())
		return &AccountDeletionError{Step: StepDeletingWorkspaces, Err: res.Error}
	}
	s.completeStep(userID, StepDeletingWorkspaces, res.RowsAffected)

	// Step 8: the profile row
	s.beginStep(userID, StepDeletingProfile)
	if err := s.db.Delete(&models.Profile{}, "id = ?", userID).Error; err != nil {
		s.failStep(userID, StepDeletingProfile, err.Error())
		return &AccountDeletionError{Step: StepDeletingProfile, Err: err}
	}
	s.completeStep(userID, StepDeletingProfile, 1)

	// Step 9: revoke authentication state so outstanding tokens cannot
	// be used against a deleted account
	s.beginStep(userID, StepRevokingAuth)
	if err := s.revokeAuth(userID); err != nil {
		s.failStep(userID, StepRevokingAuth, err.Error())
		return &AuthRevocationError{Err: err}
	}
	s.completeStep(userID, StepRevokingAuth, 0)

	s.completeStep(userID, StepDone, 0)
	log.Printf("🗑️ Account %s deleted (%d owned workspaces removed)", userID, len(workspaceIDs))
	return nil
}

// runSweep executes one delete-by-filter step over the owned workspace
// set. An empty set is a recorded no-op.
func (s *AccountDeletionService) runSweep(userID uuid.UUID, step DeletionStep, workspaceIDs []uuid.UUID, fn func([]uuid.UUID) (int64, error)) error {
	s.beginStep(userID, step)

	if len(workspaceIDs) == 0 {
		s.completeStep(userID, step, 0)
		return nil
	}

	rows, err := fn(workspaceIDs)
	if err != nil {
		s.failStep(userID, step, err.Error())
		return &AccountDeletionError{Step: step, Err: err}
	}

	s.completeStep(userID, step, rows)
	return nil
}

// revokeAuth deactivates the user's sessions and blacklists their
// outstanding tokens until expiry
func (s *AccountDeletionService) revokeAuth(userID uuid.UUID) error {
	var sessions []auth.UserSession
	if err := s.db.Where("user_id = ? AND is_active = ?", userID, true).Find(&sessions).Error; err != nil {
		return err
	}

	for _, session := range sessions {
		entry := auth.BlacklistedToken{
			UserID:        userID,
			TokenHash:     session.TokenHash,
			ExpiresAt:     session.ExpiresAt,
			BlacklistedAt: time.Now().UTC(),
			Reason:        "account deleted",
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return err
		}
	}

	if err := s.db.Model(&auth.UserSession{}).
		Where("user_id = ?", userID).
		Update("is_active", false).Error; err != nil {
		return err
	}

	return nil
}

// beginStep records the start of a step in the audit trail and on the
// event feed. Audit writes are best effort: a failing audit insert is
// logged, never fatal.
func (s *AccountDeletionService) beginStep(userID uuid.UUID, step DeletionStep) {
	s.writeAudit(userID, step, audit.StepStarted, "", 0)
	s.pushProgress(userID, step, audit.StepStarted)
}

func (s *AccountDeletionService) completeStep(userID uuid.UUID, step DeletionStep, rows int64) {
	s.writeAudit(userID, step, audit.StepCompleted, "", rows)
	s.pushProgress(userID, step, audit.StepCompleted)
}

func (s *AccountDeletionService) failStep(userID uuid.UUID, step DeletionStep, detail string) {
	s.writeAudit(userID, step, audit.StepFailed, detail, 0)
	s.pushProgress(userID, step, audit.StepFailed)
}

func (s *AccountDeletionService) writeAudit(userID uuid.UUID, step DeletionStep, status, detail string, rows int64) {
	entry := audit.DeletionAudit{
		UserID:       userID,
		Step:         string(step),
		Status:       status,
		Detail:       detail,
		RowsAffected: rows,
	}
	if err := s.db.Create(&entry).Error; err != nil {
		log.Printf("⚠️ Failed to write deletion audit (%s/%s): %v", step, status, err)
	}
}

func (s *AccountDeletionService) pushProgress(userID uuid.UUID, step DeletionStep, status string) {
	if s.events == nil {
		return
	}

	event := NewEvent(EventDeletionProgress, fmt.Sprintf("deletion %s: %s", step, status))
	event.UserID = &userID
	event.Payload = map[string]interface{}{
		"step":   string(step),
		"status": status,
	}
	s.events.SendToUser(userID.String(), event)
}
