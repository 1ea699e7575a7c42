package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"shelfwise-backend/inventory-service/middleware"
	"shelfwise-backend/inventory-service/services"
	"shelfwise-backend/shared/config"
	"shelfwise-backend/shared/database/models"
	"shelfwise-backend/shared/database/models/auth"
	utils "shelfwise-backend/shared/utils/auth"
	"shelfwise-backend/shared/utils/validation"
)

type AuthHandler struct {
	db       *gorm.DB
	deletion *services.AccountDeletionService
}

func NewAuthHandler(db *gorm.DB, deletion *services.AccountDeletionService) *AuthHandler {
	return &AuthHandler{db: db, deletion: deletion}
}

// Login Request/Response structs
type LoginRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
}

type LoginResponse struct {
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	User         UserInfo  `json:"user"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type UserInfo struct {
	ID              uuid.UUID `json:"id"`
	Email           string    `json:"email"`
	FullName        string    `json:"full_name"`
	ThemePreference string    `json:"theme_preference"`
}

// Register Request struct
type RegisterRequest struct {
	Email    string `json:"email" binding:"required" example:"user@example.com"`
	Password string `json:"password" binding:"required" example:"securepassword123"`
	FullName string `json:"full_name" example:"Jane Doe"`
}

// Refresh Request struct
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// UpdateProfileRequest carries optional profile changes
type UpdateProfileRequest struct {
	FullName        *string `json:"full_name"`
	ThemePreference *string `json:"theme_preference"`
}

// POST /api/auth/register
// @Summary Register a new account
// @Description Create a profile with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param register body RegisterRequest true "Registration data"
// @Success 201 {object} map[string]interface{} "Created profile"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 409 {object} map[string]string "Email already registered"
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	fieldErrors := validation.FieldErrors{}
	email, err := validation.NormalizeEmail(req.Email)
	fieldErrors.AddError("email", err)
	fieldErrors.AddError("password", validation.ValidatePassword(req.Password))
	if req.FullName != "" {
		fieldErrors.AddError("full_name", validation.ValidateName(req.FullName))
	}

	if fieldErrors.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": fieldErrors})
		return
	}

	var existing models.Profile
	if err := h.db.Where("email = ?", email).First(&existing).Error; err == nil {
		c.JSON(http.StatusConflict, gin.H{
			"error":   "Email already registered",
			"message": "A profile with this email already exists",
		})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile", "message": err.Error()})
		return
	}

	profile := models.Profile{
		Email:           email,
		Password:        hash,
		FullName:        req.FullName,
		ThemePreference: models.ThemeSystem,
	}

	if err := h.db.Create(&profile).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create profile", "message": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Profile created successfully",
		"data": UserInfo{
			ID:              profile.ID,
			Email:           profile.Email,
			FullName:        profile.FullName,
			ThemePreference: profile.ThemePreference,
		},
	})
}

// POST /api/auth/login
// @Summary User login
// @Description Authenticate a user and return JWT tokens
// @Tags auth
// @Accept json
// @Produce json
// @Param login body LoginRequest true "Login credentials"
// @Success 200 {object} handlers.LoginResponse "Successful login"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Invalid credentials"
// @Failure 429 {object} map[string]string "Too many login attempts"
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	email, err := validation.NormalizeEmail(req.Email)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	clientIP := c.ClientIP()
	if err := h.checkLoginRateLimit(email, clientIP); err != nil {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many login attempts. Please try again later."})
		return
	}

	var profile models.Profile
	if err := h.db.Where("email = ?", email).First(&profile).Error; err != nil {
		h.recordLoginAttempt(email, clientIP, false, "profile not found")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !utils.CheckPassword(req.Password, profile.Password) {
		h.recordLoginAttempt(email, clientIP, false, "wrong password")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := utils.GenerateJWT(profile.ID, profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	refreshToken, err := utils.GenerateRefreshJWT(profile.ID, profile.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	expiresAt := time.Now().Add(utils.GetJWTExpireDuration())

	session := auth.UserSession{
		UserID:       profile.ID,
		SessionID:    sessionID,
		TokenHash:    tokenHashOf(token),
		RefreshToken: refreshToken,
		UserAgent:    c.Request.UserAgent(),
		IPAddress:    clientIP,
		IsActive:     true,
		ExpiresAt:    expiresAt,
	}
	if err := h.db.Create(&session).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session", "message": err.Error()})
		return
	}

	h.recordLoginAttempt(email, clientIP, true, "")

	c.JSON(http.StatusOK, LoginResponse{
		Token:        token,
		RefreshToken: refreshToken,
		ExpiresAt:    expiresAt,
		User: UserInfo{
			ID:              profile.ID,
			Email:           profile.Email,
			FullName:        profile.FullName,
			ThemePreference: profile.ThemePreference,
		},
	})
}

// POST /api/auth/refresh
// @Summary Refresh tokens
// @Description Exchange a refresh token for a new token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param refresh body RefreshRequest true "Refresh token"
// @Success 200 {object} map[string]interface{} "New token pair"
// @Failure 401 {object} map[string]string "Invalid refresh token"
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	claims, err := utils.ValidateJWT(req.RefreshToken)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired refresh token"})
		return
	}

	userID, err := uuid.Parse(claims.UserID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid user ID in token"})
		return
	}

	var session auth.UserSession
	if err := h.db.Where("user_id = ? AND refresh_token = ? AND is_active = ?",
		userID, req.RefreshToken, true).First(&session).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found or revoked"})
		return
	}

	token, err := utils.GenerateJWT(userID, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	refreshToken, err := utils.GenerateRefreshJWT(userID, claims.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate refresh token"})
		return
	}

	expiresAt := time.Now().Add(utils.GetJWTExpireDuration())
	now := time.Now()

	h.db.Model(&session).Updates(map[string]interface{}{
		"token_hash":    tokenHashOf(token),
		"refresh_token": refreshToken,
		"expires_at":    expiresAt,
		"last_used_at":  &now,
	})

	c.JSON(http.StatusOK, gin.H{
		"token":         token,
		"refresh_token": refreshToken,
		"expires_at":    expiresAt,
	})
}

// POST /api/auth/logout
// @Summary Logout
// @Description Deactivate the current session and blacklist its token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Logged out"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if tokenHash, exists := c.Get("tokenHash"); exists {
		hash := tokenHash.(string)

		entry := auth.BlacklistedToken{
			UserID:        userID,
			TokenHash:     hash,
			ExpiresAt:     time.Now().Add(utils.GetJWTExpireDuration()),
			BlacklistedAt: time.Now().UTC(),
			Reason:        "logout",
		}
		h.db.Create(&entry)

		h.db.Model(&auth.UserSession{}).
			Where("user_id = ? AND token_hash = ?", userID, hash).
			Update("is_active", false)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logged out successfully"})
}

// GET /api/auth/me
// @Summary Current profile
// @Description Return the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Profile data"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Profile not found"
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": UserInfo{
			ID:              profile.ID,
			Email:           profile.Email,
			FullName:        profile.FullName,
			ThemePreference: profile.ThemePreference,
		},
	})
}

// PATCH /api/auth/profile
// @Summary Update profile
// @Description Change full name and/or theme preference
// @Tags auth
// @Accept json
// @Produce json
// @Param profile body UpdateProfileRequest true "Profile changes"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Updated profile"
// @Failure 400 {object} map[string]string "Validation errors"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /auth/profile [patch]
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "message": err.Error()})
		return
	}

	if req.FullName == nil && req.ThemePreference == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one field is required"})
		return
	}

	fieldErrors := validation.FieldErrors{}
	if req.FullName != nil {
		fieldErrors.AddError("full_name", validation.ValidateName(*req.FullName))
	}
	if req.ThemePreference != nil {
		fieldErrors.AddError("theme_preference", validation.ValidateThemePreference(*req.ThemePreference))
	}
	if fieldErrors.HasErrors() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "errors": fieldErrors})
		return
	}

	var profile models.Profile
	if err := h.db.First(&profile, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Profile not found"})
		return
	}

	updates := map[string]interface{}{}
	if req.FullName != nil {
		updates["full_name"] = *req.FullName
	}
	if req.ThemePreference != nil {
		updates["theme_preference"] = *req.ThemePreference
	}

	if err := h.db.Model(&profile).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile", "message": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Profile updated successfully",
		"data": UserInfo{
			ID:              profile.ID,
			Email:           profile.Email,
			FullName:        profile.FullName,
			ThemePreference: profile.ThemePreference,
		},
	})
}

// DELETE /api/auth/delete-account
// @Summary Delete account
// @Description Irreversibly delete the account and all exclusively owned data
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Deleted account's user id"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 404 {object} map[string]string "Account not found"
// @Failure 500 {object} map[string]string "Deletion or revocation failure"
// @Router /auth/delete-account [delete]
func (h *AuthHandler) DeleteAccount(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.deletion.DeleteAccount(userID); err != nil {
		if errors.Is(err, services.ErrUserAccountNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Account not found",
				"message": "No profile exists for this user",
			})
			return
		}

		var revocationErr *services.AuthRevocationError
		if errors.As(err, &revocationErr) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":   "Failed to revoke authentication",
				"message": "Account data was removed but session revocation failed",
			})
			return
		}

		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to delete account",
			"message": "Account deletion aborted; no completed step was undone",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user_id": userID,
	})
}

// checkLoginRateLimit blocks logins after too many recent failures for
// the same email or IP
func (h *AuthHandler) checkLoginRateLimit(email, clientIP string) error {
	cfg := config.GetConfig()
	window := time.Duration(cfg.GetLoginRateLimitWindowSeconds()) * time.Second
	since := time.Now().Add(-window)

	var failures int64
	h.db.Model(&auth.LoginAttempt{}).
		Where("(email = ? OR ip_address = ?) AND success = ? AND created_at > ?",
			email, clientIP, false, since).
		Count(&failures)

	if failures >= int64(cfg.GetLoginRateLimitMaxAttempts()) {
		return errors.New("rate limited")
	}
	return nil
}

func (h *AuthHandler) recordLoginAttempt(email, clientIP string, success bool, reason string) {
	attempt := auth.LoginAttempt{
		Email:     email,
		IPAddress: clientIP,
		Success:   success,
		Reason:    reason,
	}
	h.db.Create(&attempt)
}

// tokenHashOf reduces a JWT to the stored hash prefix
func tokenHashOf(token string) string {
	if len(token) >= 32 {
		return token[:32]
	}
	return token
}
