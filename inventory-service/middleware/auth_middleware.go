package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"shelfwise-backend/shared/database"
	"shelfwise-backend/shared/database/models/auth"
	utils "shelfwise-backend/shared/utils/auth"
)

// AuthMiddleware extracts user information from the JWT bearer token,
// rejects blacklisted tokens and sets the caller identity in context
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(401, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			c.JSON(401, gin.H{"error": "Invalid authorization format. Expected Bearer {token}"})
			c.Abort()
			return
		}

		tokenString := tokenParts[1]

		var tokenHash string
		if len(tokenString) >= 32 {
			tokenHash = tokenString[:32]
			c.Set("tokenHash", tokenHash)
		}

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		// Revoked tokens stay invalid until their natural expiry
		if tokenHash != "" && database.DB != nil {
			var count int64
			database.DB.Model(&auth.BlacklistedToken{}).
				Where("token_hash = ?", tokenHash).
				Count(&count)
			if count > 0 {
				c.JSON(401, gin.H{"error": "Token has been revoked"})
				c.Abort()
				return
			}
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			c.JSON(401, gin.H{"error": "Invalid user ID in token"})
			c.Abort()
			return
		}

		c.Set("userID", userID)
		c.Set("userEmail", claims.Email)

		c.Next()
	}
}

// CurrentUserID returns the authenticated caller's id from context
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get("userID")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := value.(uuid.UUID)
	return userID, ok
}
