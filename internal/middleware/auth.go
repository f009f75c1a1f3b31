package middleware

import (
	"mapconnect/internal/domain" // Importing domain models
	"net/http"                   // HTTP status codes

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// Context keys set by the middleware for downstream handlers
const (
	CtxUsername = "username" // Authenticated username
	CtxUserID   = "userID"   // Authenticated user ID
)

// UserAuthMiddleware resolves the X-User-Username header against the users table.
// The header is a shared-secret scheme, not a signed credential: it identifies
// the caller but cannot prove the caller is who they claim to be.
func UserAuthMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetHeader("X-User-Username") // Get username header
		// Check the header is present
		if username == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required: missing username header"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			// If user not found, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication failed: user not found"})
			return
		}
		c.Set(CtxUsername, user.Username) // Store username in context
		c.Set(CtxUserID, user.ID)         // Store user ID in context
		c.Next()                          // Proceed to the next handler
	}
}
