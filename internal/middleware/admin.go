package middleware

import (
	"mapconnect/internal/domain" // Importing domain models
	"net/http"                   // HTTP status codes
	"net/url"                    // Header values may arrive percent-encoded

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// CtxAdminUsername is the context key holding the verified admin's username
const CtxAdminUsername = "adminUsername"

// AdminOnlyMiddleware resolves the X-Admin-Username header and checks the named
// user actually holds the admin role in the database on each request
func AdminOnlyMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		adminUsername := c.GetHeader("X-Admin-Username") // Get admin username header
		// Check the header is present
		if adminUsername == "" {
			// If not, abort with unauthorized status
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Admin username required"})
			return
		}
		// Decode a possibly percent-encoded username, keep the raw value on failure
		if decoded, err := url.QueryUnescape(adminUsername); err == nil {
			adminUsername = decoded
		}
		var user domain.User // Fetch user from database
		if err := db.Where("username = ? AND role = ?", adminUsername, domain.RoleAdmin).First(&user).Error; err != nil {
			// If user not found or not an admin, abort with forbidden status
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unauthorized: not an admin"})
			return
		}
		c.Set(CtxAdminUsername, user.Username) // Store admin username in context
		c.Next()                               // Proceed to the next handler
	}
}
