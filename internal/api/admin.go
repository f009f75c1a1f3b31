package api

import (
	"context"                        // Context for Redis operations
	"mapconnect/internal/domain"     // Importing domain models
	"mapconnect/internal/middleware" // Context keys set by the admin middleware
	"mapconnect/internal/utils"      // Cache helpers
	"net/http"                       // HTTP status codes
	"strconv"                        // String conversion
	"time"                           // Daily-window computation and cache TTLs

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// AdminStats holds the dashboard counters
type AdminStats struct {
	TotalMarkers    int64 `json:"total_markers"`     // All markers, any status
	TotalUsers      int64 `json:"total_users"`       // All registered users
	DailyNewMarkers int64 `json:"daily_new_markers"` // Markers created since UTC midnight
	ExpiredMarkers  int64 `json:"expired_markers"`   // Markers past their expiry
}

// AdminUserResponse represents the user data returned to admin (no password hash)
type AdminUserResponse struct {
	ID        uint      `json:"id"`         // User ID
	Username  string    `json:"username"`   // Username
	Email     string    `json:"email"`      // Email
	Name      string    `json:"name"`       // Display name
	Contact   string    `json:"contact"`    // Contact info
	Role      string    `json:"role"`       // Role
	AvatarURL string    `json:"avatar_url"` // Avatar path
	CreatedAt time.Time `json:"created_at"` // Registration time
}

// AdminUpdateUserRequest represents an admin patch of a user row.
// Passwords and emails are deliberately not updatable here.
type AdminUpdateUserRequest struct {
	Name    *string `json:"name"`    // Optional display name
	Contact *string `json:"contact"` // Optional contact info
	Role    *string `json:"role"`    // Optional role change
}

// StatsHandler returns dashboard counters, cached briefly in Redis
func StatsHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var stats AdminStats        // Dashboard counters
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, utils.CacheKeyAdminStats, &stats)
		if err == nil && found {
			c.JSON(http.StatusOK, stats) // Return cached stats
			return
		}
		now := time.Now().UTC()                                                           // Current UTC time
		todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC) // UTC midnight
		// Count all markers
		if err := db.Model(&domain.Marker{}).Count(&stats.TotalMarkers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		// Count all users
		if err := db.Model(&domain.User{}).Count(&stats.TotalUsers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		// Count markers created since UTC midnight
		if err := db.Model(&domain.Marker{}).Where("created_at >= ?", todayStart).Count(&stats.DailyNewMarkers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		// Count markers past their expiry
		if err := db.Model(&domain.Marker{}).Where("expires_at <= ?", now).Count(&stats.ExpiredMarkers).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to compute stats"})
			return
		}
		// Cache the counters
		_ = utils.SetCache(ctx, rdb, utils.CacheKeyAdminStats, stats, markerCacheTTL)
		c.JSON(http.StatusOK, stats) // Return the counters
	}
}

// ListAllMarkersHandler returns every marker regardless of status or privacy
func ListAllMarkersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var markers []domain.Marker // Slice to hold markers
		// Fetch all markers with their owners, newest first
		if err := db.Preload("User").Order("created_at desc").Find(&markers).Error; err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markers"})
			return
		}
		c.JSON(http.StatusOK, toMarkerResponses(markers)) // Return the listing
	}
}

// ListAllUsersHandler returns every user without password hashes
func ListAllUsersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var users []domain.User // Slice to hold users
		// Fetch all users, newest first
		if err := db.Order("created_at desc").Find(&users).Error; err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
			return
		}
		// Map users to the admin response shape
		resp := make([]AdminUserResponse, len(users))
		for i, u := range users {
			resp[i] = AdminUserResponse{
				ID:        u.ID,        // User ID
				Username:  u.Username,  // Username
				Email:     u.Email,     // Email
				Name:      u.Name,      // Display name
				Contact:   u.Contact,   // Contact info
				Role:      u.Role,      // Role
				AvatarURL: u.AvatarURL, // Avatar path
				CreatedAt: u.CreatedAt, // Registration time
			}
		}
		c.JSON(http.StatusOK, resp) // Return the listing
	}
}

// AdminUpdateMarkerHandler patches any marker, no ownership check
func AdminUpdateMarkerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Marker ID path parameter
		if err != nil {
			// Non-numeric ids address nothing
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		var req UpdateMarkerRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If the body is not valid JSON, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		updates := applyMarkerPatch(c, &req) // Validate and collect fields
		if updates == nil {
			return
		}
		// Apply the patch by id
		result := db.Model(&domain.Marker{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update marker"})
			return
		}
		// Zero rows changed means the id is unknown
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		// Log the admin update
		logrus.WithFields(logrus.Fields{
			"marker_id": id,                                       // Marker ID
			"admin":     c.GetString(middleware.CtxAdminUsername), // Acting admin
		}).Info("Marker updated by admin") // Log admin marker update
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Drop stale listings
		var marker domain.Marker                                // Refreshed row for the response
		_ = db.First(&marker, id).Error
		c.JSON(http.StatusOK, gin.H{"message": "Marker updated successfully", "marker": marker})
	}
}

// AdminDeleteMarkerHandler hard-deletes any marker by id
func AdminDeleteMarkerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // Marker ID path parameter
		if err != nil {
			// Non-numeric ids address nothing
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		// Hard delete the row
		result := db.Delete(&domain.Marker{}, id)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete marker"})
			return
		}
		// Zero rows affected means the id is unknown
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		// Log the admin deletion
		logrus.WithFields(logrus.Fields{
			"marker_id": id,                                       // Deleted marker ID
			"admin":     c.GetString(middleware.CtxAdminUsername), // Acting admin
		}).Info("Marker deleted by admin") // Log admin marker deletion
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Drop stale listings
		c.JSON(http.StatusOK, gin.H{"message": "Marker deleted successfully", "id": id})
	}
}

// AdminUpdateUserHandler patches a user's name, contact or role.
// Demoting the last remaining admin is refused so the dashboard can't lock itself out.
func AdminUpdateUserHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // User ID path parameter
		if err != nil {
			// Non-numeric ids address nothing
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var req AdminUpdateUserRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If the body is not valid JSON, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		updates := map[string]any{} // Only supplied fields are written
		if req.Name != nil {
			updates["name"] = *req.Name // Display name
		}
		if req.Contact != nil {
			updates["contact"] = *req.Contact // Contact info
		}
		if req.Role != nil {
			// Role stays a closed enum
			if *req.Role != domain.RoleUser && *req.Role != domain.RoleAdmin {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role value"})
				return
			}
			updates["role"] = *req.Role // Role
		}
		// A patch with no recognized field is a validation error
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
			return
		}
		// Guard against demoting the last admin
		if req.Role != nil && *req.Role != domain.RoleAdmin {
			var target domain.User // The user being patched
			if err := db.First(&target, id).Error; err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
				return
			}
			// Only self-demotion can strand the dashboard
			if target.Username == c.GetString(middleware.CtxAdminUsername) {
				var otherAdmins int64 // Remaining admins besides the target
				if err := db.Model(&domain.User{}).
					Where("role = ? AND id <> ?", domain.RoleAdmin, id).
					Count(&otherAdmins).Error; err != nil {
					c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
					return
				}
				if otherAdmins == 0 {
					// Refuse to demote the last admin
					c.JSON(http.StatusForbidden, gin.H{"error": "Cannot demote the last admin"})
					return
				}
			}
		}
		updates["updated_at"] = time.Now() // Always stamp updated_at
		// Apply the patch by id
		result := db.Model(&domain.User{}).Where("id = ?", id).Updates(updates)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
			return
		}
		// Zero rows changed means the id is unknown
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Log the admin update
		logrus.WithFields(logrus.Fields{
			"user_id": id,                                       // Target user ID
			"admin":   c.GetString(middleware.CtxAdminUsername), // Acting admin
		}).Info("User updated by admin") // Log admin user update
		c.JSON(http.StatusOK, gin.H{"message": "User updated successfully"})
	}
}

// AdminDeleteUserHandler deletes a user and cascades to their markers.
// Admins cannot delete their own account.
func AdminDeleteUserHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id")) // User ID path parameter
		if err != nil {
			// Non-numeric ids address nothing
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var target domain.User // The user being deleted
		if err := db.First(&target, id).Error; err != nil {
			// If the user doesn't exist, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Refuse self-deletion
		if target.Username == c.GetString(middleware.CtxAdminUsername) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Admin cannot delete themselves"})
			return
		}
		// Delete the user's markers first, then the user row
		if err := db.Where("user_id = ?", target.ID).Delete(&domain.Marker{}).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		if err := db.Delete(&domain.User{}, target.ID).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
			return
		}
		// Log the admin deletion
		logrus.WithFields(logrus.Fields{
			"user_id":  target.ID,                                // Deleted user ID
			"username": target.Username,                          // Deleted username
			"admin":    c.GetString(middleware.CtxAdminUsername), // Acting admin
		}).Info("User deleted by admin") // Log admin user deletion
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Their markers are gone too
		c.JSON(http.StatusOK, gin.H{"message": "User and their markers deleted successfully", "id": target.ID})
	}
}
