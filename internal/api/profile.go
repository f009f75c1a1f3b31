package api

import (
	"mapconnect/internal/domain"     // Importing domain models
	"mapconnect/internal/middleware" // Context keys set by the auth middleware
	"net/http"                       // HTTP status codes
	"os"                             // Filesystem operations for avatar files
	"path/filepath"                  // Path joins and extension checks
	"strings"                        // String manipulation
	"time"                           // Avatar filename timestamps

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"gorm.io/gorm"               // GORM ORM library
)

// PublicProfile is the subset of a user row exposed to anyone.
// Email and the password hash stay server-side.
type PublicProfile struct {
	ID        uint      `json:"id"`         // User ID
	Username  string    `json:"username"`   // Username
	Name      string    `json:"name"`       // Display name
	AvatarURL string    `json:"avatar_url"` // Avatar path
	Bio       string    `json:"bio"`        // Biography
	Gender    string    `json:"gender"`     // Gender
	Age       *int      `json:"age"`        // Age, nullable
	CreatedAt time.Time `json:"created_at"` // Registration time
}

// UpdateProfileRequest represents a partial profile update.
// Pointer fields distinguish "absent" from "set to the zero value".
type UpdateProfileRequest struct {
	Username string  `json:"username" binding:"required"` // Identifies the target user
	Name     *string `json:"name"`                        // Optional display name
	Contact  *string `json:"contact"`                     // Optional contact info
	Bio      *string `json:"bio"`                         // Optional biography
	Gender   *string `json:"gender"`                      // Optional gender
	Age      *int    `json:"age"`                         // Optional age
}

// GetUserProfileHandler returns a user's public profile
func GetUserProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username") // Username path parameter
		var user domain.User            // Fetch user from database
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			// If user not found, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Map the row to its public subset
		c.JSON(http.StatusOK, PublicProfile{
			ID:        user.ID,        // User ID
			Username:  user.Username,  // Username
			Name:      user.Name,      // Display name
			AvatarURL: user.AvatarURL, // Avatar path
			Bio:       user.Bio,       // Biography
			Gender:    user.Gender,    // Gender
			Age:       user.Age,       // Age
			CreatedAt: user.CreatedAt, // Registration time
		})
	}
}

// UpdateProfileHandler patches the mutable profile fields of a user.
// At least one updatable field must be present or the request fails.
func UpdateProfileHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateProfileRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username is required to update profile"})
			return
		}
		updates := map[string]any{} // Only supplied fields are written
		if req.Name != nil {
			updates["name"] = *req.Name // Display name
		}
		if req.Contact != nil {
			updates["contact"] = *req.Contact // Contact info
		}
		if req.Bio != nil {
			updates["bio"] = *req.Bio // Biography
		}
		if req.Gender != nil {
			// Gender stays a closed enum on update too
			if !domain.IsValidGender(*req.Gender) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gender value"})
				return
			}
			updates["gender"] = *req.Gender // Gender
		}
		if req.Age != nil {
			updates["age"] = *req.Age // Age
		}
		// A body carrying only the username is a validation error
		if len(updates) == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "No fields to update"})
			return
		}
		updates["updated_at"] = time.Now() // Always stamp updated_at
		// Apply the patch by username
		result := db.Model(&domain.User{}).Where("username = ?", req.Username).Updates(updates)
		if result.Error != nil {
			// If the update fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
			return
		}
		// Zero rows changed means the username is unknown
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Log successful profile update
		logrus.WithFields(logrus.Fields{
			"username": req.Username, // Target username
		}).Info("Profile updated") // Log profile update
		// Return success response
		c.JSON(http.StatusOK, gin.H{"message": "Profile updated successfully"})
	}
}

// Extensions accepted for avatar uploads
var allowedAvatarExtensions = map[string]bool{
	".png":  true, // PNG
	".jpg":  true, // JPEG
	".jpeg": true, // JPEG
	".gif":  true, // GIF
}

// UploadAvatarHandler stores an uploaded avatar file in the upload directory and
// records its path on the user row, removing the previous avatar file if any
func UploadAvatarHandler(db *gorm.DB, uploadDir string) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.GetString(middleware.CtxUsername) // Authenticated username from middleware
		file, err := c.FormFile("avatar")               // Multipart file field
		if err != nil {
			// If the field is missing, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "No file part in the request"})
			return
		}
		// Check the file carries an allowed image extension
		ext := strings.ToLower(filepath.Ext(file.Filename))
		if !allowedAvatarExtensions[ext] {
			// If not, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "File type not allowed"})
			return
		}
		// Remember the previous avatar path so the old file can be removed
		var user domain.User
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		// Unique filename from username and timestamp, normalized to .jpg
		filename := username + "_" + time.Now().Format("20060102150405") + ".jpg"
		if err := os.MkdirAll(uploadDir, 0o755); err != nil {
			// If the upload directory cannot be created, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
			return
		}
		// Write the uploaded file to the upload directory
		if err := c.SaveUploadedFile(file, filepath.Join(uploadDir, filename)); err != nil {
			logrus.WithFields(logrus.Fields{
				"username": username,    // Uploading user
				"error":    err.Error(), // Error message
			}).Error("Avatar write failed") // Log avatar write failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store avatar"})
			return
		}
		avatarURL := "/uploads/avatars/" + filename // Public path stored on the row
		// Update the user row with the new avatar path
		result := db.Model(&domain.User{}).Where("username = ?", username).
			Updates(map[string]any{"avatar_url": avatarURL, "updated_at": time.Now()})
		if result.Error != nil || result.RowsAffected == 0 {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update avatar"})
			return
		}
		// Remove the previous avatar file, best effort
		if user.AvatarURL != "" {
			old := filepath.Join(uploadDir, filepath.Base(user.AvatarURL))
			if err := os.Remove(old); err != nil && !os.IsNotExist(err) {
				logrus.WithField("path", old).Warnf("Failed to delete old avatar: %v", err)
			}
		}
		// Log successful avatar update
		logrus.WithFields(logrus.Fields{
			"username":   username,  // Uploading user
			"avatar_url": avatarURL, // Stored path
		}).Info("Avatar updated") // Log avatar update
		// Return the stored path
		c.JSON(http.StatusOK, gin.H{"message": "Avatar updated successfully", "avatar_url": avatarURL})
	}
}
