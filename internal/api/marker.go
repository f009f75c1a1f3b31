package api

import (
	"context"                        // Context for Redis operations
	"mapconnect/internal/domain"     // Importing domain models
	"mapconnect/internal/middleware" // Context keys set by the auth middleware
	"mapconnect/internal/utils"      // Cache helpers
	"net/http"                       // HTTP status codes
	"strconv"                        // String conversion
	"strings"                        // String manipulation
	"time"                           // Expiry computation and cache TTLs

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library
)

// How many markers a user may keep active at once
const maxActiveMarkersPerUser = 3

// How long cached marker listings live
const markerCacheTTL = 60 * time.Second

// CreateMarkerRequest represents a marker creation request.
// Pointer fields distinguish "absent" from "zero"; both lat/lng and
// latitude/longitude spellings are accepted, the long form winning.
type CreateMarkerRequest struct {
	UserID      *uint    `json:"user_id"`     // Owning user ID, required
	Title       string   `json:"title"`       // Non-empty title, required
	Description string   `json:"description"` // Non-empty description, required
	Lat         *float64 `json:"lat"`         // Latitude, short form
	Lng         *float64 `json:"lng"`         // Longitude, short form
	Latitude    *float64 `json:"latitude"`    // Latitude, long form (takes precedence)
	Longitude   *float64 `json:"longitude"`   // Longitude, long form (takes precedence)
	MarkerType  string   `json:"marker_type"` // Optional, defaults to personal
	Contact     string   `json:"contact"`     // Optional contact info
	IsPrivate   bool     `json:"is_private"`  // Optional, defaults to false
	Visibility  string   `json:"visibility"`  // today or three_days, required
}

// UpdateMarkerRequest represents a partial marker update
type UpdateMarkerRequest struct {
	Title       *string `json:"title"`       // Optional new title
	Description *string `json:"description"` // Optional new description
	Contact     *string `json:"contact"`     // Optional new contact info
	MarkerType  *string `json:"marker_type"` // Optional new marker type
	Visibility  *string `json:"visibility"`  // Optional new display visibility (expiry is not recomputed)
	Status      *string `json:"status"`      // Optional new status
	IsPrivate   *bool   `json:"is_private"`  // Optional new privacy flag
}

// UpdateMarkerStatusRequest represents a status-only update
type UpdateMarkerStatusRequest struct {
	Status string `json:"status" binding:"required"` // New status, required
}

// MarkerResponse is a marker row joined with its owner's identity
type MarkerResponse struct {
	domain.Marker        // Embedded marker fields
	UserUsername  string `json:"user_username"` // Owner's username
	UserName      string `json:"user_name"`     // Owner's display name
}

// toMarkerResponses maps marker rows with preloaded users into the joined shape
func toMarkerResponses(markers []domain.Marker) []MarkerResponse {
	resp := make([]MarkerResponse, len(markers)) // Preallocate
	for i, m := range markers {
		resp[i] = MarkerResponse{
			Marker:       m,               // Marker fields
			UserUsername: m.User.Username, // Owner's username
			UserName:     m.User.Name,     // Owner's display name
		}
	}
	return resp
}

// ListMarkersHandler returns every public marker joined with its owner, cached in Redis
func ListMarkersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := context.Background() // Context for Redis operations
		var cached []MarkerResponse // Cached listing
		// Try to get from cache
		found, err := utils.GetCache(ctx, rdb, utils.CacheKeyPublicMarkers, &cached)
		if err == nil && found {
			c.JSON(http.StatusOK, cached) // Return cached listing
			return
		}
		var markers []domain.Marker // Slice to hold markers
		// Fetch public markers with their owners, newest first
		if err := db.Preload("User").
			Where("is_private = ?", false).
			Order("created_at desc").
			Find(&markers).Error; err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markers"})
			return
		}
		resp := toMarkerResponses(markers) // Join with owner identity
		// Cache the listing
		_ = utils.SetCache(ctx, rdb, utils.CacheKeyPublicMarkers, resp, markerCacheTTL)
		c.JSON(http.StatusOK, resp) // Return the listing
	}
}

// CreateMarkerHandler validates and inserts a new marker with a computed expiry
func CreateMarkerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateMarkerRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If the body is not valid JSON, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		// Validate each precondition before any storage call
		if req.UserID == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title is required"})
			return
		}
		if strings.TrimSpace(req.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Description is required"})
			return
		}
		// Resolve coordinates, latitude/longitude winning over lat/lng
		lat, lng := req.Lat, req.Lng
		if req.Latitude != nil {
			lat = req.Latitude
		}
		if req.Longitude != nil {
			lng = req.Longitude
		}
		if lat == nil || lng == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid coordinate format"})
			return
		}
		if !domain.IsValidVisibility(req.Visibility) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visibility value"})
			return
		}
		// Marker type defaults to personal; an unknown value is an error, not a fallback
		if req.MarkerType == "" {
			req.MarkerType = domain.MarkerTypePersonal
		}
		if !domain.IsValidMarkerType(req.MarkerType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid marker type"})
			return
		}
		// The authenticated user may only create markers for themselves
		if userID, exists := c.Get(middleware.CtxUserID); exists && userID.(uint) != *req.UserID {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: you can only create markers for yourself"})
			return
		}
		// Enforce the active marker limit per user
		var activeCount int64
		if err := db.Model(&domain.Marker{}).
			Where("user_id = ? AND status = ?", *req.UserID, domain.StatusActive).
			Count(&activeCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create marker"})
			return
		}
		if activeCount >= maxActiveMarkersPerUser {
			c.JSON(http.StatusForbidden, gin.H{"error": "You have reached the maximum limit of 3 active markers"})
			return
		}
		now := time.Now() // Server-side "now" for the expiry computation
		marker := domain.Marker{
			UserID:      *req.UserID,                           // Owning user
			Title:       req.Title,                             // Title
			Description: req.Description,                       // Description
			Lat:         *lat,                                  // Latitude
			Lng:         *lng,                                  // Longitude
			MarkerType:  req.MarkerType,                        // Marker type
			Contact:     req.Contact,                           // Contact info
			IsPrivate:   req.IsPrivate,                         // Privacy flag
			Visibility:  req.Visibility,                        // Visibility, kept for display
			ExpiresAt:   domain.ExpiryFor(req.Visibility, now), // Computed once, never recalculated
			Status:      domain.StatusActive,                   // New markers are active
		}
		// Insert the marker row
		if err := db.Create(&marker).Error; err != nil {
			logrus.WithFields(logrus.Fields{
				"user_id": *req.UserID, // Owning user
				"error":   err.Error(), // Error message
			}).Error("Failed to create marker") // Log creation failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create marker"})
			return
		}
		// Log successful creation
		logrus.WithFields(logrus.Fields{
			"marker_id":  marker.ID,         // New marker ID
			"user_id":    marker.UserID,     // Owning user
			"visibility": marker.Visibility, // Visibility
			"expires_at": marker.ExpiresAt,  // Computed expiry
		}).Info("Marker created") // Log marker creation
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Drop stale listings
		// Return the created marker
		c.JSON(http.StatusCreated, gin.H{"message": "Marker created successfully", "marker": marker})
	}
}

// GetUserMarkersHandler returns every marker owned by a user, private ones included.
// Only that user may request the listing; a numeric-looking segment is not a
// username and falls through to not found.
func GetUserMarkersHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		username := c.Param("username") // Username path parameter
		// Numeric segments belong to the id-addressed marker routes
		if _, err := strconv.Atoi(username); err == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
			return
		}
		// Only the user themselves may list their private markers
		if requester := c.GetString(middleware.CtxUsername); requester != username {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: you can only view your own markers"})
			return
		}
		var user domain.User // Resolve the owner
		if err := db.Where("username = ?", username).First(&user).Error; err != nil {
			// If the user doesn't exist, return not found
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		var markers []domain.Marker // Slice to hold markers
		// Fetch the user's markers, newest first, private ones included
		if err := db.Preload("User").
			Where("user_id = ?", user.ID).
			Order("created_at desc").
			Find(&markers).Error; err != nil {
			// If fetching fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch markers"})
			return
		}
		c.JSON(http.StatusOK, toMarkerResponses(markers)) // Return the listing
	}
}

// loadOwnedMarker resolves an id path parameter to a marker and checks the
// requester owns it. Writes the error response and returns false on failure.
func loadOwnedMarker(c *gin.Context, db *gorm.DB) (*domain.Marker, bool) {
	id, err := strconv.Atoi(c.Param("id")) // Marker ID path parameter
	if err != nil {
		// Non-numeric ids address nothing
		c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
		return nil, false
	}
	var marker domain.Marker // Fetch the marker
	if err := db.First(&marker, id).Error; err != nil {
		// If the marker doesn't exist, return not found
		c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
		return nil, false
	}
	// Only the owner may mutate their marker on the user-facing routes
	if userID, exists := c.Get(middleware.CtxUserID); exists && userID.(uint) != marker.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: you can only update your own markers"})
		return nil, false
	}
	return &marker, true
}

// UpdateMarkerStatusHandler sets a marker's status to a value from the closed enum
func UpdateMarkerStatusHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateMarkerStatusRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Status is required"})
			return
		}
		// Validate the status against the closed enum before touching the row
		if !domain.IsValidStatus(req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
			return
		}
		marker, ok := loadOwnedMarker(c, db) // Resolve id and ownership
		if !ok {
			return
		}
		// Apply the status change, stamping updated_at
		result := db.Model(marker).Updates(map[string]any{"status": req.Status, "updated_at": time.Now()})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update status"})
			return
		}
		// Zero rows changed means the row vanished between the read and the write
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		// Log successful status change
		logrus.WithFields(logrus.Fields{
			"marker_id": marker.ID,  // Marker ID
			"status":    req.Status, // New status
		}).Info("Marker status updated") // Log status update
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Drop stale listings
		_ = db.First(marker, marker.ID).Error                   // Refresh the row for the response
		c.JSON(http.StatusOK, gin.H{"message": "Marker status updated", "marker": marker})
	}
}

// applyMarkerPatch builds the column map for a partial marker update,
// validating enum fields. Writes the error response and returns nil on failure.
func applyMarkerPatch(c *gin.Context, req *UpdateMarkerRequest) map[string]any {
	updates := map[string]any{} // Only supplied fields are written
	if req.Title != nil {
		if strings.TrimSpace(*req.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Title cannot be empty"})
			return nil
		}
		updates["title"] = *req.Title // Title
	}
	if req.Description != nil {
		if strings.TrimSpace(*req.Description) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Description cannot be empty"})
			return nil
		}
		updates["description"] = *req.Description // Description
	}
	if req.Contact != nil {
		updates["contact"] = *req.Contact // Contact info
	}
	if req.MarkerType != nil {
		if !domain.IsValidMarkerType(*req.MarkerType) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid marker type"})
			return nil
		}
		updates["marker_type"] = *req.MarkerType // Marker type
	}
	if req.Visibility != nil {
		// Display visibility may change; the expiry computed at creation stands
		if !domain.IsValidVisibility(*req.Visibility) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid visibility value"})
			return nil
		}
		updates["visibility"] = *req.Visibility // Visibility
	}
	if req.Status != nil {
		if !domain.IsValidStatus(*req.Status) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid status value"})
			return nil
		}
		updates["status"] = *req.Status // Status
	}
	if req.IsPrivate != nil {
		updates["is_private"] = *req.IsPrivate // Privacy flag
	}
	// A patch with no recognized field is a validation error
	if len(updates) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid fields to update"})
		return nil
	}
	updates["updated_at"] = time.Now() // Always stamp updated_at
	return updates
}

// UpdateMarkerHandler patches only the supplied fields of a marker
func UpdateMarkerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
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
		marker, ok := loadOwnedMarker(c, db) // Resolve id and ownership
		if !ok {
			return
		}
		// Apply the patch
		result := db.Model(marker).Updates(updates)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update marker"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		// Log successful update
		logrus.WithFields(logrus.Fields{
			"marker_id": marker.ID, // Marker ID
		}).Info("Marker updated") // Log marker update
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Drop stale listings
		_ = db.First(marker, marker.ID).Error                   // Refresh the row for the response
		c.JSON(http.StatusOK, gin.H{"message": "Marker updated successfully", "marker": marker})
	}
}

// DeleteMarkerHandler hard-deletes a marker by id
func DeleteMarkerHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		marker, ok := loadOwnedMarker(c, db) // Resolve id and ownership
		if !ok {
			return
		}
		// Hard delete the row
		result := db.Delete(&domain.Marker{}, marker.ID)
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete marker"})
			return
		}
		// Zero rows affected means a concurrent delete won the race
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Marker not found"})
			return
		}
		// Log successful deletion
		logrus.WithFields(logrus.Fields{
			"marker_id": marker.ID, // Deleted marker ID
		}).Info("Marker deleted") // Log marker deletion
		utils.InvalidateMarkerCaches(context.Background(), rdb) // Drop stale listings
		// Return the deleted id
		c.JSON(http.StatusOK, gin.H{"message": "Marker deleted successfully", "id": marker.ID})
	}
}
