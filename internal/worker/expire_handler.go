package worker

import (
	"context"       // Task context
	"encoding/json" // Payload deserialization
	"time"          // Fallback reference time

	"github.com/hibiken/asynq"     // Task queue
	"github.com/redis/go-redis/v9" // Redis client for cache invalidation
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library

	"mapconnect/internal/domain" // Marker model and statuses
	"mapconnect/internal/tasks"  // Task payload types
	"mapconnect/internal/utils"  // Cache helpers
)

// ExpireSweepHandler flips markers past their expiry from active to expired
type ExpireSweepHandler struct {
	db  *gorm.DB      // Database handle
	rdb *redis.Client // Redis client for cache invalidation
}

// NewExpireSweepHandler creates an ExpireSweepHandler
func NewExpireSweepHandler(db *gorm.DB, rdb *redis.Client) *ExpireSweepHandler {
	return &ExpireSweepHandler{db: db, rdb: rdb}
}

// ProcessTask runs one sweep. Only rows still active and at or past the
// reference time are touched; inactive, pending and deleted markers keep
// their status.
func (h *ExpireSweepHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload tasks.MarkerExpireSweepPayload // Sweep payload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err // Malformed payload, let asynq retry
	}
	now := payload.Now // Reference time from the scheduler
	if now.IsZero() {
		now = time.Now() // Manually enqueued tasks may omit it
	}
	// Flip overdue active markers to expired in one statement
	result := h.db.WithContext(ctx).Model(&domain.Marker{}).
		Where("expires_at <= ? AND status = ?", now, domain.StatusActive).
		Updates(map[string]any{"status": domain.StatusExpired, "updated_at": now})
	if result.Error != nil {
		return result.Error // Storage failure, let asynq retry
	}
	// Only invalidate when something actually changed
	if result.RowsAffected > 0 {
		utils.InvalidateMarkerCaches(ctx, h.rdb) // Drop stale listings
		logrus.WithFields(logrus.Fields{
			"expired": result.RowsAffected, // Rows flipped this run
		}).Info("Expiry sweep completed") // Log the sweep result
	}
	return nil
}
