package tasks

import (
	"encoding/json" // Payload serialization
	"time"          // Sweep reference time

	"github.com/hibiken/asynq" // Task queue
)

// Task type names. The queue carries the type string; handlers are registered
// against these constants in the worker.
const (
	TypeMarkerExpireSweep = "marker:expire_sweep" // Periodic expiry sweep
)

// MarkerExpireSweepPayload carries the reference time for one sweep run.
// Rows whose expires_at is at or before this instant are flipped to expired.
type MarkerExpireSweepPayload struct {
	Now time.Time `json:"now"` // Reference time for the sweep
}

// NewMarkerExpireSweepTask builds an expiry sweep task for the given instant
func NewMarkerExpireSweepTask(now time.Time) (*asynq.Task, error) {
	payload, err := json.Marshal(MarkerExpireSweepPayload{Now: now}) // Serialize the payload
	if err != nil {
		return nil, err // Return error if marshaling fails
	}
	return asynq.NewTask(TypeMarkerExpireSweep, payload), nil // Task ready to enqueue
}
