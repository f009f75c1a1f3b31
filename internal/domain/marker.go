package domain

import "time" // Timestamps and expiry computation

// Marker type values (closed enum, unknown values are rejected at validation)
const (
	MarkerTypePersonal = "personal" // Personal marker (default)
	MarkerTypeBusiness = "business" // Business marker
	MarkerTypeOfficial = "official" // Official marker
	MarkerTypeCharity  = "charity"  // Charity marker
)

// Visibility values, used once at creation to derive the expiry
const (
	VisibilityToday     = "today"      // Marker lives for one day
	VisibilityThreeDays = "three_days" // Marker lives for three days
)

// Status values for a marker's lifecycle
const (
	StatusActive   = "active"   // Visible and current (default)
	StatusInactive = "inactive" // Manually hidden by owner or admin
	StatusExpired  = "expired"  // Past its expiry, set by the sweep job
	StatusPending  = "pending"  // Awaiting review
	StatusDeleted  = "deleted"  // Marked for removal
)

// Marker Model
type Marker struct {
	ID          uint      `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID      uint      `gorm:"index;not null" json:"user_id"`                        // Foreign key to the owning User
	Title       string    `gorm:"size:200;not null" json:"title"`                       // Non-empty title
	Description string    `gorm:"not null" json:"description"`                          // Non-empty description
	Lat         float64   `gorm:"not null" json:"lat"`                                  // Latitude
	Lng         float64   `gorm:"not null" json:"lng"`                                  // Longitude
	MarkerType  string    `gorm:"size:20;not null;default:personal" json:"marker_type"` // personal, business, official or charity
	Contact     string    `json:"contact"`                                              // Optional contact info shown on the marker
	IsPrivate   bool      `gorm:"not null;default:false" json:"is_private"`             // Private markers never appear in the public listing
	Visibility  string    `gorm:"size:20;not null" json:"visibility"`                   // today or three_days, kept for display
	ExpiresAt   time.Time `json:"expires_at"`                                           // Computed once at creation, never recalculated
	Status      string    `gorm:"size:20;not null;default:active" json:"status"`        // active, inactive, expired, pending or deleted
	CreatedAt   time.Time `json:"created_at"`                                           // Set by GORM on insert
	UpdatedAt   time.Time `json:"updated_at"`                                           // Set by GORM on update
	User        User      `gorm:"constraint:OnDelete:CASCADE;" json:"-"`                // Owning user, preloaded for listing joins
}

// IsValidMarkerType reports whether t is one of the accepted marker types
func IsValidMarkerType(t string) bool {
	switch t {
	case MarkerTypePersonal, MarkerTypeBusiness, MarkerTypeOfficial, MarkerTypeCharity:
		return true
	}
	return false
}

// IsValidVisibility reports whether v is one of the accepted visibility values
func IsValidVisibility(v string) bool {
	return v == VisibilityToday || v == VisibilityThreeDays
}

// IsValidStatus reports whether s is one of the accepted marker statuses
func IsValidStatus(s string) bool {
	switch s {
	case StatusActive, StatusInactive, StatusExpired, StatusPending, StatusDeleted:
		return true
	}
	return false
}

// ExpiryFor computes the expiry timestamp for a visibility value measured from now:
// one day for "today", three days for "three_days"
func ExpiryFor(visibility string, now time.Time) time.Time {
	if visibility == VisibilityThreeDays {
		return now.Add(3 * 24 * time.Hour) // Three days out
	}
	return now.Add(24 * time.Hour) // One day out
}
