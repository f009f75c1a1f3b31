package domain

import "time" // Timestamps

// Gender values accepted on a user profile
const (
	GenderMale   = "male"   // Male
	GenderFemale = "female" // Female
	GenderSecret = "secret" // Undisclosed (default)
)

// Role values
const (
	RoleUser  = "user"  // Regular user (default)
	RoleAdmin = "admin" // Administrator
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                      // Primary key
	Username  string    `gorm:"size:50;unique;not null" json:"username"`   // Unique username, immutable once registered
	Password  string    `gorm:"not null" json:"-"`                         // Bcrypt hash, never serialized
	Email     string    `gorm:"size:100;unique;not null" json:"email"`     // Unique email
	Gender    string    `gorm:"size:10;default:secret" json:"gender"`      // male, female or secret
	Name      string    `json:"name"`                                      // Optional display name
	Contact   string    `json:"contact"`                                   // Optional contact info
	Bio       string    `json:"bio"`                                       // Optional biography
	AvatarURL string    `json:"avatar_url"`                                // Optional avatar path
	Age       *int      `json:"age"`                                       // Optional age, nullable
	Role      string    `gorm:"size:10;not null;default:user" json:"role"` // user or admin
	CreatedAt time.Time `json:"created_at"`                                // Set by GORM on insert
	UpdatedAt time.Time `json:"updated_at"`                                // Set by GORM on update
	Markers   []Marker  `gorm:"constraint:OnDelete:CASCADE;" json:"-"`     // Markers owned by this user
}

// IsValidGender reports whether g is one of the accepted gender values
func IsValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderSecret
}
