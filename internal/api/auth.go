package api

import (
	"errors"                     // Error matching for gorm sentinel errors
	"mapconnect/internal/domain" // Importing domain models
	"net/http"                   // HTTP status codes

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
	"golang.org/x/crypto/bcrypt" // Password hashing
	"gorm.io/gorm"               // GORM ORM library
)

// RegisterRequest represents a registration request
type RegisterRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
	Email    string `json:"email" binding:"required"`    // Email must be provided
	Gender   string `json:"gender"`                      // Optional, defaults to secret
}

// LoginRequest represents a login request
type LoginRequest struct {
	Username string `json:"username" binding:"required"` // Username must be provided
	Password string `json:"password" binding:"required"` // Password must be provided
}

// Single 401 message for both unknown-username and wrong-password so the
// response never reveals whether a username exists
const loginFailedMessage = "username or password incorrect"

// RegisterHandler creates a new user account
func RegisterHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username, password or email"})
			return
		}
		// Gender defaults to secret and must be one of the accepted values
		if req.Gender == "" {
			req.Gender = domain.GenderSecret
		}
		if !domain.IsValidGender(req.Gender) {
			// If gender is invalid, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid gender value"})
			return
		}
		// Hash the password before storing it
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			// If hashing fails, return internal server error
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		// Role is always "user" at registration, never client-settable
		user := domain.User{
			Username: req.Username, // Username
			Password: string(hash), // Bcrypt hash
			Email:    req.Email,    // Email
			Gender:   req.Gender,   // Gender
			Role:     domain.RoleUser,
		}
		// Attempt to create the user in the database
		if err := db.Create(&user).Error; err != nil {
			// A unique-constraint violation on username or email maps to 409
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Username or email already exists"})
				return
			}
			// Any other storage failure maps to 500
			logrus.WithFields(logrus.Fields{
				"username": req.Username, // Requested username
				"error":    err.Error(),  // Error message
			}).Error("Registration failed") // Log registration failure
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to register user"})
			return
		}
		// Log successful registration
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // New user ID
			"username": user.Username, // Username
		}).Info("User registered") // Log registration success
		// Return success response
		c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully"})
	}
}

// LoginHandler authenticates a user and returns the user object without the password hash
func LoginHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			// If binding fails, return bad request
			c.JSON(http.StatusBadRequest, gin.H{"error": "Missing username or password"})
			return
		}
		var user domain.User // Fetch user from database
		if err := db.Where("username = ?", req.Username).First(&user).Error; err != nil {
			// Unknown username: same body as a wrong password
			c.JSON(http.StatusUnauthorized, gin.H{"error": loginFailedMessage})
			return
		}
		// Compare provided password with stored hash
		if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": loginFailedMessage})
			return
		}
		// Log successful login
		logrus.WithFields(logrus.Fields{
			"user_id":  user.ID,       // User ID
			"username": user.Username, // Username
		}).Info("User logged in") // Log login success
		// The password hash is excluded from serialization by the model's json tag
		c.JSON(http.StatusOK, gin.H{"message": "Login successful", "user": user})
	}
}
