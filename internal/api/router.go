package api

import (
	"mapconnect/internal/config"     // Application configuration
	"mapconnect/internal/middleware" // Auth and admin middleware

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// SetupRouter builds the full route table with CORS applied to every response.
// Preflight OPTIONS requests are answered 204 by the CORS middleware before
// any routing happens.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config) *gin.Engine {
	r := gin.Default() // Gin router instance

	// Permissive CORS: any origin, the methods and headers the front end sends
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},                                                                    // Any origin
		AllowMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},                              // Allowed methods
		AllowHeaders: []string{"Content-Type", "Authorization", "X-User-Username", "X-Admin-Username"}, // Allowed headers
	}))

	// Public routes
	r.GET("/health", HealthHandler(db, cfg))             // Health probe
	r.POST("/register", RegisterHandler(db))             // Registration endpoint
	r.POST("/login", LoginHandler(db))                   // Login endpoint
	r.GET("/markers", ListMarkersHandler(db, rdb))       // Public marker listing
	r.GET("/users/:username", GetUserProfileHandler(db)) // Public profile

	// Authenticated routes (X-User-Username verified against the users table)
	authGroup := r.Group("/")
	authGroup.Use(middleware.UserAuthMiddleware(db))
	authGroup.POST("/markers", CreateMarkerHandler(db, rdb))                 // Create marker endpoint
	authGroup.GET("/markers/:username", GetUserMarkersHandler(db))           // Own markers, private included
	authGroup.PUT("/markers/:id", UpdateMarkerHandler(db, rdb))              // Partial marker update
	authGroup.PUT("/markers/:id/status", UpdateMarkerStatusHandler(db, rdb)) // Status toggle
	authGroup.DELETE("/markers/:id", DeleteMarkerHandler(db, rdb))           // Hard delete
	authGroup.PUT("/profile", UpdateProfileHandler(db))                      // Profile patch
	authGroup.POST("/avatar", UploadAvatarHandler(db, cfg.UploadDir))        // Avatar upload

	// Admin routes (X-Admin-Username verified to hold the admin role)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/stats", StatsHandler(db, rdb))                      // Dashboard counters
	adminGroup.GET("/all-markers", ListAllMarkersHandler(db))            // Every marker
	adminGroup.GET("/users", ListAllUsersHandler(db))                    // Every user
	adminGroup.PUT("/markers/:id", AdminUpdateMarkerHandler(db, rdb))    // Patch any marker
	adminGroup.DELETE("/markers/:id", AdminDeleteMarkerHandler(db, rdb)) // Delete any marker
	adminGroup.PUT("/users/:id", AdminUpdateUserHandler(db))             // Patch any user
	adminGroup.DELETE("/users/:id", AdminDeleteUserHandler(db, rdb))     // Delete user + markers

	// Stored avatar files are served straight from the upload directory
	r.Static("/uploads/avatars", cfg.UploadDir)

	return r
}
