package api

import (
	"mapconnect/internal/config" // Application configuration
	"net/http"                   // HTTP status codes
	"time"                       // Timestamps

	"github.com/gin-gonic/gin" // Gin web framework
	"gorm.io/gorm"             // GORM ORM library
)

// HealthHandler reports service liveness, database reachability, the running
// version and the advertised failover base URL
func HealthHandler(db *gorm.DB, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		database := "connected" // Optimistic until the ping fails
		sqlDB, err := db.DB()   // Underlying *sql.DB for the ping
		if err != nil || sqlDB.Ping() != nil {
			database = "error" // Database unreachable
		}
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",                            // Service is up
			"timestamp":      time.Now().Format(time.RFC3339), // Current time
			"version":        cfg.AppVersion,                  // Running version
			"database":       database,                        // Database reachability
			"backup_api_url": cfg.BackupAPIURL,                // Failover base URL for clients
		})
	}
}
