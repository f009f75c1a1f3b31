package main

import (
	"os"        // Signal channel
	"os/signal" // Shutdown on interrupt
	"syscall"   // SIGTERM
	"time"      // Sweep task reference time

	"mapconnect/internal/config" // Custom package for configuration
	"mapconnect/internal/tasks"  // Task constructors
	"mapconnect/internal/worker" // Worker server

	"github.com/hibiken/asynq"     // Task queue
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// How often the expiry sweep runs
const sweepInterval = "@every 10m"

// Main function for the background worker: runs the asynq server that
// processes tasks and the scheduler that enqueues the periodic expiry sweep
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Connect to the database
	db, err := gorm.Open(mysql.Open(cfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		logger.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Redis connection shared by asynq and the cache invalidation
	redisOpt := asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	}
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Task server processing sweep tasks
	ws := worker.NewWorkerServer(redisOpt, db, redisClient, logger)
	go ws.Start() // Blocks, so run in its own goroutine

	// Scheduler enqueueing the periodic sweep
	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{})
	sweepTask, err := tasks.NewMarkerExpireSweepTask(time.Time{}) // Handler falls back to its own now
	if err != nil {
		logger.Fatalf("failed to build sweep task: %v", err)
	}
	if _, err := scheduler.Register(sweepInterval, sweepTask); err != nil {
		logger.Fatalf("failed to register sweep schedule: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("failed to start scheduler: %v", err)
	}

	// Block until interrupted, then stop both components
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	scheduler.Shutdown() // Stop enqueueing new sweeps
	ws.Shutdown()        // Drain in-flight tasks
}
