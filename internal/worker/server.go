package worker

import (
	"context" // Error handler context
	"errors"  // Error matching on shutdown

	"github.com/hibiken/asynq"     // Task queue server
	"github.com/redis/go-redis/v9" // Redis client for cache invalidation
	"github.com/sirupsen/logrus"   // Logging library
	"gorm.io/gorm"                 // GORM ORM library

	"mapconnect/internal/tasks" // Task type constants
)

// WorkerServer wraps the asynq server lifecycle for the background jobs
type WorkerServer struct {
	server *asynq.Server // Underlying asynq server
	log    *logrus.Entry // Component-scoped logger
	db     *gorm.DB      // Database handle passed to task handlers
	rdb    *redis.Client // Redis client passed to task handlers
}

// NewWorkerServer creates a WorkerServer bound to the given Redis connection
func NewWorkerServer(redisOpt asynq.RedisClientOpt, db *gorm.DB, rdb *redis.Client, logger *logrus.Logger) *WorkerServer {
	logEntry := logger.WithField("component", "worker_server") // Scope the logger

	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 10, // Concurrent task handlers
			// Failed tasks are logged with their type and retry budget
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retryCount, _ := asynq.GetRetryCount(ctx) // Retries so far
				maxRetry, _ := asynq.GetMaxRetry(ctx)     // Retry budget
				logEntry.WithFields(logrus.Fields{
					"task_type": task.Type(), // Task type
					"retries":   retryCount,  // Retries so far
					"max_retry": maxRetry,    // Retry budget
				}).Errorf("Task failed: %v", err) // Log the failure
			}),
		},
	)

	return &WorkerServer{
		server: server,   // Underlying asynq server
		log:    logEntry, // Scoped logger
		db:     db,       // Database handle
		rdb:    rdb,      // Redis client
	}
}

// Start registers the task handlers and runs the server.
// It blocks until the server stops, so call it from its own goroutine.
func (ws *WorkerServer) Start() {
	mux := asynq.NewServeMux() // Task type → handler dispatch

	// Register the expiry sweep handler
	sweepHandler := NewExpireSweepHandler(ws.db, ws.rdb)
	mux.HandleFunc(tasks.TypeMarkerExpireSweep, sweepHandler.ProcessTask)

	ws.log.Info("Worker server starting...")
	if err := ws.server.Run(mux); err != nil {
		// Anything but a clean shutdown is fatal
		if !errors.Is(err, asynq.ErrServerClosed) {
			ws.log.Fatalf("Could not run worker server: %v", err)
		}
		ws.log.Info("Worker server stopped.")
	}
}

// Shutdown gracefully stops the server
func (ws *WorkerServer) Shutdown() {
	ws.log.Info("Shutting down worker server...")
	ws.server.Shutdown()
	ws.log.Info("Worker server shut down complete.")
}
