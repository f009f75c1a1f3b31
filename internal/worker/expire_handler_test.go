package worker

import (
	"context"       // Task context
	"path/filepath" // Temp DB paths
	"testing"       // Testing framework
	"time"          // Expiry timestamps

	"mapconnect/internal/domain" // Models
	"mapconnect/internal/tasks"  // Task constructors

	"github.com/stretchr/testify/assert"  // Assertions
	"github.com/stretchr/testify/require" // Hard assertions
	"gorm.io/driver/sqlite"               // In-memory test database
	"gorm.io/gorm"                        // GORM ORM library
)

func setupSweepTest(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	if err := db.AutoMigrate(&domain.User{}, &domain.Marker{}); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func seedSweepMarker(t *testing.T, db *gorm.DB, title, status string, expiresAt time.Time) domain.Marker {
	t.Helper()
	user := domain.User{Username: "owner-" + title, Password: "x", Email: title + "@x.com"}
	require.NoError(t, db.Create(&user).Error)
	marker := domain.Marker{
		UserID:      user.ID,
		Title:       title,
		Description: "d",
		Lat:         1,
		Lng:         2,
		MarkerType:  domain.MarkerTypePersonal,
		Visibility:  domain.VisibilityToday,
		ExpiresAt:   expiresAt,
		Status:      status,
	}
	require.NoError(t, db.Create(&marker).Error)
	return marker
}

func TestExpireSweepFlipsOnlyOverdueActiveMarkers(t *testing.T) {
	db := setupSweepTest(t)
	now := time.Now()
	overdue := seedSweepMarker(t, db, "overdue", domain.StatusActive, now.Add(-time.Hour))
	fresh := seedSweepMarker(t, db, "fresh", domain.StatusActive, now.Add(time.Hour))
	inactive := seedSweepMarker(t, db, "inactive", domain.StatusInactive, now.Add(-time.Hour))

	task, err := tasks.NewMarkerExpireSweepTask(now)
	require.NoError(t, err)

	// Redis is nil: cache invalidation is a no-op in tests
	h := NewExpireSweepHandler(db, nil)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	var reloaded domain.Marker
	require.NoError(t, db.First(&reloaded, overdue.ID).Error)
	assert.Equal(t, domain.StatusExpired, reloaded.Status)

	// Future and non-active markers keep their status
	require.NoError(t, db.First(&reloaded, fresh.ID).Error)
	assert.Equal(t, domain.StatusActive, reloaded.Status)
	require.NoError(t, db.First(&reloaded, inactive.ID).Error)
	assert.Equal(t, domain.StatusInactive, reloaded.Status)
}

func TestExpireSweepIsIdempotent(t *testing.T) {
	db := setupSweepTest(t)
	now := time.Now()
	overdue := seedSweepMarker(t, db, "overdue", domain.StatusActive, now.Add(-time.Hour))

	task, err := tasks.NewMarkerExpireSweepTask(now)
	require.NoError(t, err)
	h := NewExpireSweepHandler(db, nil)

	// Running the sweep twice leaves the same end state
	require.NoError(t, h.ProcessTask(context.Background(), task))
	require.NoError(t, h.ProcessTask(context.Background(), task))

	var reloaded domain.Marker
	require.NoError(t, db.First(&reloaded, overdue.ID).Error)
	assert.Equal(t, domain.StatusExpired, reloaded.Status)
}
