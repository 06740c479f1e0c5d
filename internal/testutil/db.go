package testutil

import (
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"planetpulse.com/gamification/internal/entity"
	"planetpulse.com/gamification/internal/modules/achievement/catalog"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewTestDB creates an in-memory SQLite database with the gamification schema.
// It uses a single connection, so concurrent callers are serialized.
// The connection is closed when the test finishes.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	return openTestDB(t, fmt.Sprintf("file:%s?mode=memory&cache=shared", name), 1)
}

// NewFileTestDB creates a file-backed SQLite database in a temp dir that
// allows maxConns concurrent connections. Writers wait on each other instead
// of failing with SQLITE_BUSY.
func NewFileTestDB(t *testing.T, maxConns int) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "gamification.db")
	dsn := fmt.Sprintf("file:%s?_busy_timeout=10000&_journal_mode=WAL&_txlock=immediate", path)
	return openTestDB(t, dsn, maxConns)
}

func openTestDB(t *testing.T, dsn string, maxConns int) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB from gorm: %v", err)
	}
	sqlDB.SetMaxOpenConns(maxConns)

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	if err := db.AutoMigrate(
		&entity.User{},
		&entity.PointTransaction{},
		&entity.UserScore{},
		&entity.Achievement{},
		&entity.UserAchievement{},
		&entity.LeaderboardEntry{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// CreateUser inserts a user row so foreign keys resolve.
func CreateUser(t *testing.T, db *gorm.DB, username string) uuid.UUID {
	t.Helper()

	user := entity.User{Username: username}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", username, err)
	}
	return user.ID
}

// SeedCatalog inserts the default achievement catalog and returns it with IDs.
func SeedCatalog(t *testing.T, db *gorm.DB) []entity.Achievement {
	t.Helper()

	achievements, err := catalog.Load("")
	if err != nil {
		t.Fatalf("failed to load default catalog: %v", err)
	}
	if err := db.Create(&achievements).Error; err != nil {
		t.Fatalf("failed to seed catalog: %v", err)
	}
	return achievements
}
