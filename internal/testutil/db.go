package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/sss97133/nuke-sub012/internal/models"
)

var dbCounter int64

// NewTestDB opens an isolated in-memory SQLite database with the full schema
// migrated. Each call gets its own database; cleanup is registered on t.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := atomic.AddInt64(&dbCounter, 1)
	dsn := fmt.Sprintf("file:testdb_%d?mode=memory&cache=shared", n)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// Orphaned rows are application-managed (see the cleanup package)
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get underlying sql.DB: %v", err)
	}
	// Shared-cache in-memory databases vanish when the last conn closes
	sqlDB.SetMaxOpenConns(1)

	err = db.AutoMigrate(
		&models.Vehicle{},
		&models.VehicleImage{},
		&models.ImportQueue{},
		&models.DeleteLog{},
	)
	if err != nil {
		t.Fatalf("failed to migrate test schema: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}
