package cleanup

import (
	"testing"
	"time"

	"github.com/sss97133/nuke-sub012/internal/database"
	"github.com/sss97133/nuke-sub012/internal/models"
	"github.com/sss97133/nuke-sub012/internal/testutil"
)

func newTestCleaner(t *testing.T) (*Cleaner, *database.GormDB) {
	t.Helper()
	gdb := database.NewGormDBFromDB(testutil.NewTestDB(t))
	return NewCleaner(gdb), gdb
}

func TestRemoveDuplicateImagesKeepsOldest(t *testing.T) {
	cleaner, gdb := newTestCleaner(t)

	gdb.DB().Create(&models.Vehicle{ID: "veh-1", UserID: "alice", Make: "BMW", Model: "M3"})

	base := time.Now().Add(-time.Hour)
	images := []models.VehicleImage{
		{ID: "keep", VehicleID: "veh-1", UserID: "alice", ImageURL: "a.jpg", FileHash: "hash-1", CreatedAt: base},
		{ID: "dupe-1", VehicleID: "veh-1", UserID: "alice", ImageURL: "b.jpg", FileHash: "hash-1", CreatedAt: base.Add(time.Minute)},
		{ID: "dupe-2", VehicleID: "veh-1", UserID: "alice", ImageURL: "c.jpg", FileHash: "hash-1", CreatedAt: base.Add(2 * time.Minute)},
		{ID: "unique", VehicleID: "veh-1", UserID: "alice", ImageURL: "d.jpg", FileHash: "hash-2", CreatedAt: base},
		{ID: "no-hash", VehicleID: "veh-1", UserID: "alice", ImageURL: "e.jpg", CreatedAt: base},
	}
	for i := range images {
		if err := gdb.DB().Create(&images[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	result, err := cleaner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.DuplicatesRemoved != 2 {
		t.Errorf("duplicates removed = %d, want 2", result.DuplicatesRemoved)
	}

	var remaining []models.VehicleImage
	gdb.DB().Order("id").Find(&remaining)
	if len(remaining) != 3 {
		t.Fatalf("remaining images = %d, want 3", len(remaining))
	}
	for _, img := range remaining {
		if img.ID == "dupe-1" || img.ID == "dupe-2" {
			t.Errorf("duplicate %s survived", img.ID)
		}
	}

	// Every removal leaves an audit entry
	var logs []models.DeleteLog
	gdb.DB().Find(&logs)
	if len(logs) != 2 {
		t.Fatalf("delete logs = %d, want 2", len(logs))
	}
	for _, entry := range logs {
		if entry.Reason != models.DeleteReasonDuplicate {
			t.Errorf("reason = %q, want %q", entry.Reason, models.DeleteReasonDuplicate)
		}
	}
}

func TestRemoveOrphanedImages(t *testing.T) {
	cleaner, gdb := newTestCleaner(t)

	gdb.DB().Create(&models.Vehicle{ID: "veh-live", UserID: "alice", Make: "Audi", Model: "RS6"})

	images := []models.VehicleImage{
		{ID: "attached", VehicleID: "veh-live", UserID: "alice", ImageURL: "a.jpg"},
		{ID: "orphan", VehicleID: "veh-deleted", UserID: "alice", ImageURL: "b.jpg"},
		{ID: "upload", VehicleID: "", UserID: "alice", ImageURL: "c.jpg"},
	}
	for i := range images {
		if err := gdb.DB().Create(&images[i]).Error; err != nil {
			t.Fatal(err)
		}
	}

	result, err := cleaner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.OrphansRemoved != 1 {
		t.Errorf("orphans removed = %d, want 1", result.OrphansRemoved)
	}

	var remaining []models.VehicleImage
	gdb.DB().Find(&remaining)
	if len(remaining) != 2 {
		t.Fatalf("remaining images = %d, want 2 (direct uploads stay)", len(remaining))
	}

	logs, err := cleaner.GetDeleteLogs(10)
	if err != nil {
		t.Fatalf("GetDeleteLogs() error = %v", err)
	}
	if len(logs) != 1 || logs[0].Reason != models.DeleteReasonOrphaned {
		t.Errorf("delete logs = %+v, want one orphaned entry", logs)
	}
}

func TestPruneQueueRespectsRetention(t *testing.T) {
	cleaner, gdb := newTestCleaner(t)

	old := time.Now().Add(-45 * 24 * time.Hour)
	rows := []models.ImportQueue{
		{Source: "x", ListingURL: "u1", Status: models.QueueStatusDone},
		{Source: "x", ListingURL: "u2", Status: models.QueueStatusPermanentFail},
		{Source: "x", ListingURL: "u3", Status: models.QueueStatusPending},
		{Source: "x", ListingURL: "u4", Status: models.QueueStatusDone},
	}
	for i := range rows {
		if err := gdb.DB().Create(&rows[i]).Error; err != nil {
			t.Fatal(err)
		}
	}
	// Age the first two past the retention window
	gdb.DB().Model(&models.ImportQueue{}).
		Where("listing_url IN ?", []string{"u1", "u2"}).
		UpdateColumn("updated_at", old)

	result, err := cleaner.Run()
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if result.QueuePruned != 2 {
		t.Errorf("queue pruned = %d, want 2", result.QueuePruned)
	}

	var count int64
	gdb.DB().Model(&models.ImportQueue{}).Count(&count)
	if count != 2 {
		t.Errorf("remaining queue rows = %d, want 2", count)
	}
}
