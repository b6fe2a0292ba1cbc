package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sss97133/nuke-sub012/internal/cleanup"
	"github.com/sss97133/nuke-sub012/internal/database"
	"github.com/sss97133/nuke-sub012/internal/importer"
	"github.com/sss97133/nuke-sub012/internal/models"
	"github.com/sss97133/nuke-sub012/internal/scheduler"
)

// AdminHandler groups the operational endpoints: queue stats, recent
// activity, cleanup passes, and the delete-log audit trail.
type AdminHandler struct {
	db      *database.GormDB
	cleaner *cleanup.Cleaner
	worker  *scheduler.QueueWorker
}

func NewAdminHandler(db *database.GormDB, cleaner *cleanup.Cleaner, worker *scheduler.QueueWorker) *AdminHandler {
	return &AdminHandler{db: db, cleaner: cleaner, worker: worker}
}

// RegisterRoutes mounts the admin endpoints under the given group
func (h *AdminHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/stats", h.getStats)
	group.GET("/activity", h.getActivity)
	group.POST("/cleanup", h.runCleanup)
	group.GET("/delete-logs", h.getDeleteLogs)
}

func (h *AdminHandler) getStats(c *gin.Context) {
	queueCounts, err := h.db.CountQueueByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue stats"})
		return
	}

	var vehicleCount, imageCount int64
	h.db.DB().Model(&models.Vehicle{}).Count(&vehicleCount)
	h.db.DB().Model(&models.VehicleImage{}).Count(&imageCount)

	breakerOpen, breakerFailures, breakerWindow := importer.GetCircuitBreakerStatus()

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicleCount,
		"images":   imageCount,
		"queue":    queueCounts,
		"circuit_breaker": gin.H{
			"open":     breakerOpen,
			"failures": breakerFailures,
			"window":   breakerWindow,
		},
	})
}

func (h *AdminHandler) getActivity(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	items, err := h.db.GetRecentQueueActivity(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue activity"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"activity": items})
}

func (h *AdminHandler) runCleanup(c *gin.Context) {
	result, err := h.cleaner.Run()
	if err != nil {
		log.Printf("[Admin] Cleanup failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Cleanup failed"})
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AdminHandler) getDeleteLogs(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	logs, err := h.cleaner.GetDeleteLogs(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read delete logs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"logs": logs})
}

// TriggerImportRun kicks off one queue drain pass without waiting for the
// next poll tick
func (h *AdminHandler) TriggerImportRun(c *gin.Context) {
	if h.worker == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Import worker not running"})
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
		defer cancel()
		h.worker.ProcessOnce(ctx)
	}()

	c.JSON(http.StatusAccepted, gin.H{"status": "import run started"})
}
