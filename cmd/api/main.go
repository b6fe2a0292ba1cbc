package main

import (
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/sss97133/nuke-sub012/internal/cleanup"
	"github.com/sss97133/nuke-sub012/internal/config"
	"github.com/sss97133/nuke-sub012/internal/database"
	"github.com/sss97133/nuke-sub012/internal/gallery"
	"github.com/sss97133/nuke-sub012/internal/handlers"
	"github.com/sss97133/nuke-sub012/internal/importer"
	"github.com/sss97133/nuke-sub012/internal/models"
	"github.com/sss97133/nuke-sub012/internal/ratelimit"
	"github.com/sss97133/nuke-sub012/internal/scheduler"
	"github.com/sss97133/nuke-sub012/internal/search"
)

// vehicleStore is the read surface both database backends provide
type vehicleStore interface {
	gallery.Store
	GetVehicleByID(id string) (*models.Vehicle, error)
	GetVehicleImages(vehicleID string) ([]models.VehicleImage, error)
}

var (
	cfg             *config.Config
	gormDB          *database.GormDB
	pgDB            *database.DB
	store           vehicleStore
	gallerySessions *gallery.Sessions
	searchClient    *search.SearchClient
	apiLimiter      *ratelimit.RateLimiter
	queueWorker     *scheduler.QueueWorker
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file found, using environment variables")
	}

	var err error
	cfg, err = config.LoadConfig(getEnv("CONFIG_PATH", "config.yaml"))
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if err := initDatabase(); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	gallerySessions = gallery.NewSessions(store, cfg.Gallery.GetQueryTimeout(), cfg.Gallery.MaxRecords)

	searchClient = search.NewSearchClient(
		getEnv("MEILISEARCH_HOST", cfg.Search.Meilisearch.Host),
		getEnv("MEILISEARCH_API_KEY", cfg.Search.Meilisearch.APIKey),
	)
	if err := searchClient.InitIndex(); err != nil {
		log.Printf("Warning: Failed to initialize search index: %v", err)
	}

	apiLimiter = ratelimit.NewRateLimiter(
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.RequestsPerHour,
		cfg.Importer.MaxRequestsPerDay,
		cfg.RateLimit.Enabled,
	)

	// The import pipeline is GORM-only; a Postgres deployment serves
	// galleries and search but does not run imports.
	var sched *scheduler.Scheduler
	var adminHandler *handlers.AdminHandler
	if gormDB != nil {
		imp := importer.NewImporterWithConfig(importer.Config{
			RunnerUserID: getEnv("RUNNER_USER_ID", cfg.Importer.RunnerUserID),
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.Importer.GetTimeout(),
			MaxRetries:   cfg.Importer.MaxRetries,
			RetryDelay:   cfg.Importer.GetRetryDelay(),
			RequestDelay: cfg.Importer.GetRequestDelay(),
		})

		queueWorker = scheduler.NewQueueWorker(gormDB, imp, searchClient)
		queueWorker.Start()
		defer queueWorker.Stop()

		if cfg.Importer.DailyRunEnabled {
			sched = scheduler.NewScheduler(gormDB, queueWorker)
			if err := sched.Start(cfg.Importer.DailyRunTime); err != nil {
				log.Fatalf("Failed to start scheduler: %v", err)
			}
			defer sched.Stop()
		}

		cleaner := cleanup.NewCleaner(gormDB)
		adminHandler = handlers.NewAdminHandler(gormDB, cleaner, queueWorker)
	}

	router := setupRouter(adminHandler)

	port := getEnv("PORT", "8080")
	log.Printf("[API] Listening on :%s (database=%s)", port, cfg.Database.Type)

	go func() {
		if err := router.Run(":" + port); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("[API] Shutting down")

	if gormDB != nil {
		gormDB.Close()
	}
	if pgDB != nil {
		pgDB.Close()
	}
}

func initDatabase() error {
	dbType := getEnv("DB_TYPE", cfg.Database.Type)
	if dbType == "" {
		dbType = "mysql"
	}

	switch dbType {
	case "postgres":
		pg := cfg.Database.Postgres
		db, err := database.NewDB(
			getEnv("DB_HOST", pg.Host),
			getEnv("DB_PORT", strconv.Itoa(pg.Port)),
			getEnv("DB_USER", pg.User),
			getEnv("DB_PASSWORD", pg.Password),
			getEnv("DB_NAME", pg.Database),
		)
		if err != nil {
			return err
		}
		if err := db.InitSchema(); err != nil {
			return err
		}
		pgDB = db
		store = db
	default:
		my := cfg.Database.MySQL
		db, err := database.NewGormDB(
			getEnv("DB_HOST", my.Host),
			getEnv("DB_PORT", strconv.Itoa(my.Port)),
			getEnv("DB_USER", my.User),
			getEnv("DB_PASSWORD", my.Password),
			getEnv("DB_NAME", my.Database),
		)
		if err != nil {
			return err
		}
		if err := db.InitSchema(); err != nil {
			return err
		}
		gormDB = db
		store = db
	}

	cfg.Database.Type = dbType
	return nil
}

func setupRouter(adminHandler *handlers.AdminHandler) *gin.Engine {
	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000"), ",")
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.GET("/health", healthCheck)

	api := router.Group("/api")
	api.Use(rateLimitMiddleware())
	{
		api.GET("/users/:id/gallery", getUserGallery)
		api.GET("/vehicles/:id", getVehicle)
		api.GET("/search", searchVehicles)
		api.GET("/ratelimit/stats", getRateLimitStats)

		if adminHandler != nil {
			api.POST("/search/reindex", reindexVehicles)
			api.POST("/import/listing", importListing)
			api.POST("/import/run", adminHandler.TriggerImportRun)
			api.GET("/import/stats", getImportStats)

			adminHandler.RegisterRoutes(api.Group("/admin"))
		}
	}

	return router
}

func rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !apiLimiter.AllowRequest() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"database": cfg.Database.Type,
	})
}

// getUserGallery serves a user's photo gallery. The viewer_id query parameter
// identifies the requesting account; viewing your own profile includes images
// of private vehicles, everyone else sees public ones only.
func getUserGallery(c *gin.Context) {
	userID := c.Param("id")
	viewerID := c.Query("viewer_id")
	isOwnProfile := viewerID != "" && viewerID == userID

	loader := gallerySessions.For(viewerID)
	view, err := loader.Load(c.Request.Context(), userID, isOwnProfile)

	if errors.Is(err, gallery.ErrSuperseded) {
		// A newer request from the same viewer won; serve its view
		c.JSON(http.StatusOK, galleryResponse(view))
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to load gallery",
			"state": view.State.String(),
		})
		return
	}

	c.JSON(http.StatusOK, galleryResponse(view))
}

func galleryResponse(view gallery.View) gin.H {
	images := view.Images
	if images == nil {
		images = []models.VehicleImage{}
	}
	return gin.H{
		"state":   view.State.String(),
		"user_id": view.UserID,
		"images":  images,
		"count":   len(images),
	}
}

func getVehicle(c *gin.Context) {
	id := c.Param("id")

	vehicle, err := store.GetVehicleByID(id)
	if err != nil {
		if database.IsRecordNotFound(err) || errors.Is(err, sql.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Vehicle not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load vehicle"})
		return
	}

	images, err := store.GetVehicleImages(id)
	if err != nil {
		log.Printf("[API] Failed to load images for vehicle=%s: %v", id, err)
		images = []models.VehicleImage{}
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicle": vehicle,
		"images":  images,
	})
}

func searchVehicles(c *gin.Context) {
	params := search.FilterParams{
		Query:      c.Query("q"),
		UserID:     c.Query("user_id"),
		PublicOnly: c.Query("public_only") != "false",
		SortBy:     c.Query("sort"),
	}

	if minYear, err := strconv.Atoi(c.Query("min_year")); err == nil {
		params.MinYear = &minYear
	}
	if maxYear, err := strconv.Atoi(c.Query("max_year")); err == nil {
		params.MaxYear = &maxYear
	}
	if makes := c.Query("makes"); makes != "" {
		params.Makes = strings.Split(makes, ",")
	}
	if limit, err := strconv.ParseInt(c.Query("limit"), 10, 64); err == nil {
		params.Limit = limit
	}

	vehicles, err := searchClient.FilterSearch(params)
	if err != nil {
		log.Printf("[API] Search failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Search failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"vehicles": vehicles,
		"count":    len(vehicles),
	})
}

// reindexVehicles rebuilds the search index from the database
func reindexVehicles(c *gin.Context) {
	var vehicles []models.Vehicle
	if err := gormDB.DB().Find(&vehicles).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read vehicles"})
		return
	}

	if err := searchClient.IndexVehicles(vehicles); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to index vehicles"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"indexed": len(vehicles)})
}

// importListing enqueues an external listing URL for import
func importListing(c *gin.Context) {
	var req struct {
		URL      string `json:"url" binding:"required"`
		Source   string `json:"source"`
		Priority int    `json:"priority"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "url is required"})
		return
	}

	if req.Source == "" {
		req.Source = models.SourceExternalImport
	}

	enqueued, err := gormDB.EnqueueListing(req.Source, req.URL, req.Priority)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue listing"})
		return
	}

	status := http.StatusOK
	if enqueued {
		status = http.StatusCreated
	}
	c.JSON(status, gin.H{"enqueued": enqueued, "url": req.URL})
}

func getImportStats(c *gin.Context) {
	counts, err := gormDB.CountQueueByStatus()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read queue stats"})
		return
	}

	breakerOpen, failures, window := importer.GetCircuitBreakerStatus()

	c.JSON(http.StatusOK, gin.H{
		"queue":                counts,
		"listing_quota_used":   importer.ListingLimiter.Used(),
		"circuit_breaker_open": breakerOpen,
		"breaker_failures":     failures,
		"breaker_window":       window,
	})
}

func getRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"api":      apiLimiter.GetStats(),
		"sessions": gallerySessions.Len(),
	})
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
