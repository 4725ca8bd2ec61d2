package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"VDP-SVG/internal"
	"VDP-SVG/internal/cache"
	"VDP-SVG/internal/config"
	"VDP-SVG/internal/export"
	"VDP-SVG/internal/handlers"
	"VDP-SVG/internal/processor"
	"VDP-SVG/internal/services"
	"VDP-SVG/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Object store: GCS when a bucket is configured, a local directory otherwise
	var store storage.Store
	var localStore *storage.LocalStore
	if cfg.GCS.Enabled() {
		gcs, err := storage.NewGCSClient(ctx, cfg.GCS.BucketName, cfg.GCS.ProjectID, cfg.GCS.CredentialsPath)
		if err != nil {
			log.Fatalf("Failed to initialize GCS: %v", err)
		}
		store = gcs
	} else {
		localStore, err = storage.NewLocalStore(cfg.Storage.LocalDir)
		if err != nil {
			log.Fatalf("Failed to initialize local storage: %v", err)
		}
		store = localStore
		log.Printf("[INFO] no GCS bucket configured, storing files in %s", cfg.Storage.LocalDir)
	}
	defer store.Close()

	var templateCache cache.TemplateCache = cache.Nop{}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err := redisCache.Ping(ctx); err != nil {
			log.Printf("[WARN] redis unavailable, template cache disabled: %v", err)
			redisCache.Close()
		} else {
			templateCache = redisCache
		}
	}
	defer templateCache.Close()

	var pdfConverter export.PDFConverter
	if cfg.Gotenberg.URL != "" {
		pdfService, err := services.NewPDFService(cfg.Gotenberg.URL, cfg.Gotenberg.TimeoutDuration())
		if err != nil {
			log.Printf("[WARN] PDF output disabled: %v", err)
		} else {
			pdfConverter = pdfService
		}
	}

	// The stateless endpoints keep working without a database
	dbReady := true
	if err := internal.InitDB(cfg); err != nil {
		log.Printf("[WARN] database unavailable, only stateless endpoints are served: %v", err)
		dbReady = false
	} else {
		defer internal.CloseDB()
	}

	binder := processor.NewBinder(cfg.Render.DPI)
	raster := export.NewSVGRasterizer()
	exporter := export.NewExporter(binder, pdfConverter, raster)

	templateService := services.NewTemplateService(store, templateCache)
	mappingService := services.NewMappingService()
	renderService := services.NewRenderService(binder, raster, templateService, mappingService)
	batchService := services.NewBatchService(store, templateService, mappingService, exporter, cfg.Render.Workers)
	activityLogService := services.NewActivityLogService()

	r := gin.Default()
	r.Use(cors.New(corsConfig(cfg.Server.AllowOrigins)))
	if dbReady {
		r.Use(activityLogService.LoggingMiddleware())
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": dbReady})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		barcodeHandler := handlers.NewBarcodeHandler(cfg.Render.DPI, cfg.Render.BarcodeHeightMM)
		renderHandler := handlers.NewRenderHandler(renderService)
		v1.GET("/barcodes/:code", barcodeHandler.GetBarcode)
		v1.POST("/render", renderHandler.Render)

		if dbReady {
			templateHandler := handlers.NewTemplateHandler(templateService, mappingService, renderService)
			batchHandler := handlers.NewBatchHandler(batchService)
			logsHandler := handlers.NewLogsHandler(activityLogService)

			// Template management
			v1.POST("/templates", templateHandler.UploadTemplate)
			v1.GET("/templates/:templateId/placeholders", templateHandler.GetPlaceholders)
			v1.DELETE("/templates/:templateId", templateHandler.DeleteTemplate)
			v1.GET("/templates/:templateId/mapping", templateHandler.GetMapping)
			v1.PUT("/templates/:templateId/mapping", templateHandler.PutMapping)
			v1.POST("/templates/:templateId/preview", templateHandler.Preview)

			// Batch generation and download
			v1.POST("/templates/:templateId/batches", batchHandler.CreateBatch)
			v1.GET("/batches/:batchId", batchHandler.GetBatch)
			v1.GET("/batches/:batchId/download", batchHandler.DownloadBatch)

			v1.GET("/logs", logsHandler.GetAllLogs)
			v1.GET("/logs/stats", logsHandler.GetLogStats)
		}
	}

	// Local files older than STORAGE_MAX_AGE are removed every hour
	var cleanupService *handlers.FileCleanupService
	if localStore != nil {
		cleanupService = handlers.NewFileCleanupService(localStore, cfg.Storage.MaxAge)
		cleanupService.Start()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: r,
	}

	go func() {
		log.Printf("Starting server on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	if cleanupService != nil {
		cleanupService.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[WARN] forced shutdown: %v", err)
	}
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Disposition", "X-EAN13", "X-Render-Warnings"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	for _, origin := range origins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}
