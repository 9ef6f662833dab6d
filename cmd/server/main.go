package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pixelshelf/backend/internal/annotation"
	"github.com/pixelshelf/backend/internal/api"
	"github.com/pixelshelf/backend/internal/api/handlers"
	"github.com/pixelshelf/backend/internal/cache"
	"github.com/pixelshelf/backend/internal/config"
	"github.com/pixelshelf/backend/internal/metadata"
	"github.com/pixelshelf/backend/internal/service"
	"github.com/pixelshelf/backend/internal/storage"
	"github.com/pixelshelf/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if cfg.Gemini.APIKey == "" {
		logger.Log.Fatal().Msg("GEMINI_API must be set")
	}

	// Initialize object storage
	objects, err := newObjectStorage(cfg)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize object storage")
	}

	// Initialize collaborators
	annotator := annotation.NewGeminiClient(cfg.Gemini.APIKey, cfg.Gemini.Model)
	docs := metadata.NewStore(objects)

	galleryCache, err := cache.NewGalleryCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Gallery cache unavailable, continuing without it")
		galleryCache = cache.NewNoopGalleryCache()
	}

	// Initialize services
	galleryService := service.NewGalleryService(objects, docs, galleryCache)
	uploadService := service.NewUploadService(annotator, objects, docs, galleryCache)

	// Initialize HTTP server
	galleryHandler := handlers.NewGalleryHandler(galleryService, uploadService, cfg.App.UploadDir)
	router := api.NewRouter(galleryHandler, cfg.Server.AllowedOrigins, "web/templates/*")
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().
			Str("port", cfg.Server.Port).
			Str("bucket", cfg.Storage.Bucket).
			Str("storage_driver", cfg.Storage.Driver).
			Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}

func newObjectStorage(cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.Storage.Driver {
	case "s3":
		return storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Storage.S3Endpoint,
			AccessKey: cfg.Storage.S3AccessKey,
			SecretKey: cfg.Storage.S3SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.S3Region,
			UseSSL:    cfg.Storage.S3UseSSL,
		})
	default:
		return storage.NewGCSClient(context.Background(), cfg.Storage.Bucket)
	}
}
