package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/BerylCAtieno/intpatient-api/internal/cache"
	"github.com/BerylCAtieno/intpatient-api/internal/config"
	"github.com/BerylCAtieno/intpatient-api/internal/db"
	"github.com/BerylCAtieno/intpatient-api/internal/extractor"
	"github.com/BerylCAtieno/intpatient-api/internal/ocr"
	"github.com/BerylCAtieno/intpatient-api/internal/pipeline"
	"github.com/BerylCAtieno/intpatient-api/internal/repository"
	"github.com/BerylCAtieno/intpatient-api/internal/router"
	"github.com/BerylCAtieno/intpatient-api/internal/services"
	"github.com/BerylCAtieno/intpatient-api/internal/storage"
	"github.com/BerylCAtieno/intpatient-api/internal/uppermind"
	"github.com/BerylCAtieno/intpatient-api/internal/utils"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger := utils.NewLogger(cfg.LogLevel)

	// Initialize database (migrations run first)
	database, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal("Failed to open database", "error", err)
	}
	defer database.Close()

	store, err := storage.New(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage", "error", err, "backend", cfg.StorageBackend)
	}

	authCache, err := cache.New(cfg)
	if err != nil {
		logger.Fatal("Failed to connect to auth cache", "error", err, "addr", cfg.RedisAddr)
	}
	defer authCache.Close()

	// Collaborators
	upperMind := uppermind.NewClient(cfg.UpperMindURL, cfg.TranslatorAgentID, cfg.TranslationTimeout, logger)
	ocrClient := ocr.NewOllamaClient(cfg.OllamaURL, cfg.OllamaModel, cfg.OCRTimeout, logger)
	pages := extractor.NewPageSource(ocrClient, nil, logger)
	orchestrator := pipeline.NewOrchestrator(pages, upperMind, cfg.TranslationConcurrency, logger)

	// Services
	repo := repository.NewRepository(database)
	recordService := services.NewRecordService(repo, store, orchestrator, logger)
	authService := services.NewAuthService(upperMind, authCache, cfg.AuthCacheTTL, logger)

	// Setup HTTP router
	handler := router.NewRouter(cfg, authService, recordService, logger)

	// Upload streams clear their own write deadline
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"storage", cfg.StorageBackend,
			"translation_concurrency", cfg.TranslationConcurrency)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
