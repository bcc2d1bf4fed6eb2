package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bturcotte520/FlashCards/internal/api"
	"github.com/bturcotte520/FlashCards/internal/config"
	"github.com/bturcotte520/FlashCards/internal/db"
	"github.com/bturcotte520/FlashCards/internal/housekeeping"
	"github.com/bturcotte520/FlashCards/internal/jobs"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/repository/sqlite"
	"github.com/bturcotte520/FlashCards/internal/services"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/worker"
)

func main() {
	cfg := config.Load()

	// Initialize logger
	log := logger.New(
		logger.WithLevel(logger.ParseLevel(cfg.LogLevel)),
		logger.WithColors(true),
	)
	logger.SetDefault(log)

	if err := cfg.Validate(); err != nil {
		log.Error("%v", err)
		os.Exit(1)
	}

	log.Info("===========================================")
	log.Info("FlashCards Server Starting")
	log.Info("===========================================")
	log.Info("configuration loaded")
	log.Debug("addr=%s", cfg.Addr)
	log.Debug("db_path=%s", cfg.DBPath)
	log.Debug("log_level=%s", cfg.LogLevel)
	log.Debug("stats_worker_count=%d", cfg.StatsWorkerCount)
	log.Debug("stats_queue_size=%d", cfg.StatsQueueSize)
	log.Debug("due_refresh_interval=%s", cfg.DueRefreshInterval)
	log.Debug("session_ttl=%s", cfg.SessionTTL)
	log.Debug("session_shuffle=%t", cfg.SessionShuffle)
	log.Debug("srs: min_ease=%.2f default_ease=%.2f easy_bonus=%.2f interval_modifier=%.2f",
		cfg.MinEaseFactor, cfg.DefaultEaseFactor, cfg.EasyBonus, cfg.IntervalModifier)

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Error("failed to open database: %v", err)
		os.Exit(1)
	}
	defer func() {
		log.Debug("closing database connection")
		database.Close()
	}()

	// Repositories
	progressRepo := sqlite.NewProgressRepository(database.DB)
	deckRepo := sqlite.NewDeckRepository(database.DB)
	statsRepo := sqlite.NewSessionStatsRepository(database.DB)

	composer := session.NewComposer(progressRepo, cfg.SRSParameters())

	// Session stats are recorded off the request path
	statsPool := worker.NewPool(cfg.StatsWorkerCount, cfg.StatsQueueSize)
	statsQueue := jobs.NewWorkerQueue(statsPool, statsRepo)

	// Initialize services
	deckService := services.NewDeckService(deckRepo, composer)
	studyService := services.NewStudyService(deckRepo, composer, statsQueue, services.WithShuffle(cfg.SessionShuffle))
	statsService := services.NewStatsService(statsRepo)

	srv := &api.Server{
		DB:             database.DB,
		DeckService:    deckService,
		StudyService:   studyService,
		StatsService:   statsService,
		Progress:       progressRepo,
		Restorer:       composer,
		RequestTimeout: cfg.RequestTimeout,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}

	ctx, cancel := context.WithCancel(context.Background())
	statsPool.Start(ctx)

	maintenance := housekeeping.New(deckService, studyService, cfg.DueRefreshInterval, cfg.SessionTTL)
	if err := maintenance.Start(ctx); err != nil {
		log.Error("failed to start housekeeping: %v", err)
		os.Exit(1)
	}

	// Configure HTTP server
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv.Routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start HTTP server
	go func() {
		log.Info("HTTP server listening on %s", cfg.Addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server error: %v", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	sig := <-stop

	log.Info("received signal %v, initiating graceful shutdown", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Debug("stopping housekeeping")
	maintenance.Stop()

	log.Debug("shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error: %v", err)
	}

	// Drain queued session stats before the database closes
	log.Debug("stopping stats pool")
	statsPool.Stop()
	cancel()

	log.Info("===========================================")
	log.Info("FlashCards Server Stopped")
	log.Info("===========================================")
}
