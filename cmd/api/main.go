package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/gridsense-io/site-analytics-service/internal/analytics"
	"github.com/gridsense-io/site-analytics-service/internal/config"
	"github.com/gridsense-io/site-analytics-service/internal/httpserver"
	"github.com/gridsense-io/site-analytics-service/internal/logging"
	"github.com/gridsense-io/site-analytics-service/internal/session"
	"github.com/gridsense-io/site-analytics-service/internal/store"
)

// main boots the service: .env → config → logger → Mongo → indexes →
// HTTP server, then blocks until SIGINT/SIGTERM and drains.
func main() {
	// .env is optional; a containerized deployment sets real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		bootLogger := logging.New("info")
		bootLogger.Fatal().Err(err).Msg("invalid configuration")
	}

	logger := logging.New(cfg.LogLevel)

	db, err := store.NewMongoStore(context.Background(), cfg.MongoURI, cfg.MongoDB)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to document store")
	}

	// Ensure query indexes exist so a fresh database serves reads fast.
	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 10*time.Second)
	if err := db.EnsureIndexes(indexCtx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure indexes")
	}
	cancelIndex()

	svc := analytics.NewService(db, &logger)
	sessions := session.NewManager(session.DefaultTTL, false)
	router := httpserver.NewRouter(cfg, db, svc, sessions, &logger)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info().Msg("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("forced shutdown")
	}
	if err := db.Close(ctx); err != nil {
		logger.Error().Err(err).Msg("store disconnect failed")
	}

	logger.Info().Msg("server exiting")
}
