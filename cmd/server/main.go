package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	app "github.com/RaghavVerma19/ride-share-backend/internal/app"
	httpx "github.com/RaghavVerma19/ride-share-backend/internal/http"
	store "github.com/RaghavVerma19/ride-share-backend/internal/store"
	stream "github.com/RaghavVerma19/ride-share-backend/internal/stream"
	ws "github.com/RaghavVerma19/ride-share-backend/internal/ws"
	"github.com/RaghavVerma19/ride-share-backend/pkg/auth"
)

func main() {
	// Load local .env (dev only)
	_ = godotenv.Load()

	cfg := app.LoadConfig()
	logger := app.NewLogger(cfg.Env)

	// Cancel on SIGINT/SIGTERM
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Postgres connection + migrations
	pg, err := store.NewPostgres(ctx, cfg, logger)
	if err != nil {
		logger.Error("postgres connect", "err", err)
		log.Fatal(err)
	}
	defer pg.Close()
	if err := store.RunMigrations(ctx, pg, logger); err != nil {
		logger.Error("migrations", "err", err)
		log.Fatal(err)
	}

	// Redis-backed stream log for chat rooms
	streams, err := stream.NewRedisLog(ctx, cfg, logger)
	if err != nil {
		logger.Error("redis connect", "err", err)
		log.Fatal(err)
	}
	defer streams.Close()

	// WebSocket hub + dispatcher
	hub := ws.NewHub(logger)
	wsrv := ws.NewServer(logger, hub, streams, pg, auth.New(cfg.JWTSecret))

	// Background drain of the global chat stream into postgres
	workerID := cfg.WorkerID
	if workerID == "" {
		workerID = uuid.NewString()
	}
	syncer := stream.NewSyncer(logger, streams, pg, cfg.SyncInterval, cfg.SyncBatch, workerID)
	go syncer.Run(ctx)

	// HTTP + WS router
	router := httpx.NewRouter(cfg, logger, wsrv, pg, streams)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server.listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server.crash", "err", err)
			cancel()
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()
	logger.Info("server.shutdown.start")

	// shutdown
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("server.shutdown.complete")
	_ = os.Stdout.Sync()
}
