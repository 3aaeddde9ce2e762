package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txsync/internal/config"
	"github.com/MrJamesThe3rd/txsync/internal/database"
	txHttp "github.com/MrJamesThe3rd/txsync/internal/http"
	ingestHandler "github.com/MrJamesThe3rd/txsync/internal/http/ingest"
	reconcileHandler "github.com/MrJamesThe3rd/txsync/internal/http/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/importer"
	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	txStore "github.com/MrJamesThe3rd/txsync/internal/transaction/store"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := cfg.Logger(os.Stderr)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		log.Error("failed to migrate database", "error", err)
		os.Exit(1)
	}

	store := txStore.New(db)

	var (
		ingestService = ingest.NewService(store, ingest.Config{
			CategoryID:    cfg.Ingest.CategoryID,
			SubcategoryID: cfg.Ingest.SubcategoryID,
			LookupWindow:  cfg.Ingest.LookupWindow,
			ChunkSize:     cfg.Ingest.ChunkSize,
		}, ingest.WithLogger(log))
		importService   = importer.NewService(ingestService, cfg.App.OwnerID, log)
		reconcileEngine = reconcile.NewEngine(store, reconcile.Config{
			PageSize:        cfg.Reconcile.PageSize,
			PageDelay:       cfg.Reconcile.PageDelay,
			DeleteBatchSize: cfg.Reconcile.DeleteBatchSize,
		}, reconcile.WithLogger(log))
	)

	router := txHttp.New(
		txHttp.Options{AuthSecret: cfg.Server.AuthSecret, CORSOrigins: cfg.Server.CORSOrigins},
		ingestHandler.NewHandler(importService),
		reconcileHandler.NewHandler(reconcileEngine, cfg.App.OwnerID),
	)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.Timeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown failed", "error", err)
		}
	}()

	log.Info("starting server", "app", cfg.App.Name, "addr", srv.Addr, "auth", cfg.Server.AuthSecret != "")

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server failed", "error", err)
		os.Exit(1)
	}
}
