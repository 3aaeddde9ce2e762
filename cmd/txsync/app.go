package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/MrJamesThe3rd/txsync/internal/config"
	"github.com/MrJamesThe3rd/txsync/internal/database"
	"github.com/MrJamesThe3rd/txsync/internal/importer"
	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
	txStore "github.com/MrJamesThe3rd/txsync/internal/transaction/store"
)

// app carries what the subcommands share. Config and the store are resolved
// lazily so commands like formats work without a database.
type app struct {
	out io.Writer
	in  io.Reader

	cfg       *config.Config
	log       *slog.Logger
	openStore func(ctx context.Context, cfg *config.Config) (transaction.Store, func() error, error)
	sleep     func(ctx context.Context, d time.Duration) error
}

func newApp(out io.Writer, in io.Reader) *app {
	return &app{out: out, in: in, openStore: openPostgres}
}

func openPostgres(ctx context.Context, cfg *config.Config) (transaction.Store, func() error, error) {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, nil, err
	}

	if err := database.Migrate(ctx, db); err != nil {
		db.Close()
		return nil, nil, err
	}

	return txStore.New(db), db.Close, nil
}

func (a *app) config() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	a.cfg = cfg
	if a.log == nil {
		a.log = cfg.Logger(os.Stderr)
	}

	return cfg, nil
}

func (a *app) logger() *slog.Logger {
	if a.log == nil {
		return slog.Default()
	}

	return a.log
}

// withStore opens the configured store for the duration of fn.
func (a *app) withStore(ctx context.Context, fn func(cfg *config.Config, store transaction.Store) error) error {
	cfg, err := a.config()
	if err != nil {
		return err
	}

	store, closeFn, err := a.openStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening store: %w", err)
	}
	defer closeFn()

	return fn(cfg, store)
}

func (a *app) importService(cfg *config.Config, store transaction.Store) *importer.Service {
	svc := ingest.NewService(store, ingest.Config{
		CategoryID:    cfg.Ingest.CategoryID,
		SubcategoryID: cfg.Ingest.SubcategoryID,
		LookupWindow:  cfg.Ingest.LookupWindow,
		ChunkSize:     cfg.Ingest.ChunkSize,
	}, ingest.WithLogger(a.logger()))

	return importer.NewService(svc, cfg.App.OwnerID, a.logger())
}

func (a *app) reconcileEngine(cfg *config.Config, store transaction.Store) *reconcile.Engine {
	opts := []reconcile.Option{reconcile.WithLogger(a.logger())}
	if a.sleep != nil {
		opts = append(opts, reconcile.WithSleep(a.sleep))
	}

	return reconcile.NewEngine(store, reconcile.Config{
		PageSize:        cfg.Reconcile.PageSize,
		PageDelay:       cfg.Reconcile.PageDelay,
		DeleteBatchSize: cfg.Reconcile.DeleteBatchSize,
	}, opts...)
}
