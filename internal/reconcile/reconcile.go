// Package reconcile removes previously ingested transactions, and their
// category rows, for an owner and optional date range, then verifies that
// nothing matching is left behind.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

const (
	DefaultPageSize        = 1000
	DefaultPageDelay       = 500 * time.Millisecond
	DefaultDeleteBatchSize = 100
)

var errNoOwner = errors.New("owner is required")

type Config struct {
	PageSize        int
	PageDelay       time.Duration
	DeleteBatchSize int
}

type Option func(*Engine)

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithSleep replaces the inter-page wait.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(e *Engine) { e.sleep = sleep }
}

type Engine struct {
	store transaction.Store
	cfg   Config
	log   *slog.Logger
	sleep func(ctx context.Context, d time.Duration) error
}

func NewEngine(store transaction.Store, cfg Config, opts ...Option) *Engine {
	if cfg.PageSize <= 0 {
		cfg.PageSize = DefaultPageSize
	}

	if cfg.PageDelay < 0 {
		cfg.PageDelay = 0
	}

	if cfg.DeleteBatchSize <= 0 {
		cfg.DeleteBatchSize = DefaultDeleteBatchSize
	}

	e := &Engine{
		store: store,
		cfg:   cfg,
		log:   slog.Default(),
		sleep: sleepContext,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

type Result struct {
	Matched       int // transactions enumerated before deletion
	DeleteBatches int // category delete calls issued
}

// Reconcile enumerates matching transaction ids page by page, deletes their
// category rows in bounded batches, deletes the transactions with one
// set-based call and re-counts. A non-zero count afterwards is reported as a
// *transaction.PartialReconciliationError.
func (e *Engine) Reconcile(ctx context.Context, filter transaction.Filter) (*Result, error) {
	if filter.Owner == "" {
		return nil, errNoOwner
	}

	if filter.Range != nil {
		if err := filter.Range.Validate(); err != nil {
			return nil, err
		}
	}

	log := e.log.With("owner", filter.Owner, "accounts", filter.AccountIDs)
	if filter.Range != nil {
		log = log.With("from", filter.Range.From, "to", filter.Range.To)
	}

	ids, err := e.listIDs(ctx, filter)
	if err != nil {
		return nil, err
	}

	res := &Result{Matched: len(ids)}
	log.Info("transactions to delete", "count", len(ids))

	if len(ids) > 0 {
		batches, err := e.deleteCategories(ctx, ids, log)
		res.DeleteBatches = batches

		if err != nil {
			return res, err
		}

		if err := e.store.DeleteTransactions(ctx, filter); err != nil {
			return res, fmt.Errorf("deleting transactions: %w", err)
		}
	}

	remaining, err := e.store.CountTransactions(ctx, filter)
	if err != nil {
		return res, fmt.Errorf("verifying deletion: %w", err)
	}

	if remaining > 0 {
		log.Error("transactions remain after deletion", "remaining", remaining)
		return res, &transaction.PartialReconciliationError{Remaining: remaining}
	}

	log.Info("reconciliation complete", "deleted", len(ids))

	return res, nil
}

// listIDs pages until a short page; it never trusts a total count.
func (e *Engine) listIDs(ctx context.Context, filter transaction.Filter) ([]int64, error) {
	var ids []int64

	for page := 0; ; page++ {
		if page > 0 {
			if err := e.sleep(ctx, e.cfg.PageDelay); err != nil {
				return nil, err
			}
		}

		got, err := e.store.ListTransactionIDs(ctx, filter, page, e.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("listing transaction ids (page %d): %w", page, err)
		}

		ids = append(ids, got...)

		if len(got) < e.cfg.PageSize {
			return ids, nil
		}
	}
}

func (e *Engine) deleteCategories(ctx context.Context, ids []int64, log *slog.Logger) (int, error) {
	batches := 0
	deleted := 0

	for batch := range slices.Chunk(ids, e.cfg.DeleteBatchSize) {
		if batches > 0 {
			if err := e.sleep(ctx, e.cfg.PageDelay); err != nil {
				return batches, err
			}
		}

		if err := e.store.DeleteCategoryAssignments(ctx, batch); err != nil {
			return batches, fmt.Errorf("deleting category rows: %w", err)
		}

		batches++
		deleted += len(batch)
		log.Debug("deleted category rows", "batch", len(batch), "total", deleted)
	}

	return batches, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
