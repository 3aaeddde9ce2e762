package ingest

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// DefaultLookupWindow keeps lookup requests well under transport limits.
const DefaultLookupWindow = 100

// Batcher asks the store which identity hashes already exist, one bounded
// window at a time.
type Batcher struct {
	store  transaction.Store
	window int
	log    *slog.Logger
}

func NewBatcher(store transaction.Store, window int, log *slog.Logger) *Batcher {
	if window <= 0 {
		window = DefaultLookupWindow
	}

	if log == nil {
		log = slog.Default()
	}

	return &Batcher{store: store, window: window, log: log}
}

// Existing reports which hashes are already stored. A window whose lookup
// fails is treated as containing no existing hashes; the uniqueness
// constraint rejects real duplicates at insert time. The only error returned
// is the context's, checked between windows.
func (b *Batcher) Existing(ctx context.Context, hashes []uuid.UUID) (map[uuid.UUID]bool, error) {
	existing := make(map[uuid.UUID]bool, len(hashes))

	for start := 0; start < len(hashes); start += b.window {
		if err := ctx.Err(); err != nil {
			return existing, err
		}

		end := min(start+b.window, len(hashes))

		found, err := b.store.LookupExisting(ctx, hashes[start:end])
		if err != nil {
			b.log.Warn("hash lookup failed, assuming none exist",
				"window", start/b.window, "size", end-start, "error", err)

			continue
		}

		for _, h := range found {
			existing[h] = true
		}
	}

	return existing, nil
}
