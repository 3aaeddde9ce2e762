package ingest

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// DefaultChunkSize bounds how many rows a single failed insert can take down.
const DefaultChunkSize = 10

type Config struct {
	CategoryID    int64
	SubcategoryID int64
	LookupWindow  int
	ChunkSize     int
}

type Option func(*Service)

func WithLogger(log *slog.Logger) Option {
	return func(s *Service) { s.log = log }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs idempotent ingestion of raw records into the store.
type Service struct {
	store    transaction.Store
	cfg      Config
	resolver *AccountResolver
	batcher  *Batcher
	log      *slog.Logger
	now      func() time.Time
}

func NewService(store transaction.Store, cfg Config, opts ...Option) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = DefaultChunkSize
	}

	s := &Service{
		store:    store,
		cfg:      cfg,
		resolver: NewAccountResolver(store),
		log:      slog.Default(),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	s.batcher = NewBatcher(store, cfg.LookupWindow, s.log)

	return s
}

type Request struct {
	Records   []transaction.RawTransaction
	Owner     string
	AccountID int64
	BankID    int64
}

// Summary counts what happened to every attempted record.
type Summary struct {
	Attempted int
	Inserted  int
	Skipped   int // already stored, repeated within the run, or coalesced by the store
	Failed    int // lost to store failures; a re-run picks them up
	Malformed int
	// CategoryFailed counts inserted transactions whose category row could
	// not be written and that could not be removed again either.
	CategoryFailed int
}

// Ingest verifies the account, canonicalizes and sorts the records, skips
// known identities and writes the rest chunk by chunk together with their
// default category rows. Account errors abort the run before any write;
// store failures during writes only show up in the summary counts.
func (s *Service) Ingest(ctx context.Context, req Request) (*Summary, error) {
	log := s.log.With("owner", req.Owner, "account_id", req.AccountID)

	account, err := s.resolver.Resolve(ctx, req.AccountID, req.BankID)
	if err != nil {
		return nil, err
	}

	sum := &Summary{Attempted: len(req.Records)}

	txs := s.normalize(req, account.ID, sum, log)

	slices.SortStableFunc(txs, func(a, b *transaction.Transaction) int {
		return a.OperationDate.Compare(b.OperationDate)
	})

	hashes := make([]uuid.UUID, len(txs))
	for i, tx := range txs {
		hashes[i] = tx.Hash
	}

	existing, err := s.batcher.Existing(ctx, hashes)
	if err != nil {
		return sum, err
	}

	pending := make([]*transaction.Transaction, 0, len(txs))
	seen := make(map[uuid.UUID]bool, len(txs))

	for _, tx := range txs {
		if existing[tx.Hash] || seen[tx.Hash] {
			sum.Skipped++
			continue
		}

		seen[tx.Hash] = true
		pending = append(pending, tx)
	}

	log.Info("dedup check complete", "candidates", len(txs), "existing", len(txs)-len(pending))

	for chunk := range slices.Chunk(pending, s.cfg.ChunkSize) {
		if err := ctx.Err(); err != nil {
			return sum, err
		}

		s.writeChunk(ctx, chunk, sum, log)
	}

	log.Info("ingestion complete",
		"attempted", sum.Attempted,
		"inserted", sum.Inserted,
		"skipped", sum.Skipped,
		"failed", sum.Failed,
		"malformed", sum.Malformed,
		"category_failed", sum.CategoryFailed,
	)

	return sum, nil
}

func (s *Service) normalize(req Request, accountID int64, sum *Summary, log *slog.Logger) []*transaction.Transaction {
	canon := transaction.NewCanonicalizer(req.Owner).WithClock(s.now)
	txs := make([]*transaction.Transaction, 0, len(req.Records))

	for _, raw := range req.Records {
		tx, err := canon.Canonicalize(raw, accountID)
		if err != nil {
			sum.Malformed++
			log.Warn("skipping malformed record", "line", raw.Line, "error", err)

			continue
		}

		txs = append(txs, tx)
	}

	return txs
}

func (s *Service) writeChunk(ctx context.Context, chunk []*transaction.Transaction, sum *Summary, log *slog.Logger) {
	inserted, err := s.store.InsertTransactions(ctx, chunk)

	failed := 0

	switch {
	case errors.Is(err, transaction.ErrDuplicateIdentity):
		inserted, failed = s.insertEach(ctx, chunk, log)
	case err != nil:
		log.Warn("chunk insert failed", "size", len(chunk), "error", err)
		sum.Failed += len(chunk)

		return
	}

	// Rows without a server id were coalesced by the store.
	inserted = slices.DeleteFunc(inserted, func(in transaction.Inserted) bool { return in.ID == 0 })

	sum.Inserted += len(inserted)
	sum.Failed += failed
	sum.Skipped += len(chunk) - len(inserted) - failed

	rows := s.categoryRows(chunk, inserted)
	if len(rows) == 0 {
		return
	}

	if err := s.store.InsertCategoryAssignments(ctx, rows); err != nil {
		log.Warn("category insert failed, removing its transactions", "size", len(rows), "error", err)
		s.undoInsert(ctx, rows, sum, log)
	}
}

// undoInsert deletes transactions whose category rows were lost so the next
// run sees them as new and writes both again. When the delete fails too the
// transactions stay stored without a category.
func (s *Service) undoInsert(ctx context.Context, rows []transaction.CategoryAssignment, sum *Summary, log *slog.Logger) {
	ids := make([]int64, len(rows))
	for i, r := range rows {
		ids[i] = r.TransactionID
	}

	if err := s.store.DeleteTransactionsByID(ctx, ids); err != nil {
		log.Error("transactions left without category", "ids", ids, "error", err)
		sum.CategoryFailed += len(rows)

		return
	}

	sum.Inserted -= len(rows)
	sum.Failed += len(rows)
}

// insertEach retries a rejected chunk record by record so one duplicate does
// not take its neighbours down.
func (s *Service) insertEach(ctx context.Context, chunk []*transaction.Transaction, log *slog.Logger) ([]transaction.Inserted, int) {
	var inserted []transaction.Inserted

	failed := 0

	for _, tx := range chunk {
		got, err := s.store.InsertTransactions(ctx, []*transaction.Transaction{tx})
		switch {
		case errors.Is(err, transaction.ErrDuplicateIdentity):
		case err != nil:
			log.Warn("record insert failed", "hash", tx.Hash, "error", err)
			failed++
		default:
			inserted = append(inserted, got...)
		}
	}

	return inserted, failed
}

func (s *Service) categoryRows(chunk []*transaction.Transaction, inserted []transaction.Inserted) []transaction.CategoryAssignment {
	byHash := make(map[uuid.UUID]*transaction.Transaction, len(chunk))
	for _, tx := range chunk {
		byHash[tx.Hash] = tx
	}

	rows := make([]transaction.CategoryAssignment, 0, len(inserted))

	for _, in := range inserted {
		tx, ok := byHash[in.Hash]
		if !ok {
			continue
		}

		tx.ID = in.ID
		rows = append(rows, transaction.CategoryAssignment{
			TransactionID: in.ID,
			CategoryID:    s.cfg.CategoryID,
			SubcategoryID: s.cfg.SubcategoryID,
			Amount:        tx.Amount,
		})
	}

	return rows
}
