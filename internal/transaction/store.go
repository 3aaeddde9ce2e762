package transaction

import (
	"context"

	"github.com/google/uuid"
)

// Store is the persistence contract of the ingestion and reconciliation core.
//
// InsertTransactions may succeed partially: records whose hash already exists
// are left out of the returned slice rather than failing the call. Stores that
// cannot do that return ErrDuplicateIdentity for the whole call.
//
// DeleteTransactionsByID removes rows just written whose category rows could
// not be stored, so a later run writes both again.
//
//go:generate mockgen -source=store.go -destination=store_mock.go -package=transaction
type Store interface {
	GetAccount(ctx context.Context, id int64) (*Account, error)
	LookupExisting(ctx context.Context, hashes []uuid.UUID) ([]uuid.UUID, error)
	InsertTransactions(ctx context.Context, txs []*Transaction) ([]Inserted, error)
	InsertCategoryAssignments(ctx context.Context, rows []CategoryAssignment) error
	DeleteTransactionsByID(ctx context.Context, ids []int64) error

	CountTransactions(ctx context.Context, filter Filter) (int, error)
	ListTransactionIDs(ctx context.Context, filter Filter, page, pageSize int) ([]int64, error)
	DeleteCategoryAssignments(ctx context.Context, transactionIDs []int64) error
	DeleteTransactions(ctx context.Context, filter Filter) error
}
