package ingest_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

var errBoom = errors.New("connection reset")

func expectAccount(m *transaction.MockStore) {
	m.EXPECT().GetAccount(gomock.Any(), accountID).
		Return(&transaction.Account{ID: accountID, BankID: bankID}, nil)
}

// echo inserts every record with sequential ids starting at next.
func echo(next *int64) func(context.Context, []*transaction.Transaction) ([]transaction.Inserted, error) {
	return func(_ context.Context, txs []*transaction.Transaction) ([]transaction.Inserted, error) {
		out := make([]transaction.Inserted, len(txs))
		for i, tx := range txs {
			*next++
			out[i] = transaction.Inserted{ID: *next, Hash: tx.Hash}
		}

		return out, nil
	}
}

func TestIngest_LookupFailureAssumesNew(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	expectAccount(store)

	store.EXPECT().LookupExisting(gomock.Any(), gomock.Any()).Return(nil, errBoom)

	var next int64

	store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(2)).DoAndReturn(echo(&next))
	store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Len(2)).Return(nil)

	svc := ingest.NewService(store, ingest.Config{ChunkSize: 10})

	sum, err := svc.Ingest(context.Background(), request(batch(2)))
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Inserted)
}

func TestIngest_FailedChunkDoesNotStopRun(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	expectAccount(store)

	store.EXPECT().LookupExisting(gomock.Any(), gomock.Any()).Return(nil, nil)

	var next int64

	gomock.InOrder(
		store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(2)).DoAndReturn(echo(&next)),
		store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Len(2)).Return(nil),
		store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(2)).Return(nil, errBoom),
		store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(1)).DoAndReturn(echo(&next)),
		store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Len(1)).Return(nil),
	)

	svc := ingest.NewService(store, ingest.Config{ChunkSize: 2})

	sum, err := svc.Ingest(context.Background(), request(batch(5)))
	require.NoError(t, err)
	assert.Equal(t, &ingest.Summary{Attempted: 5, Inserted: 3, Failed: 2}, sum)
}

func TestIngest_DuplicateRejectionRetriesPerRecord(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	expectAccount(store)

	store.EXPECT().LookupExisting(gomock.Any(), gomock.Any()).Return(nil, nil)

	var next int64

	calls := 0

	gomock.InOrder(
		store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(3)).
			Return(nil, transaction.ErrDuplicateIdentity),
		store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(1)).Times(3).
			DoAndReturn(func(ctx context.Context, txs []*transaction.Transaction) ([]transaction.Inserted, error) {
				calls++
				switch calls {
				case 2:
					return nil, transaction.ErrDuplicateIdentity
				case 3:
					return nil, errBoom
				}

				return echo(&next)(ctx, txs)
			}),
		store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Len(1)).Return(nil),
	)

	svc := ingest.NewService(store, ingest.Config{ChunkSize: 3})

	sum, err := svc.Ingest(context.Background(), request(batch(3)))
	require.NoError(t, err)
	assert.Equal(t, &ingest.Summary{Attempted: 3, Inserted: 1, Skipped: 1, Failed: 1}, sum)
}

func TestIngest_CoalescedRecordsGetNoCategory(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	expectAccount(store)

	store.EXPECT().LookupExisting(gomock.Any(), gomock.Any()).Return(nil, nil)

	store.EXPECT().InsertTransactions(gomock.Any(), gomock.Len(3)).
		DoAndReturn(func(_ context.Context, txs []*transaction.Transaction) ([]transaction.Inserted, error) {
			return []transaction.Inserted{
				{ID: 11, Hash: txs[0].Hash},
				{ID: 0, Hash: txs[1].Hash},
			}, nil
		})

	store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, rows []transaction.CategoryAssignment) error {
			require.Len(t, rows, 1)
			assert.Equal(t, int64(11), rows[0].TransactionID)

			return nil
		})

	svc := ingest.NewService(store, ingest.Config{ChunkSize: 3})

	sum, err := svc.Ingest(context.Background(), request(batch(3)))
	require.NoError(t, err)
	assert.Equal(t, &ingest.Summary{Attempted: 3, Inserted: 1, Skipped: 2}, sum)
}

func TestIngest_CategoryFailureRemovesTransactions(t *testing.T) {
	type testCase struct {
		name      string
		deleteErr error
		want      *ingest.Summary
		wantLog   string
	}

	tests := []testCase{
		{
			name:    "Removed",
			want:    &ingest.Summary{Attempted: 2, Failed: 2},
			wantLog: "failed=2 malformed=0 category_failed=0",
		},
		{
			name:      "RemoveFails",
			deleteErr: errBoom,
			want:      &ingest.Summary{Attempted: 2, Inserted: 2, CategoryFailed: 2},
			wantLog:   "category_failed=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := transaction.NewMockStore(ctrl)
			expectAccount(store)

			store.EXPECT().LookupExisting(gomock.Any(), gomock.Any()).Return(nil, nil)

			var next int64

			gomock.InOrder(
				store.EXPECT().InsertTransactions(gomock.Any(), gomock.Any()).DoAndReturn(echo(&next)),
				store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Any()).Return(errBoom),
				store.EXPECT().DeleteTransactionsByID(gomock.Any(), []int64{1, 2}).Return(tt.deleteErr),
			)

			var logs bytes.Buffer

			svc := ingest.NewService(store, ingest.Config{}, ingest.WithLogger(slog.New(slog.NewTextHandler(&logs, nil))))

			sum, err := svc.Ingest(context.Background(), request(batch(2)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, sum)
			assert.Contains(t, logs.String(), tt.wantLog)
		})
	}
}

func TestIngest_SkipsKnownHashesBeforeWriting(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	expectAccount(store)

	records := batch(3)
	known := transaction.IdentityHash(owner, accountID, records[1])

	store.EXPECT().LookupExisting(gomock.Any(), gomock.Len(3)).Return([]uuid.UUID{known}, nil)

	var next int64

	store.EXPECT().InsertTransactions(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, txs []*transaction.Transaction) ([]transaction.Inserted, error) {
			for _, tx := range txs {
				assert.NotEqual(t, known, tx.Hash)
			}

			return echo(&next)(ctx, txs)
		})
	store.EXPECT().InsertCategoryAssignments(gomock.Any(), gomock.Len(2)).Return(nil)

	svc := ingest.NewService(store, ingest.Config{})

	sum, err := svc.Ingest(context.Background(), request(records))
	require.NoError(t, err)
	assert.Equal(t, &ingest.Summary{Attempted: 3, Inserted: 2, Skipped: 1}, sum)
}

func TestIngest_StoreErrorOnAccountLookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	store.EXPECT().GetAccount(gomock.Any(), accountID).Return(nil, errBoom)

	svc := ingest.NewService(store, ingest.Config{})

	_, err := svc.Ingest(context.Background(), request(batch(2)))
	require.Error(t, err)
	assert.ErrorIs(t, err, errBoom)
}
