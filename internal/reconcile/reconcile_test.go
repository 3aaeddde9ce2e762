package reconcile_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/reconcile"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
	"github.com/MrJamesThe3rd/txsync/internal/transaction/memstore"
)

var errBoom = errors.New("connection reset")

func day(d int) time.Time {
	return time.Date(2024, 3, d, 0, 0, 0, 0, time.UTC)
}

func noSleep(calls *int) reconcile.Option {
	return reconcile.WithSleep(func(ctx context.Context, _ time.Duration) error {
		if calls != nil {
			*calls++
		}

		return ctx.Err()
	})
}

func seeded(t *testing.T) *memstore.Store {
	t.Helper()

	store := memstore.New()
	store.AddBank(7, "U1")
	store.AddBank(9, "U2")
	store.AddAccount(transaction.Account{ID: 42, BankID: 7})
	store.AddAccount(transaction.Account{ID: 44, BankID: 7})
	store.AddAccount(transaction.Account{ID: 50, BankID: 9})

	svc := ingest.NewService(store, ingest.Config{CategoryID: 1, SubcategoryID: 1})

	seed := func(owner string, account, bank int64, days ...int) {
		var records []transaction.RawTransaction
		for _, d := range days {
			records = append(records, transaction.RawTransaction{
				Date:        day(d),
				Description: "SUPERMARKET",
				Amount:      decimal.RequireFromString("-45.30"),
			})
		}

		_, err := svc.Ingest(context.Background(), ingest.Request{
			Records: records, Owner: owner, AccountID: account, BankID: bank,
		})
		require.NoError(t, err)
	}

	seed("U1", 42, 7, 1, 1, 2, 5)
	seed("U1", 44, 7, 1, 3)
	seed("U2", 50, 9, 1)

	return store
}

func TestReconcile_Scenario(t *testing.T) {
	store := seeded(t)
	engine := reconcile.NewEngine(store, reconcile.Config{}, noSleep(nil))

	filter := transaction.Filter{
		Owner:      "U1",
		AccountIDs: []int64{42},
		Range:      &transaction.DateRange{From: day(1), To: day(2)},
	}

	res, err := engine.Reconcile(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Matched)

	left, err := store.CountTransactions(context.Background(), filter)
	require.NoError(t, err)
	assert.Zero(t, left)

	// Day 2 and day 5 stay, as do the other accounts.
	assert.Len(t, store.Transactions(), 5)
	assert.Len(t, store.Categories(), 5)
}

func TestReconcile_AllOwnerAccounts(t *testing.T) {
	store := seeded(t)
	engine := reconcile.NewEngine(store, reconcile.Config{PageSize: 2, DeleteBatchSize: 2}, noSleep(nil))

	res, err := engine.Reconcile(context.Background(), transaction.Filter{Owner: "U1"})
	require.NoError(t, err)
	assert.Equal(t, 5, res.Matched)
	assert.Equal(t, 3, res.DeleteBatches)

	txs := store.Transactions()
	require.Len(t, txs, 1)
	assert.Equal(t, int64(50), txs[0].AccountID)
	assert.Len(t, store.Categories(), 1)
}

func TestReconcile_NothingToDelete(t *testing.T) {
	store := seeded(t)
	engine := reconcile.NewEngine(store, reconcile.Config{}, noSleep(nil))

	res, err := engine.Reconcile(context.Background(), transaction.Filter{
		Owner: "U1",
		Range: &transaction.DateRange{From: day(20), To: day(25)},
	})
	require.NoError(t, err)
	assert.Zero(t, res.Matched)
	assert.Len(t, store.Transactions(), 6)
}

func TestReconcile_PaginatesUntilShortPage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	filter := transaction.Filter{Owner: "U1", AccountIDs: []int64{42}}

	gomock.InOrder(
		store.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, 3).Return([]int64{1, 2, 3}, nil),
		store.EXPECT().ListTransactionIDs(gomock.Any(), filter, 1, 3).Return([]int64{4, 5, 6}, nil),
		store.EXPECT().ListTransactionIDs(gomock.Any(), filter, 2, 3).Return(nil, nil),
		store.EXPECT().DeleteCategoryAssignments(gomock.Any(), []int64{1, 2, 3, 4}).Return(nil),
		store.EXPECT().DeleteCategoryAssignments(gomock.Any(), []int64{5, 6}).Return(nil),
		store.EXPECT().DeleteTransactions(gomock.Any(), filter).Return(nil),
		store.EXPECT().CountTransactions(gomock.Any(), filter).Return(0, nil),
	)

	sleeps := 0
	engine := reconcile.NewEngine(store, reconcile.Config{PageSize: 3, DeleteBatchSize: 4}, noSleep(&sleeps))

	res, err := engine.Reconcile(context.Background(), filter)
	require.NoError(t, err)
	assert.Equal(t, &reconcile.Result{Matched: 6, DeleteBatches: 2}, res)
	assert.Equal(t, 3, sleeps, "two page waits and one batch wait")
}

func TestReconcile_PartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	filter := transaction.Filter{Owner: "U1"}

	store.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, gomock.Any()).Return([]int64{1, 2}, nil)
	store.EXPECT().DeleteCategoryAssignments(gomock.Any(), []int64{1, 2}).Return(nil)
	store.EXPECT().DeleteTransactions(gomock.Any(), filter).Return(nil)
	store.EXPECT().CountTransactions(gomock.Any(), filter).Return(1, nil)

	engine := reconcile.NewEngine(store, reconcile.Config{}, noSleep(nil))

	res, err := engine.Reconcile(context.Background(), filter)
	require.Error(t, err)
	assert.ErrorIs(t, err, transaction.ErrPartialReconciliation)

	var perr *transaction.PartialReconciliationError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 1, perr.Remaining)
	assert.Equal(t, 2, res.Matched)
}

func TestReconcile_StoreFailures(t *testing.T) {
	filter := transaction.Filter{Owner: "U1"}

	type testCase struct {
		name      string
		setupMock func(m *transaction.MockStore)
	}

	tests := []testCase{
		{
			name: "ListFails",
			setupMock: func(m *transaction.MockStore) {
				m.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, gomock.Any()).Return(nil, errBoom)
			},
		},
		{
			name: "CategoryDeleteFails",
			setupMock: func(m *transaction.MockStore) {
				m.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, gomock.Any()).Return([]int64{1}, nil)
				m.EXPECT().DeleteCategoryAssignments(gomock.Any(), []int64{1}).Return(errBoom)
			},
		},
		{
			name: "TransactionDeleteFails",
			setupMock: func(m *transaction.MockStore) {
				m.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, gomock.Any()).Return([]int64{1}, nil)
				m.EXPECT().DeleteCategoryAssignments(gomock.Any(), []int64{1}).Return(nil)
				m.EXPECT().DeleteTransactions(gomock.Any(), filter).Return(errBoom)
			},
		},
		{
			name: "VerifyFails",
			setupMock: func(m *transaction.MockStore) {
				m.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, gomock.Any()).Return(nil, nil)
				m.EXPECT().CountTransactions(gomock.Any(), filter).Return(0, errBoom)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := transaction.NewMockStore(ctrl)
			tt.setupMock(store)

			_, err := reconcile.NewEngine(store, reconcile.Config{}, noSleep(nil)).
				Reconcile(context.Background(), filter)
			assert.ErrorIs(t, err, errBoom)
		})
	}
}

func TestReconcile_RejectsBadInput(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	engine := reconcile.NewEngine(transaction.NewMockStore(ctrl), reconcile.Config{})

	_, err := engine.Reconcile(context.Background(), transaction.Filter{
		Owner: "U1",
		Range: &transaction.DateRange{From: day(2), To: day(2)},
	})
	assert.ErrorIs(t, err, transaction.ErrInvalidRange)

	_, err = engine.Reconcile(context.Background(), transaction.Filter{})
	assert.Error(t, err)
}

func TestReconcile_CancelledBetweenPages(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := transaction.NewMockStore(ctrl)
	filter := transaction.Filter{Owner: "U1"}

	ctx, cancel := context.WithCancel(context.Background())

	store.EXPECT().ListTransactionIDs(gomock.Any(), filter, 0, 2).
		DoAndReturn(func(context.Context, transaction.Filter, int, int) ([]int64, error) {
			cancel()
			return []int64{1, 2}, nil
		})

	engine := reconcile.NewEngine(store, reconcile.Config{PageSize: 2, PageDelay: time.Hour})

	_, err := engine.Reconcile(ctx, filter)
	assert.ErrorIs(t, err, context.Canceled)
}
