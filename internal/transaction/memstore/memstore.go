// Package memstore is an in-memory transaction.Store. It enforces the same
// uniqueness constraint on the identity hash as the Postgres store.
package memstore

import (
	"context"
	"slices"
	"sync"

	"github.com/google/uuid"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

type Store struct {
	mu sync.Mutex

	bankOwners map[int64]string
	accounts   map[int64]transaction.Account

	txs        map[int64]transaction.Transaction
	byHash     map[uuid.UUID]int64
	categories []transaction.CategoryAssignment
	nextID     int64
}

func New() *Store {
	return &Store{
		bankOwners: make(map[int64]string),
		accounts:   make(map[int64]transaction.Account),
		txs:        make(map[int64]transaction.Transaction),
		byHash:     make(map[uuid.UUID]int64),
	}
}

// AddBank registers a bank owned by owner.
func (s *Store) AddBank(id int64, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bankOwners[id] = owner
}

func (s *Store) AddAccount(a transaction.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[a.ID] = a
}

// Transactions returns a snapshot ordered by server id.
func (s *Store) Transactions() []transaction.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]transaction.Transaction, 0, len(s.txs))
	for _, id := range s.sortedIDs() {
		out = append(out, s.txs[id])
	}

	return out
}

func (s *Store) Categories() []transaction.CategoryAssignment {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.categories)
}

func (s *Store) GetAccount(_ context.Context, id int64) (*transaction.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, transaction.ErrAccountNotFound
	}

	return &a, nil
}

func (s *Store) LookupExisting(_ context.Context, hashes []uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found []uuid.UUID

	for _, h := range hashes {
		if _, ok := s.byHash[h]; ok {
			found = append(found, h)
		}
	}

	return found, nil
}

func (s *Store) InsertTransactions(_ context.Context, txs []*transaction.Transaction) ([]transaction.Inserted, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var inserted []transaction.Inserted

	for _, tx := range txs {
		if _, dup := s.byHash[tx.Hash]; dup {
			continue
		}

		s.nextID++
		row := *tx
		row.ID = s.nextID
		s.txs[row.ID] = row
		s.byHash[row.Hash] = row.ID

		inserted = append(inserted, transaction.Inserted{ID: row.ID, Hash: row.Hash})
	}

	return inserted, nil
}

func (s *Store) InsertCategoryAssignments(_ context.Context, rows []transaction.CategoryAssignment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = append(s.categories, rows...)

	return nil
}

func (s *Store) CountTransactions(_ context.Context, filter transaction.Filter) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0

	for _, tx := range s.txs {
		if s.matches(tx, filter) {
			n++
		}
	}

	return n, nil
}

func (s *Store) ListTransactionIDs(_ context.Context, filter transaction.Filter, page, pageSize int) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int64

	for _, id := range s.sortedIDs() {
		if s.matches(s.txs[id], filter) {
			ids = append(ids, id)
		}
	}

	start := page * pageSize
	if start >= len(ids) {
		return nil, nil
	}

	end := min(start+pageSize, len(ids))

	return ids[start:end], nil
}

func (s *Store) DeleteCategoryAssignments(_ context.Context, transactionIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.categories = slices.DeleteFunc(s.categories, func(c transaction.CategoryAssignment) bool {
		return slices.Contains(transactionIDs, c.TransactionID)
	})

	return nil
}

func (s *Store) DeleteTransactions(_ context.Context, filter transaction.Filter) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, tx := range s.txs {
		if !s.matches(tx, filter) {
			continue
		}

		delete(s.byHash, tx.Hash)
		delete(s.txs, id)
	}

	return nil
}

func (s *Store) DeleteTransactionsByID(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		if tx, ok := s.txs[id]; ok {
			delete(s.byHash, tx.Hash)
			delete(s.txs, id)
		}
	}

	return nil
}

func (s *Store) matches(tx transaction.Transaction, filter transaction.Filter) bool {
	acc, ok := s.accounts[tx.AccountID]
	if !ok || s.bankOwners[acc.BankID] != filter.Owner {
		return false
	}

	if len(filter.AccountIDs) > 0 && !slices.Contains(filter.AccountIDs, tx.AccountID) {
		return false
	}

	if filter.Range != nil && !filter.Range.Contains(tx.OperationDate) {
		return false
	}

	return true
}

func (s *Store) sortedIDs() []int64 {
	ids := make([]int64, 0, len(s.txs))
	for id := range s.txs {
		ids = append(ids, id)
	}

	slices.Sort(ids)

	return ids
}
