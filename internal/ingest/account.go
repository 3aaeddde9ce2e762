package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// AccountResolver checks that an operator-supplied account id really belongs
// to the claimed bank before anything is written against it.
type AccountResolver struct {
	store transaction.Store
}

func NewAccountResolver(store transaction.Store) *AccountResolver {
	return &AccountResolver{store: store}
}

func (r *AccountResolver) Resolve(ctx context.Context, accountID, bankID int64) (*transaction.Account, error) {
	acc, err := r.store.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, transaction.ErrAccountNotFound) {
			return nil, fmt.Errorf("account %d: %w", accountID, transaction.ErrAccountNotFound)
		}

		return nil, fmt.Errorf("getting account %d: %w", accountID, err)
	}

	if acc == nil {
		return nil, fmt.Errorf("account %d: %w", accountID, transaction.ErrAccountNotFound)
	}

	if acc.BankID != bankID {
		return nil, fmt.Errorf("account %d is registered under bank %d, not %d: %w",
			accountID, acc.BankID, bankID, transaction.ErrAccountBankMismatch)
	}

	return acc, nil
}
