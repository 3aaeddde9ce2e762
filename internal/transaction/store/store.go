package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

const pgUniqueViolation = "23505"

// Store implements transaction.Store on PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// classify marks integrity violations as duplicates and everything else the
// server or transport reports as transient.
func classify(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("%s: %w: %w", op, transaction.ErrDuplicateIdentity, err)
		}

		if strings.HasPrefix(pgErr.Code, "23") {
			return fmt.Errorf("%s: %w", op, err)
		}
	}

	return fmt.Errorf("%s: %w: %w", op, transaction.ErrTransientStore, err)
}

func (s *Store) GetAccount(ctx context.Context, id int64) (*transaction.Account, error) {
	query := `SELECT id, bank_id, account_number, account_type FROM accounts WHERE id = $1`

	var (
		acc     transaction.Account
		accType string
	)

	err := s.db.QueryRowContext(ctx, query, id).Scan(&acc.ID, &acc.BankID, &acc.AccountNumber, &accType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, transaction.ErrAccountNotFound
		}

		return nil, classify("getting account", err)
	}

	acc.Type = transaction.AccountType(accType)

	return &acc, nil
}

func (s *Store) LookupExisting(ctx context.Context, hashes []uuid.UUID) ([]uuid.UUID, error) {
	if len(hashes) == 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT uuid FROM transactions WHERE uuid = ANY($1::uuid[])`, uuidStrings(hashes))
	if err != nil {
		return nil, classify("looking up hashes", err)
	}
	defer rows.Close()

	var found []uuid.UUID

	for rows.Next() {
		var h uuid.UUID
		if err := rows.Scan(&h); err != nil {
			return nil, fmt.Errorf("scanning hash: %w", err)
		}

		found = append(found, h)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("iterating hashes", err)
	}

	return found, nil
}

// InsertTransactions writes all rows in one statement. Conflicting hashes are
// dropped by the server and simply absent from the result.
func (s *Store) InsertTransactions(ctx context.Context, txs []*transaction.Transaction) ([]transaction.Inserted, error) {
	if len(txs) == 0 {
		return nil, nil
	}

	const cols = 7

	var (
		sb   strings.Builder
		args = make([]any, 0, len(txs)*cols)
	)

	sb.WriteString(`INSERT INTO transactions
		(uuid, account_id, operation_date, value_date, inserted_at, description, user_description)
		VALUES `)

	for i, tx := range txs {
		if i > 0 {
			sb.WriteString(", ")
		}

		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, NULLIF($%d, ''))",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7)

		args = append(args,
			tx.Hash.String(),
			tx.AccountID,
			tx.OperationDate,
			tx.ValueDate,
			tx.InsertedAt,
			tx.Description,
			tx.UserNote,
		)
	}

	sb.WriteString(` ON CONFLICT (uuid) DO NOTHING RETURNING id, uuid`)

	rows, err := s.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, classify("inserting transactions", err)
	}
	defer rows.Close()

	var inserted []transaction.Inserted

	for rows.Next() {
		var in transaction.Inserted
		if err := rows.Scan(&in.ID, &in.Hash); err != nil {
			return nil, fmt.Errorf("scanning inserted row: %w", err)
		}

		inserted = append(inserted, in)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("inserting transactions", err)
	}

	return inserted, nil
}

func (s *Store) InsertCategoryAssignments(ctx context.Context, rows []transaction.CategoryAssignment) error {
	if len(rows) == 0 {
		return nil
	}

	const cols = 4

	var (
		sb   strings.Builder
		args = make([]any, 0, len(rows)*cols)
	)

	sb.WriteString(`INSERT INTO transaction_categories (transaction_id, category_id, subcategory_id, amount) VALUES `)

	for i, r := range rows {
		if i > 0 {
			sb.WriteString(", ")
		}

		base := i * cols
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4)

		args = append(args, r.TransactionID, r.CategoryID, r.SubcategoryID, r.Amount)
	}

	if _, err := s.db.ExecContext(ctx, sb.String(), args...); err != nil {
		return classify("inserting category rows", err)
	}

	return nil
}

func (s *Store) DeleteTransactionsByID(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	if _, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ANY($1::bigint[])`, ids); err != nil {
		return classify("deleting transactions by id", err)
	}

	return nil
}

// filterClause renders the join and predicate selecting filter's transactions
// from alias t; it joins accounts a and banks b.
func filterClause(filter transaction.Filter) (string, []any) {
	where := []string{"a.id = t.account_id", "b.id = a.bank_id", "b.user_id = $1"}
	args := []any{filter.Owner}

	if len(filter.AccountIDs) > 0 {
		args = append(args, filter.AccountIDs)
		where = append(where, fmt.Sprintf("t.account_id = ANY($%d::bigint[])", len(args)))
	}

	if filter.Range != nil {
		args = append(args, filter.Range.From)
		where = append(where, fmt.Sprintf("t.operation_date >= $%d", len(args)))

		args = append(args, filter.Range.To)
		where = append(where, fmt.Sprintf("t.operation_date < $%d", len(args)))
	}

	return strings.Join(where, " AND "), args
}

func (s *Store) CountTransactions(ctx context.Context, filter transaction.Filter) (int, error) {
	where, args := filterClause(filter)
	query := `SELECT COUNT(*) FROM transactions t, accounts a, banks b WHERE ` + where

	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, classify("counting transactions", err)
	}

	return n, nil
}

func (s *Store) ListTransactionIDs(ctx context.Context, filter transaction.Filter, page, pageSize int) ([]int64, error) {
	where, args := filterClause(filter)
	args = append(args, pageSize, page*pageSize)

	query := fmt.Sprintf(`SELECT t.id FROM transactions t, accounts a, banks b WHERE %s
		ORDER BY t.id LIMIT $%d OFFSET $%d`, where, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, classify("listing transaction ids", err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning transaction id: %w", err)
		}

		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, classify("listing transaction ids", err)
	}

	return ids, nil
}

func (s *Store) DeleteCategoryAssignments(ctx context.Context, transactionIDs []int64) error {
	if len(transactionIDs) == 0 {
		return nil
	}

	_, err := s.db.ExecContext(ctx,
		`DELETE FROM transaction_categories WHERE transaction_id = ANY($1::bigint[])`, transactionIDs)
	if err != nil {
		return classify("deleting category rows", err)
	}

	return nil
}

func (s *Store) DeleteTransactions(ctx context.Context, filter transaction.Filter) error {
	where, args := filterClause(filter)

	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions t USING accounts a, banks b WHERE `+where, args...)
	if err != nil {
		return classify("deleting transactions", err)
	}

	return nil
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}

	return out
}
