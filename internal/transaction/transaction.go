package transaction

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountType distinguishes regular bank accounts from virtual cards.
type AccountType string

const (
	AccountTypeBank    AccountType = "bank_account"
	AccountTypeVirtual AccountType = "virtual_card"
)

// Account is an owner's account at a bank. Accounts are created out of band;
// ingestion only verifies them.
type Account struct {
	ID            int64
	BankID        int64
	AccountNumber string // display only
	Type          AccountType
}

// RawTransaction is a single movement as produced by a source adapter.
type RawTransaction struct {
	Date        time.Time
	Description string
	Amount      decimal.Decimal
	Balance     *decimal.Decimal
	Category    string // free-text hint, may be empty
	// Discriminator separates sub-accounts when one export covers several
	// cards or accounts.
	Discriminator string
	Line          int // source row, for error messages
}

// Transaction is the canonical, hash-identified form of a movement.
type Transaction struct {
	ID            int64 // server assigned, zero until inserted
	Hash          uuid.UUID
	AccountID     int64
	OperationDate time.Time
	ValueDate     time.Time
	Description   string
	Amount        decimal.Decimal
	InsertedAt    time.Time
	UserNote      string
}

// CategoryAssignment links an inserted transaction to its category.
type CategoryAssignment struct {
	TransactionID int64
	CategoryID    int64
	SubcategoryID int64
	Amount        decimal.Decimal
}

// Inserted is the store's echo for a transaction it actually wrote.
type Inserted struct {
	ID   int64
	Hash uuid.UUID
}

// DateRange is the half-open interval [From, To).
type DateRange struct {
	From time.Time
	To   time.Time
}

func (r DateRange) Validate() error {
	if !r.From.Before(r.To) {
		return ErrInvalidRange
	}

	return nil
}

// Contains reports whether t falls inside the range. Times compare by their
// wall clock, the way a TIMESTAMP column without time zone does.
func (r DateRange) Contains(t time.Time) bool {
	w := WallClock(t)

	return !w.Before(WallClock(r.From)) && w.Before(WallClock(r.To))
}

// WallClock drops t's location and keeps its reading.
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// Filter selects transactions by owner, accounts and date. An empty AccountIDs
// selects every account belonging to the owner.
type Filter struct {
	Owner      string
	AccountIDs []int64
	Range      *DateRange
}
