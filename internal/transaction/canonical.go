package transaction

import (
	"crypto/sha256"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NoDescription replaces empty descriptions.
const NoDescription = "no description"

// DateLayout is the date rendering used as identity hash input.
const DateLayout = "2006-01-02 15:04:05"

const hashSep = "_"

// Canonicalizer turns raw records of one owner into canonical transactions.
type Canonicalizer struct {
	owner string
	now   func() time.Time
}

func NewCanonicalizer(owner string) *Canonicalizer {
	return &Canonicalizer{owner: owner, now: time.Now}
}

// WithClock overrides the clock used for InsertedAt.
func (c *Canonicalizer) WithClock(now func() time.Time) *Canonicalizer {
	c.now = now
	return c
}

// Canonicalize normalizes raw for the given account and computes its identity.
// A zero date yields a *MalformedRecordError.
func (c *Canonicalizer) Canonicalize(raw RawTransaction, accountID int64) (*Transaction, error) {
	if raw.Date.IsZero() {
		return nil, &MalformedRecordError{Line: raw.Line, Field: "date", Value: ""}
	}

	date := NormalizeDate(raw.Date)

	return &Transaction{
		Hash:          IdentityHash(c.owner, accountID, raw),
		AccountID:     accountID,
		OperationDate: date,
		ValueDate:     date,
		Description:   NormalizeDescription(raw.Description),
		Amount:        raw.Amount,
		InsertedAt:    c.now(),
	}, nil
}

// NormalizeDate keeps the time of day to second precision. Date-only values
// are already at midnight.
func NormalizeDate(t time.Time) time.Time {
	return t.Truncate(time.Second)
}

func NormalizeDescription(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return NoDescription
	}

	return s
}

// IdentityHash derives the deterministic identity of a raw record:
// owner, date, description, category and amount, then the balance only when
// present, then the account id and the row discriminator when set. The first
// 16 bytes of the SHA-256 digest form the UUID.
func IdentityHash(owner string, accountID int64, raw RawTransaction) uuid.UUID {
	parts := []string{
		owner,
		NormalizeDate(raw.Date).Format(DateLayout),
		NormalizeDescription(raw.Description),
		strings.TrimSpace(raw.Category),
		raw.Amount.String(),
	}

	if raw.Balance != nil {
		parts = append(parts, raw.Balance.String())
	}

	parts = append(parts, "acct:"+strconv.FormatInt(accountID, 10))

	if d := strings.TrimSpace(raw.Discriminator); d != "" {
		parts = append(parts, d)
	}

	sum := sha256.Sum256([]byte(strings.Join(parts, hashSep)))

	var id uuid.UUID
	copy(id[:], sum[:16])

	return id
}
