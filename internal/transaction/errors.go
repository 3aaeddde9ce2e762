package transaction

import (
	"errors"
	"fmt"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountBankMismatch = errors.New("account belongs to a different bank")

	// ErrDuplicateIdentity is returned by stores that reject a whole insert
	// because one of the records already exists.
	ErrDuplicateIdentity = errors.New("duplicate transaction identity")

	ErrMalformedRecord       = errors.New("malformed record")
	ErrTransientStore        = errors.New("transient store failure")
	ErrPartialReconciliation = errors.New("partial reconciliation")
	ErrInvalidRange          = errors.New("invalid date range: from must be before to")
)

// MalformedRecordError describes a raw record that could not be canonicalized.
type MalformedRecordError struct {
	Line  int
	Field string
	Value string
	Err   error
}

func (e *MalformedRecordError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("line %d: malformed %s %q", e.Line, e.Field, e.Value)
	}

	return fmt.Sprintf("line %d: malformed %s %q: %v", e.Line, e.Field, e.Value, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

func (e *MalformedRecordError) Is(target error) bool { return target == ErrMalformedRecord }

// PartialReconciliationError reports rows that survived a cleanup run.
type PartialReconciliationError struct {
	Remaining int
}

func (e *PartialReconciliationError) Error() string {
	return fmt.Sprintf("%s: %d transactions remain", ErrPartialReconciliation, e.Remaining)
}

func (e *PartialReconciliationError) Is(target error) bool {
	return target == ErrPartialReconciliation
}
