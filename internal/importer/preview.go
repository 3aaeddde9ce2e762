package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// previewRow is one parsed record as the ingestion pipeline would see it.
type previewRow struct {
	Line          int    `csv:"line"`
	Date          string `csv:"date"`
	Description   string `csv:"description"`
	Amount        string `csv:"amount"`
	Balance       string `csv:"balance"`
	Category      string `csv:"category"`
	Discriminator string `csv:"discriminator"`
	Hash          string `csv:"hash"`
}

// WritePreview renders res as CSV with normalized descriptions and the
// identity hash each record would be stored under for owner and accountID.
// Records ingestion would reject are left out and returned.
func WritePreview(w io.Writer, owner string, accountID int64, res *Result) ([]*transaction.MalformedRecordError, error) {
	canon := transaction.NewCanonicalizer(owner)
	rows := make([]*previewRow, 0, len(res.Records))

	var dropped []*transaction.MalformedRecordError

	for _, raw := range res.Records {
		tx, err := canon.Canonicalize(raw, accountID)
		if err != nil {
			var mre *transaction.MalformedRecordError
			if !errors.As(err, &mre) {
				mre = &transaction.MalformedRecordError{Line: raw.Line, Err: err}
			}

			dropped = append(dropped, mre)

			continue
		}

		row := &previewRow{
			Line:          raw.Line,
			Date:          tx.OperationDate.Format(transaction.DateLayout),
			Description:   tx.Description,
			Amount:        raw.Amount.String(),
			Category:      raw.Category,
			Discriminator: raw.Discriminator,
			Hash:          tx.Hash.String(),
		}

		if raw.Balance != nil {
			row.Balance = raw.Balance.String()
		}

		rows = append(rows, row)
	}

	cw := csv.NewWriter(w)
	if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(cw)); err != nil {
		return dropped, fmt.Errorf("writing preview: %w", err)
	}

	return dropped, nil
}
