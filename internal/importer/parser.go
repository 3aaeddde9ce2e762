package importer

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	enc "github.com/MrJamesThe3rd/txsync/internal/encoding"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// FormatAuto asks the parser to pick the profile from the header row.
const FormatAuto = "auto"

var delimiters = []rune{';', ','}

// Result is the decoded content of one export.
type Result struct {
	Profile  string
	Charset  string
	Records  []transaction.RawTransaction
	Rejected []*transaction.MalformedRecordError
}

// line is a CSV record and the 1-based file line it starts on.
type line struct {
	num    int
	fields []string
}

type Parser struct {
	log *slog.Logger
}

func NewParser(log *slog.Logger) *Parser {
	if log == nil {
		log = slog.Default()
	}

	return &Parser{log: log}
}

// Parse decodes r with the named profile, or detects one when format is
// empty or FormatAuto. Rows without a date are treated as decoration and
// dropped; rows with an unreadable date or amount are returned in Rejected.
func (p *Parser) Parse(format string, r io.Reader) (*Result, error) {
	candidates := profiles

	if format != "" && format != FormatAuto {
		prof, err := Lookup(format)
		if err != nil {
			return nil, err
		}

		candidates = []Profile{*prof}
	}

	utf8r, err := enc.NewUTF8Reader(r)
	if err != nil {
		return nil, fmt.Errorf("detect encoding: %w", err)
	}

	data, err := io.ReadAll(utf8r)
	if err != nil {
		return nil, fmt.Errorf("read export: %w", err)
	}

	var readErr error

	for _, comma := range delimiters {
		lines, err := readLines(data, comma)
		if err != nil {
			readErr = err
			continue
		}

		prof, cols, headerIdx := detectProfile(candidates, lines)
		if prof == nil {
			continue
		}

		res := parseRows(prof, cols, lines[headerIdx+1:])
		res.Charset = utf8r.Charset

		p.log.Debug("parsed export",
			"profile", prof.Name,
			"charset", res.Charset,
			"records", len(res.Records),
			"rejected", len(res.Rejected),
		)

		return res, nil
	}

	if readErr != nil {
		return nil, fmt.Errorf("read csv: %w", readErr)
	}

	if len(candidates) == 1 {
		return nil, fmt.Errorf("%w: expected columns %s", ErrNoProfile, strings.Join(candidates[0].requiredCols(), ", "))
	}

	return nil, ErrNoProfile
}

func readLines(data []byte, comma rune) ([]line, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = comma
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var lines []line

	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}

		if err != nil {
			return nil, err
		}

		num, _ := reader.FieldPos(0)
		lines = append(lines, line{num: num, fields: fields})
	}
}

// colIndex maps column names to their index in the row.
type colIndex map[string]int

// detectProfile scans rows for a header that matches one of candidates.
// Returns the matched profile, column index map, and header row index.
func detectProfile(candidates []Profile, lines []line) (*Profile, colIndex, int) {
	for rowIdx, l := range lines {
		cols := make(colIndex)

		for i, v := range l.fields {
			name := strings.TrimSpace(v)
			if name != "" {
				cols[name] = i
			}
		}

		for i := range candidates {
			if matchesProfile(&candidates[i], cols) {
				return &candidates[i], cols, rowIdx
			}
		}
	}

	return nil, nil, 0
}

func matchesProfile(p *Profile, cols colIndex) bool {
	for _, name := range p.requiredCols() {
		if _, ok := cols[name]; !ok {
			return false
		}
	}

	return true
}

func parseRows(p *Profile, cols colIndex, lines []line) *Result {
	res := &Result{Profile: p.Name}

	for _, l := range lines {
		dateStr := cell(l.fields, cols, p.DateCol)
		if dateStr == "" {
			continue
		}

		date, err := parseDate(dateStr, p.DateLayouts)
		if err != nil {
			res.Rejected = append(res.Rejected, &transaction.MalformedRecordError{
				Line: l.num, Field: "date", Value: dateStr, Err: err,
			})

			continue
		}

		amountStr := cell(l.fields, cols, p.AmountCol)

		amount, err := parseAmount(amountStr)
		if err != nil {
			res.Rejected = append(res.Rejected, &transaction.MalformedRecordError{
				Line: l.num, Field: "amount", Value: amountStr, Err: err,
			})

			continue
		}

		raw := transaction.RawTransaction{
			Date:          date,
			Description:   cell(l.fields, cols, p.DescCol),
			Amount:        amount,
			Category:      cell(l.fields, cols, p.CategoryCol),
			Discriminator: cell(l.fields, cols, p.DiscriminatorCol),
			Line:          l.num,
		}

		if p.Merge != nil {
			raw.Description = p.Merge(raw.Description, cell(l.fields, cols, p.MergeCol))
		}

		if s := cell(l.fields, cols, p.BalanceCol); s != "" {
			balance, err := parseAmount(s)
			if err != nil {
				res.Rejected = append(res.Rejected, &transaction.MalformedRecordError{
					Line: l.num, Field: "balance", Value: s, Err: err,
				})

				continue
			}

			raw.Balance = &balance
		}

		res.Records = append(res.Records, raw)
	}

	return res
}

func parseDate(s string, layouts []string) (time.Time, error) {
	var firstErr error

	for _, layout := range layouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}

		if firstErr == nil {
			firstErr = err
		}
	}

	return time.Time{}, firstErr
}

// cell safely gets a trimmed cell value by column name.
func cell(row []string, cols colIndex, name string) string {
	if name == "" {
		return ""
	}

	idx, ok := cols[name]
	if !ok || idx >= len(row) {
		return ""
	}

	return strings.TrimSpace(row[idx])
}
