package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/MrJamesThe3rd/txsync/internal/ingest"
	"github.com/MrJamesThe3rd/txsync/internal/transaction"
)

// Target names the format and destination account of one export.
type Target struct {
	Format    string
	AccountID int64
	BankID    int64
}

// Report is the outcome of importing one export. Rows the parser rejected
// are folded into Summary as attempted and malformed.
type Report struct {
	Source   string
	File     string
	Profile  string
	Summary  ingest.Summary
	Rejected []*transaction.MalformedRecordError
}

type Service struct {
	parser   *Parser
	ingester Ingester
	owner    string
	log      *slog.Logger
}

func NewService(ingester Ingester, owner string, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}

	return &Service{
		parser:   NewParser(log),
		ingester: ingester,
		owner:    owner,
		log:      log,
	}
}

// Parse decodes an export without ingesting it.
func (s *Service) Parse(format string, r io.Reader) (*Result, error) {
	return s.parser.Parse(format, r)
}

func (s *Service) Import(ctx context.Context, r io.Reader, target Target) (*Report, error) {
	res, err := s.parser.Parse(target.Format, r)
	if err != nil {
		return nil, fmt.Errorf("parsing export: %w", err)
	}

	for _, rej := range res.Rejected {
		s.log.Warn("rejected export row", "profile", res.Profile, "error", rej)
	}

	sum, err := s.ingester.Ingest(ctx, ingest.Request{
		Records:   res.Records,
		Owner:     s.owner,
		AccountID: target.AccountID,
		BankID:    target.BankID,
	})
	if sum == nil {
		return nil, err
	}

	report := &Report{
		Profile:  res.Profile,
		Summary:  *sum,
		Rejected: res.Rejected,
	}

	report.Summary.Attempted += len(res.Rejected)
	report.Summary.Malformed += len(res.Rejected)

	return report, err
}

func (s *Service) ImportFile(ctx context.Context, path string, target Target) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening export: %w", err)
	}
	defer f.Close()

	report, err := s.Import(ctx, f, target)
	if report != nil {
		report.File = path
	}

	return report, err
}

// Sync imports the newest export of every source in the manifest. A source
// that fails is logged and reported; the remaining sources still run.
func (s *Service) Sync(ctx context.Context, m *Manifest, dir string) ([]*Report, error) {
	var (
		reports []*Report
		errs    []error
	)

	for _, src := range m.Sources {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		log := s.log.With("source", src.Name)

		path, err := LatestExport(dir, src.Match)
		if err != nil {
			if errors.Is(err, ErrNoExport) {
				log.Warn("no export to ingest", "match", src.Match)
				continue
			}

			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))

			continue
		}

		log.Info("ingesting latest export", "file", path)

		report, err := s.ImportFile(ctx, path, Target{
			Format:    src.Format,
			AccountID: src.AccountID,
			BankID:    src.BankID,
		})
		if report != nil {
			report.Source = src.Name
			reports = append(reports, report)
		}

		if err != nil {
			log.Error("source failed", "error", err)
			errs = append(errs, fmt.Errorf("source %s: %w", src.Name, err))
		}
	}

	return reports, errors.Join(errs...)
}
