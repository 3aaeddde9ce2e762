// Package importer decodes bank CSV exports into raw transactions and feeds
// them to the ingestion pipeline.
package importer

import (
	"context"
	"errors"

	"github.com/MrJamesThe3rd/txsync/internal/ingest"
)

var (
	ErrUnknownFormat = errors.New("unknown export format")
	ErrNoProfile     = errors.New("no export format matches the file header")
	ErrNoExport      = errors.New("no export found for source")
)

// Ingester is the slice of ingest.Service the importer drives.
type Ingester interface {
	Ingest(ctx context.Context, req ingest.Request) (*ingest.Summary, error)
}
