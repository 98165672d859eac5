package ports

import (
	"context"

	"github.com/wavecap/wavecap/internal/domain"
)

// RecordSink persists averaged records.
// Opening the underlying output (file naming, header rows) is the sink's
// responsibility and normally happens on the first Write.
type RecordSink interface {
	// Write persists one averaged record.
	Write(ctx context.Context, rec domain.AveragedRecord) error

	// Close flushes and releases the output. Safe to call if nothing was written.
	Close() error
}
