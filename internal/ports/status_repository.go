package ports

import (
	"context"

	"github.com/wavecap/wavecap/internal/domain"
)

// StatusRepository handles run status persistence.
type StatusRepository interface {
	// Load retrieves the last saved status.
	// Returns an empty status and nil error if no status exists.
	Load(ctx context.Context) (domain.RunStatus, error)

	// Save persists the status atomically.
	Save(ctx context.Context, status domain.RunStatus) error
}
