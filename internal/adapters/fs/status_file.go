package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/wavecap/wavecap/internal/domain"
)

const statusFileName = "status.json"

// StatusFileRepository implements ports.StatusRepository using a JSON file.
type StatusFileRepository struct {
	dir string
}

// NewStatusFileRepository creates a repository storing status.json in dir.
func NewStatusFileRepository(dir string) *StatusFileRepository {
	return &StatusFileRepository{dir: dir}
}

// Load retrieves the last saved status.
// Returns an empty status and nil error if no status file exists.
func (r *StatusFileRepository) Load(_ context.Context) (domain.RunStatus, error) {
	data, err := os.ReadFile(r.Path())
	if err != nil {
		if os.IsNotExist(err) {
			return domain.RunStatus{}, nil
		}
		return domain.RunStatus{}, err
	}

	var status domain.RunStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.RunStatus{}, err
	}
	return status, nil
}

// Save writes the status to a temp file and renames it into place.
func (r *StatusFileRepository) Save(_ context.Context, status domain.RunStatus) error {
	if err := os.MkdirAll(r.dir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return err
	}

	path := r.Path()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// Path returns the full path to the status file.
func (r *StatusFileRepository) Path() string {
	return filepath.Join(r.dir, statusFileName)
}
