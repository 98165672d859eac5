// Package fs implements file-system adapters: CSV record sinks and the run
// status repository.
package fs

import (
	"fmt"
	"path/filepath"
	"time"
)

// Output file prefixes.
const (
	PrefixMeasurements = "dataMeas"
	PrefixAscan        = "dataAscan"
	PrefixFFT          = "dataFFT"
)

const timestampLayout = "20060102_150405"

// Namer builds timestamped output paths in a directory, using local time.
type Namer struct {
	dir string
	now func() time.Time
}

// NewNamer creates a namer for dir. An empty dir means the working directory.
func NewNamer(dir string) *Namer {
	return &Namer{dir: dir, now: time.Now}
}

// Dir returns the output directory.
func (n *Namer) Dir() string {
	return n.dir
}

// Path returns <dir>/<prefix>_<YYYYmmdd_HHMMSS>.<ext>.
func (n *Namer) Path(prefix, ext string) string {
	return filepath.Join(n.dir, fmt.Sprintf("%s_%s.%s", prefix, n.now().Format(timestampLayout), ext))
}

// SeqPath returns <dir>/<prefix>_<YYYYmmdd_HHMMSS>_<seq>.<ext>.
func (n *Namer) SeqPath(prefix string, seq uint64, ext string) string {
	return filepath.Join(n.dir, fmt.Sprintf("%s_%s_%04d.%s", prefix, n.now().Format(timestampLayout), seq, ext))
}
