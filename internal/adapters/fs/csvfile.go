package fs

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/wavecap/wavecap/internal/domain"
)

// formatFloat renders values the way the instrument tools expect:
// shortest of %e/%f with 6 significant digits.
func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func formatFloats(vs []float64) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = formatFloat(v)
	}
	return out
}

// csvFile is an append-mode CSV file opened on first use.
type csvFile struct {
	path string
	file *os.File
	w    *csv.Writer
}

func (c *csvFile) opened() bool {
	return c.file != nil
}

func (c *csvFile) open(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}
	c.path = path
	c.file = f
	c.w = csv.NewWriter(f)
	return nil
}

// writeRow writes and flushes one row so that readers see complete lines.
func (c *csvFile) writeRow(fields []string) error {
	if err := c.w.Write(fields); err != nil {
		return err
	}
	c.w.Flush()
	return c.w.Error()
}

func (c *csvFile) close() error {
	if c.file == nil {
		return nil
	}
	c.w.Flush()
	werr := c.w.Error()
	cerr := c.file.Close()
	c.file = nil
	if werr != nil {
		return werr
	}
	return cerr
}

// writeCSV creates (or truncates) path and writes all rows.
func writeCSV(path string, rows [][]string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
