// Package parquet writes averaged records to a parquet file.
package parquet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/segmentio/parquet-go"

	"github.com/wavecap/wavecap/internal/adapters/fs"
	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/pkg/log"
)

// Prefix is the output file prefix.
const Prefix = "dataAvg"

// Metadata keys stored in the file footer.
const (
	MetaScalarNames = "scalar_names"
	MetaRunID       = "run_id"
)

// Row is one averaged record.
type Row struct {
	Seq         int64     `parquet:"seq"`
	Messages    int32     `parquet:"messages"`
	EmittedAtNs int64     `parquet:"emitted_at_ns"`
	Scalars     []float64 `parquet:"scalars"`
	Waveform    []float64 `parquet:"waveform"`
}

// Sink writes one row per record to dataAvg_<ts>.parquet.
//
// The scalar slots are locked by the first record that carries any, and
// every row stores values for exactly those slots in that order so that
// Scalars[i] is always labeled by scalar_names[i]. A locked slot missing
// from a record is written as 0; a slot outside the locked set is dropped
// with a one-time warning. Each record is flushed as its own row group; the
// footer is written on Close.
type Sink struct {
	namer  *fs.Namer
	runID  string
	logger log.Logger

	path   string
	file   *os.File
	writer *parquet.GenericWriter[Row]

	slots  []int
	warned map[int]bool
}

// NewSink creates a parquet sink.
func NewSink(namer *fs.Namer, runID string, logger log.Logger) *Sink {
	return &Sink{namer: namer, runID: runID, logger: logger}
}

// Path returns the file path, or "" before the first write.
func (s *Sink) Path() string {
	return s.path
}

func (s *Sink) Write(_ context.Context, rec domain.AveragedRecord) error {
	if s.writer == nil {
		if err := s.open(); err != nil {
			return err
		}
	}
	if s.slots == nil && len(rec.Scalars) > 0 {
		s.lock(rec)
	}

	row := Row{
		Seq:         int64(rec.Seq),
		Messages:    int32(rec.Messages),
		EmittedAtNs: rec.EmittedAt.UnixNano(),
		Scalars:     s.values(rec),
		Waveform:    rec.Waveform,
	}
	if _, err := s.writer.Write([]Row{row}); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	return s.writer.Flush()
}

// Close writes the footer and closes the file.
func (s *Sink) Close() error {
	if s.writer == nil {
		return nil
	}
	werr := s.writer.Close()
	ferr := s.file.Close()
	s.writer = nil
	if werr != nil {
		return werr
	}
	return ferr
}

func (s *Sink) open() error {
	path := s.namer.Path(Prefix, "parquet")
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrSinkUnavailable, err)
	}

	s.file = f
	s.path = path
	s.writer = parquet.NewGenericWriter[Row](f,
		parquet.KeyValueMetadata(MetaScalarNames, "[]"),
		parquet.KeyValueMetadata(MetaRunID, s.runID),
	)
	s.logger.Info("recording parquet", log.String("path", path))
	return nil
}

// lock fixes the slot order and stores the names in the footer metadata.
func (s *Sink) lock(rec domain.AveragedRecord) {
	s.slots = make([]int, 0, len(rec.Scalars))
	for _, sc := range rec.Scalars {
		s.slots = append(s.slots, sc.Slot)
	}
	names, _ := json.Marshal(rec.Names())
	s.writer.SetKeyValueMetadata(MetaScalarNames, string(names))
}

func (s *Sink) values(rec domain.AveragedRecord) []float64 {
	if len(s.slots) == 0 {
		return nil
	}
	bySlot := make(map[int]float64, len(rec.Scalars))
	for _, sc := range rec.Scalars {
		if !s.locked(sc.Slot) {
			if s.warned == nil {
				s.warned = make(map[int]bool)
			}
			if !s.warned[sc.Slot] {
				s.warned[sc.Slot] = true
				s.logger.Warn("measurement not in parquet schema, value dropped",
					log.Int("slot", sc.Slot), log.String("name", sc.Name))
			}
			continue
		}
		bySlot[sc.Slot] = sc.Value
	}
	out := make([]float64, len(s.slots))
	for i, slot := range s.slots {
		out[i] = bySlot[slot]
	}
	return out
}

func (s *Sink) locked(slot int) bool {
	for _, l := range s.slots {
		if l == slot {
			return true
		}
	}
	return false
}
