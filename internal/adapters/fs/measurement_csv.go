package fs

import (
	"context"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/pkg/log"
)

// MeasurementCSV writes averaged scalar measurements to dataMeas_<ts>.csv.
//
// The file is created on the first record that carries scalars. Its header
// holds the slot names populated at that point, and later rows keep those
// columns; slots populated afterwards are reported once and left out.
type MeasurementCSV struct {
	namer  *Namer
	logger log.Logger
	file   csvFile
	slots  []int
	warned map[int]bool
}

// NewMeasurementCSV creates a measurement sink writing through namer.
func NewMeasurementCSV(namer *Namer, logger log.Logger) *MeasurementCSV {
	return &MeasurementCSV{
		namer:  namer,
		logger: logger,
		warned: make(map[int]bool),
	}
}

// Path returns the file path, or "" before the first write.
func (s *MeasurementCSV) Path() string {
	return s.file.path
}

// Write appends one averaged row.
func (s *MeasurementCSV) Write(_ context.Context, rec domain.AveragedRecord) error {
	if !s.file.opened() {
		if len(rec.Scalars) == 0 {
			s.logger.Debug("no measurements yet, skipping row", log.Uint64("seq", rec.Seq))
			return nil
		}
		if err := s.open(rec); err != nil {
			return err
		}
	}

	values := make(map[int]float64, len(rec.Scalars))
	for _, sc := range rec.Scalars {
		values[sc.Slot] = sc.Value
		if !s.locked(sc.Slot) && !s.warned[sc.Slot] {
			s.warned[sc.Slot] = true
			s.logger.Warn("measurement not in csv header, column dropped",
				log.Int("slot", sc.Slot),
				log.String("name", sc.Name),
			)
		}
	}

	row := make([]string, len(s.slots))
	for i, slot := range s.slots {
		row[i] = formatFloat(values[slot])
	}
	return s.file.writeRow(row)
}

// Close closes the file if it was opened.
func (s *MeasurementCSV) Close() error {
	return s.file.close()
}

func (s *MeasurementCSV) open(rec domain.AveragedRecord) error {
	if err := s.file.open(s.namer.Path(PrefixMeasurements, "csv")); err != nil {
		return err
	}
	for _, sc := range rec.Scalars {
		s.slots = append(s.slots, sc.Slot)
	}
	s.logger.Info("recording measurements", log.String("path", s.file.path))
	return s.file.writeRow(rec.Names())
}

func (s *MeasurementCSV) locked(slot int) bool {
	for _, l := range s.slots {
		if l == slot {
			return true
		}
	}
	return false
}
