package fs

import (
	"context"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/pkg/log"
)

// WaveformCSV writes each averaged ascan as one row of dataAscan_<ts>.csv.
// Records without a waveform are skipped.
type WaveformCSV struct {
	namer  *Namer
	logger log.Logger
	file   csvFile
}

// NewWaveformCSV creates an ascan sink writing through namer.
func NewWaveformCSV(namer *Namer, logger log.Logger) *WaveformCSV {
	return &WaveformCSV{namer: namer, logger: logger}
}

// Path returns the file path, or "" before the first write.
func (s *WaveformCSV) Path() string {
	return s.file.path
}

func (s *WaveformCSV) Write(_ context.Context, rec domain.AveragedRecord) error {
	if !rec.HasWaveform() {
		return nil
	}
	if !s.file.opened() {
		if err := s.file.open(s.namer.Path(PrefixAscan, "csv")); err != nil {
			return err
		}
		s.logger.Info("recording ascans", log.String("path", s.file.path))
	}
	return s.file.writeRow(formatFloats(rec.Waveform))
}

func (s *WaveformCSV) Close() error {
	return s.file.close()
}
