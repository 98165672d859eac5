package fs

import (
	"context"
	"fmt"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/internal/ports"
	"github.com/wavecap/wavecap/pkg/log"
)

// SpectrumHeader is the first row of every FFT file.
var SpectrumHeader = []string{"Frequency (Hz)", "Magnitude"}

// SpectrumCSV runs an FFT over each averaged ascan and writes the bins to a
// new dataFFT_<ts>_<seq>.csv file. Records without a waveform are skipped.
type SpectrumCSV struct {
	namer    *Namer
	analyzer ports.SpectrumAnalyzer
	logger   log.Logger
	last     string
}

// NewSpectrumCSV creates an FFT sink.
func NewSpectrumCSV(namer *Namer, analyzer ports.SpectrumAnalyzer, logger log.Logger) *SpectrumCSV {
	return &SpectrumCSV{namer: namer, analyzer: analyzer, logger: logger}
}

// LastPath returns the most recently written file.
func (s *SpectrumCSV) LastPath() string {
	return s.last
}

func (s *SpectrumCSV) Write(_ context.Context, rec domain.AveragedRecord) error {
	if !rec.HasWaveform() {
		return nil
	}
	spec, err := s.analyzer.Analyze(rec.Waveform)
	if err != nil {
		return fmt.Errorf("analyze ascan: %w", err)
	}

	rows := make([][]string, 0, spec.Bins()+1)
	rows = append(rows, SpectrumHeader)
	for i := range spec.Frequencies {
		rows = append(rows, []string{formatFloat(spec.Frequencies[i]), formatFloat(spec.Magnitudes[i])})
	}

	path := s.namer.SeqPath(PrefixFFT, rec.Seq, "csv")
	if err := writeCSV(path, rows); err != nil {
		return err
	}
	s.last = path
	s.logger.Info("fft saved", log.String("path", path), log.Int("bins", spec.Bins()))
	return nil
}

// Close is a no-op; every spectrum file is closed after writing.
func (s *SpectrumCSV) Close() error {
	return nil
}
