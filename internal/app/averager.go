package app

import (
	"fmt"
	"time"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/pkg/log"
)

// DefaultBatchSize is used when the configured batch size is below 1.
const DefaultBatchSize = 1

// ChannelSet selects the channels an Averager accumulates.
type ChannelSet int

const (
	// ChannelsScalars averages the measurement slots only; ascans are ignored.
	ChannelsScalars ChannelSet = iota
	// ChannelsScalarsWaveform averages the measurement slots and the ascan.
	ChannelsScalarsWaveform
)

// String returns a human-readable representation of the channel set.
func (c ChannelSet) String() string {
	switch c {
	case ChannelsScalars:
		return "scalars"
	case ChannelsScalarsWaveform:
		return "scalars+waveform"
	default:
		return "unknown"
	}
}

// AveragerConfig configures an Averager.
type AveragerConfig struct {
	// BatchSize is the number of messages averaged into one record (K).
	BatchSize int
	Channels  ChannelSet
}

// Averager accumulates decoded records and emits one AveragedRecord every
// BatchSize records. It is not safe for concurrent use.
//
// Sums are zeroed exactly when the message counter returns to 0. The ascan
// length latches on the first non-empty waveform and never changes afterwards.
type Averager struct {
	batchSize int
	channels  ChannelSet

	names [domain.ScalarSlots]string
	sums  [domain.ScalarSlots]float64

	waveformLen int
	waveformSum []float64

	count int
	seq   uint64
	now   func() time.Time
}

// NewAverager creates an averager. A batch size below 1 is replaced with
// DefaultBatchSize and reported as a warning.
func NewAverager(cfg AveragerConfig, logger log.Logger) *Averager {
	if cfg.BatchSize < 1 {
		logger.Warn("average count must be >= 1, using default",
			log.Int("requested", cfg.BatchSize),
			log.Int("default", DefaultBatchSize),
		)
		cfg.BatchSize = DefaultBatchSize
	}
	return &Averager{
		batchSize: cfg.BatchSize,
		channels:  cfg.Channels,
		now:       time.Now,
	}
}

// Ingest adds one record to the current batch.
// When the batch is complete it returns the averaged record and resets.
//
// A waveform whose length differs from the latched length is discarded and
// reported as an error wrapping domain.ErrWaveformLengthMismatch; the
// record's scalars still count and an averaged record may be returned
// alongside that error.
func (a *Averager) Ingest(rec domain.Record) (*domain.AveragedRecord, error) {
	for i, m := range rec.Scalars {
		if !m.Present {
			continue
		}
		if a.names[i] == "" {
			name := m.Name
			if name == "" {
				name = domain.DefaultSlotName(i + 1)
			}
			a.names[i] = name
		}
		a.sums[i] += m.Value
	}

	var waveErr error
	if a.channels == ChannelsScalarsWaveform && rec.HasWaveform() {
		waveErr = a.addWaveform(rec.Waveform)
	}

	a.count++
	if a.count < a.batchSize {
		return nil, waveErr
	}
	out := a.emit()
	return &out, waveErr
}

// Flush emits the partial batch, averaged over the messages it actually holds.
// Returns nil when the batch is empty.
func (a *Averager) Flush() *domain.AveragedRecord {
	if a.count == 0 {
		return nil
	}
	out := a.emit()
	return &out
}

// Pending returns the number of messages in the current batch.
func (a *Averager) Pending() int {
	return a.count
}

// BatchSize returns the effective batch size.
func (a *Averager) BatchSize() int {
	return a.batchSize
}

// WaveformLength returns the latched ascan length, or 0 if none was seen.
func (a *Averager) WaveformLength() int {
	return a.waveformLen
}

func (a *Averager) addWaveform(samples []int) error {
	if a.waveformLen == 0 {
		a.waveformLen = len(samples)
		a.waveformSum = make([]float64, a.waveformLen)
	}
	if len(samples) != a.waveformLen {
		return fmt.Errorf("%w: got %d samples, expected %d",
			domain.ErrWaveformLengthMismatch, len(samples), a.waveformLen)
	}
	for i, s := range samples {
		a.waveformSum[i] += float64(s)
	}
	return nil
}

// emit builds the averaged record over the current count and resets the batch.
func (a *Averager) emit() domain.AveragedRecord {
	n := float64(a.count)
	a.seq++

	out := domain.AveragedRecord{
		Seq:       a.seq,
		Messages:  a.count,
		EmittedAt: a.now(),
	}
	for i, name := range a.names {
		if name == "" {
			continue
		}
		out.Scalars = append(out.Scalars, domain.ScalarAverage{
			Slot:  i + 1,
			Name:  name,
			Value: a.sums[i] / n,
		})
	}
	if a.waveformSum != nil {
		out.Waveform = make([]float64, len(a.waveformSum))
		for i, s := range a.waveformSum {
			out.Waveform[i] = s / n
		}
	}

	a.reset()
	return out
}

func (a *Averager) reset() {
	a.count = 0
	a.sums = [domain.ScalarSlots]float64{}
	for i := range a.waveformSum {
		a.waveformSum[i] = 0
	}
}
