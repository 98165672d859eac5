package domain

import "time"

// ScalarAverage is the averaged value of one populated measurement slot.
type ScalarAverage struct {
	// Slot is the 1-based instrument slot
	Slot int

	// Name is the first name seen for this slot
	Name string

	// Value is the slot sum divided by the number of averaged messages
	Value float64
}

// AveragedRecord is the output of one batch.
type AveragedRecord struct {
	// Seq numbers emitted records from 1 for the lifetime of the averager
	Seq uint64

	// Messages is the number of messages averaged (K, or fewer on flush)
	Messages int

	// Scalars holds one entry per populated slot in slot order
	Scalars []ScalarAverage

	// Waveform is the averaged ascan. Nil when no waveform channel exists.
	Waveform []float64

	// EmittedAt is the time the batch was closed
	EmittedAt time.Time
}

// Names returns the scalar names in slot order.
func (r AveragedRecord) Names() []string {
	names := make([]string, len(r.Scalars))
	for i, s := range r.Scalars {
		names[i] = s.Name
	}
	return names
}

// Values returns the scalar averages in slot order.
func (r AveragedRecord) Values() []float64 {
	values := make([]float64, len(r.Scalars))
	for i, s := range r.Scalars {
		values[i] = s.Value
	}
	return values
}

// HasWaveform returns true if the record carries an averaged ascan.
func (r AveragedRecord) HasWaveform() bool {
	return len(r.Waveform) > 0
}
