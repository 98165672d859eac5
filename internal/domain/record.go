package domain

import "fmt"

// ScalarSlots is the number of fixed measurement slots carried by a message.
const ScalarSlots = 4

// Measurement is one named scalar from an inspection message.
type Measurement struct {
	// Present is false when the message did not carry this slot.
	Present bool

	// Name is the measurement name reported by the instrument
	Name string

	// Value is the measured value
	Value float64
}

// Record is a decoded inspection message.
// Slot i of the instrument (1-based) is stored at Scalars[i-1].
type Record struct {
	Scalars [ScalarSlots]Measurement

	// Waveform holds the ascan samples. Nil when the message had no ascan.
	Waveform []int
}

// HasWaveform returns true if the record carries a non-empty ascan.
func (r Record) HasWaveform() bool {
	return len(r.Waveform) > 0
}

// SetScalar stores a measurement in the given 1-based slot.
func (r *Record) SetScalar(slot int, name string, value float64) {
	r.Scalars[slot-1] = Measurement{Present: true, Name: name, Value: value}
}

// DefaultSlotName returns the column name used when a slot carries no name.
func DefaultSlotName(slot int) string {
	return fmt.Sprintf("col%d", slot)
}
