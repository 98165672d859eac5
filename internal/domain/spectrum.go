package domain

// Spectrum holds the one-sided magnitude spectrum of a real signal.
// Frequencies and Magnitudes have the same length (N/2+1 for N samples).
type Spectrum struct {
	Frequencies []float64
	Magnitudes  []float64
}

// Bins returns the number of frequency bins.
func (s Spectrum) Bins() int {
	return len(s.Frequencies)
}
