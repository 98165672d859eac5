package ports

import "github.com/wavecap/wavecap/internal/domain"

// SpectrumAnalyzer computes the one-sided magnitude spectrum of a real signal.
type SpectrumAnalyzer interface {
	Analyze(samples []float64) (domain.Spectrum, error)
}
