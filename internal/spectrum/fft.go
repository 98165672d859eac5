// Package spectrum computes magnitude spectra of averaged ascans.
package spectrum

import (
	"math/cmplx"
	"sync"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/wavecap/wavecap/internal/domain"
)

// DefaultSampleRate is the digitizer rate of the probe (125 MHz).
const DefaultSampleRate = 125e6

// Analyzer computes one-sided magnitude spectra with a real-input FFT.
// FFT plans are cached per length since ascan lengths are stable.
type Analyzer struct {
	sampleRate float64

	mu    sync.Mutex
	plans map[int]*fourier.FFT
}

// NewAnalyzer creates an analyzer for samples taken at sampleRate Hz.
// A non-positive rate selects DefaultSampleRate.
func NewAnalyzer(sampleRate float64) *Analyzer {
	if sampleRate <= 0 {
		sampleRate = DefaultSampleRate
	}
	return &Analyzer{
		sampleRate: sampleRate,
		plans:      make(map[int]*fourier.FFT),
	}
}

// SampleRate returns the configured sample rate in Hz.
func (a *Analyzer) SampleRate() float64 {
	return a.sampleRate
}

// Analyze returns N/2+1 bins for N samples: bin i is at i*fs/N Hz and its
// magnitude is the modulus of the unnormalized DFT coefficient.
func (a *Analyzer) Analyze(samples []float64) (domain.Spectrum, error) {
	n := len(samples)
	if n == 0 {
		return domain.Spectrum{}, domain.ErrEmptyWaveform
	}

	coeffs := a.plan(n).Coefficients(nil, samples)

	out := domain.Spectrum{
		Frequencies: make([]float64, len(coeffs)),
		Magnitudes:  make([]float64, len(coeffs)),
	}
	for i, c := range coeffs {
		out.Frequencies[i] = float64(i) * a.sampleRate / float64(n)
		out.Magnitudes[i] = cmplx.Abs(c)
	}
	return out, nil
}

func (a *Analyzer) plan(n int) *fourier.FFT {
	a.mu.Lock()
	defer a.mu.Unlock()

	p, ok := a.plans[n]
	if !ok {
		p = fourier.NewFFT(n)
		a.plans[n] = p
	}
	return p
}
