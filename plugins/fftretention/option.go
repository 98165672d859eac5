package fftretention

import "github.com/wavecap/wavecap/pkg/wavecap"

// WithFFTRetention returns a wavecap Option that keeps the FFT files in the
// output directory under cfg.HighWatermark bytes.
//
// Usage:
//
//	r, err := wavecap.New(cfg,
//	    fftretention.WithFFTRetention(fftretention.Config{
//	        HighWatermark: 512 << 20, // 512 MiB
//	    }),
//	)
func WithFFTRetention(cfg Config) wavecap.Option {
	return wavecap.WithPlugin(New(cfg))
}
