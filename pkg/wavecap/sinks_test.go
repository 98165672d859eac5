package wavecap

import (
	"testing"

	"github.com/wavecap/wavecap/internal/cliconfig"
	"github.com/wavecap/wavecap/pkg/log"
)

func TestBuildSinks(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   []string
	}{
		{
			name:   "recording disabled",
			mutate: func(c *Config) { c.Record = false },
			want:   nil,
		},
		{
			name:   "csv with ascan and fft",
			mutate: func(c *Config) {},
			want:   []string{SinkMeasurements, SinkAscan, SinkFFT},
		},
		{
			name:   "csv without fft",
			mutate: func(c *Config) { c.FFT = false },
			want:   []string{SinkMeasurements, SinkAscan},
		},
		{
			name:   "scalars only",
			mutate: func(c *Config) { c.Waveform = false },
			want:   []string{SinkMeasurements},
		},
		{
			name:   "parquet",
			mutate: func(c *Config) { c.Format = cliconfig.FormatParquet },
			want:   []string{SinkParquet, SinkFFT},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Record = true
			cfg.OutputDir = t.TempDir()
			tt.mutate(&cfg)

			sinks := buildSinks(cfg, "run", log.NoopLogger{})
			var names []string
			for _, s := range sinks {
				names = append(names, s.Name)
				if s.Name == SinkMeasurements || s.Name == SinkParquet {
					if s.Optional {
						t.Errorf("%s should be required", s.Name)
					}
				} else if !s.Optional {
					t.Errorf("%s should be optional", s.Name)
				}
			}
			if len(names) != len(tt.want) {
				t.Fatalf("sinks = %v, want %v", names, tt.want)
			}
			for i := range names {
				if names[i] != tt.want[i] {
					t.Errorf("sinks = %v, want %v", names, tt.want)
				}
			}
		})
	}
}
