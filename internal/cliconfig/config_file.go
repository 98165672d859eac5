package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wavecap/wavecap/internal/domain"
)

// FileConfig mirrors Config but uses strings for durations to make TOML friendly.
type FileConfig struct {
	Broker         string  `toml:"broker"`
	ClientID       string  `toml:"client_id"`
	Topic          string  `toml:"topic"`
	QoS            *int    `toml:"qos"`
	ConnectTimeout string  `toml:"connect_timeout"`
	PublishTimeout string  `toml:"publish_timeout"`
	AverageCount   int     `toml:"average_count"`
	Waveform       *bool   `toml:"waveform"`
	Record         *bool   `toml:"record"`
	OutputDir      string  `toml:"output_dir"`
	Format         string  `toml:"format"`
	FFT            *bool   `toml:"fft"`
	SampleRateHz   float64 `toml:"sample_rate_hz"`
	FFTRetentionMB int     `toml:"fft_retention_mb"`
	StatusDir      string  `toml:"status_dir"`
	MetricsAddr    string  `toml:"metrics_addr"`
	LogLevel       string  `toml:"log_level"`
	LogFormat      string  `toml:"log_format"`
	InstrumentFile string  `toml:"instrument_file"`

	Instrument []domain.InstrumentMessage `toml:"instrument"`
}

// LoadFileConfig reads and parses a TOML config file from the given path.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.wavecap/config.toml, or "" without a home directory.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".wavecap", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies configuration from a file to the Config struct.
// It respects flags that have been explicitly set (changed map).
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) error {
	s := newConfigSetter(changed)

	s.setString("broker", fc.Broker, &cfg.Broker)
	s.setString("client-id", fc.ClientID, &cfg.ClientID)
	s.setString("topic", fc.Topic, &cfg.Topic)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("format", fc.Format, &cfg.Format)
	s.setString("status-dir", fc.StatusDir, &cfg.StatusDir)
	s.setString("metrics-addr", fc.MetricsAddr, &cfg.MetricsAddr)
	s.setString("log-level", fc.LogLevel, &cfg.LogLevel)
	s.setString("log-format", fc.LogFormat, &cfg.LogFormat)
	s.setString("instrument-file", fc.InstrumentFile, &cfg.InstrumentFile)

	if err := s.setDuration("connect-timeout", fc.ConnectTimeout, &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("publish-timeout", fc.PublishTimeout, &cfg.PublishTimeout); err != nil {
		return err
	}

	s.setIntPtr("qos", fc.QoS, &cfg.QoS)
	s.setInt("average", fc.AverageCount, &cfg.AverageCount)
	s.setFloat("sample-rate", fc.SampleRateHz, &cfg.SampleRateHz)
	s.setInt("fft-retention-mb", fc.FFTRetentionMB, &cfg.FFTRetentionMB)

	s.setBool("waveform", fc.Waveform, &cfg.Waveform)
	s.setBool("record", fc.Record, &cfg.Record)
	s.setBool("fft", fc.FFT, &cfg.FFT)

	if len(fc.Instrument) > 0 {
		cfg.Instrument = append([]domain.InstrumentMessage(nil), fc.Instrument...)
	}
	return nil
}

// FileExists checks if a file exists at the given path.
func FileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}
