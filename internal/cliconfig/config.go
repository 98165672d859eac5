package cliconfig

import (
	"fmt"
	"strconv"
	"time"

	"github.com/wavecap/wavecap/internal/adapters/mqtt"
	"github.com/wavecap/wavecap/internal/app"
	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/internal/spectrum"
	"github.com/wavecap/wavecap/pkg/log"
)

// Output formats for the primary sink.
const (
	FormatCSV     = "csv"
	FormatParquet = "parquet"
)

// Config holds CLI configuration for wavecap.
type Config struct {
	Broker   string
	ClientID string
	Topic    string
	QoS      int

	ConnectTimeout time.Duration
	PublishTimeout time.Duration

	AverageCount int
	Waveform     bool

	Record       bool
	OutputDir    string
	Format       string
	FFT          bool
	SampleRateHz float64

	// FFTRetentionMB bounds the size of the dataFFT files in OutputDir.
	// 0 keeps every file.
	FFTRetentionMB int

	StatusDir   string
	MetricsAddr string
	LogLevel    string
	LogFormat   string

	InstrumentFile string
	Instrument     []domain.InstrumentMessage
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Broker:         mqtt.DefaultBroker,
		ClientID:       mqtt.DefaultClientID,
		Topic:          mqtt.DefaultTopic,
		QoS:            mqtt.DefaultQoS,
		ConnectTimeout: mqtt.DefaultConnectTimeout,
		PublishTimeout: mqtt.DefaultPublishTimeout,
		AverageCount:   app.DefaultBatchSize,
		Waveform:       true,
		Format:         FormatCSV,
		FFT:            true,
		SampleRateHz:   spectrum.DefaultSampleRate,
		LogLevel:       "info",
		LogFormat:      log.FormatConsole,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Broker == "" {
		return fmt.Errorf("%w: broker is required", domain.ErrInvalidConfig)
	}
	if c.Topic == "" {
		return fmt.Errorf("%w: topic is required", domain.ErrInvalidConfig)
	}
	if c.QoS < 0 || c.QoS > 2 {
		return fmt.Errorf("%w: qos must be 0, 1 or 2, got %d", domain.ErrInvalidConfig, c.QoS)
	}
	switch c.Format {
	case FormatCSV, FormatParquet:
	default:
		return fmt.Errorf("%w: unknown format %q", domain.ErrInvalidConfig, c.Format)
	}
	if c.SampleRateHz <= 0 {
		return fmt.Errorf("%w: sample rate must be positive", domain.ErrInvalidConfig)
	}
	if c.FFTRetentionMB < 0 {
		return fmt.Errorf("%w: fft retention must not be negative", domain.ErrInvalidConfig)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidConfig, err)
	}
	switch c.LogFormat {
	case log.FormatConsole, log.FormatJSON:
	default:
		return fmt.Errorf("%w: unknown log format %q", domain.ErrInvalidConfig, c.LogFormat)
	}
	for i, m := range c.Instrument {
		if m.Topic == "" {
			return fmt.Errorf("%w: instrument message %d has no topic", domain.ErrInvalidConfig, i+1)
		}
	}
	return nil
}

// Channels returns the averaged channel set.
func (c Config) Channels() app.ChannelSet {
	if c.Waveform {
		return app.ChannelsScalarsWaveform
	}
	return app.ChannelsScalars
}

// configSetter helps apply configuration values while respecting flag precedence.
// It only applies values if the corresponding flag hasn't been explicitly set.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

// setString sets a string value if not empty and flag not changed.
func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

// setInt sets an int value if positive and flag not changed.
func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

// setIntPtr sets an int value from a pointer, so zero can be configured.
func (s *configSetter) setIntPtr(flag string, value *int, dst *int) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setFloat sets a float64 value if positive and flag not changed.
func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	*dst = d
	return nil
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// setIntFromString parses a string to int and sets the destination.
// Negative values are ignored; allowZero decides whether 0 is applied.
func (s *configSetter) setIntFromString(flag, value string, allowZero bool, dst *int) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	i, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if i < 0 || (i == 0 && !allowZero) {
		return nil
	}
	*dst = i
	return nil
}

func (s *configSetter) setFloatFromString(flag, value string, dst *float64) error {
	if value == "" || s.changed[flag] {
		return nil
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("parse %s: %w", flag, err)
	}
	if f <= 0 {
		return nil
	}
	*dst = f
	return nil
}

// setBoolFromString accepts "true" and "1" as true, anything else as false.
func (s *configSetter) setBoolFromString(flag, value string, dst *bool) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value == "true" || value == "1"
}
