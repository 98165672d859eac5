package cliconfig

import (
	"fmt"
	"os"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/wavecap/wavecap/internal/domain"
)

// DefaultInstrument returns the settings published to the probe before
// acquisition starts.
func DefaultInstrument() []domain.InstrumentMessage {
	return []domain.InstrumentMessage{
		{Topic: "inspection/configuration/probe/frequency", Payload: `{"value": 5}`},
		{Topic: "inspection/configuration/us/pulsetype", Payload: `{"value": "spike"}`},
		{Topic: "inspection/configuration/us/rxmode", Payload: `{"value": "pe"}`},
		{Topic: "inspection/configuration/us/voltage", Payload: `{"value": 200}`},
		{Topic: "inspection/configuration/us/filter", Payload: `{"value": "Broadband low"}`},
		{Topic: "inspection/configuration/us/rectification", Payload: `{"value": "full"}`},
		{Topic: "inspection/configuration/measurementselection/1", Payload: `{"value": "G1_peak_amplitude"}`},
		{Topic: "inspection/configuration/measurementselection/2", Payload: `{"value": "G1_peak_soundPath"}`},
		{Topic: "inspection/configuration/measurementselection/3", Payload: `{"value": "G1_peak_surfaceDistance"}`},
		{Topic: "inspection/configuration/measurementselection/4", Payload: `{"value": "G1_peak_depth"}`},
	}
}

type instrumentFile struct {
	Instrument []domain.InstrumentMessage `toml:"instrument"`
}

// LoadInstrumentFile reads [[instrument]] entries from a TOML file.
func LoadInstrumentFile(path string) ([]domain.InstrumentMessage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f instrumentFile
	if err := toml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for i, m := range f.Instrument {
		if m.Topic == "" {
			return nil, fmt.Errorf("%s: instrument entry %d has no topic", path, i+1)
		}
	}
	return f.Instrument, nil
}

// LoadInstrument resolves the instrument list: the instrument file when set,
// then entries from the config file, then the defaults.
func LoadInstrument(cfg *Config) error {
	if cfg.InstrumentFile != "" {
		msgs, err := LoadInstrumentFile(cfg.InstrumentFile)
		if err != nil {
			return fmt.Errorf("read instrument file: %w", err)
		}
		cfg.Instrument = msgs
		return nil
	}
	if len(cfg.Instrument) == 0 {
		cfg.Instrument = DefaultInstrument()
	}
	return nil
}
