package cliconfig

import "os"

// EnvPrefix prefixes every environment variable read by ApplyEnvConfig.
const EnvPrefix = "WAVECAP_"

// ApplyEnvConfig applies WAVECAP_* environment variables to the Config.
// Flags that have been explicitly set (changed map) win over the environment.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) error {
	s := newConfigSetter(changed)
	env := func(name string) string { return os.Getenv(EnvPrefix + name) }

	s.setString("broker", env("BROKER"), &cfg.Broker)
	s.setString("client-id", env("CLIENT_ID"), &cfg.ClientID)
	s.setString("topic", env("TOPIC"), &cfg.Topic)
	s.setString("output-dir", env("OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("format", env("FORMAT"), &cfg.Format)
	s.setString("status-dir", env("STATUS_DIR"), &cfg.StatusDir)
	s.setString("metrics-addr", env("METRICS_ADDR"), &cfg.MetricsAddr)
	s.setString("log-level", env("LOG_LEVEL"), &cfg.LogLevel)
	s.setString("log-format", env("LOG_FORMAT"), &cfg.LogFormat)
	s.setString("instrument-file", env("INSTRUMENT_FILE"), &cfg.InstrumentFile)

	if err := s.setDuration("connect-timeout", env("CONNECT_TIMEOUT"), &cfg.ConnectTimeout); err != nil {
		return err
	}
	if err := s.setDuration("publish-timeout", env("PUBLISH_TIMEOUT"), &cfg.PublishTimeout); err != nil {
		return err
	}

	if err := s.setIntFromString("qos", env("QOS"), true, &cfg.QoS); err != nil {
		return err
	}
	if err := s.setIntFromString("average", env("AVERAGE_COUNT"), false, &cfg.AverageCount); err != nil {
		return err
	}
	if err := s.setIntFromString("fft-retention-mb", env("FFT_RETENTION_MB"), false, &cfg.FFTRetentionMB); err != nil {
		return err
	}
	if err := s.setFloatFromString("sample-rate", env("SAMPLE_RATE_HZ"), &cfg.SampleRateHz); err != nil {
		return err
	}

	s.setBoolFromString("waveform", env("WAVEFORM"), &cfg.Waveform)
	s.setBoolFromString("record", env("RECORD"), &cfg.Record)
	s.setBoolFromString("fft", env("FFT"), &cfg.FFT)

	return nil
}
