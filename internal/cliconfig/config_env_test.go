package cliconfig

import (
	"reflect"
	"testing"
	"time"
)

func TestApplyEnvConfig(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		changed  map[string]bool
		initial  Config
		expected Config
		wantErr  bool
	}{
		{
			name: "applies all valid env vars",
			envVars: map[string]string{
				"WAVECAP_BROKER":           "tcp://env:1883",
				"WAVECAP_QOS":              "2",
				"WAVECAP_AVERAGE_COUNT":    "10",
				"WAVECAP_RECORD":           "1",
				"WAVECAP_FFT":              "false",
				"WAVECAP_SAMPLE_RATE_HZ":   "100e6",
				"WAVECAP_CONNECT_TIMEOUT":  "30s",
				"WAVECAP_OUTPUT_DIR":       "/env/out",
				"WAVECAP_LOG_FORMAT":       "json",
				"WAVECAP_FFT_RETENTION_MB": "64",
			},
			changed: map[string]bool{},
			initial: Config{FFT: true},
			expected: Config{
				Broker:         "tcp://env:1883",
				QoS:            2,
				AverageCount:   10,
				Record:         true,
				FFT:            false,
				SampleRateHz:   100e6,
				ConnectTimeout: 30 * time.Second,
				OutputDir:      "/env/out",
				LogFormat:      "json",
				FFTRetentionMB: 64,
			},
		},
		{
			name: "qos zero is applied",
			envVars: map[string]string{
				"WAVECAP_QOS": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{QoS: 1},
			expected: Config{QoS: 0},
		},
		{
			name: "non-positive average is ignored",
			envVars: map[string]string{
				"WAVECAP_AVERAGE_COUNT": "0",
			},
			changed:  map[string]bool{},
			initial:  Config{AverageCount: 3},
			expected: Config{AverageCount: 3},
		},
		{
			name: "respects changed flags",
			envVars: map[string]string{
				"WAVECAP_BROKER":        "tcp://env:1883",
				"WAVECAP_AVERAGE_COUNT": "5",
			},
			changed:  map[string]bool{"broker": true},
			initial:  Config{Broker: "tcp://flag:1883"},
			expected: Config{Broker: "tcp://flag:1883", AverageCount: 5},
		},
		{
			name:    "returns error for invalid duration",
			envVars: map[string]string{"WAVECAP_PUBLISH_TIMEOUT": "later"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid int",
			envVars: map[string]string{"WAVECAP_AVERAGE_COUNT": "many"},
			changed: map[string]bool{},
			wantErr: true,
		},
		{
			name:    "returns error for invalid float",
			envVars: map[string]string{"WAVECAP_SAMPLE_RATE_HZ": "fast"},
			changed: map[string]bool{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envVars {
				t.Setenv(k, v)
			}

			cfg := tt.initial
			err := ApplyEnvConfig(&cfg, tt.changed)

			if tt.wantErr {
				if err == nil {
					t.Error("ApplyEnvConfig() expected error but got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnvConfig() unexpected error: %v", err)
			}
			if !reflect.DeepEqual(cfg, tt.expected) {
				t.Errorf("ApplyEnvConfig() = %+v, want %+v", cfg, tt.expected)
			}
		})
	}
}

// Precedence order: CLI > Env > File > defaults.
func TestConfigPrecedence(t *testing.T) {
	trueVal := true

	fileConf := FileConfig{
		Broker:       "tcp://file:1883",
		Topic:        "file/topic",
		AverageCount: 4,
		Record:       &trueVal,
	}

	t.Setenv("WAVECAP_TOPIC", "env/topic")
	t.Setenv("WAVECAP_AVERAGE_COUNT", "6")

	changed := map[string]bool{
		"average": true,
	}

	cfg := DefaultConfig()
	cfg.AverageCount = 9

	if err := ApplyFileConfig(&cfg, fileConf, changed); err != nil {
		t.Fatalf("ApplyFileConfig failed: %v", err)
	}
	if err := ApplyEnvConfig(&cfg, changed); err != nil {
		t.Fatalf("ApplyEnvConfig failed: %v", err)
	}

	if cfg.AverageCount != 9 {
		t.Errorf("AverageCount = %v, want 9 (CLI should win)", cfg.AverageCount)
	}
	if cfg.Topic != "env/topic" {
		t.Errorf("Topic = %v, want env/topic (env should override file)", cfg.Topic)
	}
	if cfg.Broker != "tcp://file:1883" {
		t.Errorf("Broker = %v, want tcp://file:1883 (file should set)", cfg.Broker)
	}
	if !cfg.Record {
		t.Error("Record = false, want true (file should set)")
	}
	if cfg.ClientID != "wavecap" {
		t.Errorf("ClientID = %v, want wavecap (default kept)", cfg.ClientID)
	}
}
