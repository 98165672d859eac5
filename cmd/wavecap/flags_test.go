package main

import (
	"reflect"
	"testing"

	pflag "github.com/spf13/pflag"

	"github.com/wavecap/wavecap/internal/cliconfig"
)

func parse(t *testing.T, args ...string) (cliconfig.Config, []string, *pflag.FlagSet) {
	t.Helper()
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var warnings []string

	fs := pflag.NewFlagSet("wavecap", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	bindFlags(fs, &cfg, &cfgPath, &warnings)
	if err := fs.Parse(args); err != nil {
		t.Fatalf("Parse(%v) error = %v", args, err)
	}
	return cfg, warnings, fs
}

func TestFlags_ShortForms(t *testing.T) {
	cfg, warnings, _ := parse(t, "-a", "tcp://10.0.0.2:1883", "-m", "16", "-r")

	if cfg.Broker != "tcp://10.0.0.2:1883" {
		t.Errorf("Broker = %v", cfg.Broker)
	}
	if cfg.AverageCount != 16 {
		t.Errorf("AverageCount = %v, want 16", cfg.AverageCount)
	}
	if !cfg.Record {
		t.Error("Record = false, want true")
	}
	if len(warnings) != 0 {
		t.Errorf("warnings = %v, want none", warnings)
	}
}

func TestFlags_InvalidAverage(t *testing.T) {
	tests := []struct {
		name string
		arg  string
	}{
		{name: "not a number", arg: "abc"},
		{name: "zero", arg: "0"},
		{name: "negative", arg: "-3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, warnings, _ := parse(t, "-m", tt.arg)
			if cfg.AverageCount != 1 {
				t.Errorf("AverageCount = %v, want 1", cfg.AverageCount)
			}
			if len(warnings) != 1 {
				t.Errorf("warnings = %v, want one", warnings)
			}
		})
	}
}

func TestFlags_AverageLeadingInteger(t *testing.T) {
	tests := []struct {
		arg  string
		want int
	}{
		{arg: "3.5", want: 3},
		{arg: "12abc", want: 12},
		{arg: "+7", want: 7},
		{arg: " 5", want: 5},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			cfg, warnings, _ := parse(t, "-m", tt.arg)
			if cfg.AverageCount != tt.want {
				t.Errorf("AverageCount = %v, want %v", cfg.AverageCount, tt.want)
			}
			if len(warnings) != 0 {
				t.Errorf("warnings = %v, want none", warnings)
			}
		})
	}
}

func TestFlags_TrailingFlagWithoutValue(t *testing.T) {
	tests := []struct {
		name        string
		args        []string
		wantArgs    []string
		wantUnknown []string
	}{
		{name: "bare average", args: []string{"-m"}, wantArgs: []string{}, wantUnknown: []string{"-m"}},
		{name: "bare broker after record", args: []string{"-r", "-a"}, wantArgs: []string{"-r"}, wantUnknown: []string{"-a"}},
		{name: "long form", args: []string{"--topic"}, wantArgs: []string{}, wantUnknown: []string{"--topic"}},
		{name: "consumed as a value", args: []string{"--topic", "-m"}, wantArgs: []string{"--topic", "-m"}},
		{name: "bool flag last", args: []string{"--fft", "-r"}, wantArgs: []string{"--fft", "-r"}},
		{name: "after terminator", args: []string{"--", "-m"}, wantArgs: []string{"--", "-m"}, wantUnknown: []string{"-m"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, fs := parse(t)
			args := dropDanglingFlag(fs, tt.args)
			if !reflect.DeepEqual(args, tt.wantArgs) {
				t.Errorf("dropDanglingFlag(%v) = %v, want %v", tt.args, args, tt.wantArgs)
			}
			if got := unknownArgs(fs, tt.args); !reflect.DeepEqual(got, tt.wantUnknown) {
				t.Errorf("unknownArgs(%v) = %v, want %v", tt.args, got, tt.wantUnknown)
			}

			cfg, warnings, _ := parse(t, args...)
			if cfg.AverageCount != 1 {
				t.Errorf("AverageCount = %v, want 1", cfg.AverageCount)
			}
			if cfg.Broker != cliconfig.DefaultConfig().Broker {
				t.Errorf("Broker = %v, want default", cfg.Broker)
			}
			if len(warnings) != 0 {
				t.Errorf("warnings = %v, want none", warnings)
			}
		})
	}
}

func TestFlags_UnknownFlagsIgnored(t *testing.T) {
	cfg, _, fs := parse(t, "-x", "-m", "4", "--bogus=1")
	if cfg.AverageCount != 4 {
		t.Errorf("AverageCount = %v, want 4", cfg.AverageCount)
	}

	got := unknownArgs(fs, []string{"-x", "-m", "4", "--bogus=1"})
	want := []string{"-x", "--bogus=1"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("unknownArgs() = %v, want %v", got, want)
	}
}

func TestUnknownArgs(t *testing.T) {
	_, _, fs := parse(t)

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "none", args: []string{"-a", "tcp://b:1883", "-r", "--fft=false"}},
		{name: "stray positional", args: []string{"-r", "extra"}, want: []string{"extra"}},
		{name: "flag value skipped", args: []string{"--topic", "a/b"}},
		{name: "inline short value", args: []string{"-m8", "-z"}, want: []string{"-z"}},
		{name: "after terminator", args: []string{"--", "-r"}, want: []string{"-r"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := unknownArgs(fs, tt.args)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("unknownArgs(%v) = %v, want %v", tt.args, got, tt.want)
			}
		})
	}
}

func TestResolveConfig_MissingExplicitFile(t *testing.T) {
	cfg := cliconfig.DefaultConfig()
	if err := resolveConfig(&cfg, "/nonexistent/wavecap.toml", map[string]bool{}); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}
