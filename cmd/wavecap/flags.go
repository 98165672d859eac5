package main

import (
	"fmt"
	"strconv"
	"strings"

	pflag "github.com/spf13/pflag"

	"github.com/wavecap/wavecap/internal/app"
	"github.com/wavecap/wavecap/internal/cliconfig"
)

// averageValue is the -m flag. The leading integer of the value is used, so
// "3.5" selects 3. Invalid input selects the default batch size and leaves a
// warning instead of failing the command.
type averageValue struct {
	dst      *int
	warnings *[]string
}

func (v *averageValue) String() string {
	if v.dst == nil {
		return strconv.Itoa(app.DefaultBatchSize)
	}
	return strconv.Itoa(*v.dst)
}

func (v *averageValue) Set(s string) error {
	n, err := strconv.Atoi(leadingInt(s))
	switch {
	case err != nil:
		*v.warnings = append(*v.warnings, fmt.Sprintf("invalid average count %q, using %d", s, app.DefaultBatchSize))
		n = app.DefaultBatchSize
	case n < 1:
		*v.warnings = append(*v.warnings, fmt.Sprintf("average count must be >= 1, got %d, using %d", n, app.DefaultBatchSize))
		n = app.DefaultBatchSize
	}
	*v.dst = n
	return nil
}

func (v *averageValue) Type() string {
	return "int"
}

// leadingInt returns the optional sign and digits at the start of s, after
// any leading spaces.
func leadingInt(s string) string {
	s = strings.TrimLeft(s, " \t")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return s
	}
	return s[:end]
}

// bindFlags registers all flags on fs, writing into cfg.
func bindFlags(fs *pflag.FlagSet, cfg *cliconfig.Config, cfgPath *string, warnings *[]string) {
	fs.StringVar(cfgPath, "config", "", "path to config file (default: $HOME/.wavecap/config.toml)")

	fs.StringVarP(&cfg.Broker, "broker", "a", cfg.Broker, "MQTT broker URI")
	fs.VarP(&averageValue{dst: &cfg.AverageCount, warnings: warnings}, "average", "m", "number of messages per average")
	fs.BoolVarP(&cfg.Record, "record", "r", cfg.Record, "record averages to files")

	fs.StringVar(&cfg.ClientID, "client-id", cfg.ClientID, "MQTT client id (the broker keeps its session)")
	fs.StringVar(&cfg.Topic, "topic", cfg.Topic, "inspection topic")
	fs.IntVar(&cfg.QoS, "qos", cfg.QoS, "MQTT QoS for subscribe and publish")
	fs.DurationVar(&cfg.ConnectTimeout, "connect-timeout", cfg.ConnectTimeout, "broker connect timeout")
	fs.DurationVar(&cfg.PublishTimeout, "publish-timeout", cfg.PublishTimeout, "instrument publish timeout")

	fs.StringVar(&cfg.OutputDir, "output-dir", cfg.OutputDir, "directory for recorded files (default: working directory)")
	fs.StringVar(&cfg.Format, "format", cfg.Format, "measurement output format: csv or parquet")
	fs.BoolVar(&cfg.Waveform, "waveform", cfg.Waveform, "average the ascan waveform")
	fs.BoolVar(&cfg.FFT, "fft", cfg.FFT, "write an FFT file for every averaged ascan")
	fs.IntVar(&cfg.FFTRetentionMB, "fft-retention-mb", cfg.FFTRetentionMB, "remove the oldest FFT files above this many MiB (0 keeps all)")
	fs.Float64Var(&cfg.SampleRateHz, "sample-rate", cfg.SampleRateHz, "ascan sample rate in Hz")

	fs.StringVar(&cfg.StatusDir, "status-dir", cfg.StatusDir, "directory for status.json (disabled when empty)")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "serve Prometheus metrics on this address (disabled when empty)")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn or error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: console or json")
	fs.StringVar(&cfg.InstrumentFile, "instrument-file", cfg.InstrumentFile, "TOML file with [[instrument]] messages, reloaded on change")
}

// lookupArg resolves a flag argument against fs. inline reports whether the
// value is attached ("--name=v" or "-mV").
func lookupArg(fs *pflag.FlagSet, arg string) (f *pflag.Flag, inline bool) {
	if strings.HasPrefix(arg, "--") {
		name := strings.TrimPrefix(arg, "--")
		if eq := strings.IndexByte(name, '='); eq >= 0 {
			name, inline = name[:eq], true
		}
		return fs.Lookup(name), inline
	}
	return fs.ShorthandLookup(arg[1:2]), len(arg) > 2
}

func isFlagArg(arg string) bool {
	return strings.HasPrefix(arg, "-") && arg != "-" && arg != "--"
}

// dropDanglingFlag removes a trailing known flag that needs a value but has
// none, such as a bare "-m" at the end of the line. pflag would fail the
// whole command on it; the flag keeps its default and unknownArgs reports it.
func dropDanglingFlag(fs *pflag.FlagSet, args []string) []string {
	_, dangling := scanArgs(fs, args)
	if !dangling {
		return args
	}
	return args[:len(args)-1]
}

// unknownArgs returns the command-line arguments that are not flags known
// to fs. Values of known flags are skipped; a known flag missing its value
// is returned as well.
func unknownArgs(fs *pflag.FlagSet, args []string) []string {
	unknown, _ := scanArgs(fs, args)
	return unknown
}

// scanArgs walks args the way pflag consumes them. dangling reports that the
// last argument is a known flag still waiting for its value.
func scanArgs(fs *pflag.FlagSet, args []string) (unknown []string, dangling bool) {
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return append(unknown, args[i+1:]...), false
		}
		if !isFlagArg(arg) {
			unknown = append(unknown, arg)
			continue
		}

		f, inline := lookupArg(fs, arg)
		if f == nil {
			unknown = append(unknown, arg)
			continue
		}
		if inline || f.NoOptDefVal != "" {
			continue
		}
		if i+1 < len(args) {
			i++
			continue
		}
		unknown = append(unknown, arg)
		dangling = true
	}
	return unknown, dangling
}
