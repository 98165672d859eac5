package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	pflag "github.com/spf13/pflag"

	"github.com/wavecap/wavecap/internal/adapters/mqtt"
	"github.com/wavecap/wavecap/internal/cliconfig"
	"github.com/wavecap/wavecap/pkg/log"
	"github.com/wavecap/wavecap/pkg/wavecap"
	"github.com/wavecap/wavecap/plugins/configwatcher"
	"github.com/wavecap/wavecap/plugins/fftretention"
)

const longHelp = `Wave - probe characterisation.

Subscribes to the probe's inspection topic, averages every N messages and
logs each average. With -r the averages are recorded next to the working
directory (or --output-dir):

  dataMeas_<timestamp>.csv    averaged measurements, one row per batch
  dataAscan_<timestamp>.csv   averaged ascan, one row per batch
  dataFFT_<timestamp>_<n>.csv spectrum of each averaged ascan

Before consuming, the instrument settings are published to the probe.
Settings come from $HOME/.wavecap/config.toml, WAVECAP_* variables and flags,
in increasing precedence.`

var exampleUsage = strings.TrimSpace(`
  wavecap -a mqtt://192.168.1.73:1883 -m 16 -r
  wavecap --config ./bench.toml --format parquet --output-dir /data/run1
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	root := newRootCmd(os.Stderr)
	root.SetArgs(dropDanglingFlag(root.Flags(), os.Args[1:]))
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(logOut io.Writer) *cobra.Command {
	cfg := cliconfig.DefaultConfig()
	var cfgPath string
	var flagWarnings []string

	root := &cobra.Command{
		Use:           "wavecap",
		Short:         "Average ultrasonic probe inspections from MQTT and record them",
		Long:          longHelp,
		Example:       exampleUsage,
		Version:       fmt.Sprintf("%s %s/%s", getVersion(), runtime.GOOS, runtime.GOARCH),
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
		// Unknown flags are reported and skipped.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		RunE: func(cmd *cobra.Command, args []string) error {
			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			if err := resolveConfig(&cfg, cfgPath, changed); err != nil {
				return err
			}

			logger := cliconfig.NewLogger(logOut, cfg)
			mqtt.RouteLibraryLogs(logger)

			for _, w := range flagWarnings {
				logger.Warn(w)
			}
			for _, arg := range unknownArgs(cmd.Flags(), os.Args[1:]) {
				logger.Warn("unknown argument ignored", log.String("arg", arg))
			}

			if err := cliconfig.LoadInstrument(&cfg); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Info("configuration",
				log.String("broker", cfg.Broker),
				log.String("topic", cfg.Topic),
				log.Int("average_count", cfg.AverageCount),
				log.Bool("record", cfg.Record),
				log.String("format", cfg.Format),
				log.String("output_dir", cfg.OutputDir),
				log.Bool("waveform", cfg.Waveform),
				log.Bool("fft", cfg.FFT),
				log.Int("fft_retention_mb", cfg.FFTRetentionMB),
				log.Int("instrument_messages", len(cfg.Instrument)),
			)

			return run(cmd.Context(), cfg, logger)
		},
	}

	bindFlags(root.Flags(), &cfg, &cfgPath, &flagWarnings)
	return root
}

// resolveConfig applies the config file and environment under the flags.
func resolveConfig(cfg *cliconfig.Config, cfgPath string, changed map[string]bool) error {
	cfgFile := cfgPath
	if cfgFile == "" {
		cfgFile = cliconfig.DefaultConfigPath()
	}
	if cfgFile != "" && cliconfig.FileExists(cfgFile) {
		fc, err := cliconfig.LoadFileConfig(cfgFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if err := cliconfig.ApplyFileConfig(cfg, fc, changed); err != nil {
			return err
		}
	} else if cfgPath != "" {
		return fmt.Errorf("config file %s not found", cfgPath)
	}

	// WAVECAP_* override the file, flags override both.
	return cliconfig.ApplyEnvConfig(cfg, changed)
}

func run(parent context.Context, cfg cliconfig.Config, logger log.Logger) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	opts := []wavecap.Option{wavecap.WithLogger(logger)}
	if cfg.InstrumentFile != "" {
		opts = append(opts, configwatcher.WithDefaultConfigWatcher())
	}
	if cfg.Record && cfg.FFT && cfg.FFTRetentionMB > 0 {
		opts = append(opts, fftretention.WithFFTRetention(fftretention.Config{
			HighWatermark: int64(cfg.FFTRetentionMB) << 20,
		}))
	}
	if cfg.MetricsAddr != "" {
		opts = append(opts, wavecap.WithMetrics(cfg.MetricsAddr))
	}

	rec, err := wavecap.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("create recorder: %w", err)
	}
	// Signals go through Stop so the partial batch is flushed under the
	// shutdown timeout.
	if err := rec.Start(context.WithoutCancel(parent)); err != nil {
		return fmt.Errorf("start: %w", err)
	}

	select {
	case <-ctx.Done():
		logger.Info("received signal, stopping")
		if err := rec.Stop(); err != nil && !errors.Is(err, wavecap.ErrNotRunning) {
			return fmt.Errorf("stop: %w", err)
		}
	case <-rec.Done():
	}

	res := rec.Result()
	logger.Info("run finished",
		log.String("run_id", res.RunID),
		log.Uint64("messages", res.MessagesReceived),
		log.Uint64("records", res.RecordsEmitted),
		log.Uint64("decode_errors", res.DecodeErrors),
		log.Uint64("ascans_rejected", res.WaveformRejected),
	)

	if rec.Status() == wavecap.StateCrashed {
		return fmt.Errorf("run failed: %w", rec.Err())
	}
	return nil
}
