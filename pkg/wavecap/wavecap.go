package wavecap

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/wavecap/wavecap/internal/adapters/decode"
	"github.com/wavecap/wavecap/internal/adapters/fs"
	"github.com/wavecap/wavecap/internal/adapters/mqtt"
	"github.com/wavecap/wavecap/internal/adapters/parquet"
	"github.com/wavecap/wavecap/internal/app"
	"github.com/wavecap/wavecap/internal/cliconfig"
	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/internal/metrics"
	"github.com/wavecap/wavecap/internal/ports"
	"github.com/wavecap/wavecap/internal/spectrum"
	"github.com/wavecap/wavecap/pkg/log"
)

// Sink names used for the outputs built from Config.
const (
	SinkMeasurements = "measurements"
	SinkParquet      = "parquet"
	SinkAscan        = "ascan"
	SinkFFT          = "fft"
)

// Recorder consumes inspection messages and records averaged batches.
// Use New() to create an instance, then Start() to begin consuming.
type Recorder struct {
	config    Config
	runID     string
	lifecycle *app.Lifecycle
	agent     *app.Agent
	source    ports.MessageSource
	publisher ports.Publisher
	broker    *mqtt.Client
	logger    log.Logger
	plugins   []Plugin

	collector   *metrics.Collector
	metricsSrv  *metrics.Server
	metricsAddr string

	mu             sync.Mutex
	pluginsRunning bool
	runErr         error
}

// New creates a Recorder. The instance is created in StateStopped; call
// Start() to begin consuming. Returns an error if configuration is invalid.
func New(cfg Config, opts ...Option) (*Recorder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NoopLogger{}
	}

	if err := cliconfig.LoadInstrument(&cfg); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger = log.With(logger, log.String("run_id", runID))

	r := &Recorder{
		config:      cfg,
		runID:       runID,
		source:      o.source,
		publisher:   o.publisher,
		logger:      logger,
		plugins:     o.plugins,
		metricsAddr: o.metricsAddr,
	}

	if r.source == nil {
		r.broker = mqtt.NewClient(mqtt.Config{
			Broker:         cfg.Broker,
			ClientID:       cfg.ClientID,
			Topic:          cfg.Topic,
			QoS:            byte(cfg.QoS),
			ConnectTimeout: cfg.ConnectTimeout,
			PublishTimeout: cfg.PublishTimeout,
		}, log.With(logger, log.String("broker", cfg.Broker)))
		r.source = r.broker
		if r.publisher == nil {
			r.publisher = r.broker
		}
	}

	var sinks []app.SinkBinding
	if o.sinksSet {
		for _, s := range o.sinks {
			sinks = append(sinks, app.SinkBinding{Name: s.Name, Sink: s.Sink, Optional: s.Optional})
		}
	} else {
		sinks = buildSinks(cfg, runID, logger)
	}

	var statusRepo ports.StatusRepository
	if cfg.StatusDir != "" {
		statusRepo = fs.NewStatusFileRepository(cfg.StatusDir)
	}

	wrapper := &eventEmitterWrapper{handler: o.eventHandler}
	var emitter app.EventEmitter = wrapper
	if o.metricsAddr != "" {
		r.collector = metrics.NewCollector()
		emitter = app.MultiEmitter{wrapper, r.collector}
	}

	r.lifecycle = app.NewLifecycle(logger, wrapper)
	r.agent = app.NewAgent(app.AgentConfig{
		Averager: app.AveragerConfig{
			BatchSize: cfg.AverageCount,
			Channels:  cfg.Channels(),
		},
		Instrument: cfg.Instrument,
		RunID:      runID,
	}, r.source, decode.NewJSONDecoder(), r.publisher, sinks, statusRepo, logger, emitter)

	return r, nil
}

// buildSinks derives the file outputs from cfg. Recording disabled means
// no sinks; averages are only logged.
func buildSinks(cfg Config, runID string, logger log.Logger) []app.SinkBinding {
	if !cfg.Record {
		return nil
	}

	namer := fs.NewNamer(cfg.OutputDir)
	var sinks []app.SinkBinding
	sinkLog := func(name string) log.Logger { return log.With(logger, log.String("sink", name)) }

	switch cfg.Format {
	case cliconfig.FormatParquet:
		sinks = append(sinks, app.SinkBinding{Name: SinkParquet, Sink: parquet.NewSink(namer, runID, sinkLog(SinkParquet))})
	default:
		sinks = append(sinks, app.SinkBinding{Name: SinkMeasurements, Sink: fs.NewMeasurementCSV(namer, sinkLog(SinkMeasurements))})
		if cfg.Waveform {
			sinks = append(sinks, app.SinkBinding{Name: SinkAscan, Sink: fs.NewWaveformCSV(namer, sinkLog(SinkAscan)), Optional: true})
		}
	}

	if cfg.Waveform && cfg.FFT {
		analyzer := spectrum.NewAnalyzer(cfg.SampleRateHz)
		sinks = append(sinks, app.SinkBinding{Name: SinkFFT, Sink: fs.NewSpectrumCSV(namer, analyzer, sinkLog(SinkFFT)), Optional: true})
	}
	return sinks
}

// RunID returns the identifier of this instance.
func (r *Recorder) RunID() string {
	return r.runID
}

// Start connects, initializes plugins and begins consuming in the
// background. Returns an error if already running or if startup fails.
// The provided context bounds the lifetime of the run.
func (r *Recorder) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lifecycle.Done() != nil {
		// The agent and its sinks are single-use.
		return domain.ErrAlreadyRunning
	}
	if err := r.lifecycle.TransitionTo(app.StateStarting, "Start() called"); err != nil {
		return err
	}

	runCtx := r.lifecycle.Bind(ctx)
	cancel := r.lifecycle.Cancel

	if r.broker != nil {
		if err := r.broker.Connect(runCtx); err != nil {
			r.logger.Error("broker connection failed", log.Err(err))
			cancel()
			_ = r.lifecycle.TransitionTo(app.StateCrashed, "connect failed")
			return err
		}
	}

	if err := r.startMetrics(); err != nil {
		cancel()
		r.closeSource()
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "metrics server failed")
		return err
	}

	pluginCfg := PluginConfig{
		RunID:          r.runID,
		InstrumentFile: r.config.InstrumentFile,
		OutputDir:      r.config.OutputDir,
		Publisher:      r.publisher,
	}
	for i, p := range r.plugins {
		pluginCfg.Logger = log.With(r.logger, log.String("plugin", p.Name()))
		if err := p.Initialize(runCtx, pluginCfg); err != nil {
			r.logger.Error("plugin initialization failed",
				log.String("plugin", p.Name()),
				log.Err(err))
			cancel()
			r.shutdownPlugins(r.plugins[:i])
			r.stopMetrics()
			r.closeSource()
			_ = r.lifecycle.TransitionTo(app.StateCrashed, "plugin init failed: "+p.Name())
			return err
		}
		r.logger.Info("plugin initialized", log.String("plugin", p.Name()))
	}
	r.pluginsRunning = true

	r.lifecycle.Go(func() { r.run(runCtx) })

	return nil
}

func (r *Recorder) run(ctx context.Context) {
	if err := r.lifecycle.TransitionTo(app.StateRunning, "consuming"); err != nil {
		r.logger.Error("failed to transition to running", log.Err(err))
		r.closeSource()
		return
	}

	err := r.agent.Run(ctx)
	r.closeSource()

	r.mu.Lock()
	r.runErr = err
	r.mu.Unlock()

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		r.logger.Error("run failed", log.Err(err))
		_ = r.lifecycle.TransitionTo(app.StateCrashed, err.Error())
		r.teardown()
		return
	}

	// Stop() owns the transition when it initiated the shutdown.
	reason := "stream ended"
	if err != nil {
		reason = "context done"
	}
	if r.lifecycle.TransitionTo(app.StateStopping, reason) == nil {
		r.teardown()
		_ = r.lifecycle.TransitionTo(app.StateStopped, reason)
	}
}

// Stop cancels consumption, waits for the partial batch to be written and
// shuts plugins down. Returns nil on graceful shutdown,
// domain.ErrShutdownTimeout if the run did not finish in time.
func (r *Recorder) Stop() error {
	// Serialized with Start so a stop never lands mid-startup.
	r.mu.Lock()
	err := r.lifecycle.TransitionTo(app.StateStopping, "Stop() called")
	r.mu.Unlock()
	if err != nil {
		return err
	}

	r.lifecycle.Cancel()
	err = r.lifecycle.Wait(app.ShutdownTimeout)

	r.teardown()

	if err != nil {
		_ = r.lifecycle.TransitionTo(app.StateCrashed, "shutdown timeout")
	} else {
		_ = r.lifecycle.TransitionTo(app.StateStopped, "graceful shutdown")
	}
	return err
}

// Status returns the current lifecycle state.
// Safe to call concurrently from any goroutine.
func (r *Recorder) Status() State {
	return State(r.lifecycle.State())
}

// Done is closed when the run ends. Nil before Start.
func (r *Recorder) Done() <-chan struct{} {
	return r.lifecycle.Done()
}

// Err returns the error that ended the run, if any. Valid after Done.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.runErr
}

// Result returns the run counters. Valid after Done.
func (r *Recorder) Result() RunStatus {
	return r.agent.Status()
}

// MetricsAddr returns the bound metrics address, or "" when not serving.
func (r *Recorder) MetricsAddr() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.metricsSrv == nil {
		return ""
	}
	return r.metricsSrv.Addr()
}

func (r *Recorder) startMetrics() error {
	if r.collector == nil {
		return nil
	}
	r.metricsSrv = metrics.NewServer(r.metricsAddr, r.collector, r.logger)
	return r.metricsSrv.Start()
}

func (r *Recorder) stopMetrics() {
	if r.metricsSrv == nil {
		return
	}
	if err := r.metricsSrv.Stop(); err != nil {
		r.logger.Warn("metrics server shutdown", log.Err(err))
	}
}

// teardown shuts plugins down once per run and stops the metrics server.
func (r *Recorder) teardown() {
	r.mu.Lock()
	running := r.pluginsRunning
	r.pluginsRunning = false
	r.mu.Unlock()

	if running {
		r.shutdownPlugins(r.plugins)
	}
	r.stopMetrics()
}

func (r *Recorder) shutdownPlugins(plugins []Plugin) {
	ctx := context.Background()
	for i := len(plugins) - 1; i >= 0; i-- {
		p := plugins[i]
		if err := p.Shutdown(ctx); err != nil {
			r.logger.Error("plugin shutdown failed",
				log.String("plugin", p.Name()),
				log.Err(err))
		} else {
			r.logger.Info("plugin shutdown complete", log.String("plugin", p.Name()))
		}
	}
}

func (r *Recorder) closeSource() {
	if err := r.source.Close(); err != nil {
		r.logger.Warn("close source", log.Err(err))
	}
}
