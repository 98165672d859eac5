package wavecap

import (
	"github.com/wavecap/wavecap/internal/cliconfig"
	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/internal/ports"
	"github.com/wavecap/wavecap/pkg/log"
)

// Re-exported types. Users can also import pkg/log directly.
type (
	// Config is the recorder configuration.
	Config = cliconfig.Config

	// Logger is the structured logging interface from pkg/log.
	Logger = log.Logger

	// MessageSource yields raw inspection payloads.
	MessageSource = ports.MessageSource

	// Publisher sends instrument configuration messages.
	Publisher = ports.Publisher

	// RecordSink persists averaged records.
	RecordSink = ports.RecordSink

	// AveragedRecord is one averaged batch.
	AveragedRecord = domain.AveragedRecord

	// InstrumentMessage is one instrument configuration message.
	InstrumentMessage = domain.InstrumentMessage

	// RunStatus summarizes a finished run.
	RunStatus = domain.RunStatus
)

// Lifecycle errors returned by Start and Stop.
var (
	ErrAlreadyRunning  = domain.ErrAlreadyRunning
	ErrNotRunning      = domain.ErrNotRunning
	ErrShutdownTimeout = domain.ErrShutdownTimeout
)

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return cliconfig.DefaultConfig()
}

// Sink is a named output. A failing optional sink is logged and the run
// continues; a failing required sink ends the run.
type Sink struct {
	Name     string
	Sink     RecordSink
	Optional bool
}

// Option configures optional behavior of a Recorder.
type Option func(*options)

type options struct {
	logger       Logger
	eventHandler EventHandler
	plugins      []Plugin
	source       MessageSource
	publisher    Publisher
	sinks        []Sink
	sinksSet     bool
	metricsAddr  string
}

// WithLogger sets a custom logger. If not provided, a no-op logger is used.
func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for recorder events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithPlugin registers a plugin to be initialized when the recorder starts.
func WithPlugin(plugin Plugin) Option {
	return func(o *options) {
		o.plugins = append(o.plugins, plugin)
	}
}

// WithSource replaces the MQTT subscription. Unless WithPublisher is also
// given, no instrument configuration is published.
func WithSource(src MessageSource) Option {
	return func(o *options) {
		o.source = src
	}
}

// WithPublisher replaces the publisher used for instrument configuration.
func WithPublisher(pub Publisher) Option {
	return func(o *options) {
		o.publisher = pub
	}
}

// WithSinks replaces the file outputs derived from Config.
// Passing no sinks disables recording.
func WithSinks(sinks ...Sink) Option {
	return func(o *options) {
		o.sinks = sinks
		o.sinksSet = true
	}
}

// WithMetrics serves Prometheus metrics on addr while the recorder runs.
func WithMetrics(addr string) Option {
	return func(o *options) {
		o.metricsAddr = addr
	}
}
