package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/internal/ports"
	"github.com/wavecap/wavecap/pkg/log"
)

// AgentConfig contains configuration for the consume loop.
type AgentConfig struct {
	Averager AveragerConfig

	// Instrument messages are published, in order, before consumption starts.
	Instrument []domain.InstrumentMessage

	// RunID identifies the run in the persisted status.
	RunID string
}

// SinkBinding attaches a named sink to the agent.
type SinkBinding struct {
	Name string
	Sink ports.RecordSink

	// Optional sinks log write failures and the run continues.
	// A failure in a required sink stops the run.
	Optional bool
}

// statusClock is replaced in tests.
var statusClock = time.Now

// Agent orchestrates the consume, decode, average and persist loop.
type Agent struct {
	config     AgentConfig
	source     ports.MessageSource
	decoder    ports.RecordDecoder
	publisher  ports.Publisher
	sinks      []SinkBinding
	statusRepo ports.StatusRepository
	logger     log.Logger
	emitter    EventEmitter
	averager   *Averager
	status     domain.RunStatus
}

// NewAgent creates a new agent with the given dependencies.
// publisher and statusRepo may be nil.
func NewAgent(
	config AgentConfig,
	source ports.MessageSource,
	decoder ports.RecordDecoder,
	publisher ports.Publisher,
	sinks []SinkBinding,
	statusRepo ports.StatusRepository,
	logger log.Logger,
	emitter EventEmitter,
) *Agent {
	if emitter == nil {
		emitter = NoopEmitter{}
	}
	return &Agent{
		config:     config,
		source:     source,
		decoder:    decoder,
		publisher:  publisher,
		sinks:      sinks,
		statusRepo: statusRepo,
		logger:     logger,
		emitter:    emitter,
		averager:   NewAverager(config.Averager, logger),
	}
}

// Run publishes the instrument configuration and consumes messages until the
// source reports end of stream or the context is canceled. The partial batch
// is flushed and all sinks are closed before Run returns.
//
// Returns nil at end of stream, ctx.Err() on cancellation, and an error if
// publishing fails or a required sink cannot be written.
func (a *Agent) Run(ctx context.Context) (err error) {
	defer func() {
		if cerr := a.closeSinks(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	a.loadStatus(ctx)

	if err := a.publishInstrument(ctx); err != nil {
		return err
	}

	a.logger.Info("waiting for messages",
		log.Int("average_count", a.averager.BatchSize()),
		log.String("channels", a.config.Averager.Channels.String()),
	)

	retry := newRetryDelay(ReadRetryBase, ReadRetryMax)

	for {
		payload, err := a.source.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				a.logger.Info("message stream ended")
				return a.finish(ctx)
			}
			if ctx.Err() != nil {
				if ferr := a.finish(context.WithoutCancel(ctx)); ferr != nil {
					return ferr
				}
				return ctx.Err()
			}

			a.logger.Error("read error", log.Err(err))
			if werr := retry.sleep(ctx); werr != nil {
				if ferr := a.finish(context.WithoutCancel(ctx)); ferr != nil {
					return ferr
				}
				return werr
			}
			continue
		}
		retry.reset()

		if err := a.handle(ctx, payload); err != nil {
			return err
		}
	}
}

// Status returns a copy of the run status.
// Only call after Run has returned; the status is owned by the loop.
func (a *Agent) Status() domain.RunStatus {
	return a.status
}

func (a *Agent) handle(ctx context.Context, payload []byte) error {
	a.status.MessagesReceived++
	a.emitter.OnMessageReceived()

	rec, err := a.decoder.Decode(payload)
	if err != nil {
		a.status.DecodeErrors++
		a.emitter.OnDecodeError(err)
		a.logger.Warn("dropping message", log.Err(err), log.Int("bytes", len(payload)))
		return nil
	}

	out, err := a.averager.Ingest(rec)
	if err != nil {
		a.status.WaveformRejected++
		a.emitter.OnWaveformRejected(err)
		a.logger.Warn("ascan discarded", log.Err(err))
	}
	a.emitter.OnBatchProgress(a.averager.Pending(), a.averager.BatchSize())

	if out == nil {
		return nil
	}
	return a.emit(ctx, *out, false)
}

// finish flushes the partial batch, if any.
func (a *Agent) finish(ctx context.Context) error {
	out := a.averager.Flush()
	if out == nil {
		return nil
	}
	a.logger.Info("flushing partial batch", log.Int("messages", out.Messages))
	return a.emit(ctx, *out, true)
}

func (a *Agent) emit(ctx context.Context, rec domain.AveragedRecord, partial bool) error {
	a.logger.Info("batch averaged",
		log.Uint64("seq", rec.Seq),
		log.Int("messages", rec.Messages),
		log.Strings("names", rec.Names()),
		log.Floats("values", rec.Values()),
		log.Int("ascan_samples", len(rec.Waveform)),
		log.Bool("partial", partial),
	)

	for _, b := range a.sinks {
		if err := b.Sink.Write(ctx, rec); err != nil {
			a.emitter.OnSinkError(b.Name, err)
			if !b.Optional {
				return fmt.Errorf("write %s: %w", b.Name, err)
			}
			a.logger.Warn("sink write failed", log.String("sink", b.Name), log.Err(err))
		}
	}

	a.status.RecordEmitted(rec)
	a.emitter.OnRecordEmitted(rec, partial)
	a.saveStatus(ctx)
	return nil
}

func (a *Agent) publishInstrument(ctx context.Context) error {
	if a.publisher == nil {
		return nil
	}
	for _, m := range a.config.Instrument {
		if err := a.publisher.Publish(ctx, m.Topic, []byte(m.Payload)); err != nil {
			return fmt.Errorf("publish instrument configuration %s: %w", m.Topic, err)
		}
		a.logger.Info("configuration sent",
			log.String("topic", m.Topic),
			log.String("payload", m.Payload),
		)
	}
	return nil
}

func (a *Agent) loadStatus(ctx context.Context) {
	a.status = domain.RunStatus{RunID: a.config.RunID, StartedAt: statusClock()}
	if a.statusRepo == nil {
		return
	}
	prev, err := a.statusRepo.Load(ctx)
	if err != nil {
		a.logger.Error("failed to load status", log.Err(err))
		return
	}
	if !prev.IsEmpty() {
		a.logger.Info("previous run",
			log.String("run_id", prev.RunID),
			log.Uint64("records", prev.RecordsEmitted),
		)
	}
}

func (a *Agent) saveStatus(ctx context.Context) {
	if a.statusRepo == nil {
		return
	}
	a.status.WaveformLength = a.averager.WaveformLength()
	if err := a.statusRepo.Save(ctx, a.status); err != nil {
		a.logger.Error("failed to save status", log.Err(err))
	}
}

func (a *Agent) closeSinks() error {
	var errs []error
	for _, b := range a.sinks {
		if err := b.Sink.Close(); err != nil {
			a.logger.Error("close sink", log.String("sink", b.Name), log.Err(err))
			if !b.Optional {
				errs = append(errs, fmt.Errorf("close %s: %w", b.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
