package wavecap

import (
	"github.com/wavecap/wavecap/internal/app"
	"github.com/wavecap/wavecap/internal/domain"
)

// eventEmitterWrapper adapts EventHandler to the internal emitter interfaces.
type eventEmitterWrapper struct {
	app.NoopEmitter
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.State, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Previous: State(previous),
		Current:  State(current),
		Reason:   reason,
	})
}

func (e *eventEmitterWrapper) OnDecodeError(err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnDecodeError(DropEvent{Error: err})
}

func (e *eventEmitterWrapper) OnWaveformRejected(err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnWaveformRejected(DropEvent{Error: err})
}

func (e *eventEmitterWrapper) OnRecordEmitted(rec domain.AveragedRecord, partial bool) {
	if e.handler == nil {
		return
	}
	e.handler.OnRecord(RecordEvent{
		Seq:            rec.Seq,
		Messages:       rec.Messages,
		Names:          rec.Names(),
		Values:         rec.Values(),
		WaveformLength: len(rec.Waveform),
		Partial:        partial,
	})
}

func (e *eventEmitterWrapper) OnSinkError(sink string, err error) {
	if e.handler == nil {
		return
	}
	e.handler.OnSinkError(SinkErrorEvent{Sink: sink, Error: err})
}
