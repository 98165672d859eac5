package wavecap

import "github.com/wavecap/wavecap/internal/app"

// State is the lifecycle state of a Recorder.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

func (s State) String() string {
	return app.State(s).String()
}

// StateChangeEvent is emitted on every lifecycle transition.
type StateChangeEvent struct {
	Previous State
	Current  State
	Reason   string
}

// RecordEvent is emitted after an averaged record has been written.
type RecordEvent struct {
	Seq            uint64
	Messages       int
	Names          []string
	Values         []float64
	WaveformLength int

	// Partial is true for the batch flushed at the end of a run.
	Partial bool
}

// DropEvent reports a message or ascan that did not contribute to an average.
type DropEvent struct {
	Error error
}

// SinkErrorEvent reports a failed write.
type SinkErrorEvent struct {
	Sink  string
	Error error
}

// EventHandler receives recorder events.
// Calls are made synchronously from the consuming goroutine.
type EventHandler interface {
	OnStateChange(StateChangeEvent)
	OnRecord(RecordEvent)
	OnDecodeError(DropEvent)
	OnWaveformRejected(DropEvent)
	OnSinkError(SinkErrorEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only some events.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent) {}
func (BaseEventHandler) OnRecord(RecordEvent)           {}
func (BaseEventHandler) OnDecodeError(DropEvent)        {}
func (BaseEventHandler) OnWaveformRejected(DropEvent)   {}
func (BaseEventHandler) OnSinkError(SinkErrorEvent)     {}
