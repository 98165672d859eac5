package app

import (
	"context"
	"sync"
	"time"

	"github.com/wavecap/wavecap/internal/domain"
	"github.com/wavecap/wavecap/pkg/log"
)

// ShutdownTimeout bounds how long a stop waits for the consume loop to
// flush its partial batch.
const ShutdownTimeout = 30 * time.Second

// State is the lifecycle state of a capture run.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{"Stopped", "Starting", "Running", "Stopping", "Crashed"}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

func (s State) bit() uint8 { return 1 << uint(s) }

// successors holds the permitted targets of each state.
var successors = [...]uint8{
	StateStopped:  StateStarting.bit(),
	StateStarting: StateRunning.bit() | StateStopping.bit() | StateCrashed.bit(),
	StateRunning:  StateStopping.bit() | StateCrashed.bit(),
	StateStopping: StateStopped.bit() | StateCrashed.bit(),
	StateCrashed:  StateStarting.bit(),
}

// StateEmitter is notified after every accepted transition.
type StateEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Lifecycle tracks the state of a capture run and owns its single worker
// goroutine.
type Lifecycle struct {
	mu      sync.Mutex
	state   State
	cancel  context.CancelFunc
	done    chan struct{}
	logger  log.Logger
	emitter StateEmitter
}

// NewLifecycle returns a Lifecycle in StateStopped. emitter may be nil.
func NewLifecycle(logger log.Logger, emitter StateEmitter) *Lifecycle {
	return &Lifecycle{state: StateStopped, logger: logger, emitter: emitter}
}

// State returns the current state.
func (l *Lifecycle) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// TransitionTo moves to target atomically. A refused move into
// StateStarting returns domain.ErrAlreadyRunning; any other refused move
// returns domain.ErrNotRunning.
func (l *Lifecycle) TransitionTo(target State, reason string) error {
	l.mu.Lock()
	from := l.state
	if successors[from]&target.bit() == 0 {
		l.mu.Unlock()
		if target == StateStarting {
			return domain.ErrAlreadyRunning
		}
		return domain.ErrNotRunning
	}
	l.state = target
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(from, target, reason)
	}
	l.logger.Info("state transition",
		log.String("from", from.String()),
		log.String("to", target.String()),
		log.String("reason", reason),
	)
	return nil
}

// Bind derives the run context from parent. Cancel ends it.
func (l *Lifecycle) Bind(parent context.Context) context.Context {
	ctx, cancel := context.WithCancel(parent)
	l.mu.Lock()
	l.cancel = cancel
	l.mu.Unlock()
	return ctx
}

// Cancel ends the context returned by Bind. Safe before Bind.
func (l *Lifecycle) Cancel() {
	l.mu.Lock()
	cancel := l.cancel
	l.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Go runs fn on the worker goroutine. Done is closed once fn returns.
// Go may be called once per Lifecycle.
func (l *Lifecycle) Go(fn func()) {
	done := make(chan struct{})
	l.mu.Lock()
	l.done = done
	l.mu.Unlock()

	go func() {
		defer close(done)
		fn()
	}()
}

// Done returns the worker's completion channel, or nil before Go.
func (l *Lifecycle) Done() <-chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.done
}

// Wait blocks until the worker returns or timeout expires. Without a
// worker it returns immediately.
func (l *Lifecycle) Wait(timeout time.Duration) error {
	done := l.Done()
	if done == nil {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case <-done:
		return nil
	case <-timer.C:
		l.logger.Warn("shutdown timeout, consume loop still running",
			log.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
