package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/wavecap/wavecap/internal/domain"
)

type stateChange struct {
	previous State
	current  State
	reason   string
}

type mockStateEmitter struct {
	mu      sync.Mutex
	changes []stateChange
}

func (m *mockStateEmitter) OnStateChange(previous, current State, reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.changes = append(m.changes, stateChange{previous, current, reason})
}

func (m *mockStateEmitter) Changes() []stateChange {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]stateChange{}, m.changes...)
}

func TestState_String(t *testing.T) {
	tests := []struct {
		state State
		want  string
	}{
		{StateStopped, "Stopped"},
		{StateStarting, "Starting"},
		{StateRunning, "Running"},
		{StateStopping, "Stopping"},
		{StateCrashed, "Crashed"},
		{State(-1), "Unknown"},
		{State(42), "Unknown"},
	}
	for _, tt := range tests {
		if got := tt.state.String(); got != tt.want {
			t.Errorf("State(%d).String() = %s, want %s", tt.state, got, tt.want)
		}
	}
}

func TestLifecycle_TransitionTo(t *testing.T) {
	tests := []struct {
		name    string
		from    State
		to      State
		wantErr error
	}{
		{"stopped to starting", StateStopped, StateStarting, nil},
		{"starting to running", StateStarting, StateRunning, nil},
		{"starting to stopping", StateStarting, StateStopping, nil},
		{"stream ends while running", StateRunning, StateStopping, nil},
		{"sink failure while running", StateRunning, StateCrashed, nil},
		{"stopping to stopped", StateStopping, StateStopped, nil},
		{"shutdown timeout", StateStopping, StateCrashed, nil},
		{"crashed to starting", StateCrashed, StateStarting, nil},
		{"running to starting", StateRunning, StateStarting, domain.ErrAlreadyRunning},
		{"stopping to starting", StateStopping, StateStarting, domain.ErrAlreadyRunning},
		{"stopped to running", StateStopped, StateRunning, domain.ErrNotRunning},
		{"stop before start", StateStopped, StateStopping, domain.ErrNotRunning},
		{"second stop", StateStopping, StateStopping, domain.ErrNotRunning},
		{"stop after crash", StateCrashed, StateStopping, domain.ErrNotRunning},
		{"running to stopped", StateRunning, StateStopped, domain.ErrNotRunning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLifecycle(&mockLogger{}, nil)
			l.state = tt.from

			if err := l.TransitionTo(tt.to, "test"); err != tt.wantErr {
				t.Fatalf("TransitionTo() error = %v, want %v", err, tt.wantErr)
			}

			want := tt.to
			if tt.wantErr != nil {
				want = tt.from
			}
			if got := l.State(); got != want {
				t.Errorf("state = %v, want %v", got, want)
			}
		})
	}
}

func TestLifecycle_EmitsAcceptedTransitionsOnly(t *testing.T) {
	emitter := &mockStateEmitter{}
	l := NewLifecycle(&mockLogger{}, emitter)

	_ = l.TransitionTo(StateStarting, "start")
	_ = l.TransitionTo(StateRunning, "consuming")
	_ = l.TransitionTo(StateStopped, "refused")

	changes := emitter.Changes()
	if len(changes) != 2 {
		t.Fatalf("got %d changes, want 2", len(changes))
	}
	if got := changes[1]; got != (stateChange{StateStarting, StateRunning, "consuming"}) {
		t.Errorf("change 1 = %+v", got)
	}
}

func TestLifecycle_ConcurrentStopsOneWins(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)
	l.state = StateRunning

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- l.TransitionTo(StateStopping, "stop")
		}()
	}
	wg.Wait()
	close(errs)

	accepted := 0
	for err := range errs {
		switch err {
		case nil:
			accepted++
		case domain.ErrNotRunning:
		default:
			t.Errorf("unexpected error %v", err)
		}
	}
	if accepted != 1 {
		t.Errorf("accepted = %d, want 1", accepted)
	}
}

func TestLifecycle_BindCancel(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	// Cancel before Bind must not panic.
	l.Cancel()

	ctx := l.Bind(context.Background())
	l.Cancel()

	select {
	case <-ctx.Done():
	default:
		t.Error("context should be canceled after Cancel()")
	}
}

func TestLifecycle_GoWait(t *testing.T) {
	l := NewLifecycle(&mockLogger{}, nil)

	if l.Done() != nil {
		t.Error("Done() should be nil before Go")
	}
	if err := l.Wait(time.Millisecond); err != nil {
		t.Errorf("Wait() without worker = %v, want nil", err)
	}

	release := make(chan struct{})
	l.Go(func() { <-release })

	if err := l.Wait(10 * time.Millisecond); err != domain.ErrShutdownTimeout {
		t.Errorf("Wait() = %v, want ErrShutdownTimeout", err)
	}

	close(release)
	if err := l.Wait(time.Second); err != nil {
		t.Errorf("Wait() = %v, want nil", err)
	}
	select {
	case <-l.Done():
	default:
		t.Error("Done() should be closed after the worker returns")
	}
}
