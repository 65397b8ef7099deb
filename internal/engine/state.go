package engine

import (
	"fmt"
	"sync"
)

// Phase is the transaction state-machine value.
type Phase int

const (
	PhaseIdle Phase = iota
	PhasePreparing
	PhaseAwaitingUserConfirmation
	PhaseConfirming
	PhaseSucceeded
	PhaseFailed
)

var phaseNames = [...]string{"idle", "preparing", "awaiting-confirmation", "confirming", "succeeded", "failed"}

func (p Phase) String() string {
	if p < PhaseIdle || p > PhaseFailed {
		return fmt.Sprintf("phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Terminal reports whether p ends an attempt.
func (p Phase) Terminal() bool {
	return p == PhaseSucceeded || p == PhaseFailed
}

// InFlight reports whether an attempt is running.
func (p Phase) InFlight() bool {
	return p != PhaseIdle && !p.Terminal()
}

// transitions lists the legal moves. Idle -> Preparing belongs to begin and
// Reset (terminal -> Idle) is handled separately.
var transitions = map[Phase][]Phase{
	PhaseIdle:                     {PhasePreparing},
	PhasePreparing:                {PhaseAwaitingUserConfirmation, PhaseFailed},
	PhaseAwaitingUserConfirmation: {PhaseConfirming, PhaseFailed},
	PhaseConfirming:               {PhaseSucceeded, PhaseFailed},
}

func canMove(from, to Phase) bool {
	for _, p := range transitions[from] {
		if p == to {
			return true
		}
	}
	return false
}

// State is a snapshot of the engine's observable record.
type State struct {
	Phase     Phase
	AttemptID string
	Err       *Error
	Result    *Result
}

// Transition is delivered to subscribers after every phase change.
type Transition struct {
	From  Phase
	To    Phase
	State State
}

// Machine holds the state for one engine. Only the pipeline mutates it;
// observers read snapshots or subscribe.
type Machine struct {
	mu     sync.Mutex
	state  State
	subs   map[int]func(Transition)
	nextID int
}

func newMachine() *Machine {
	return &Machine{subs: make(map[int]func(Transition))}
}

// Snapshot returns a copy of the current state.
func (m *Machine) Snapshot() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Subscribe registers fn for every subsequent transition. Callbacks run on
// the pipeline's goroutine and must not block. The returned func
// unsubscribes.
func (m *Machine) Subscribe(fn func(Transition)) func() {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// begin claims the machine for a new attempt (Idle -> Preparing).
func (m *Machine) begin(attemptID string) error {
	return m.apply(func(s *State) error {
		switch {
		case s.Phase.InFlight():
			return ErrAttemptInFlight
		case s.Phase.Terminal():
			return ErrResetRequired
		}
		s.Phase = PhasePreparing
		s.AttemptID = attemptID
		return nil
	})
}

// advance moves between in-flight phases. Entering Preparing goes through
// begin, and terminal phases through fail or succeed.
func (m *Machine) advance(to Phase) error {
	return m.apply(func(s *State) error {
		switch to {
		case PhasePreparing, PhaseFailed, PhaseSucceeded:
			return fmt.Errorf("illegal transition %s -> %s", s.Phase, to)
		}
		if !canMove(s.Phase, to) {
			return fmt.Errorf("illegal transition %s -> %s", s.Phase, to)
		}
		s.Phase = to
		return nil
	})
}

func (m *Machine) fail(err *Error) error {
	return m.apply(func(s *State) error {
		if !canMove(s.Phase, PhaseFailed) {
			return fmt.Errorf("illegal transition %s -> %s", s.Phase, PhaseFailed)
		}
		s.Phase = PhaseFailed
		s.Err = err
		return nil
	})
}

func (m *Machine) succeed(r *Result) error {
	return m.apply(func(s *State) error {
		if !canMove(s.Phase, PhaseSucceeded) {
			return fmt.Errorf("illegal transition %s -> %s", s.Phase, PhaseSucceeded)
		}
		s.Phase = PhaseSucceeded
		s.Result = r
		return nil
	})
}

// Reset returns a terminal machine to Idle, clearing the last error and
// result. Resetting an idle machine is a no-op.
func (m *Machine) Reset() error {
	return m.apply(func(s *State) error {
		if s.Phase.InFlight() {
			return ErrAttemptInFlight
		}
		*s = State{}
		return nil
	})
}

func (m *Machine) apply(fn func(*State) error) error {
	m.mu.Lock()
	from := m.state.Phase
	if err := fn(&m.state); err != nil {
		m.mu.Unlock()
		return err
	}
	t := Transition{From: from, To: m.state.Phase, State: m.state}
	subs := make([]func(Transition), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	m.mu.Unlock()

	if t.From == t.To {
		return nil
	}
	for _, fn := range subs {
		fn(t)
	}
	return nil
}
