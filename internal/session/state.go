// Package session implements the authoritative pipeline state machine.
//
// Exactly one Machine instance exists per pipeline. Three independent trigger
// paths feed it — keyboard input, recognized voice commands, and lifecycle
// shutdown — and every other component reads the state through the guarded
// accessor. No component may cache the state across a yield point.
//
// All transitions are total functions of (current state, trigger): pairs not
// listed in the transition table are deliberate no-ops, never errors, so that
// double-pausing or pausing while already paused cannot fault the pipeline.
// Stopped is terminal; a fresh Machine must be created to resume operation.
package session

import "sync"

// State is the pipeline's running state.
type State int

const (
	// Idle is the initial state: the pipeline is constructed but not capturing.
	Idle State = iota

	// Recording means frames flow through detection and recognition.
	Recording

	// Paused means capture continues but frames are discarded before detection.
	Paused

	// Stopped is terminal.
	Stopped
)

// String returns the human-readable name of the state.
func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	case Stopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Trigger is an input to the state machine.
type Trigger int

const (
	// TriggerStart begins recording from Idle.
	TriggerStart Trigger = iota

	// TriggerKeyToggle flips Recording ↔ Paused.
	TriggerKeyToggle

	// TriggerPause is a recognized "pause" voice command.
	TriggerPause

	// TriggerResume is a recognized "resume" voice command.
	TriggerResume

	// TriggerStop is a recognized "stop" voice command or an external
	// lifecycle stop.
	TriggerStop
)

// String returns the human-readable name of the trigger.
func (t Trigger) String() string {
	switch t {
	case TriggerStart:
		return "start"
	case TriggerKeyToggle:
		return "key-toggle"
	case TriggerPause:
		return "pause"
	case TriggerResume:
		return "resume"
	case TriggerStop:
		return "stop"
	default:
		return "unknown"
	}
}

// Machine holds the single authoritative session state under one mutex.
// All methods are safe for concurrent use.
type Machine struct {
	mu    sync.Mutex
	state State
	subs  []chan State
}

// NewMachine returns a Machine in the Idle state.
func NewMachine() *Machine {
	return &Machine{state: Idle}
}

// State returns the current state through the guarded accessor.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Apply feeds a trigger through the transition table and returns the
// resulting state plus whether it changed. Unlisted (state, trigger) pairs
// are no-ops.
func (m *Machine) Apply(t Trigger) (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	next := transition(m.state, t)
	if next == m.state {
		return m.state, false
	}
	m.state = next
	m.notify(next)
	return next, true
}

// Subscribe returns a channel that receives every state change after the call.
// The channel is buffered; a slow subscriber misses intermediate states but
// always eventually observes the latest one.
func (m *Machine) Subscribe() <-chan State {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch := make(chan State, 8)
	m.subs = append(m.subs, ch)
	return ch
}

// notify sends the new state to all subscribers without blocking.
// Must be called with m.mu held.
func (m *Machine) notify(s State) {
	for _, ch := range m.subs {
		select {
		case ch <- s:
		default:
			// Drain one stale value and retry so the subscriber sees the
			// latest state rather than an old one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- s:
			default:
			}
		}
	}
}

// transition is the total transition function.
func transition(s State, t Trigger) State {
	if s == Stopped {
		return Stopped
	}

	switch t {
	case TriggerStart:
		if s == Idle {
			return Recording
		}
	case TriggerKeyToggle:
		switch s {
		case Recording:
			return Paused
		case Paused:
			return Recording
		}
	case TriggerPause:
		if s == Recording {
			return Paused
		}
	case TriggerResume:
		if s == Paused {
			return Recording
		}
	case TriggerStop:
		if s == Recording || s == Paused {
			return Stopped
		}
	}
	return s
}
