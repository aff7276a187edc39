// Package animation tracks which character animation should be playing.
//
// The presentation layer reports clicks and clip completions, the engine
// reports busy edges, and the Machine decides the next state from a fixed
// transition table. Presentation switches clips from the OnChange hook.
package animation

import (
	"sync"

	"pokuclick/interfaces"
)

// State is the animation the character is in.
type State int

const (
	Idle State = iota
	Playing
	Mixing
)

func (s State) String() string {
	switch s {
	case Playing:
		return "playing"
	case Mixing:
		return "mixing"
	default:
		return "idle"
	}
}

// Event drives the Machine.
type Event int

const (
	Click Event = iota
	Complete
	BusyBegan
	BusyEnded
)

func (e Event) String() string {
	switch e {
	case Click:
		return "click"
	case Complete:
		return "complete"
	case BusyBegan:
		return "busy_began"
	case BusyEnded:
		return "busy_ended"
	default:
		return "unknown"
	}
}

type transition struct {
	from  State
	event Event
}

var transitions = map[transition]State{
	{Idle, Click}:        Playing,
	{Playing, Click}:     Playing,
	{Playing, Complete}:  Idle,
	{Idle, BusyBegan}:    Mixing,
	{Playing, BusyBegan}: Mixing,
	{Mixing, Click}:      Mixing,
	{Mixing, Complete}:   Mixing,
	{Mixing, BusyEnded}:  Idle,
}

var _ interfaces.BusyListener = (*Machine)(nil)

// ChangeFunc is called after every accepted transition, including
// self-transitions such as a click restarting the click clip.
type ChangeFunc func(from, to State, event Event)

// Machine is safe for concurrent use. OnChange runs outside its lock.
type Machine struct {
	mu       sync.Mutex
	state    State
	onChange ChangeFunc
}

// NewMachine creates a Machine in the Idle state.
func NewMachine(onChange ChangeFunc) *Machine {
	return &Machine{onChange: onChange}
}

// Fire applies event and reports whether it was accepted.
func (m *Machine) Fire(event Event) bool {
	m.mu.Lock()
	from := m.state
	to, ok := transitions[transition{from, event}]
	if ok {
		m.state = to
	}
	m.mu.Unlock()

	if ok && m.onChange != nil {
		m.onChange(from, to, event)
	}
	return ok
}

// State returns the current state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.state
}

// OnBusyBegan implements interfaces.BusyListener.
func (m *Machine) OnBusyBegan() { m.Fire(BusyBegan) }

// OnBusyEnded implements interfaces.BusyListener.
func (m *Machine) OnBusyEnded() { m.Fire(BusyEnded) }
