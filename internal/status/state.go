package status

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/matheus3301/wppdesk/internal/bus"
)

// State is the connectivity of the real-time channel.
type State string

const (
	Disconnected State = "DISCONNECTED"
	Connecting   State = "CONNECTING"
	Connected    State = "CONNECTED"
)

// validTransitions defines allowed state transitions.
var validTransitions = map[State][]State{
	Disconnected: {Connecting},
	Connecting:   {Connected, Disconnected},
	Connected:    {Connecting, Disconnected},
}

// Machine tracks and enforces connectivity transitions.
type Machine struct {
	mu      sync.RWMutex
	current State
	since   time.Time
	bus     *bus.Bus
}

// NewMachine creates a new state machine starting in Disconnected state.
func NewMachine(b *bus.Bus) *Machine {
	return &Machine{
		current: Disconnected,
		since:   time.Now(),
		bus:     b,
	}
}

// Current returns the current state.
func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Since returns when the current state was entered.
func (m *Machine) Since() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.since
}

// Transition attempts to move to a new state. Returns error if transition is invalid.
func (m *Machine) Transition(to State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	allowed := validTransitions[m.current]
	if !slices.Contains(allowed, to) {
		return fmt.Errorf("invalid transition from %s to %s", m.current, to)
	}
	from := m.current
	m.current = to
	m.since = time.Now()
	if m.bus != nil {
		m.bus.Publish(bus.Event{
			Kind:      bus.KindConnectivityChanged,
			Timestamp: m.since,
			Payload: StatusChange{
				From: from,
				To:   to,
			},
		})
	}
	return nil
}

// Observe maps a transport signal onto the machine. up moves to Connected
// (through Connecting when needed); a drop moves to Connecting while the
// channel keeps retrying. It reports whether the state changed.
func (m *Machine) Observe(up bool) bool {
	switch cur := m.Current(); {
	case up && cur == Connected, !up && cur == Connecting:
		return false
	case up && cur == Disconnected:
		_ = m.Transition(Connecting)
		return m.Transition(Connected) == nil
	case up:
		return m.Transition(Connected) == nil
	default:
		return m.Transition(Connecting) == nil
	}
}

// StatusChange is the payload for connectivity change events.
type StatusChange struct {
	From State
	To   State
}
