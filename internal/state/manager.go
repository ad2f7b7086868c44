// Package state holds the assistant's phase and the transcript, response
// and error that go with it.
package state

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

type Phase int

const (
	PhaseIdle Phase = iota
	PhaseListening
	PhaseProcessing
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "Idle"
	case PhaseListening:
		return "Listening"
	case PhaseProcessing:
		return "Processing"
	case PhaseError:
		return "Error"
	default:
		return "Unknown"
	}
}

// ErrInvalidTransition is returned when an operation does not apply to the
// current phase.
var ErrInvalidTransition = errors.New("state: invalid transition")

// UnknownError is recorded when a failure carries no message.
const UnknownError = "An unknown error occurred."

// Snapshot is a consistent copy of the assistant state.
type Snapshot struct {
	Phase           Phase
	Transcript      string
	Response        string
	Error           string
	SuggestedAction string
	RelevantFeature string
}

// Manager guards the phase machine. Every transition is logged.
type Manager struct {
	mu  sync.Mutex
	cur Snapshot
	log *slog.Logger
}

func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{log: log}
}

// Snapshot returns the current state.
func (m *Manager) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur
}

// Phase returns the current phase.
func (m *Manager) Phase() Phase {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cur.Phase
}

func (m *Manager) setPhase(p Phase) {
	if m.cur.Phase != p {
		m.log.Info("state changed", "from", m.cur.Phase.String(), "to", p.String())
	}
	m.cur.Phase = p
}

func (m *Manager) expect(op string, allowed ...Phase) error {
	for _, p := range allowed {
		if m.cur.Phase == p {
			return nil
		}
	}
	return fmt.Errorf("%w: %s in %s", ErrInvalidTransition, op, m.cur.Phase)
}

// Listen enters Listening from Idle, clearing the previous turn.
func (m *Manager) Listen() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect("listen", PhaseIdle); err != nil {
		return err
	}
	m.cur = Snapshot{Phase: m.cur.Phase}
	m.setPhase(PhaseListening)
	return nil
}

// Hear records an interim transcript while Listening.
func (m *Manager) Hear(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect("hear", PhaseListening); err != nil {
		return err
	}
	m.cur.Transcript = text
	return nil
}

// Process enters Processing with the command being resolved.
func (m *Manager) Process(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect("process", PhaseIdle, PhaseListening); err != nil {
		return err
	}
	m.cur.Transcript = text
	m.cur.Response = ""
	m.cur.SuggestedAction = ""
	m.cur.RelevantFeature = ""
	m.cur.Error = ""
	m.setPhase(PhaseProcessing)
	return nil
}

// Complete records the response and returns to Idle.
func (m *Manager) Complete(response, action, feature string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect("complete", PhaseProcessing); err != nil {
		return err
	}
	m.cur.Response = response
	m.cur.SuggestedAction = action
	m.cur.RelevantFeature = feature
	m.setPhase(PhaseIdle)
	return nil
}

// Settle returns from Listening to Idle when a session ends without a
// command.
func (m *Manager) Settle() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect("settle", PhaseListening); err != nil {
		return err
	}
	m.setPhase(PhaseIdle)
	return nil
}

// Fail enters Error with msg, or UnknownError when msg is empty.
func (m *Manager) Fail(msg string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg == "" {
		msg = UnknownError
	}
	m.cur.Error = msg
	m.setPhase(PhaseError)
}

// Reset clears everything and returns to Idle from Idle or Error.
func (m *Manager) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.expect("reset", PhaseIdle, PhaseError); err != nil {
		return err
	}
	m.setPhase(PhaseIdle)
	m.cur = Snapshot{}
	return nil
}
