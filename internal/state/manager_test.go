package state

import (
	"errors"
	"testing"
)

func TestPhaseString(t *testing.T) {
	tests := map[Phase]string{
		PhaseIdle:       "Idle",
		PhaseListening:  "Listening",
		PhaseProcessing: "Processing",
		PhaseError:      "Error",
		Phase(42):       "Unknown",
	}
	for p, want := range tests {
		if p.String() != want {
			t.Errorf("Expected %s, got %s", want, p.String())
		}
	}
}

func TestCapturedTurn(t *testing.T) {
	m := NewManager(nil)

	if err := m.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	if err := m.Hear("show me"); err != nil {
		t.Fatalf("Hear failed: %v", err)
	}
	if s := m.Snapshot(); s.Transcript != "show me" || s.Phase != PhaseListening {
		t.Errorf("Unexpected snapshot %+v", s)
	}

	if err := m.Process("show me deepfake detection"); err != nil {
		t.Fatalf("Process failed: %v", err)
	}
	if err := m.Complete("Use AI Image Detection.", "", "AI Image Detection"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}

	s := m.Snapshot()
	if s.Phase != PhaseIdle {
		t.Errorf("Expected Idle, got %s", s.Phase)
	}
	if s.Transcript != "show me deepfake detection" || s.Response != "Use AI Image Detection." {
		t.Errorf("Unexpected snapshot %+v", s)
	}

	if err := m.Listen(); err != nil {
		t.Fatalf("Listen failed: %v", err)
	}
	if s := m.Snapshot(); s.Transcript != "" || s.Response != "" {
		t.Errorf("Expected new turn to clear fields, got %+v", s)
	}
}

func TestInvalidTransitions(t *testing.T) {
	m := NewManager(nil)

	if err := m.Complete("x", "", ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected complete from Idle rejected, got %v", err)
	}
	if err := m.Hear("x"); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected hear from Idle rejected, got %v", err)
	}
	if err := m.Settle(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected settle from Idle rejected, got %v", err)
	}

	m.Process("x")
	if err := m.Listen(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected listen from Processing rejected, got %v", err)
	}
	if err := m.Reset(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected reset from Processing rejected, got %v", err)
	}
	if m.Phase() != PhaseProcessing {
		t.Errorf("Expected phase unchanged, got %s", m.Phase())
	}
}

func TestFailAndReset(t *testing.T) {
	m := NewManager(nil)
	m.Listen()
	m.Hear("partial")
	m.Fail("")

	s := m.Snapshot()
	if s.Phase != PhaseError || s.Error != UnknownError {
		t.Errorf("Expected Error with unknown message, got %+v", s)
	}
	if s.Transcript != "partial" {
		t.Errorf("Expected transcript kept on failure, got %q", s.Transcript)
	}

	if err := m.Listen(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("Expected listen from Error rejected, got %v", err)
	}

	if err := m.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if s := m.Snapshot(); s != (Snapshot{}) {
		t.Errorf("Expected cleared snapshot, got %+v", s)
	}
}
