// Package capture turns microphone audio into a stream of utterance events
// with a start, zero or more interim transcripts, at most one final
// transcript and exactly one end per session.
package capture

import (
	"errors"
	"time"
)

var (
	// ErrUnsupported is returned by Start when the host cannot capture speech.
	ErrUnsupported = errors.New("capture: speech recognition unsupported")
	// ErrAlreadyActive is returned by Start while a session is still open.
	ErrAlreadyActive = errors.New("capture: session already active")
)

// ErrorKind names a capture failure.
type ErrorKind string

const (
	KindNoSpeech     ErrorKind = "no-speech"
	KindAudioCapture ErrorKind = "audio-capture"
	KindNotAllowed   ErrorKind = "not-allowed"
	KindNetwork      ErrorKind = "network"
)

// Utterance is a transcript fragment. Interim ones may be revised; a final
// one is not.
type Utterance struct {
	Text    string
	IsFinal bool
}

// Listener receives session events in order, one at a time.
type Listener interface {
	OnStart()
	OnUtterance(u Utterance)
	OnError(kind ErrorKind)
	OnEnd()
}

// Config is the recognition configuration applied to every session.
type Config struct {
	Language    string
	Interim     bool
	StopTimeout time.Duration // grace period for a backend to end after Stop
}

// DefaultConfig returns single-utterance English capture with interim
// results.
func DefaultConfig() Config {
	return Config{
		Language:    "en-US",
		Interim:     true,
		StopTimeout: 5 * time.Second,
	}
}

// Sink is how a backend reports what it hears. Calls after End are ignored.
type Sink interface {
	Result(text string, final bool)
	Fail(kind ErrorKind, err error)
	End()
}

// Session is a running backend recognition.
type Session interface {
	// Stop finishes recognition of what has been heard so far.
	Stop()
	// Abort discards everything and ends as soon as possible.
	Abort()
}

// Backend opens recognition sessions. Open returns ErrUnsupported when the
// host has no usable capture device.
type Backend interface {
	Open(cfg Config, sink Sink) (Session, error)
}

type nopListener struct{}

func (nopListener) OnStart()              {}
func (nopListener) OnUtterance(Utterance) {}
func (nopListener) OnError(ErrorKind)     {}
func (nopListener) OnEnd()                {}
