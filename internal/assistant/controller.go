// Package assistant wires capture, resolution and playback into one voice
// assistant and exposes the commands a front end drives it with.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"

	"truthtrack-assistant/internal/capture"
	"truthtrack-assistant/internal/resolver"
	"truthtrack-assistant/internal/state"
)

var (
	ErrBusy             = errors.New("assistant: a command is being processed")
	ErrNotIdle          = errors.New("assistant: not idle")
	ErrClosed           = errors.New("assistant: closed")
	ErrEmptyCommand     = errors.New("assistant: empty command")
	ErrNothingToCopy    = errors.New("assistant: no response to copy")
	ErrNothingToReplay  = errors.New("assistant: no response to replay")
	ErrNoSuchSuggestion = errors.New("assistant: no such suggestion")
)

// User-facing error messages.
const (
	MsgUnsupported  = "Speech recognition is not supported on this host."
	MsgStartFailed  = "Could not start listening. Please try again."
	msgCaptureError = "Speech recognition error: %s"
)

// Suggestions are the canned questions offered before the user speaks.
var Suggestions = []string{
	"How do I detect deepfakes?",
	"Check trending topics",
	"Analyze this article",
	"Help with fact-checking",
}

// Capture is the speech input the controller drives.
type Capture interface {
	Listen(l capture.Listener)
	Start() error
	Stop()
	Abort()
}

// Resolver turns a command into a response. It must always return.
type Resolver interface {
	Resolve(ctx context.Context, text string) resolver.CommandResult
}

// Speaker plays responses with cancel-and-replace semantics.
type Speaker interface {
	Speak(text string)
	Stop()
}

// Clipboard receives copied responses.
type Clipboard interface {
	WriteText(text string) error
}

// State is what a front end renders.
type State struct {
	state.Snapshot
	Speaking bool
	Turn     string
}

// Options are the collaborators a Controller owns for its lifetime.
type Options struct {
	Capture   Capture
	Resolver  Resolver
	Speaker   Speaker
	Clipboard Clipboard
	Logger    *slog.Logger
}

// Controller mediates capture, resolution and playback for one session.
// All methods are safe for concurrent use.
type Controller struct {
	capture  Capture
	resolver Resolver
	speaker  Speaker
	clip     Clipboard
	log      *slog.Logger
	state    *state.Manager

	mu        sync.Mutex
	closed    bool
	finalSeen bool
	open      int // capture sessions started and not yet ended
	turn      string
	resolving sync.WaitGroup
	closeOnce sync.Once

	watchMu  sync.Mutex
	watchers []func(State)
}

// New creates a controller in Idle and subscribes it to opts.Capture.
func New(opts Options) *Controller {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	c := &Controller{
		capture:  opts.Capture,
		resolver: opts.Resolver,
		speaker:  opts.Speaker,
		clip:     opts.Clipboard,
		log:      log,
		state:    state.NewManager(log),
	}
	c.capture.Listen(events{c})
	return c
}

// State returns a snapshot of the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	turn := c.turn
	c.mu.Unlock()

	s := State{Snapshot: c.state.Snapshot(), Turn: turn}
	if sp, ok := c.speaker.(interface{ Speaking() bool }); ok {
		s.Speaking = sp.Speaking()
	}
	return s
}

// Watch registers fn to receive a snapshot after every state change.
func (c *Controller) Watch(fn func(State)) {
	c.watchMu.Lock()
	defer c.watchMu.Unlock()
	c.watchers = append(c.watchers, fn)
}

func (c *Controller) notify() {
	c.watchMu.Lock()
	fns := append([]func(State)(nil), c.watchers...)
	c.watchMu.Unlock()
	if len(fns) == 0 {
		return
	}
	s := c.State()
	for _, fn := range fns {
		fn(s)
	}
}

// Start begins listening. It is a no-op while already listening.
func (c *Controller) Start() error {
	c.mu.Lock()
	err := c.startLocked()
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Controller) startLocked() error {
	if c.closed {
		return ErrClosed
	}
	switch c.state.Phase() {
	case state.PhaseListening:
		return nil
	case state.PhaseProcessing:
		return ErrBusy
	case state.PhaseError:
		return ErrNotIdle
	}

	if err := c.capture.Start(); err != nil {
		msg := MsgStartFailed
		if errors.Is(err, capture.ErrUnsupported) {
			msg = MsgUnsupported
		}
		c.log.Warn("start listening failed", "error", err)
		c.state.Fail(msg)
		return err
	}

	c.open++
	c.turn = uuid.NewString()
	c.finalSeen = false
	c.log.Info("listening", "turn", c.turn)
	return c.state.Listen()
}

// Stop asks capture to finish; the phase returns to Idle once capture ends
// or moves to Processing if a final transcript arrives first.
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.state.Phase() != state.PhaseListening {
		return
	}
	c.capture.Stop()
}

// AskDirectly resolves text as if it had been spoken. Only accepted in Idle.
func (c *Controller) AskDirectly(text string) error {
	c.mu.Lock()
	err := c.askLocked(text)
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *Controller) askLocked(text string) error {
	if c.closed {
		return ErrClosed
	}
	switch c.state.Phase() {
	case state.PhaseProcessing:
		return ErrBusy
	case state.PhaseListening, state.PhaseError:
		return ErrNotIdle
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyCommand
	}

	c.turn = uuid.NewString()
	return c.beginLocked(text)
}

// AskSuggestion asks the i-th entry of Suggestions.
func (c *Controller) AskSuggestion(i int) error {
	if i < 0 || i >= len(Suggestions) {
		return fmt.Errorf("%w: %d", ErrNoSuchSuggestion, i)
	}
	return c.AskDirectly(Suggestions[i])
}

func (c *Controller) beginLocked(text string) error {
	if err := c.state.Process(text); err != nil {
		return err
	}
	c.log.Info("resolving command", "turn", c.turn, "text", text)
	c.resolving.Add(1)
	go c.resolve(c.turn, text)
	return nil
}

func (c *Controller) resolve(turn, text string) {
	defer c.resolving.Done()

	res := c.resolver.Resolve(context.Background(), text)

	c.mu.Lock()
	err := c.state.Complete(res.ResponseText, res.SuggestedAction, res.RelevantFeature)
	closed := c.closed
	c.mu.Unlock()

	if err != nil {
		c.log.Error("apply resolution", "turn", turn, "error", err)
	} else {
		c.log.Info("command resolved", "turn", turn, "source", res.Source, "feature", res.RelevantFeature)
		if !closed {
			c.speaker.Speak(res.ResponseText)
		}
	}
	c.notify()
}

// Reset clears the transcript, response and error. Allowed in Idle and
// Error.
func (c *Controller) Reset() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	err := c.state.Reset()
	phase := c.state.Phase()
	c.mu.Unlock()

	if err != nil {
		if phase == state.PhaseProcessing {
			return ErrBusy
		}
		return ErrNotIdle
	}
	c.notify()
	return nil
}

// Replay speaks the last response again, cutting off current speech.
func (c *Controller) Replay() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	resp := c.state.Snapshot().Response
	if resp == "" {
		return ErrNothingToReplay
	}
	c.speaker.Stop()
	c.speaker.Speak(resp)
	return nil
}

// StopSpeaking silences playback without touching the phase.
func (c *Controller) StopSpeaking() {
	c.speaker.Stop()
}

// Copy writes the last response to the clipboard.
func (c *Controller) Copy() error {
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return ErrClosed
	}
	resp := c.state.Snapshot().Response
	if resp == "" {
		return ErrNothingToCopy
	}
	if c.clip == nil {
		return fmt.Errorf("%w: no clipboard configured", ErrNothingToCopy)
	}
	return c.clip.WriteText(resp)
}

// Wait blocks until every dispatched resolution has been applied.
func (c *Controller) Wait() {
	c.resolving.Wait()
}

// Close aborts capture and stops playback exactly once. A resolution
// already in flight still updates the state but is not spoken.
func (c *Controller) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.capture.Abort()
		c.speaker.Stop()
		c.log.Info("assistant closed", "phase", c.state.Phase().String())
	})
	return nil
}

// events adapts capture callbacks onto the controller.
type events struct{ c *Controller }

func (e events) OnStart() {
	e.c.log.Debug("capture started")
}

func (e events) OnUtterance(u capture.Utterance) {
	c := e.c
	c.mu.Lock()
	if c.closed || c.finalSeen || c.state.Phase() != state.PhaseListening {
		c.mu.Unlock()
		return
	}

	if !u.IsFinal {
		c.state.Hear(u.Text)
		c.mu.Unlock()
		c.notify()
		return
	}

	c.finalSeen = true
	text := strings.TrimSpace(u.Text)
	if text == "" {
		c.log.Debug("empty final transcript", "turn", c.turn)
		c.mu.Unlock()
		return
	}
	if err := c.beginLocked(text); err != nil {
		c.log.Error("begin processing", "error", err)
	}
	c.mu.Unlock()
	c.notify()
}

func (e events) OnError(kind capture.ErrorKind) {
	c := e.c
	c.mu.Lock()
	if c.closed || c.state.Phase() != state.PhaseListening {
		c.mu.Unlock()
		return
	}
	c.state.Fail(fmt.Sprintf(msgCaptureError, kind))
	c.mu.Unlock()
	c.notify()
}

// OnEnd settles Listening only once every started session has ended. An
// earlier session can end after a later one has started.
func (e events) OnEnd() {
	c := e.c
	c.mu.Lock()
	if c.open > 0 {
		c.open--
	}
	settled := c.open == 0 && c.state.Settle() == nil
	c.mu.Unlock()
	if settled {
		c.notify()
	}
}
