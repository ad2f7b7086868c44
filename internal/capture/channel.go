package capture

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// Channel runs at most one capture session at a time and delivers its
// events to a single Listener from a dedicated goroutine.
type Channel struct {
	backend Backend
	cfg     Config
	log     *slog.Logger

	mu       sync.Mutex
	listener Listener
	cur      *session
}

// NewChannel creates a channel over backend.
func NewChannel(backend Backend, cfg Config, log *slog.Logger) *Channel {
	if log == nil {
		log = slog.Default()
	}
	if cfg.StopTimeout <= 0 {
		cfg.StopTimeout = DefaultConfig().StopTimeout
	}
	return &Channel{
		backend:  backend,
		cfg:      cfg,
		log:      log,
		listener: nopListener{},
	}
}

// Listen registers the event receiver for sessions started afterwards.
func (c *Channel) Listen(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if l == nil {
		l = nopListener{}
	}
	c.listener = l
}

// Active reports whether a session is open. The slot is freed just before
// OnEnd is delivered, so a listener may start the next session from OnEnd.
func (c *Channel) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur != nil
}

// Start opens a new session. OnStart is delivered first on success; no
// events are delivered on error.
func (c *Channel) Start() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cur != nil {
		return ErrAlreadyActive
	}
	if c.backend == nil {
		return ErrUnsupported
	}

	s := newSession(c, c.listener, c.cfg.StopTimeout)
	s.push(event{kind: evStart})

	bs, err := c.backend.Open(c.cfg, s)
	if err != nil {
		if errors.Is(err, ErrUnsupported) {
			return err
		}
		return fmt.Errorf("open capture backend: %w", err)
	}

	s.mu.Lock()
	s.backend = bs
	s.mu.Unlock()

	c.cur = s
	go s.dispatch()
	c.log.Debug("capture session started", "language", c.cfg.Language, "interim", c.cfg.Interim)
	return nil
}

// Stop asks the current session to finish gracefully. A final utterance,
// possibly empty, precedes OnEnd unless an error was reported.
func (c *Channel) Stop() {
	if s := c.current(); s != nil {
		s.stop()
	}
}

// Abort ends the current session immediately without a final utterance.
func (c *Channel) Abort() {
	if s := c.current(); s != nil {
		s.abort()
	}
}

func (c *Channel) current() *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cur
}

func (c *Channel) release(s *session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cur == s {
		c.cur = nil
	}
}

type eventKind int

const (
	evStart eventKind = iota
	evUtterance
	evError
	evEnd
)

type event struct {
	kind      eventKind
	utterance Utterance
	errKind   ErrorKind
}

// session implements Sink for one backend session and serializes its
// events into the listener.
type session struct {
	ch       *Channel
	listener Listener
	grace    time.Duration

	mu        sync.Mutex
	backend   Session
	queue     []event
	wake      chan struct{}
	finalSent bool
	failed    bool
	stopping  bool
	finished  bool
	timer     *time.Timer
}

func newSession(ch *Channel, l Listener, grace time.Duration) *session {
	return &session{
		ch:       ch,
		listener: l,
		grace:    grace,
		wake:     make(chan struct{}, 1),
	}
}

func (s *session) push(ev event) {
	s.queue = append(s.queue, ev)
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) Result(text string, final bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.finalSent || s.failed {
		return
	}
	if final {
		s.finalSent = true
	}
	s.push(event{kind: evUtterance, utterance: Utterance{Text: text, IsFinal: final}})
}

func (s *session) Fail(kind ErrorKind, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished || s.failed {
		return
	}
	s.failed = true
	s.ch.log.Warn("capture error", "kind", kind, "error", err)
	s.push(event{kind: evError, errKind: kind})
}

func (s *session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishLocked()
}

func (s *session) finishLocked() {
	if s.finished {
		return
	}
	s.finished = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.stopping && !s.finalSent && !s.failed {
		s.finalSent = true
		s.push(event{kind: evUtterance, utterance: Utterance{IsFinal: true}})
	}
	s.push(event{kind: evEnd})
}

func (s *session) stop() {
	s.mu.Lock()
	if s.finished || s.stopping {
		s.mu.Unlock()
		return
	}
	s.stopping = true
	s.timer = time.AfterFunc(s.grace, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if !s.finished {
			s.ch.log.Warn("capture backend did not end after stop, forcing end", "grace", s.grace)
			s.finishLocked()
		}
	})
	bs := s.backend
	s.mu.Unlock()

	if bs != nil {
		bs.Stop()
	}
}

func (s *session) abort() {
	s.mu.Lock()
	if s.finished {
		s.mu.Unlock()
		return
	}
	// Pending transcripts are dropped; only start and errors survive.
	kept := s.queue[:0]
	for _, ev := range s.queue {
		if ev.kind != evUtterance {
			kept = append(kept, ev)
		}
	}
	s.queue = kept
	s.finishLocked()
	bs := s.backend
	s.mu.Unlock()

	if bs != nil {
		bs.Abort()
	}
}

func (s *session) dispatch() {
	for range s.wake {
		s.mu.Lock()
		batch := s.queue
		s.queue = nil
		s.mu.Unlock()

		for _, ev := range batch {
			switch ev.kind {
			case evStart:
				s.listener.OnStart()
			case evUtterance:
				s.listener.OnUtterance(ev.utterance)
			case evError:
				s.listener.OnError(ev.errKind)
			case evEnd:
				s.ch.release(s)
				s.listener.OnEnd()
				return
			}
		}
	}
}
