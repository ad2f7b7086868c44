// Package playback speaks response text aloud, one utterance at a time.
package playback

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
)

// Voice holds the speech parameters applied to every utterance.
type Voice struct {
	Rate   float64
	Pitch  float64
	Volume float64
}

// DefaultVoice is slightly slow, neutral pitch, 80% volume.
func DefaultVoice() Voice {
	return Voice{Rate: 0.9, Pitch: 1.0, Volume: 0.8}
}

// Sink renders one utterance and blocks until it finishes or ctx is
// cancelled.
type Sink interface {
	Play(ctx context.Context, text string, v Voice) error
}

// Channel is a cancel-and-replace speaker: a new Speak cuts off whatever is
// playing, and the new utterance starts only once the old one has stopped.
type Channel struct {
	sink  Sink
	voice Voice
	log   *slog.Logger

	mu       sync.Mutex
	cancel   context.CancelFunc
	done     chan struct{}
	speaking atomic.Int32
}

// NewChannel creates a playback channel over sink.
func NewChannel(sink Sink, voice Voice, log *slog.Logger) *Channel {
	if log == nil {
		log = slog.Default()
	}
	return &Channel{sink: sink, voice: voice, log: log}
}

// Speak replaces any current utterance with text. Blank text is ignored.
func (c *Channel) Speak(text string) {
	if strings.TrimSpace(text) == "" {
		return
	}

	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	prev := c.done
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel, c.done = cancel, done
	c.mu.Unlock()

	go func() {
		defer close(done)
		defer cancel()

		if prev != nil {
			<-prev
		}
		if ctx.Err() != nil {
			return
		}

		c.speaking.Add(1)
		defer c.speaking.Add(-1)

		err := c.sink.Play(ctx, text, c.voice)
		switch {
		case err == nil:
		case errors.Is(err, context.Canceled):
			c.log.Debug("speech interrupted")
		default:
			c.log.Warn("speech failed", "error", err)
		}
	}()
}

// Stop silences the current utterance. It is safe to call at any time.
func (c *Channel) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Speaking reports whether an utterance is being rendered.
func (c *Channel) Speaking() bool {
	return c.speaking.Load() > 0
}

// Wait blocks until the most recent utterance has finished or been cut off.
func (c *Channel) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done != nil {
		<-done
	}
}
