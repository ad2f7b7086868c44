package playback

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"truthtrack-assistant/internal/audio"
)

// Synthesizer renders text into an encoded audio document.
type Synthesizer interface {
	Synthesize(ctx context.Context, text string, speed float64) ([]byte, error)
}

// Player plays decoded mono samples, such as *audio.Output.
type Player interface {
	PlaySamples(ctx context.Context, samples []float32) error
	SampleRate() int
}

// SpeechSink synthesizes text remotely and plays it on a local device.
// Rate maps to the synthesis speed and Volume to a linear gain. The speech
// endpoint has no pitch control, so Pitch other than 1.0 is logged and
// ignored.
type SpeechSink struct {
	synth Synthesizer
	out   Player
	log   *slog.Logger

	pitchOnce sync.Once

	mu  sync.Mutex
	buf []float32 // device-rate samples, reused across utterances
}

// NewSpeechSink creates a sink over synth and out.
func NewSpeechSink(synth Synthesizer, out Player, log *slog.Logger) *SpeechSink {
	if log == nil {
		log = slog.Default()
	}
	return &SpeechSink{synth: synth, out: out, log: log}
}

func (s *SpeechSink) Play(ctx context.Context, text string, v Voice) error {
	if v.Pitch != 1.0 {
		s.pitchOnce.Do(func() {
			s.log.Warn("pitch adjustment is not supported, using 1.0", "pitch", v.Pitch)
		})
	}

	data, err := s.synth.Synthesize(ctx, text, v.Rate)
	if err != nil {
		return err
	}

	samples, rate, err := audio.Decode(data)
	if err != nil {
		return fmt.Errorf("decode speech: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.buf, err = audio.ResampleInto(s.buf, samples, rate, s.out.SampleRate())
	if err != nil {
		return fmt.Errorf("resample speech: %w", err)
	}
	audio.ApplyGain(s.buf, v.Volume)

	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.out.PlaySamples(ctx, s.buf)
}
