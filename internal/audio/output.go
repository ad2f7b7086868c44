package audio

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gordonklaus/portaudio"
)

// ErrNoSamples is returned when asked to play an empty buffer.
var ErrNoSamples = errors.New("audio: no samples to play")

// Output is a callback-driven mono playback stream. One buffer plays at a
// time; Stop or context cancellation silences it immediately.
type Output struct {
	host        *Host
	stream      *portaudio.Stream
	samples     []float32
	position    int
	finished    bool
	interrupted bool
	mu          sync.Mutex
	sampleRate  int
}

// NewOutput opens the default output device at sampleRate.
func NewOutput(host *Host, sampleRate int) (*Output, error) {
	if err := host.Acquire(); err != nil {
		return nil, err
	}

	output := &Output{
		host:       host,
		sampleRate: sampleRate,
	}

	stream, err := portaudio.OpenDefaultStream(0, 1, float64(sampleRate), framesPerBuffer, output.fill)
	if err != nil {
		host.Release()
		return nil, fmt.Errorf("failed to open output stream: %w", err)
	}

	output.stream = stream
	return output, nil
}

// SampleRate returns the device rate the output was opened with.
func (o *Output) SampleRate() int {
	return o.sampleRate
}

func (o *Output) fill(out []float32) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.interrupted {
		clear(out)
		o.finished = true
		return
	}

	for i := range out {
		if o.position < len(o.samples) {
			out[i] = o.samples[o.position]
			o.position++
		} else {
			out[i] = 0
			o.finished = true
		}
	}
}

// PlaySamples plays samples at the output rate and blocks until they finish,
// Stop is called, or ctx is cancelled.
func (o *Output) PlaySamples(ctx context.Context, samples []float32) error {
	if len(samples) == 0 {
		return ErrNoSamples
	}

	o.mu.Lock()
	o.samples = append(o.samples[:0], samples...)
	o.position = 0
	o.finished = false
	o.interrupted = false
	o.mu.Unlock()

	if err := o.stream.Start(); err != nil {
		return fmt.Errorf("failed to start audio stream: %w", err)
	}
	defer o.stream.Stop()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			o.Stop()
			return ctx.Err()
		case <-ticker.C:
			o.mu.Lock()
			done := o.finished || o.interrupted
			o.mu.Unlock()
			if done {
				return nil
			}
		}
	}
}

// Stop silences the current buffer.
func (o *Output) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.interrupted = true
	o.finished = true
}

// IsPlaying reports whether a buffer is still being rendered.
func (o *Output) IsPlaying() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return !o.finished && !o.interrupted && o.position < len(o.samples)
}

// Close closes the stream and releases the host.
func (o *Output) Close() error {
	if o.stream != nil {
		if err := o.stream.Close(); err != nil {
			return fmt.Errorf("failed to close audio stream: %w", err)
		}
		o.stream = nil
	}
	return o.host.Release()
}
