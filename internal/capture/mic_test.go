package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

type scriptedSource struct {
	mu     sync.Mutex
	frames [][]float32
	pos    int
	tail   []float32
	err    error
	closed int
}

func (s *scriptedSource) Start() error { return nil }

func (s *scriptedSource) Read() ([]float32, error) {
	time.Sleep(time.Millisecond)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil && s.pos >= len(s.frames) {
		return nil, s.err
	}
	if s.pos < len(s.frames) {
		f := s.frames[s.pos]
		s.pos++
		return f, nil
	}
	return s.tail, nil
}

func (s *scriptedSource) Close() error {
	s.mu.Lock()
	s.closed++
	s.mu.Unlock()
	return nil
}

type fakeASR struct {
	text string
	err  error
}

func (f *fakeASR) Transcribe(ctx context.Context, samples []float32, rate int) (string, error) {
	return f.text, f.err
}

func frame(level float32) []float32 {
	f := make([]float32, 160)
	for i := range f {
		f[i] = level
	}
	return f
}

func testMicConfig() MicConfig {
	cfg := DefaultMicConfig()
	cfg.FrameDuration = 10 * time.Millisecond
	cfg.SilenceHold = 30 * time.Millisecond
	cfg.NoSpeechTimeout = 100 * time.Millisecond
	cfg.InterimInterval = time.Hour
	return cfg
}

func newTestMic(src *scriptedSource, asr Transcriber) *Microphone {
	return newMicrophone(
		func() (Source, error) { return src, nil },
		func() bool { return true },
		nil, asr, testMicConfig(), nil,
	)
}

func TestMicrophoneEndpointsUtterance(t *testing.T) {
	src := &scriptedSource{
		frames: [][]float32{frame(0), frame(0.3), frame(0.3), frame(0.3)},
		tail:   frame(0),
	}
	ch := NewChannel(newTestMic(src, &fakeASR{text: "show me deepfake detection"}), DefaultConfig(), nil)
	rec := newRecorder()
	ch.Listen(rec)

	if err := ch.Start(); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	got := rec.wait(t)
	want := []string{"start", "final:show me deepfake detection", "end"}
	if !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
	if src.closed != 1 {
		t.Errorf("Expected source closed once, got %d", src.closed)
	}
}

func TestMicrophoneNoSpeech(t *testing.T) {
	src := &scriptedSource{tail: frame(0)}
	ch := NewChannel(newTestMic(src, &fakeASR{}), DefaultConfig(), nil)
	rec := newRecorder()
	ch.Listen(rec)

	ch.Start()
	got := rec.wait(t)
	want := []string{"start", "error:no-speech", "end"}
	if !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMicrophoneTranscriptionFailure(t *testing.T) {
	src := &scriptedSource{frames: [][]float32{frame(0.3)}, tail: frame(0)}
	ch := NewChannel(newTestMic(src, &fakeASR{err: errors.New("503")}), DefaultConfig(), nil)
	rec := newRecorder()
	ch.Listen(rec)

	ch.Start()
	got := rec.wait(t)
	want := []string{"start", "error:network", "end"}
	if !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMicrophoneReadFailure(t *testing.T) {
	src := &scriptedSource{err: errors.New("device unplugged")}
	ch := NewChannel(newTestMic(src, &fakeASR{}), DefaultConfig(), nil)
	rec := newRecorder()
	ch.Listen(rec)

	ch.Start()
	got := rec.wait(t)
	want := []string{"start", "error:audio-capture", "end"}
	if !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMicrophoneStopBeforeSpeech(t *testing.T) {
	src := &scriptedSource{tail: frame(0)}
	mic := newTestMic(src, &fakeASR{})
	mic.cfg.NoSpeechTimeout = time.Hour
	ch := NewChannel(mic, DefaultConfig(), nil)
	rec := newRecorder()
	ch.Listen(rec)

	ch.Start()
	time.Sleep(10 * time.Millisecond)
	ch.Stop()

	got := rec.wait(t)
	want := []string{"start", "final:", "end"}
	if !equal(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}
}

func TestMicrophoneUnsupported(t *testing.T) {
	mic := newMicrophone(nil, func() bool { return false }, nil, &fakeASR{}, testMicConfig(), nil)
	if _, err := mic.Open(DefaultConfig(), nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported, got %v", err)
	}

	noASR := newMicrophone(nil, func() bool { return true }, nil, nil, testMicConfig(), nil)
	if _, err := noASR.Open(DefaultConfig(), nil); !errors.Is(err, ErrUnsupported) {
		t.Errorf("Expected ErrUnsupported without transcriber, got %v", err)
	}
}
