package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"truthtrack-assistant/internal/audio"
	"truthtrack-assistant/internal/vad"
)

// Source is a blocking frame reader such as *audio.Input.
type Source interface {
	Start() error
	Read() ([]float32, error)
	Close() error
}

// Transcriber converts captured PCM into text.
type Transcriber interface {
	Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error)
}

// MicConfig tunes endpointing for the microphone backend.
type MicConfig struct {
	SampleRate        int
	FrameDuration     time.Duration
	InterimInterval   time.Duration
	SilenceHold       time.Duration
	NoSpeechTimeout   time.Duration
	MaxUtterance      time.Duration
	TranscribeTimeout time.Duration
	EnergyThreshold   float64
}

// DefaultMicConfig returns endpointing tuned for short spoken commands.
func DefaultMicConfig() MicConfig {
	return MicConfig{
		SampleRate:        audio.SampleRate,
		FrameDuration:     time.Duration(audio.FrameDuration * float64(time.Second)),
		InterimInterval:   1500 * time.Millisecond,
		SilenceHold:       900 * time.Millisecond,
		NoSpeechTimeout:   8 * time.Second,
		MaxUtterance:      15 * time.Second,
		TranscribeTimeout: 15 * time.Second,
		EnergyThreshold:   0.02,
	}
}

// Microphone is a Backend that records from a Source, endpoints speech with
// a vad.Detector and transcribes it with a Transcriber.
type Microphone struct {
	open      func() (Source, error)
	available func() bool
	detector  vad.Detector
	asr       Transcriber
	cfg       MicConfig
	log       *slog.Logger
}

// NewMicrophone creates a backend reading the host's default input device.
// A nil detector uses an energy gate at cfg.EnergyThreshold.
func NewMicrophone(host *audio.Host, detector vad.Detector, asr Transcriber, cfg MicConfig, log *slog.Logger) *Microphone {
	return newMicrophone(
		func() (Source, error) { return audio.NewInput(host) },
		host.HasInputDevice,
		detector, asr, cfg, log,
	)
}

func newMicrophone(open func() (Source, error), available func() bool, detector vad.Detector, asr Transcriber, cfg MicConfig, log *slog.Logger) *Microphone {
	if log == nil {
		log = slog.Default()
	}
	if detector == nil {
		detector = vad.EnergyDetector{Threshold: cfg.EnergyThreshold}
	}
	return &Microphone{
		open:      open,
		available: available,
		detector:  detector,
		asr:       asr,
		cfg:       cfg,
		log:       log,
	}
}

func (m *Microphone) Open(cfg Config, sink Sink) (Session, error) {
	if m.asr == nil || !m.available() {
		return nil, ErrUnsupported
	}

	src, err := m.open()
	if err != nil {
		return nil, fmt.Errorf("open microphone: %w", err)
	}
	if err := src.Start(); err != nil {
		src.Close()
		return nil, fmt.Errorf("start microphone: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &micSession{
		m:      m,
		cfg:    cfg,
		src:    src,
		sink:   sink,
		ctx:    ctx,
		cancel: cancel,
	}
	go s.run()
	return s, nil
}

type micSession struct {
	m    *Microphone
	cfg  Config
	src  Source
	sink Sink

	ctx       context.Context
	cancel    context.CancelFunc
	stopping  atomic.Bool
	interim   atomic.Bool
	closeOnce sync.Once
}

func (s *micSession) Stop() {
	s.stopping.Store(true)
}

func (s *micSession) Abort() {
	s.cancel()
}

func (s *micSession) close() {
	s.closeOnce.Do(func() {
		if err := s.src.Close(); err != nil {
			s.m.log.Warn("close microphone", "error", err)
		}
	})
}

func (s *micSession) run() {
	defer s.close()
	defer s.cancel()

	mc := s.m.cfg
	var (
		buf        []float32
		heard      bool
		elapsed    time.Duration
		silentFor  time.Duration
		lastUpdate = time.Now()
	)
	maxSamples := int(mc.MaxUtterance.Seconds() * float64(mc.SampleRate))

	for !s.stopping.Load() {
		if s.ctx.Err() != nil {
			s.sink.End()
			return
		}

		frame, err := s.src.Read()
		if err != nil {
			if s.ctx.Err() == nil {
				s.sink.Fail(KindAudioCapture, err)
			}
			s.sink.End()
			return
		}

		speech, err := s.m.detector.IsSpeech(s.ctx, frame)
		if err != nil {
			speech = audio.RMS(frame) >= mc.EnergyThreshold
		}

		elapsed += mc.FrameDuration
		switch {
		case speech:
			heard = true
			silentFor = 0
		case heard:
			silentFor += mc.FrameDuration
		}
		if heard {
			buf = append(buf, frame...)
		}

		if !heard && elapsed >= mc.NoSpeechTimeout {
			s.sink.Fail(KindNoSpeech, nil)
			s.sink.End()
			return
		}
		if heard && (silentFor >= mc.SilenceHold || len(buf) >= maxSamples) {
			break
		}
		if s.cfg.Interim && heard && time.Since(lastUpdate) >= mc.InterimInterval {
			lastUpdate = time.Now()
			s.transcribeInterim(append([]float32(nil), buf...))
		}
	}

	s.close()

	if !heard {
		s.sink.End()
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, mc.TranscribeTimeout)
	defer cancel()

	text, err := s.m.asr.Transcribe(ctx, buf, mc.SampleRate)
	if s.ctx.Err() != nil {
		s.sink.End()
		return
	}
	if err != nil {
		s.sink.Fail(KindNetwork, err)
		s.sink.End()
		return
	}

	s.sink.Result(text, true)
	s.sink.End()
}

func (s *micSession) transcribeInterim(samples []float32) {
	if !s.interim.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer s.interim.Store(false)

		ctx, cancel := context.WithTimeout(s.ctx, s.m.cfg.TranscribeTimeout)
		defer cancel()

		text, err := s.m.asr.Transcribe(ctx, samples, s.m.cfg.SampleRate)
		if err != nil {
			s.m.log.Debug("interim transcription failed", "error", err)
			return
		}
		if text != "" && !s.stopping.Load() && s.ctx.Err() == nil {
			s.sink.Result(text, false)
		}
	}()
}
