package commands

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"truthtrack-assistant/internal/asr"
	"truthtrack-assistant/internal/assistant"
	"truthtrack-assistant/internal/audio"
	"truthtrack-assistant/internal/capture"
	"truthtrack-assistant/internal/clipboard"
	"truthtrack-assistant/internal/config"
	"truthtrack-assistant/internal/llm"
	"truthtrack-assistant/internal/playback"
	"truthtrack-assistant/internal/resolver"
	"truthtrack-assistant/internal/tts"
	"truthtrack-assistant/internal/vad"
)

// speechSampleRate is the rate of the MP3 the speech endpoint returns.
const speechSampleRate = 24000

// app is one fully wired assistant and the resources it owns.
type app struct {
	ctrl   *assistant.Controller
	player *playback.Channel
	out    *audio.Output
	log    *slog.Logger
}

func newApp(ctx context.Context, cfg *config.Config, log *slog.Logger, mute bool) (*app, error) {
	host := audio.NewHost()

	client, err := newIntentClient(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	res := resolver.New(client,
		resolver.WithTimeout(cfg.Resolver.Timeout),
		resolver.WithLogger(log.With("component", "resolver")),
	)

	a := &app{log: log}
	a.player = playback.NewChannel(a.newSink(host, cfg, mute), playback.Voice{
		Rate:   cfg.Playback.Rate,
		Pitch:  cfg.Playback.Pitch,
		Volume: cfg.Playback.Volume,
	}, log.With("component", "playback"))

	a.ctrl = assistant.New(assistant.Options{
		Capture:   newCapture(ctx, host, cfg, log),
		Resolver:  res,
		Speaker:   a.player,
		Clipboard: clipboard.Default(),
		Logger:    log.With("component", "assistant"),
	})
	return a, nil
}

// Close tears the assistant down and waits for playback to stop.
func (a *app) Close() {
	a.ctrl.Close()
	a.ctrl.Wait()
	a.player.Wait()
	if a.out != nil {
		if err := a.out.Close(); err != nil {
			a.log.Warn("close audio output", "error", err)
		}
	}
}

func newIntentClient(ctx context.Context, cfg *config.Config, log *slog.Logger) (llm.IntentClient, error) {
	key := cfg.ResolverAPIKey()
	if cfg.Resolver.Provider == config.ProviderNone || key == "" {
		log.Warn("no language model configured, answering from the keyword table", "provider", cfg.Resolver.Provider)
		return nil, nil
	}

	switch cfg.Resolver.Provider {
	case config.ProviderGemini:
		c, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
			APIKey:  key,
			BaseURL: cfg.Resolver.BaseURL,
			Model:   cfg.Resolver.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini client: %w", err)
		}
		return c, nil
	default:
		c, err := llm.NewOpenAIClient(llm.OpenAIConfig{
			APIKey:  key,
			BaseURL: cfg.Resolver.BaseURL,
			Model:   cfg.Resolver.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("openai client: %w", err)
		}
		return c, nil
	}
}

func newCapture(ctx context.Context, host *audio.Host, cfg *config.Config, log *slog.Logger) *capture.Channel {
	micCfg := capture.DefaultMicConfig()
	micCfg.EnergyThreshold = cfg.Capture.EnergyThreshold
	if cfg.Capture.SilenceHold > 0 {
		micCfg.SilenceHold = cfg.Capture.SilenceHold
	}
	if cfg.Capture.NoSpeechTimeout > 0 {
		micCfg.NoSpeechTimeout = cfg.Capture.NoSpeechTimeout
	}

	var detector vad.Detector
	if url := cfg.Capture.VADServerURL; url != "" {
		client := vad.NewClient(url, 0)
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := client.Health(probeCtx)
		cancel()
		if err != nil {
			log.Warn("VAD server unreachable, using the energy gate", "url", url, "error", err)
		} else {
			detector = vad.NewRemoteDetector(client,
				&vad.DetectRequest{Threshold: 0.5, MinSpeechDurationMs: 250},
				micCfg.EnergyThreshold/2, 0)
		}
	}

	transcriber := asr.NewTranscriber(asr.Config{
		APIKey:   cfg.OpenAIAPIKey,
		Model:    cfg.Capture.Model,
		Language: cfg.Capture.Language,
	})

	mic := capture.NewMicrophone(host, detector, transcriber, micCfg, log.With("component", "microphone"))
	return capture.NewChannel(mic, capture.Config{
		Language:    cfg.Capture.Language,
		Interim:     cfg.Capture.Interim,
		StopTimeout: cfg.Capture.StopTimeout,
	}, log.With("component", "capture"))
}

func (a *app) newSink(host *audio.Host, cfg *config.Config, mute bool) playback.Sink {
	if mute || cfg.Playback.Mute {
		return silentSink{}
	}
	if cfg.OpenAIAPIKey == "" {
		a.log.Warn("no OpenAI key, responses will not be spoken")
		return silentSink{}
	}

	out, err := audio.NewOutput(host, speechSampleRate)
	if err != nil {
		a.log.Warn("no audio output, responses will not be spoken", "error", err)
		return silentSink{}
	}
	a.out = out

	synth := tts.NewSynthesizer(tts.Config{
		APIKey: cfg.OpenAIAPIKey,
		Model:  cfg.Playback.Model,
		Voice:  cfg.Playback.Voice,
	})
	return playback.NewSpeechSink(synth, out, a.log.With("component", "speech"))
}

// silentSink finishes every utterance immediately.
type silentSink struct{}

func (silentSink) Play(context.Context, string, playback.Voice) error { return nil }
