package tts

import (
	"context"
	"fmt"
	"io"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Available TTS models
const (
	ModelTTS1   = "tts-1"
	ModelTTS1HD = "tts-1-hd"
)

// Available voices
const (
	VoiceAlloy   = "alloy"
	VoiceEcho    = "echo"
	VoiceFable   = "fable"
	VoiceOnyx    = "onyx"
	VoiceNova    = "nova"
	VoiceShimmer = "shimmer"
)

// Config configures a Synthesizer.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Voice   string
}

// Synthesizer renders text into an MP3 document with the OpenAI speech
// endpoint.
type Synthesizer struct {
	client openai.Client
	model  string
	voice  string
}

// NewSynthesizer creates a speech synthesizer. Empty model and voice fall
// back to tts-1 and alloy.
func NewSynthesizer(cfg Config, opts ...option.RequestOption) *Synthesizer {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	s := &Synthesizer{
		client: openai.NewClient(reqOpts...),
		model:  cfg.Model,
		voice:  cfg.Voice,
	}
	if s.model == "" {
		s.model = ModelTTS1
	}
	if s.voice == "" {
		s.voice = VoiceAlloy
	}
	return s
}

// Synthesize returns encoded audio for text spoken at speed (0.25 to 4.0).
func (s *Synthesizer) Synthesize(ctx context.Context, text string, speed float64) ([]byte, error) {
	params := openai.AudioSpeechNewParams{
		Model:          openai.SpeechModel(s.model),
		Input:          text,
		Voice:          openai.AudioSpeechNewParamsVoice(s.voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormat("mp3"),
	}
	if speed > 0 && speed != 1.0 {
		params.Speed = openai.Float(speed)
	}

	resp, err := s.client.Audio.Speech.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("speech synthesis failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read audio data: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("speech synthesis returned no audio")
	}

	return data, nil
}
