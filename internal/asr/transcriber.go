package asr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"truthtrack-assistant/internal/audio"
)

// DefaultModel is the Whisper model used when Config.Model is empty.
const DefaultModel = "whisper-1"

// Config configures a Transcriber.
type Config struct {
	APIKey   string
	BaseURL  string
	Model    string
	Language string // BCP-47 tag such as "en-US"; only the primary subtag is sent
}

// Transcriber turns captured PCM into text through the OpenAI transcription
// endpoint.
type Transcriber struct {
	client   openai.Client
	model    string
	language string
}

// NewTranscriber creates a Whisper-backed transcriber.
func NewTranscriber(cfg Config, opts ...option.RequestOption) *Transcriber {
	reqOpts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	reqOpts = append(reqOpts, opts...)

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Transcriber{
		client:   openai.NewClient(reqOpts...),
		model:    model,
		language: primaryLanguage(cfg.Language),
	}
}

// Transcribe encodes samples as WAV and returns the recognized text.
func (t *Transcriber) Transcribe(ctx context.Context, samples []float32, sampleRate int) (string, error) {
	wav, err := audio.EncodeWAV(samples, sampleRate)
	if err != nil {
		return "", err
	}

	params := openai.AudioTranscriptionNewParams{
		File:  openai.File(bytes.NewReader(wav), "audio.wav", "audio/wav"),
		Model: openai.AudioModel(t.model),
	}
	if t.language != "" {
		params.Language = openai.String(t.language)
	}

	tr, err := t.client.Audio.Transcriptions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("transcription failed: %w", err)
	}

	return strings.TrimSpace(tr.Text), nil
}

func primaryLanguage(tag string) string {
	tag = strings.TrimSpace(tag)
	if i := strings.IndexAny(tag, "-_"); i > 0 {
		tag = tag[:i]
	}
	return strings.ToLower(tag)
}
