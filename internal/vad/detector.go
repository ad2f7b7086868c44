package vad

import (
	"context"

	"truthtrack-assistant/internal/audio"
)

// Detector decides whether a captured frame carries speech.
type Detector interface {
	IsSpeech(ctx context.Context, frame []float32) (bool, error)
}

// EnergyDetector flags frames whose RMS level exceeds Threshold.
type EnergyDetector struct {
	Threshold float64
}

func (d EnergyDetector) IsSpeech(_ context.Context, frame []float32) (bool, error) {
	return audio.RMS(frame) >= d.Threshold, nil
}

// RemoteDetector asks a VAD server about a rolling window of recent audio.
// Frames below the energy floor never reach the server.
type RemoteDetector struct {
	client *Client
	params *DetectRequest
	floor  EnergyDetector
	window []float32
	size   int
}

// NewRemoteDetector keeps windowSamples of context per request.
func NewRemoteDetector(client *Client, params *DetectRequest, floor float64, windowSamples int) *RemoteDetector {
	if windowSamples <= 0 {
		windowSamples = audio.SampleRate / 2
	}
	return &RemoteDetector{
		client: client,
		params: params,
		floor:  EnergyDetector{Threshold: floor},
		size:   windowSamples,
	}
}

func (d *RemoteDetector) IsSpeech(ctx context.Context, frame []float32) (bool, error) {
	d.window = append(d.window, frame...)
	if over := len(d.window) - d.size; over > 0 {
		d.window = d.window[over:]
	}

	if loud, _ := d.floor.IsSpeech(ctx, frame); !loud {
		return false, nil
	}

	wav, err := audio.EncodeWAV(d.window, audio.SampleRate)
	if err != nil {
		return false, err
	}

	resp, err := d.client.Detect(ctx, wav, d.params)
	if err != nil {
		return false, err
	}

	return len(resp.SpeechSegments) > 0, nil
}
