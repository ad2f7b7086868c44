package audio

import (
	"bytes"
	"fmt"

	"github.com/youpy/go-wav"
)

// EncodeWAV renders mono float32 samples as a 16-bit PCM WAV document.
func EncodeWAV(samples []float32, sampleRate int) ([]byte, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("invalid sample rate: %d", sampleRate)
	}

	var buf bytes.Buffer
	w := wav.NewWriter(&buf, uint32(len(samples)), 1, uint32(sampleRate), 16)

	pcm := make([]wav.Sample, len(samples))
	for i, s := range samples {
		pcm[i].Values[0] = int(clamp(s) * 32767)
	}
	if err := w.WriteSamples(pcm); err != nil {
		return nil, fmt.Errorf("failed to write WAV samples: %w", err)
	}

	return buf.Bytes(), nil
}

func clamp(s float32) float32 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
