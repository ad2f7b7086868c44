package audio

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/tosone/minimp3"
	"github.com/youpy/go-wav"
)

// ErrUnknownFormat is returned for payloads that are neither WAV nor MP3.
var ErrUnknownFormat = errors.New("audio: unknown format")

// Decode converts a WAV or MP3 payload into mono float32 samples and returns
// them with their sample rate.
func Decode(data []byte) ([]float32, int, error) {
	switch detectFormat(data) {
	case "wav":
		return decodeWAV(data)
	case "mp3":
		return decodeMP3(data)
	default:
		return nil, 0, ErrUnknownFormat
	}
}

func detectFormat(data []byte) string {
	if len(data) < 4 {
		return "unknown"
	}
	switch {
	case bytes.Equal(data[:4], []byte("RIFF")):
		return "wav"
	case bytes.Equal(data[:3], []byte("ID3")):
		return "mp3"
	case data[0] == 0xFF && data[1]&0xE0 == 0xE0:
		return "mp3"
	}
	return "unknown"
}

func decodeWAV(data []byte) ([]float32, int, error) {
	r := wav.NewReader(bytes.NewReader(data))

	format, err := r.Format()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read WAV format: %w", err)
	}

	scale := float32(int64(1) << (format.BitsPerSample - 1))
	var samples []float32
	for {
		chunk, err := r.ReadSamples()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to read WAV samples: %w", err)
		}

		for _, s := range chunk {
			v := float32(r.IntValue(s, 0)) / scale
			if format.NumChannels == 2 {
				v = (v + float32(r.IntValue(s, 1))/scale) / 2
			}
			samples = append(samples, clamp(v))
		}
	}

	return samples, int(format.SampleRate), nil
}

func decodeMP3(data []byte) ([]float32, int, error) {
	dec, pcm, err := minimp3.DecodeFull(data)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to decode MP3: %w", err)
	}
	defer dec.Close()

	ch := dec.Channels
	if ch < 1 {
		ch = 1
	}

	frames := len(pcm) / 2 / ch
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum float32
		for c := 0; c < ch; c++ {
			off := (i*ch + c) * 2
			sum += float32(int16(pcm[off])|int16(pcm[off+1])<<8) / 32768
		}
		samples[i] = clamp(sum / float32(ch))
	}

	return samples, dec.SampleRate, nil
}
