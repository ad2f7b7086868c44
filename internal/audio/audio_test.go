package audio

import (
	"errors"
	"math"
	"testing"
)

func TestEncodeDecodeWAV(t *testing.T) {
	samples := make([]float32, 1600)
	for i := range samples {
		samples[i] = float32(0.5 * math.Sin(2*math.Pi*440*float64(i)/SampleRate))
	}

	data, err := EncodeWAV(samples, SampleRate)
	if err != nil {
		t.Fatalf("EncodeWAV failed: %v", err)
	}
	if detectFormat(data) != "wav" {
		t.Fatalf("Expected RIFF header, got %q", data[:4])
	}

	decoded, rate, err := Decode(data)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if rate != SampleRate {
		t.Errorf("Expected rate %d, got %d", SampleRate, rate)
	}
	if len(decoded) != len(samples) {
		t.Fatalf("Expected %d samples, got %d", len(samples), len(decoded))
	}
	for i := range samples {
		if math.Abs(float64(decoded[i]-samples[i])) > 0.001 {
			t.Fatalf("Sample %d drifted: %f vs %f", i, decoded[i], samples[i])
		}
	}
}

func TestEncodeWAVInvalidRate(t *testing.T) {
	if _, err := EncodeWAV([]float32{0}, 0); err == nil {
		t.Error("Expected error for zero sample rate")
	}
}

func TestDecodeUnknownFormat(t *testing.T) {
	_, _, err := Decode([]byte("not audio at all"))
	if !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name string
		data []byte
		want string
	}{
		{"riff", []byte("RIFF0000WAVE"), "wav"},
		{"id3", []byte("ID3\x04\x00"), "mp3"},
		{"frame sync", []byte{0xFF, 0xFB, 0x90, 0x00}, "mp3"},
		{"short", []byte{0xFF}, "unknown"},
		{"text", []byte("hello"), "unknown"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := detectFormat(tt.data); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestResample(t *testing.T) {
	in := []float32{0, 1, 0, -1, 0, 1, 0, -1}

	out, err := Resample(in, 16000, 8000)
	if err != nil {
		t.Fatalf("Resample failed: %v", err)
	}
	if len(out) != 4 {
		t.Errorf("Expected 4 samples, got %d", len(out))
	}

	same, _ := Resample(in, 16000, 16000)
	if len(same) != len(in) {
		t.Errorf("Expected identity copy, got %d samples", len(same))
	}

	if _, err := Resample(in, 0, 16000); err == nil {
		t.Error("Expected error for invalid input rate")
	}
}

func TestResampleIntoReusesBuffer(t *testing.T) {
	src := []float32{0, 1, 0, -1}
	dst := make([]float32, 0, 16)

	out, err := ResampleInto(dst, src, 16000, 32000)
	if err != nil {
		t.Fatalf("ResampleInto failed: %v", err)
	}
	if len(out) != 8 {
		t.Fatalf("Expected 8 samples, got %d", len(out))
	}
	if &out[0] != &dst[:1][0] {
		t.Error("Expected the destination buffer to be reused")
	}

	want := []float32{0, 0.5, 1, 0.5, 0, -0.5, -1, -1}
	for i := range want {
		if math.Abs(float64(out[i]-want[i])) > 1e-6 {
			t.Errorf("Sample %d: expected %f, got %f", i, want[i], out[i])
		}
	}

	small := make([]float32, 2)
	grown, _ := ResampleInto(small, src, 16000, 24000)
	if len(grown) != ResampledLen(len(src), 16000, 24000) || len(grown) != 6 {
		t.Errorf("Expected 6 samples in a grown buffer, got %d", len(grown))
	}
}

func TestRMSAndGain(t *testing.T) {
	if RMS(nil) != 0 {
		t.Error("Expected zero RMS for empty frame")
	}

	frame := []float32{0.5, -0.5, 0.5, -0.5}
	if got := RMS(frame); math.Abs(got-0.5) > 1e-6 {
		t.Errorf("Expected RMS 0.5, got %f", got)
	}

	ApplyGain(frame, 0.8)
	if math.Abs(float64(frame[0])-0.4) > 1e-6 {
		t.Errorf("Expected 0.4 after gain, got %f", frame[0])
	}

	loud := []float32{0.9}
	ApplyGain(loud, 2)
	if loud[0] != 1 {
		t.Errorf("Expected clamp to 1, got %f", loud[0])
	}
}
