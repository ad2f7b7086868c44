package audio

import "math"

// RMS returns the root-mean-square level of a frame.
func RMS(frame []float32) float64 {
	if len(frame) == 0 {
		return 0
	}
	var sum float64
	for _, s := range frame {
		sum += float64(s) * float64(s)
	}
	return math.Sqrt(sum / float64(len(frame)))
}

// ApplyGain scales samples in place by gain, clamping to [-1, 1].
func ApplyGain(samples []float32, gain float64) {
	if gain == 1 {
		return
	}
	g := float32(gain)
	for i, s := range samples {
		samples[i] = clamp(s * g)
	}
}
