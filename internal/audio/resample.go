package audio

import "fmt"

// ResampledLen is the number of samples n input samples become when
// converted from one rate to another.
func ResampledLen(n, from, to int) int {
	if n <= 0 || from <= 0 || to <= 0 {
		return 0
	}
	return int(int64(n) * int64(to) / int64(from))
}

// ResampleInto converts src from one rate to another by linear
// interpolation, reusing dst's backing array when it is large enough.
func ResampleInto(dst, src []float32, from, to int) ([]float32, error) {
	if from <= 0 || to <= 0 {
		return nil, fmt.Errorf("invalid sample rates: from=%d, to=%d", from, to)
	}

	n := ResampledLen(len(src), from, to)
	if cap(dst) < n {
		dst = make([]float32, n)
	}
	dst = dst[:n]

	if from == to {
		copy(dst, src)
		return dst, nil
	}

	last := len(src) - 1
	step := float64(from) / float64(to)
	for i := range dst {
		pos := float64(i) * step
		j := int(pos)
		if j >= last {
			dst[i] = src[last]
			continue
		}
		w := float32(pos - float64(j))
		dst[i] = src[j]*(1-w) + src[j+1]*w
	}
	return dst, nil
}

// Resample returns a newly allocated conversion of input.
func Resample(input []float32, from, to int) ([]float32, error) {
	return ResampleInto(nil, input, from, to)
}
