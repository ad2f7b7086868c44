package audio

import (
	"fmt"

	"github.com/gordonklaus/portaudio"
)

const (
	// SampleRate is the capture rate expected by the transcription and VAD
	// backends.
	SampleRate      = 16000
	channels        = 1
	framesPerBuffer = 1024
)

// FrameDuration is the wall-clock length of one captured frame in seconds.
const FrameDuration = float64(framesPerBuffer) / SampleRate

// Input is a blocking mono microphone stream.
type Input struct {
	host   *Host
	stream *portaudio.Stream
	buffer []float32
}

// NewInput opens the default input device at SampleRate.
func NewInput(host *Host) (*Input, error) {
	if err := host.Acquire(); err != nil {
		return nil, err
	}

	input := &Input{
		host:   host,
		buffer: make([]float32, framesPerBuffer),
	}

	stream, err := portaudio.OpenDefaultStream(channels, 0, float64(SampleRate), framesPerBuffer, input.buffer)
	if err != nil {
		host.Release()
		return nil, fmt.Errorf("failed to open input stream: %w", err)
	}

	input.stream = stream
	return input, nil
}

func (i *Input) Start() error {
	return i.stream.Start()
}

// Read blocks until the next frame is available and returns a copy of it.
func (i *Input) Read() ([]float32, error) {
	if err := i.stream.Read(); err != nil {
		return nil, err
	}

	data := make([]float32, len(i.buffer))
	copy(data, i.buffer)
	return data, nil
}

// Close stops and closes the stream, then releases the host.
func (i *Input) Close() error {
	if i.stream != nil {
		i.stream.Stop()
		i.stream.Close()
		i.stream = nil
	}
	return i.host.Release()
}
