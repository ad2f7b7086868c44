package audio

import (
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
)

// Host owns the PortAudio library lifetime for one assistant. Inputs and
// outputs acquire it on open and release it on close; the library is
// terminated when the last reference goes away.
type Host struct {
	mu          sync.Mutex
	initialized bool
	refCount    int
}

// NewHost creates an uninitialized host.
func NewHost() *Host {
	return &Host{}
}

// Acquire initializes PortAudio on first use and takes a reference.
func (h *Host) Acquire() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.initialized {
		if err := portaudio.Initialize(); err != nil {
			return fmt.Errorf("failed to initialize PortAudio: %w", err)
		}
		h.initialized = true
	}

	h.refCount++
	return nil
}

// Release drops a reference and terminates PortAudio when none remain.
func (h *Host) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.refCount > 0 {
		h.refCount--
	}

	if h.refCount == 0 && h.initialized {
		if err := portaudio.Terminate(); err != nil {
			return fmt.Errorf("failed to terminate PortAudio: %w", err)
		}
		h.initialized = false
	}

	return nil
}

// HasInputDevice reports whether the host exposes a default capture device.
func (h *Host) HasInputDevice() bool {
	if err := h.Acquire(); err != nil {
		return false
	}
	defer h.Release()

	dev, err := portaudio.DefaultInputDevice()
	return err == nil && dev != nil && dev.MaxInputChannels > 0
}

// HasOutputDevice reports whether the host exposes a default playback device.
func (h *Host) HasOutputDevice() bool {
	if err := h.Acquire(); err != nil {
		return false
	}
	defer h.Release()

	dev, err := portaudio.DefaultOutputDevice()
	return err == nil && dev != nil && dev.MaxOutputChannels > 0
}
