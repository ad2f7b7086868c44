// Package clipboard copies assistant responses to the system clipboard.
package clipboard

import (
	"errors"

	"github.com/atotto/clipboard"
)

// ErrUnavailable is returned when the host has no clipboard utility.
var ErrUnavailable = errors.New("clipboard: unavailable on this host")

// System writes to the operating system clipboard.
type System struct{}

func (System) WriteText(text string) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	return clipboard.WriteAll(text)
}

// Memory keeps the last copied text; used when no system clipboard exists.
type Memory struct {
	Text string
}

func (m *Memory) WriteText(text string) error {
	m.Text = text
	return nil
}

// Writer is implemented by System and Memory.
type Writer interface {
	WriteText(text string) error
}

// Default returns the system clipboard, or an in-memory one when the host
// has none.
func Default() Writer {
	if clipboard.Unsupported {
		return &Memory{}
	}
	return System{}
}
