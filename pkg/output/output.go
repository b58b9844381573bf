// Package output plays rendered audio on the sound device. A Feeder renders
// mono blocks into a WriteAheadBuffer on its own goroutine; the device
// backend drains that FIFO from its callback and duplicates each sample to
// both channels.
package output

import (
	"fmt"
	"strings"

	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
)

// Backend names a device output library.
type Backend string

const (
	BackendOto  Backend = "oto"
	BackendBeep Backend = "beep"
)

// ParseBackend accepts "oto" or "beep", case-insensitively.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case BackendOto, BackendBeep:
		return b, nil
	}
	return "", fmt.Errorf("unknown audio backend %q (want oto or beep)", s)
}

// Player is a started or stopped device stream reading from a FIFO.
type Player interface {
	Start() error
	Stop()
	Close() error
}

// New opens the device through backend. The stream does not start until
// Start is called.
func New(backend Backend, sampleRate int, fifo *buffer.WriteAheadBuffer) (Player, error) {
	switch backend {
	case BackendOto:
		return NewOtoPlayer(sampleRate, fifo)
	case BackendBeep:
		return NewBeepPlayer(sampleRate, fifo), nil
	}
	return nil, fmt.Errorf("unknown audio backend %q", backend)
}
