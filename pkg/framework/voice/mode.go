package voice

import (
	"fmt"
	"strings"
)

// Mode selects how the engine maps notes to sample data.
type Mode int

const (
	// ModeWarp plays one shared source, pitch-shifted per note.
	ModeWarp Mode = iota
	// ModeAssign plays a dedicated sample per mapped note at a fixed rate.
	ModeAssign
	// ModeSfz plays key/velocity regions of a multi-sample instrument.
	ModeSfz
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeAssign:
		return "assign"
	case ModeSfz:
		return "sfz"
	default:
		return "warp"
	}
}

// ParseMode converts a mode name into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "warp":
		return ModeWarp, nil
	case "assign":
		return ModeAssign, nil
	case "sfz":
		return ModeSfz, nil
	}
	return ModeWarp, fmt.Errorf("unknown playback mode %q", s)
}

// LoopMode selects the sustain loop behavior.
type LoopMode int

const (
	// LoopNone plays straight through to the end point.
	LoopNone LoopMode = iota
	// LoopWrap jumps from the sustain end back to the sustain start.
	LoopWrap
	// LoopBounce plays the sustain region back and forth.
	LoopBounce
)

// String returns the loop mode name.
func (l LoopMode) String() string {
	switch l {
	case LoopWrap:
		return "wrap"
	case LoopBounce:
		return "bounce"
	default:
		return "none"
	}
}

// ParseLoopMode converts a loop mode name into a LoopMode.
func ParseLoopMode(s string) (LoopMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "off":
		return LoopNone, nil
	case "wrap", "forward":
		return LoopWrap, nil
	case "bounce", "pingpong", "ping-pong":
		return LoopBounce, nil
	}
	return LoopNone, fmt.Errorf("unknown loop mode %q", s)
}

// Kind decides how a voice derives its playback rate from the note.
type Kind int

const (
	// KindWarp transposes by the interval between the note and the base note.
	KindWarp Kind = iota
	// KindAssign always plays at the original pitch.
	KindAssign
)
