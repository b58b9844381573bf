package voice

import "github.com/justyntemme/gosampler/pkg/framework/debug"

const (
	// MinVoices and MaxVoices bound the polyphony pool.
	MinVoices = 1
	MaxVoices = 24
)

// ADSR holds envelope times in seconds and the sustain level (0-1).
type ADSR struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DefaultADSR is the envelope new voices start with. It is also returned for
// notes that have no assignment.
var DefaultADSR = ADSR{Attack: 0.01, Decay: 0.1, Sustain: 0.7, Release: 0.3}

// Config is the initial engine configuration.
type Config struct {
	HostRate          float64
	Voices            int
	Mode              Mode
	BaseNote          uint8
	ADSR              ADSR
	Crossfade         float64
	LoopMode          LoopMode
	LoopMargin        float64
	VelocityToSustain bool

	// Logger receives control-path messages. Nil uses the default logger.
	Logger *debug.Logger
}

// DefaultConfig returns a Warp-mode configuration at 44.1 kHz with 8 voices.
func DefaultConfig() Config {
	return Config{
		HostRate:  44100,
		Voices:    8,
		Mode:      ModeWarp,
		BaseNote:  DefaultBaseNote,
		ADSR:      DefaultADSR,
		Crossfade: 0.01,
		LoopMode:  LoopNone,
	}
}

func clampVoices(n int) int {
	if n < MinVoices {
		return MinVoices
	}
	if n > MaxVoices {
		return MaxVoices
	}
	return n
}
