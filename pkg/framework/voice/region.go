package voice

import "math"

// Unset marks a region bound or pitch center that was not specified.
const Unset = -1

// Region is one key/velocity zone of a multi-sample instrument.
type Region struct {
	Name       string
	Samples    []float32
	SampleRate float64

	// Key bounds are MIDI notes and velocity bounds use the 0-127 scale.
	// Unset bounds match the full range.
	KeyLow      int
	KeyHigh     int
	VelLow      int
	VelHigh     int
	PitchCenter int
}

// NewRegion returns a region covering every key and velocity.
func NewRegion(samples []float32, sampleRate float64) Region {
	return Region{
		Samples:     samples,
		SampleRate:  sampleRate,
		KeyLow:      Unset,
		KeyHigh:     Unset,
		VelLow:      Unset,
		VelHigh:     Unset,
		PitchCenter: Unset,
	}
}

// Matches reports whether note and velocity (0-1) fall inside the region.
func (r Region) Matches(note uint8, velocity float64) bool {
	vel := int(math.Round(velocity * 127))
	return inRange(int(note), r.KeyLow, r.KeyHigh) && inRange(vel, r.VelLow, r.VelHigh)
}

// Center returns the note that plays the region at its original pitch.
func (r Region) Center() uint8 {
	if r.PitchCenter < 0 || r.PitchCenter > 127 {
		return DefaultBaseNote
	}
	return uint8(r.PitchCenter)
}

func inRange(v, lo, hi int) bool {
	if lo < 0 || lo > 127 {
		lo = 0
	}
	if hi < 0 || hi > 127 {
		hi = 127
	}
	return v >= lo && v <= hi
}
