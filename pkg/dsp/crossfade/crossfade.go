// Package crossfade provides the short linear gain ramps used to hide loop
// splice points.
package crossfade

import "math"

// State is the current fade direction.
type State int

const (
	// Quiescent passes audio at unity gain.
	Quiescent State = iota
	// FadingIn ramps the gain from 0 to 1, then returns to Quiescent.
	FadingIn
	// FadingOut ramps the gain from 1 to 0 and holds at 0.
	FadingOut
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case FadingIn:
		return "fading-in"
	case FadingOut:
		return "fading-out"
	default:
		return "quiescent"
	}
}

const (
	// MaxDuration is the longest accepted fade, in seconds.
	MaxDuration = 10.0

	// instant is the step sentinel for a zero-length fade.
	instant = -1.0

	// epsilon lets an n-step ramp finish on its n-th sample despite rounding.
	epsilon = 1e-9
)

// Crossfader generates a linear fade gain, one value per sample.
type Crossfader struct {
	sampleRate float64
	fadeIn     float64
	fadeOut    float64

	inStep  float64
	outStep float64

	state State
	value float64
}

// New creates a crossfader with equal fade-in and fade-out durations.
func New(sampleRate, seconds float64) *Crossfader {
	c := &Crossfader{sampleRate: sampleRate, value: 1}
	c.SetDurations(seconds, seconds)
	return c
}

// SetSampleRate changes the rate the step sizes are derived from.
func (c *Crossfader) SetSampleRate(sampleRate float64) {
	c.sampleRate = sampleRate
	c.updateSteps()
}

// SetDuration sets both fade durations in seconds.
func (c *Crossfader) SetDuration(seconds float64) {
	c.SetDurations(seconds, seconds)
}

// SetDurations sets fade-in and fade-out durations in seconds, clamped to
// [0, MaxDuration].
func (c *Crossfader) SetDurations(fadeIn, fadeOut float64) {
	c.fadeIn = clampDuration(fadeIn)
	c.fadeOut = clampDuration(fadeOut)
	c.updateSteps()
}

// Durations returns the effective fade-in and fade-out durations.
func (c *Crossfader) Durations() (fadeIn, fadeOut float64) {
	return c.fadeIn, c.fadeOut
}

func clampDuration(seconds float64) float64 {
	if math.IsNaN(seconds) {
		return 0
	}
	return math.Max(0, math.Min(MaxDuration, seconds))
}

func (c *Crossfader) updateSteps() {
	c.inStep = stepFor(c.fadeIn, c.sampleRate)
	c.outStep = stepFor(c.fadeOut, c.sampleRate)
}

func stepFor(seconds, sampleRate float64) float64 {
	samples := seconds * sampleRate
	if samples <= 0 {
		return instant
	}
	return 1.0 / samples
}

// FadeSamples returns the fade-out length in samples; 0 for an instant fade.
func (c *Crossfader) FadeSamples() float64 {
	if c.outStep == instant {
		return 0
	}
	return 1.0 / c.outStep
}

// MaxDelta returns the largest gain change between two consecutive samples.
func (c *Crossfader) MaxDelta() float64 {
	if c.inStep == instant || c.outStep == instant {
		return 1
	}
	return math.Max(c.inStep, c.outStep)
}

// StartFadeIn restarts the gain at 0 and ramps up.
func (c *Crossfader) StartFadeIn() {
	c.value = 0
	c.state = FadingIn
}

// StartFadeOut restarts the gain at 1 and ramps down.
func (c *Crossfader) StartFadeOut() {
	c.value = 1
	c.state = FadingOut
}

// Reverse turns a fade-out into a fade-in that starts from the current gain.
// Other states are left alone.
func (c *Crossfader) Reverse() {
	if c.state == FadingOut {
		c.state = FadingIn
	}
}

// Reset returns to unity gain.
func (c *Crossfader) Reset() {
	c.value = 1
	c.state = Quiescent
}

// State returns the current fade direction.
func (c *Crossfader) State() State {
	return c.state
}

// Value returns the most recent gain.
func (c *Crossfader) Value() float64 {
	return c.value
}

// Next advances the fade by one sample and returns the gain.
func (c *Crossfader) Next() float32 {
	switch c.state {
	case FadingIn:
		if c.inStep == instant {
			c.value = 1
		} else {
			c.value += c.inStep
		}
		if c.value >= 1-epsilon {
			c.value = 1
			c.state = Quiescent
		}
	case FadingOut:
		if c.outStep == instant {
			c.value = 0
		} else {
			c.value -= c.outStep
		}
		if c.value <= epsilon {
			c.value = 0
		}
	default:
		c.value = 1
	}
	return float32(c.value)
}
