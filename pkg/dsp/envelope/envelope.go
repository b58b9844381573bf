// Package envelope provides the amplitude envelope used by each playback voice
package envelope

import "math"

// Stage represents the current envelope stage
type Stage int

const (
	// StageInactive represents a silent, finished envelope
	StageInactive Stage = iota
	// StageAttack represents envelope attack phase
	StageAttack
	// StageDecay represents envelope decay phase
	StageDecay
	// StageSustain represents envelope sustain phase
	StageSustain
	// StageRelease represents envelope release phase
	StageRelease
)

// String returns the stage name.
func (s Stage) String() string {
	switch s {
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageSustain:
		return "sustain"
	case StageRelease:
		return "release"
	default:
		return "inactive"
	}
}

const (
	// minDuration replaces non-positive attack and release times. The stage
	// then completes in a single sample.
	minDuration = 1e-6

	// threshold tolerance so that a ramp built from n equal steps lands on
	// its target on the n-th sample despite rounding.
	stageEpsilon = 1e-9
)

// ADSR implements a linear Attack-Decay-Sustain-Release envelope generator
type ADSR struct {
	sampleRate float64

	// Parameters (in seconds for A,D,R and 0-1 for S)
	attack  float64
	decay   float64
	sustain float64
	release float64

	// Per-sample increments
	attackStep  float64
	decayStep   float64
	releaseStep float64

	// State
	stage Stage
	value float64
}

// New creates a new ADSR envelope
func New(sampleRate float64) *ADSR {
	env := &ADSR{
		sampleRate: sampleRate,
		attack:     0.01,
		decay:      0.1,
		sustain:    0.7,
		release:    0.3,
	}
	env.updateSteps()
	return env
}

// SetSampleRate changes the rate the step sizes are derived from
func (e *ADSR) SetSampleRate(sampleRate float64) {
	e.sampleRate = sampleRate
	e.updateSteps()
}

// SetAttack sets the attack time in seconds
func (e *ADSR) SetAttack(seconds float64) {
	e.attack = positiveDuration(seconds)
	e.updateSteps()
}

// SetDecay sets the decay time in seconds. Zero skips the decay stage.
func (e *ADSR) SetDecay(seconds float64) {
	e.decay = math.Max(0, seconds)
	e.updateSteps()
}

// SetSustain sets the sustain level (0-1)
func (e *ADSR) SetSustain(level float64) {
	e.sustain = clampUnit(level)
	e.updateSteps()
}

// SetRelease sets the release time in seconds
func (e *ADSR) SetRelease(seconds float64) {
	e.release = positiveDuration(seconds)
	e.updateSteps()
}

// SetADSR sets all parameters at once
func (e *ADSR) SetADSR(attack, decay, sustain, release float64) {
	e.attack = positiveDuration(attack)
	e.decay = math.Max(0, decay)
	e.sustain = clampUnit(sustain)
	e.release = positiveDuration(release)
	e.updateSteps()
}

// Params returns the effective attack, decay, sustain and release values
func (e *ADSR) Params() (attack, decay, sustain, release float64) {
	return e.attack, e.decay, e.sustain, e.release
}

// updateSteps derives the per-sample increments. Stage and value are left
// untouched so a running envelope continues smoothly.
func (e *ADSR) updateSteps() {
	e.attackStep = calcStep(1.0, e.attack, e.sampleRate)
	e.decayStep = calcStep(1.0-e.sustain, e.decay, e.sampleRate)

	// A zero sustain would give a zero release slope; fall back to a full
	// scale ramp so releasing from any amplitude still terminates.
	releaseSpan := e.sustain
	if releaseSpan < stageEpsilon {
		releaseSpan = 1.0
	}
	e.releaseStep = calcStep(releaseSpan, e.release, e.sampleRate)
}

// calcStep returns the increment that covers distance in timeSeconds
func calcStep(distance, timeSeconds, sampleRate float64) float64 {
	if timeSeconds <= 0 || sampleRate <= 0 {
		return distance
	}
	return distance / (timeSeconds * sampleRate)
}

func positiveDuration(seconds float64) float64 {
	if seconds <= 0 || math.IsNaN(seconds) {
		return minDuration
	}
	return seconds
}

func clampUnit(v float64) float64 {
	return math.Max(0.0, math.Min(1.0, v))
}

// NoteOn restarts the attack stage from the current amplitude
func (e *ADSR) NoteOn() {
	e.stage = StageAttack
}

// NoteOff starts the release stage
func (e *ADSR) NoteOff() {
	e.stage = StageRelease
}

// Reset immediately returns the envelope to inactive
func (e *ADSR) Reset() {
	e.stage = StageInactive
	e.value = 0.0
}

// IsActive returns true if the envelope is generating output
func (e *ADSR) IsActive() bool {
	return e.stage != StageInactive
}

// GetStage returns the current envelope stage
func (e *ADSR) GetStage() Stage {
	return e.stage
}

// GetValue returns the most recent envelope output
func (e *ADSR) GetValue() float64 {
	return e.value
}

// GetSustain returns the sustain level
func (e *ADSR) GetSustain() float64 {
	return e.sustain
}

// Next generates the next envelope value
func (e *ADSR) Next() float32 {
	switch e.stage {
	case StageAttack:
		e.value += e.attackStep
		if e.value >= 1.0-stageEpsilon {
			e.value = 1.0
			if e.decay > 0 {
				e.stage = StageDecay
			} else {
				e.stage = StageSustain
			}
		}

	case StageDecay:
		e.value -= e.decayStep
		if e.value <= e.sustain+stageEpsilon {
			e.value = e.sustain
			e.stage = StageSustain
		}

	case StageSustain:
		e.value = e.sustain

	case StageRelease:
		e.value -= e.releaseStep
		if e.value <= stageEpsilon {
			e.value = 0.0
			e.stage = StageInactive
		}

	case StageInactive:
		e.value = 0.0
	}

	return float32(e.value)
}

// Process fills buffer with envelope values - no allocations
func (e *ADSR) Process(buffer []float32) {
	for i := range buffer {
		buffer[i] = e.Next()
	}
}

// ProcessMultiply multiplies buffer by envelope - no allocations
func (e *ADSR) ProcessMultiply(buffer []float32) {
	for i := range buffer {
		buffer[i] *= e.Next()
	}
}
