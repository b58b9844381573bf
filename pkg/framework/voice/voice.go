// Package voice implements sample playback voices and the polyphonic engine
// that allocates, steals and mixes them.
package voice

import (
	"math"

	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
	"github.com/justyntemme/gosampler/pkg/dsp/crossfade"
	"github.com/justyntemme/gosampler/pkg/dsp/envelope"
)

const (
	// unset marks a point that has not been configured yet.
	unset = -1.0

	// MinLoopSamples is the smallest separation kept between sustain
	// points and the start/end span.
	MinLoopSamples = 10

	// DefaultSusStart and DefaultSusEnd place an unconfigured sustain loop,
	// in percent of the buffer capacity.
	DefaultSusStart = 40.0
	DefaultSusEnd   = 60.0

	// DefaultBaseNote is the note that plays a sample at its original pitch.
	DefaultBaseNote uint8 = 60
)

// Voice plays one note from a SampleBuffer. It owns its envelope and loop
// crossfader; in Sfz mode it also owns the buffer it reads from.
type Voice struct {
	env   *envelope.ADSR
	xfade *crossfade.Crossfader

	// Sfz voices read from their own buffer at their own rate ratio.
	own      *buffer.SampleBuffer
	ownRatio float64

	kind       Kind
	sampleRate float64
	sourceRate float64
	loopMargin float64

	note              uint8
	baseNote          uint8
	velocity          float64
	velocityToSustain bool

	// Points as percentages of the buffer length; unset means default.
	startPct    float64
	endPct      float64
	susStartPct float64
	susEndPct   float64

	// Points as absolute sample positions, derived for resolvedLen.
	startPoint  float64
	endPoint    float64
	susStart    float64
	susEnd      float64
	resolvedLen int

	loopMode LoopMode
	reversed bool

	phase     float64
	step      float64
	pitch     float64
	restart   bool
	susPassed bool
	spliced   bool
}

// New creates an idle voice running at sampleRate.
func New(kind Kind, sampleRate float64) *Voice {
	return &Voice{
		env:         envelope.New(sampleRate),
		xfade:       crossfade.New(sampleRate, 0),
		own:         buffer.NewSampleBuffer(1),
		ownRatio:    1,
		kind:        kind,
		sampleRate:  sampleRate,
		sourceRate:  sampleRate,
		baseNote:    DefaultBaseNote,
		startPct:    0,
		endPct:      unset,
		susStartPct: unset,
		susEndPct:   unset,
		startPoint:  0,
		endPoint:    unset,
		susStart:    unset,
		susEnd:      unset,
		resolvedLen: -1,
		pitch:       1,
	}
}

// Envelope exposes the voice's amplitude envelope for parameter changes.
func (v *Voice) Envelope() *envelope.ADSR {
	return v.env
}

// Crossfader exposes the loop splice fader for parameter changes.
func (v *Voice) Crossfader() *crossfade.Crossfader {
	return v.xfade
}

// SetSampleRate changes the output rate used by the envelope and fader.
func (v *Voice) SetSampleRate(sampleRate float64) {
	v.sampleRate = sampleRate
	v.env.SetSampleRate(sampleRate)
	v.xfade.SetSampleRate(sampleRate)
}

// SetSourceRate records the native rate of the buffer being played. It only
// affects the duration-based loop margin.
func (v *Voice) SetSourceRate(rate float64) {
	v.sourceRate = rate
	v.resolvedLen = -1
}

// SetKind switches between transposing and fixed-rate playback.
func (v *Voice) SetKind(kind Kind) {
	v.kind = kind
}

// SetBaseNote sets the note that plays at the original pitch.
func (v *Voice) SetBaseNote(note uint8) {
	v.baseNote = note
}

// BaseNote returns the note that plays at the original pitch.
func (v *Voice) BaseNote() uint8 {
	return v.baseNote
}

// Note returns the last note this voice was triggered with.
func (v *Voice) Note() uint8 {
	return v.note
}

// Velocity returns the last trigger velocity (0-1).
func (v *Voice) Velocity() float64 {
	return v.velocity
}

// SetVelocityToSustain makes note-on velocity set the sustain level.
func (v *Voice) SetVelocityToSustain(on bool) {
	v.velocityToSustain = on
}

// SetLoopMode selects the sustain loop behavior.
func (v *Voice) SetLoopMode(mode LoopMode) {
	v.loopMode = mode
}

// LoopMode returns the sustain loop behavior.
func (v *Voice) LoopMode() LoopMode {
	return v.loopMode
}

// SetLoopMargin sets the minimum sustain loop separation in seconds of
// source audio. The margin never drops below MinLoopSamples.
func (v *Voice) SetLoopMargin(seconds float64) {
	v.loopMargin = math.Max(0, seconds)
	v.resolvedLen = -1
}

// IsActive reports whether the envelope is producing sound.
func (v *Voice) IsActive() bool {
	return v.env.IsActive()
}

// Stage returns the envelope stage.
func (v *Voice) Stage() envelope.Stage {
	return v.env.GetStage()
}

// Amplitude returns the current envelope value, used for voice stealing.
func (v *Voice) Amplitude() float64 {
	return v.env.GetValue()
}

// IsHeld reports whether the voice is sounding and not yet released.
func (v *Voice) IsHeld() bool {
	switch v.env.GetStage() {
	case envelope.StageAttack, envelope.StageDecay, envelope.StageSustain:
		return true
	}
	return false
}

// Reversed reports whether the start point lies after the end point.
func (v *Voice) Reversed() bool {
	return v.reversed
}

// Phase returns the current fractional read position.
func (v *Voice) Phase() float64 {
	return v.phase
}

// Step returns the signed per-sample phase increment before rate scaling.
func (v *Voice) Step() float64 {
	return v.step
}

// NoteOn starts playback of note from the start point.
func (v *Voice) NoteOn(note uint8, velocity float64) {
	if v.velocityToSustain {
		v.env.SetSustain(velocity)
	}
	v.note = note
	v.velocity = velocity

	v.pitch = 1
	if v.kind == KindWarp {
		v.pitch = math.Pow(2, (float64(note)-float64(v.baseNote))/12)
	}

	v.phase = v.startPoint
	v.step = v.pitch * v.direction()
	v.restart = v.resolvedLen < 0
	v.susPassed = false
	v.spliced = false
	v.xfade.Reset()
	v.env.NoteOn()
}

// NoteOff releases the note. The voice keeps sounding through the release.
// A silent voice stays silent.
func (v *Voice) NoteOff() {
	if v.env.IsActive() {
		v.env.NoteOff()
	}
}

// Stop silences the voice immediately.
func (v *Voice) Stop() {
	v.env.Reset()
	v.xfade.Reset()
	v.phase = v.startPoint
	v.susPassed = false
	v.spliced = false
}

// Process renders one output sample from buf. rateRatio is the ratio of the
// buffer's native rate to the output rate. Crossing the end point freezes
// the voice at its start and resets the envelope, so the slot is free for
// the next allocation.
func (v *Voice) Process(buf *buffer.SampleBuffer, rateRatio float64) float32 {
	v.resolve(buf.Cap())

	if !v.env.IsActive() {
		v.phase = v.startPoint
		v.susPassed = false
		return 0
	}
	if v.restart {
		v.phase = v.startPoint
		v.step = v.pitch * v.direction()
		v.restart = false
	}

	sample := buf.GetFrac(v.phase)
	v.phase += v.step * rateRatio

	if v.loopMode != LoopNone && v.env.GetStage() == envelope.StageSustain {
		switch v.loopMode {
		case LoopWrap:
			v.wrap(rateRatio)
		case LoopBounce:
			v.bounce()
		}
	} else {
		v.unloop()
	}

	if v.pastEnd() {
		v.step = 0
		v.phase = v.startPoint
		v.env.Reset()
		v.xfade.Reset()
		return 0
	}

	amp := v.env.Next()
	if v.spliced {
		// The tail sample that crossed the loop end stays muted.
		v.spliced = false
		return 0
	}
	return sample * amp * v.xfade.Next()
}

// LoadOwn copies samples into the voice's own buffer for Sfz playback. The
// copy does not allocate when the buffer was reserved large enough.
func (v *Voice) LoadOwn(samples []float32, sourceRate, hostRate float64) {
	v.own.Load(samples)
	v.ownRatio = 1
	if hostRate > 0 && sourceRate > 0 {
		v.ownRatio = sourceRate / hostRate
	}
	v.SetSourceRate(sourceRate)
}

// ReserveOwn grows the voice's own buffer so LoadOwn of up to n samples
// does not allocate.
func (v *Voice) ReserveOwn(n int) {
	v.own.Reserve(n)
}

// ProcessOwn renders one output sample from the voice's own buffer.
func (v *Voice) ProcessOwn() float32 {
	return v.Process(v.own, v.ownRatio)
}

// direction is +1 for forward playback and -1 when reversed.
func (v *Voice) direction() float64 {
	if v.reversed {
		return -1
	}
	return 1
}

// pastEnd reports whether the phase has crossed the end point in the play
// direction.
func (v *Voice) pastEnd() bool {
	if v.reversed {
		return v.phase <= v.endPoint
	}
	return v.phase >= v.endPoint
}
