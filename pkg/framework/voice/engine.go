package voice

import (
	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
	"github.com/justyntemme/gosampler/pkg/framework/debug"
)

// points holds the start, end and sustain points as percentages.
type points struct {
	start, end, susStart, susEnd float64
}

func (p points) apply(v *Voice) {
	v.SetStartPoint(p.start)
	v.SetEndPoint(p.end)
	if p.susStart != unset {
		v.SetSusStart(p.susStart)
	}
	if p.susEnd != unset {
		v.SetSusEnd(p.susEnd)
	}
}

// Engine owns the voice pool, dispatches note events for the current mode
// and mixes the voices into one output sample.
//
// Process, NoteOn, NoteOff and the parameter setters do not allocate. The
// loading methods do and must not run concurrently with Process.
type Engine struct {
	log *debug.Logger

	mode      Mode
	hostRate  float64
	numVoices int
	voices    []*Voice

	// Warp source.
	source     *buffer.SampleBuffer
	sourceRate float64

	// Assign slots indexed by note; slotNotes lists the mapped notes in
	// ascending order.
	slots     [128]*assignSlot
	slotNotes []uint8

	// Sfz regions.
	regions      []Region
	maxRegionLen int

	state   SourceState
	loadErr error

	baseNote          uint8
	adsr              ADSR
	points            points
	crossfade         float64
	loopMode          LoopMode
	loopMargin        float64
	velocityToSustain bool
}

// NewEngine creates an engine from cfg. Out-of-range values are clamped.
func NewEngine(cfg Config) *Engine {
	if cfg.HostRate <= 0 {
		cfg.HostRate = DefaultConfig().HostRate
	}
	log := cfg.Logger
	if log == nil {
		log = debug.Default()
	}

	e := &Engine{
		log:               log,
		mode:              cfg.Mode,
		hostRate:          cfg.HostRate,
		numVoices:         clampVoices(cfg.Voices),
		source:            buffer.NewSampleBuffer(1),
		sourceRate:        cfg.HostRate,
		slotNotes:         make([]uint8, 0, 128),
		baseNote:          cfg.BaseNote,
		adsr:              cfg.ADSR,
		points:            points{start: 0, end: 100, susStart: unset, susEnd: unset},
		crossfade:         cfg.Crossfade,
		loopMode:          cfg.LoopMode,
		loopMargin:        cfg.LoopMargin,
		velocityToSustain: cfg.VelocityToSustain,
	}
	e.buildPool()
	return e
}

// Mode returns the playback mode.
func (e *Engine) Mode() Mode {
	return e.mode
}

// HostRate returns the output sample rate.
func (e *Engine) HostRate() float64 {
	return e.hostRate
}

// NumVoices returns the pool size.
func (e *Engine) NumVoices() int {
	return e.numVoices
}

// Voices returns the pool. The slice must not be modified.
func (e *Engine) Voices() []*Voice {
	return e.voices
}

// Source returns the Warp source buffer for read-only display use.
func (e *Engine) Source() *buffer.SampleBuffer {
	return e.source
}

// SourceRate returns the native rate of the Warp source.
func (e *Engine) SourceRate() float64 {
	return e.sourceRate
}

// SetMode switches the playback mode and rebuilds the pool. Every sounding
// voice is dropped.
func (e *Engine) SetMode(mode Mode) {
	e.mode = mode
	e.stopSlots()
	e.voices = e.voices[:0]
	e.buildPool()
	e.log.Info("Playback mode set to %s with %d voices", mode, e.numVoices)
}

// SetNumVoices resizes the pool to n voices, clamped to [1,24]. Voices
// beyond the new size are dropped; surviving voices keep playing.
func (e *Engine) SetNumVoices(n int) {
	n = clampVoices(n)
	if n == e.numVoices {
		return
	}
	e.numVoices = n
	if n < len(e.voices) {
		for _, v := range e.voices[n:] {
			v.Stop()
		}
		e.voices = e.voices[:n]
	}
	e.buildPool()
	e.log.Debug("Voice pool resized to %d", n)
}

// buildPool grows the pool up to numVoices with freshly configured voices.
func (e *Engine) buildPool() {
	for len(e.voices) < e.numVoices {
		v := New(KindWarp, e.hostRate)
		e.configure(v)
		v.SetBaseNote(e.baseNote)
		v.SetSourceRate(e.sourceRate)
		if e.mode == ModeSfz {
			v.ReserveOwn(e.maxRegionLen)
		}
		e.voices = append(e.voices, v)
	}
}

// configure applies the global parameters to v.
func (e *Engine) configure(v *Voice) {
	v.SetSampleRate(e.hostRate)
	v.Envelope().SetADSR(e.adsr.Attack, e.adsr.Decay, e.adsr.Sustain, e.adsr.Release)
	v.Crossfader().SetDuration(e.crossfade)
	v.SetLoopMode(e.loopMode)
	v.SetLoopMargin(e.loopMargin)
	v.SetVelocityToSustain(e.velocityToSustain)
	e.points.apply(v)
}

// Process renders one output sample: the unnormalized sum of every voice
// for the current mode.
func (e *Engine) Process() float32 {
	var sum float32
	switch e.mode {
	case ModeWarp:
		ratio := e.sourceRate / e.hostRate
		for _, v := range e.voices {
			sum += v.Process(e.source, ratio)
		}
	case ModeAssign:
		for _, note := range e.slotNotes {
			s := e.slots[note]
			sum += s.voice.Process(s.buf, s.ratio)
		}
	case ModeSfz:
		for _, v := range e.voices {
			sum += v.ProcessOwn()
		}
	}
	return sum
}

// NoteOn starts note with velocity in [0,1].
func (e *Engine) NoteOn(note uint8, velocity float64) {
	if note > 127 {
		return
	}
	switch e.mode {
	case ModeWarp:
		if e.state != SourceReady {
			return
		}
		e.voices[e.VoiceID()].NoteOn(note, velocity)
	case ModeAssign:
		if s := e.slots[note]; s != nil {
			s.voice.NoteOn(note, velocity)
		}
	case ModeSfz:
		e.noteOnSfz(note, velocity)
	}
}

// noteOnSfz triggers one voice per matching region. Voices claimed by this
// note-on are not stolen again by later layers.
func (e *Engine) noteOnSfz(note uint8, velocity float64) {
	var claimed uint32
	for i := range e.regions {
		r := &e.regions[i]
		if !r.Matches(note, velocity) {
			continue
		}
		id := e.voiceID(claimed)
		if id < 0 {
			return
		}
		claimed |= 1 << uint(id)

		v := e.voices[id]
		v.Stop()
		v.LoadOwn(r.Samples, r.SampleRate, e.hostRate)
		v.SetBaseNote(r.Center())
		v.NoteOn(note, velocity)
	}
}

// NoteOff releases note. Unmapped or silent notes are ignored.
func (e *Engine) NoteOff(note uint8) {
	if note > 127 {
		return
	}
	switch e.mode {
	case ModeWarp:
		for _, v := range e.voices {
			if v.IsHeld() && v.Note() == note {
				v.NoteOff()
				return
			}
		}
	case ModeAssign:
		if s := e.slots[note]; s != nil {
			s.voice.NoteOff()
		}
	case ModeSfz:
		for _, v := range e.voices {
			if v.IsHeld() && v.Note() == note {
				v.NoteOff()
			}
		}
	}
}

// AllNotesOff releases every voice.
func (e *Engine) AllNotesOff() {
	for _, v := range e.voices {
		v.NoteOff()
	}
	for _, note := range e.slotNotes {
		e.slots[note].voice.NoteOff()
	}
}

// Reset silences every voice immediately.
func (e *Engine) Reset() {
	e.stopPool()
	e.stopSlots()
}

// ActiveVoices returns how many voices of the current mode are sounding.
func (e *Engine) ActiveVoices() int {
	n := 0
	if e.mode == ModeAssign {
		for _, note := range e.slotNotes {
			if e.slots[note].voice.IsActive() {
				n++
			}
		}
		return n
	}
	for _, v := range e.voices {
		if v.IsActive() {
			n++
		}
	}
	return n
}

func (e *Engine) stopPool() {
	for _, v := range e.voices {
		v.Stop()
	}
}

func (e *Engine) stopSlots() {
	for _, note := range e.slotNotes {
		e.slots[note].voice.Stop()
	}
}
