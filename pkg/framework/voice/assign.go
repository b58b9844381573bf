package voice

import (
	"fmt"
	"sort"

	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
)

// assignSlot is one mapped note in Assign mode: its sample, playback ratio
// and dedicated voice.
type assignSlot struct {
	buf        *buffer.SampleBuffer
	voice      *Voice
	sourceRate float64
	ratio      float64

	adsr      ADSR
	hasADSR   bool
	start     float64
	end       float64
	hasPoints bool
}

// AssignSample maps note to its own sample in Assign mode. A note that is
// already mapped has its voice stopped before the data is replaced.
func (e *Engine) AssignSample(note uint8, samples []float32, sourceRate float64) error {
	if note > 127 {
		return e.fail(fmt.Errorf("assign note %d: note out of range", note))
	}
	if err := validateSamples(samples, sourceRate); err != nil {
		return e.fail(fmt.Errorf("assign note %d: %w", note, err))
	}

	s := e.slots[note]
	if s == nil {
		s = &assignSlot{
			buf:   buffer.NewSampleBuffer(len(samples)),
			voice: New(KindAssign, e.hostRate),
			adsr:  e.adsr,
		}
		e.configure(s.voice)
		s.voice.SetBaseNote(note)
		e.slots[note] = s
		e.insertNote(note)
	} else {
		s.voice.Stop()
	}

	s.buf.Load(samples)
	s.sourceRate = sourceRate
	s.ratio = sourceRate / e.hostRate
	s.voice.SetSourceRate(sourceRate)

	e.ready()
	e.log.Debug("Assigned %d samples at %.0f Hz to note %d", len(samples), sourceRate, note)
	return nil
}

// RemoveAssignment unmaps note. Unmapped notes are ignored.
func (e *Engine) RemoveAssignment(note uint8) {
	if note > 127 || e.slots[note] == nil {
		return
	}
	e.slots[note].voice.Stop()
	e.slots[note] = nil
	i := sort.Search(len(e.slotNotes), func(i int) bool { return e.slotNotes[i] >= note })
	e.slotNotes = append(e.slotNotes[:i], e.slotNotes[i+1:]...)
}

// AssignedNotes returns the mapped notes in ascending order. The slice must
// not be modified.
func (e *Engine) AssignedNotes() []uint8 {
	return e.slotNotes
}

func (e *Engine) insertNote(note uint8) {
	i := sort.Search(len(e.slotNotes), func(i int) bool { return e.slotNotes[i] >= note })
	e.slotNotes = append(e.slotNotes, 0)
	copy(e.slotNotes[i+1:], e.slotNotes[i:])
	e.slotNotes[i] = note
}

// SetNoteADSR overrides the envelope of a mapped note. Global envelope
// changes no longer reach it. Unmapped notes are ignored.
func (e *Engine) SetNoteADSR(note uint8, adsr ADSR) {
	if note > 127 || e.slots[note] == nil {
		return
	}
	s := e.slots[note]
	s.adsr = adsr
	s.hasADSR = true
	s.voice.Envelope().SetADSR(adsr.Attack, adsr.Decay, adsr.Sustain, adsr.Release)
}

// NoteADSR returns the envelope of a mapped note, or DefaultADSR for an
// unmapped one.
func (e *Engine) NoteADSR(note uint8) ADSR {
	if note > 127 || e.slots[note] == nil {
		return DefaultADSR
	}
	return e.slots[note].adsr
}

// SetNotePoints overrides the start and end points (percent) of a mapped
// note. Unmapped notes are ignored.
func (e *Engine) SetNotePoints(note uint8, start, end float64) {
	if note > 127 || e.slots[note] == nil {
		return
	}
	s := e.slots[note]
	s.start = clampPercent(start)
	s.end = clampPercent(end)
	s.hasPoints = true
	s.voice.SetStartPoint(s.start)
	s.voice.SetEndPoint(s.end)
}

// NotePoints returns the start and end points (percent) of a mapped note,
// or (0, 100) for an unmapped one.
func (e *Engine) NotePoints(note uint8) (start, end float64) {
	if note > 127 || e.slots[note] == nil {
		return 0, 100
	}
	return e.slots[note].voice.Points()
}
