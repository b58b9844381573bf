// Package process drives a voice engine block by block: it applies queued
// loads and parameter changes at block boundaries and dispatches events at
// their exact sample offsets.
package process

import (
	"math"
	"sync"

	"github.com/justyntemme/gosampler/pkg/dsp"
	"github.com/justyntemme/gosampler/pkg/dsp/gain"
	"github.com/justyntemme/gosampler/pkg/framework/debug"
	"github.com/justyntemme/gosampler/pkg/framework/param"
	"github.com/justyntemme/gosampler/pkg/framework/voice"
	"github.com/justyntemme/gosampler/pkg/midi"
)

// Renderer is the single point where control changes meet the audio path.
// RenderBlock must be called from one goroutine; Enqueue and the event queue
// may be fed from any goroutine.
type Renderer struct {
	engine  *voice.Engine
	params  *param.Registry
	binding *param.Binding
	events  *midi.EventQueue
	log     *debug.Logger

	gain   *param.Smoother
	gainDb float64

	// Pre-allocated per-block event scratch
	pending  []midi.Event
	position int64

	mu      sync.Mutex
	loads   []func()
	running []func()
}

// NewRenderer creates a renderer for engine. params may be nil, in which case
// the engine is driven by its own setters and the output gain is unity.
// A nil events queue is replaced by an empty one.
func NewRenderer(engine *voice.Engine, params *param.Registry, events *midi.EventQueue) *Renderer {
	if events == nil {
		events = midi.NewEventQueue()
	}
	r := &Renderer{
		engine:  engine,
		params:  params,
		events:  events,
		log:     debug.Default(),
		gain:    param.NewSmoother(param.LinearSmoothing, dsp.MediumSmoothing*engine.HostRate()),
		pending: make([]midi.Event, 0, 128),
	}
	if params != nil {
		r.binding = param.NewBinding(params)
	}
	r.gainDb = math.NaN()
	r.gain.Reset(dsp.UnityGain)
	return r
}

// SetLogger replaces the logger used for control-path messages.
func (r *Renderer) SetLogger(l *debug.Logger) {
	if l != nil {
		r.log = l
	}
}

// Engine returns the driven engine.
func (r *Renderer) Engine() *voice.Engine {
	return r.engine
}

// Events returns the event queue. Offsets are absolute sample positions.
func (r *Renderer) Events() *midi.EventQueue {
	return r.events
}

// Position returns the number of samples rendered so far.
func (r *Renderer) Position() int64 {
	return r.position
}

// Enqueue schedules a control-path operation, such as a sample load, to run
// on the render goroutine before the next block.
func (r *Renderer) Enqueue(load func()) {
	r.mu.Lock()
	r.loads = append(r.loads, load)
	r.mu.Unlock()
}

// RenderBlock fills out with the next len(out) mono samples.
func (r *Renderer) RenderBlock(out []float32) {
	r.runLoads()
	r.applyParams()

	start := r.position
	end := start + int64(len(out))
	// Everything before end is due; earlier events were removed after their
	// block, so late arrivals play at the first sample.
	r.pending = r.events.AppendEventsInRange(r.pending[:0], math.MinInt64, end)

	next := 0
	for i := range out {
		at := start + int64(i)
		for next < len(r.pending) && r.pending[next].SampleOffset() <= at {
			r.ProcessEvent(r.pending[next])
			next++
		}
		out[i] = r.engine.Process()
	}
	if len(r.pending) > 0 {
		r.events.RemoveProcessedEvents(end - 1)
		clear(r.pending)
	}

	r.applyGain(out)
	r.position = end
}

// ProcessEvent applies one event to the engine immediately. A note-on with
// zero velocity is a note-off.
func (r *Renderer) ProcessEvent(event midi.Event) {
	switch e := event.(type) {
	case midi.NoteOnEvent:
		if e.Velocity == 0 {
			r.engine.NoteOff(e.NoteNumber)
			return
		}
		r.engine.NoteOn(e.NoteNumber, e.NormalizedVelocity())
	case midi.NoteOffEvent:
		r.engine.NoteOff(e.NoteNumber)
	case midi.ControlChangeEvent:
		r.controlChange(e)
	}
}

func (r *Renderer) controlChange(e midi.ControlChangeEvent) {
	switch e.Controller {
	case midi.CCAllNotesOff:
		r.engine.AllNotesOff()
	case midi.CCAllSoundOff:
		r.engine.Reset()
	case midi.CCVolume:
		if p := r.gainParam(); p != nil {
			p.SetPlainValue(gain.LinearToDb(midi.VelocityToUnit(e.Value)))
		}
	case midi.CCResetAll:
		if r.params != nil {
			r.params.ResetAll()
		}
	}
}

// Reset silences the engine and rewinds the position. Pending events and
// loads are kept.
func (r *Renderer) Reset() {
	r.engine.Reset()
	r.position = 0
	if r.binding != nil {
		r.binding.Invalidate()
	}
}

func (r *Renderer) runLoads() {
	r.mu.Lock()
	if len(r.loads) == 0 {
		r.mu.Unlock()
		return
	}
	r.running, r.loads = r.loads, r.running[:0]
	r.mu.Unlock()

	for i, load := range r.running {
		load()
		r.running[i] = nil
	}
	r.log.Debug("Ran %d queued loads at sample %d", len(r.running), r.position)
	r.running = r.running[:0]
}

func (r *Renderer) applyParams() {
	if r.binding == nil {
		return
	}
	rebuilds := r.binding.Rebuilds()
	if n := r.binding.Apply(r.engine); n > 0 {
		r.log.Debug("Applied %d parameter changes at sample %d", n, r.position)
	}
	if r.binding.Rebuilds() > rebuilds {
		r.log.Info("Voice pool rebuilt at sample %d (%s, %d voices)", r.position, r.engine.Mode(), r.engine.NumVoices())
	}

	p := r.gainParam()
	if p == nil {
		return
	}
	db := p.GetPlainValue()
	if db == r.gainDb {
		return
	}
	target := gain.DbToLinear(db)
	if math.IsNaN(r.gainDb) {
		r.gain.Reset(target)
	} else {
		r.gain.SetTarget(target)
	}
	r.gainDb = db
}

func (r *Renderer) applyGain(out []float32) {
	if !r.gain.IsSmoothing() {
		dsp.Gain(out, float32(r.gain.Current()))
		return
	}
	for i := range out {
		out[i] *= float32(r.gain.Next())
	}
}

func (r *Renderer) gainParam() *param.Parameter {
	if r.params == nil {
		return nil
	}
	return r.params.Get(param.ParamGain)
}
