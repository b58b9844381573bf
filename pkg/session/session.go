// Package session reads YAML descriptions of a sampler setup and a note
// script, and applies them to an engine.
package session

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/justyntemme/gosampler/pkg/framework/debug"
	"github.com/justyntemme/gosampler/pkg/framework/param"
	"github.com/justyntemme/gosampler/pkg/framework/voice"
	"github.com/justyntemme/gosampler/pkg/loader"
	"github.com/justyntemme/gosampler/pkg/midi"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid session")

// DefaultVelocity is used for script notes that do not give one.
const DefaultVelocity = 100

// tailSeconds is rendered after the last release when no length is given.
const tailSeconds = 0.1

// Session describes an engine setup, its sample sources and a note script.
// Fields missing from the YAML keep the values of Default.
type Session struct {
	HostRate          float64  `yaml:"host_rate"`
	Mode              string   `yaml:"mode"`
	Voices            int      `yaml:"voices"`
	BaseNote          Note     `yaml:"base_note"`
	Envelope          Envelope `yaml:"envelope"`
	Points            Points   `yaml:"points"`
	Loop              string   `yaml:"loop"`
	Crossfade         float64  `yaml:"crossfade"`
	LoopMargin        float64  `yaml:"loop_margin"`
	VelocityToSustain bool     `yaml:"velocity_to_sustain"`
	Gain              float64  `yaml:"gain"`

	// Params sets parameters by name using their display syntax, for
	// example "Attack: 250 ms". Applied after the typed fields.
	Params map[string]string `yaml:"params"`

	// Exactly one source kind is used, chosen by Mode.
	Source string       `yaml:"source"`
	Assign []Assignment `yaml:"assign"`
	SFZ    string       `yaml:"sfz"`

	Notes []NoteEvent `yaml:"notes"`
	// Length is the render length in seconds. Zero derives it from the
	// script.
	Length float64 `yaml:"length"`

	dir string
}

// Envelope holds ADSR times in seconds and the sustain level.
type Envelope struct {
	Attack  float64 `yaml:"attack"`
	Decay   float64 `yaml:"decay"`
	Sustain float64 `yaml:"sustain"`
	Release float64 `yaml:"release"`
}

// ADSR converts to the engine's envelope type.
func (e Envelope) ADSR() voice.ADSR {
	return voice.ADSR{Attack: e.Attack, Decay: e.Decay, Sustain: e.Sustain, Release: e.Release}
}

// Points are playback and sustain loop positions in percent of the sample.
type Points struct {
	Start    float64 `yaml:"start"`
	End      float64 `yaml:"end"`
	SusStart float64 `yaml:"sus_start"`
	SusEnd   float64 `yaml:"sus_end"`
}

// Assignment maps one note to its own file in assign mode. Envelope and
// points are optional per-note overrides.
type Assignment struct {
	Note     Note      `yaml:"note"`
	File     string    `yaml:"file"`
	Envelope *Envelope `yaml:"envelope"`
	Start    *float64  `yaml:"start"`
	End      *float64  `yaml:"end"`
}

// NoteEvent is one scripted note. At and Length are in seconds; a zero
// length holds the note until the end of the render.
type NoteEvent struct {
	Note     Note    `yaml:"note"`
	Velocity int     `yaml:"velocity"`
	At       float64 `yaml:"at"`
	Length   float64 `yaml:"length"`
}

// UnmarshalYAML fills in DefaultVelocity before decoding.
func (n *NoteEvent) UnmarshalYAML(value *yaml.Node) error {
	type plain NoteEvent
	p := plain{Velocity: DefaultVelocity}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*n = NoteEvent(p)
	return nil
}

// Note is a MIDI note written as a number or a name such as "c#4".
type Note uint8

// UnmarshalYAML parses note numbers and names.
func (n *Note) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := midi.ParseNote(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: %w", value.Line, err)
	}
	*n = Note(parsed)
	return nil
}

// MarshalYAML writes the note name.
func (n Note) MarshalYAML() (interface{}, error) {
	return midi.NoteNumberToName(uint8(n)), nil
}

// Default returns a Warp session matching voice.DefaultConfig.
func Default() *Session {
	cfg := voice.DefaultConfig()
	return &Session{
		HostRate: cfg.HostRate,
		Mode:     cfg.Mode.String(),
		Voices:   cfg.Voices,
		BaseNote: Note(cfg.BaseNote),
		Envelope: Envelope{
			Attack:  cfg.ADSR.Attack,
			Decay:   cfg.ADSR.Decay,
			Sustain: cfg.ADSR.Sustain,
			Release: cfg.ADSR.Release,
		},
		Points:    Points{End: 100, SusStart: voice.DefaultSusStart, SusEnd: voice.DefaultSusEnd},
		Loop:      cfg.LoopMode.String(),
		Crossfade: cfg.Crossfade,
	}
}

// Load reads and validates a session file. Relative sample paths are
// resolved against the file's directory.
func Load(path string) (*Session, error) {
	resolved, err := loader.ExpandPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(resolved)
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}
	s, err := Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	s.dir = filepath.Dir(resolved)
	return s, nil
}

// Parse decodes a session document over Default and validates it.
func Parse(r io.Reader) (*Session, error) {
	s := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// Validate checks ranges and that the source matches the mode. All problems
// are reported together.
func (s *Session) Validate() error {
	var errs []error
	bad := func(format string, args ...interface{}) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalid}, args...)...))
	}

	mode, err := voice.ParseMode(s.Mode)
	if err != nil {
		bad("%v", err)
	}
	if _, err := voice.ParseLoopMode(s.Loop); err != nil {
		bad("%v", err)
	}
	if s.HostRate <= 0 {
		bad("host_rate must be positive, got %g", s.HostRate)
	}
	if s.Voices < voice.MinVoices || s.Voices > voice.MaxVoices {
		bad("voices must be %d-%d, got %d", voice.MinVoices, voice.MaxVoices, s.Voices)
	}
	validateEnvelope("envelope", s.Envelope, bad)
	for name, v := range map[string]float64{
		"points.start": s.Points.Start, "points.end": s.Points.End,
		"points.sus_start": s.Points.SusStart, "points.sus_end": s.Points.SusEnd,
	} {
		if v < 0 || v > 100 {
			bad("%s must be 0-100, got %g", name, v)
		}
	}
	if s.Crossfade < 0 || s.LoopMargin < 0 || s.Length < 0 {
		bad("crossfade, loop_margin and length must not be negative")
	}
	if math.IsNaN(s.Gain) || s.Gain > 12 {
		bad("gain must be at most 12 dB, got %g", s.Gain)
	}

	switch mode {
	case voice.ModeWarp:
		if s.Source == "" {
			bad("warp mode needs a source file")
		}
	case voice.ModeAssign:
		if len(s.Assign) == 0 {
			bad("assign mode needs at least one assignment")
		}
		for i, a := range s.Assign {
			if a.File == "" {
				bad("assign[%d]: missing file", i)
			}
			if a.Envelope != nil {
				validateEnvelope(fmt.Sprintf("assign[%d].envelope", i), *a.Envelope, bad)
			}
		}
	case voice.ModeSfz:
		if s.SFZ == "" {
			bad("sfz mode needs an sfz file")
		}
	}

	for i, n := range s.Notes {
		if n.Velocity < 1 || n.Velocity > 127 {
			bad("notes[%d]: velocity must be 1-127, got %d", i, n.Velocity)
		}
		if n.At < 0 || n.Length < 0 {
			bad("notes[%d]: at and length must not be negative", i)
		}
	}

	reg := param.EngineParams()
	for name, value := range s.Params {
		p := reg.GetByName(name)
		if p == nil {
			bad("params: unknown parameter %q", name)
			continue
		}
		if _, err := p.ParseValue(value); err != nil {
			bad("params: %v", err)
		}
	}
	return errors.Join(errs...)
}

func validateEnvelope(name string, e Envelope, bad func(string, ...interface{})) {
	if e.Attack < 0 || e.Decay < 0 || e.Release < 0 {
		bad("%s: times must not be negative", name)
	}
	if e.Sustain < 0 || e.Sustain > 1 {
		bad("%s: sustain must be 0-1, got %g", name, e.Sustain)
	}
}

// Config returns the engine configuration described by the session.
func (s *Session) Config() voice.Config {
	mode, _ := voice.ParseMode(s.Mode)
	loop, _ := voice.ParseLoopMode(s.Loop)
	return voice.Config{
		HostRate:          s.HostRate,
		Voices:            s.Voices,
		Mode:              mode,
		BaseNote:          uint8(s.BaseNote),
		ADSR:              s.Envelope.ADSR(),
		Crossfade:         s.Crossfade,
		LoopMode:          loop,
		LoopMargin:        s.LoopMargin,
		VelocityToSustain: s.VelocityToSustain,
	}
}

// ApplyParams writes the session's settings into reg.
func (s *Session) ApplyParams(reg *param.Registry) error {
	cfg := s.Config()
	set := func(id uint32, v float64) {
		if p := reg.Get(id); p != nil {
			p.SetPlainValue(v)
		}
	}
	set(param.ParamMode, float64(cfg.Mode))
	set(param.ParamVoices, float64(cfg.Voices))
	set(param.ParamAttack, cfg.ADSR.Attack)
	set(param.ParamDecay, cfg.ADSR.Decay)
	set(param.ParamSustain, cfg.ADSR.Sustain)
	set(param.ParamRelease, cfg.ADSR.Release)
	set(param.ParamStartPoint, s.Points.Start)
	set(param.ParamEndPoint, s.Points.End)
	set(param.ParamSusStart, s.Points.SusStart)
	set(param.ParamSusEnd, s.Points.SusEnd)
	set(param.ParamLoopMode, float64(cfg.LoopMode))
	set(param.ParamCrossfade, cfg.Crossfade)
	set(param.ParamBaseNote, float64(cfg.BaseNote))
	set(param.ParamGain, s.Gain)
	if cfg.VelocityToSustain {
		set(param.ParamVelocityToSustain, 1)
	} else {
		set(param.ParamVelocityToSustain, 0)
	}

	names := make([]string, 0, len(s.Params))
	for name := range s.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		p := reg.GetByName(name)
		if p == nil {
			return fmt.Errorf("%w: unknown parameter %q", ErrInvalid, name)
		}
		v, err := p.ParseValue(s.Params[name])
		if err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
		p.SetValue(v)
	}
	return nil
}

// LoadSources decodes the session's samples into engine. A failed load is
// also recorded on the engine.
func (s *Session) LoadSources(engine *voice.Engine) error {
	mode, _ := voice.ParseMode(s.Mode)
	log := debug.Default()

	var err error
	switch mode {
	case voice.ModeWarp:
		var src *loader.Source
		if src, err = loader.LoadFile(s.resolve(s.Source)); err == nil {
			err = engine.LoadSource(src.Samples, src.SampleRate)
		}
	case voice.ModeAssign:
		err = s.loadAssignments(engine)
	case voice.ModeSfz:
		var regions []voice.Region
		if regions, err = loader.LoadSFZ(s.resolve(s.SFZ)); err == nil {
			err = engine.SetRegions(regions)
		}
	}
	if err != nil {
		engine.MarkLoadFailed(err)
		return err
	}
	log.Info("Session sources loaded for %s mode", mode)
	return nil
}

func (s *Session) loadAssignments(engine *voice.Engine) error {
	for _, a := range s.Assign {
		src, err := loader.LoadFile(s.resolve(a.File))
		if err != nil {
			return err
		}
		note := uint8(a.Note)
		if err := engine.AssignSample(note, src.Samples, src.SampleRate); err != nil {
			return err
		}
		if a.Envelope != nil {
			engine.SetNoteADSR(note, a.Envelope.ADSR())
		}
		if a.Start != nil || a.End != nil {
			start, end := engine.NotePoints(note)
			if a.Start != nil {
				start = *a.Start
			}
			if a.End != nil {
				end = *a.End
			}
			engine.SetNotePoints(note, start, end)
		}
	}
	return nil
}

// Apply loads the sources into engine and writes the settings into reg. With
// a nil reg the settings are pushed to the engine directly.
func (s *Session) Apply(engine *voice.Engine, reg *param.Registry) error {
	direct := reg == nil
	if direct {
		reg = param.EngineParams()
	}
	if err := s.ApplyParams(reg); err != nil {
		return err
	}
	engine.SetLoopMargin(s.LoopMargin)
	if direct {
		param.NewBinding(reg).Apply(engine)
	}
	return s.LoadSources(engine)
}

// Events converts the note script into a queue of absolute sample offsets
// at hostRate.
func (s *Session) Events(hostRate float64) *midi.EventQueue {
	q := midi.NewEventQueue()
	for _, n := range s.Notes {
		at := int64(math.Round(n.At * hostRate))
		q.Add(midi.NoteOnEvent{
			BaseEvent:  midi.BaseEvent{Offset: at},
			NoteNumber: uint8(n.Note),
			Velocity:   uint8(n.Velocity),
		})
		if n.Length > 0 {
			q.Add(midi.NoteOffEvent{
				BaseEvent:  midi.BaseEvent{Offset: int64(math.Round((n.At + n.Length) * hostRate))},
				NoteNumber: uint8(n.Note),
			})
		}
	}
	return q
}

// RenderLength returns the number of samples to render at hostRate: Length
// if set, otherwise the end of the script plus the release time and a short
// tail.
func (s *Session) RenderLength(hostRate float64) int {
	if s.Length > 0 {
		return int(math.Round(s.Length * hostRate))
	}
	end := 0.0
	for _, n := range s.Notes {
		end = math.Max(end, n.At+n.Length)
	}
	return int(math.Round((end + s.Envelope.Release + tailSeconds) * hostRate))
}

// String summarizes the session for logging.
func (s *Session) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s mode, %d voices at %.0f Hz", s.Mode, s.Voices, s.HostRate)
	switch mode, _ := voice.ParseMode(s.Mode); mode {
	case voice.ModeWarp:
		fmt.Fprintf(&b, ", source %s", s.Source)
	case voice.ModeAssign:
		fmt.Fprintf(&b, ", %d assignments", len(s.Assign))
	case voice.ModeSfz:
		fmt.Fprintf(&b, ", sfz %s", s.SFZ)
	}
	fmt.Fprintf(&b, ", %d notes", len(s.Notes))
	return b.String()
}

func (s *Session) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) || strings.HasPrefix(path, "~") || s.dir == "" {
		return path
	}
	return filepath.Join(s.dir, path)
}
