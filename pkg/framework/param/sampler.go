package param

import (
	"math"

	"github.com/justyntemme/gosampler/pkg/framework/voice"
)

// Sampler parameter IDs.
const (
	ParamMode uint32 = iota
	ParamVoices
	ParamAttack
	ParamDecay
	ParamSustain
	ParamRelease
	ParamStartPoint
	ParamEndPoint
	ParamSusStart
	ParamSusEnd
	ParamLoopMode
	ParamCrossfade
	ParamVelocityToSustain
	ParamBaseNote
	ParamGain
)

// EngineParams returns the sampler's parameter set with defaults matching
// voice.DefaultConfig.
func EngineParams() *Registry {
	cfg := voice.DefaultConfig()
	r := NewRegistry()
	r.Add(
		Choice(ParamMode, "Mode", []ChoiceOption{
			{Value: float64(voice.ModeWarp), Name: "Warp"},
			{Value: float64(voice.ModeAssign), Name: "Assign"},
			{Value: float64(voice.ModeSfz), Name: "Sfz", Aliases: []string{"multi"}},
		}).Rebuilds().Build(),
		CountParameter(ParamVoices, "Voices", voice.MinVoices, voice.MaxVoices, cfg.Voices).Rebuilds().Build(),
		TimeParameter(ParamAttack, "Attack", 10, cfg.ADSR.Attack).ShortName("A").Build(),
		TimeParameter(ParamDecay, "Decay", 10, cfg.ADSR.Decay).ShortName("D").Build(),
		LevelParameter(ParamSustain, "Sustain", cfg.ADSR.Sustain).ShortName("S").Build(),
		TimeParameter(ParamRelease, "Release", 10, cfg.ADSR.Release).ShortName("R").Build(),
		PercentParameter(ParamStartPoint, "Start", 0).Build(),
		PercentParameter(ParamEndPoint, "End", 100).Build(),
		PercentParameter(ParamSusStart, "Sustain Start", voice.DefaultSusStart).ShortName("SusStart").Build(),
		PercentParameter(ParamSusEnd, "Sustain End", voice.DefaultSusEnd).ShortName("SusEnd").Build(),
		Choice(ParamLoopMode, "Loop", []ChoiceOption{
			{Value: float64(voice.LoopNone), Name: "None", Aliases: []string{"off"}},
			{Value: float64(voice.LoopWrap), Name: "Wrap", Aliases: []string{"forward"}},
			{Value: float64(voice.LoopBounce), Name: "Bounce", Aliases: []string{"pingpong"}},
		}).Build(),
		TimeParameter(ParamCrossfade, "Crossfade", 0.1, cfg.Crossfade).ShortName("XFade").Build(),
		ToggleParameter(ParamVelocityToSustain, "Velocity To Sustain", cfg.VelocityToSustain).ShortName("VelSus").Build(),
		NoteParameter(ParamBaseNote, "Base Note", cfg.BaseNote).ShortName("Base").Build(),
		GainParameter(ParamGain, "Gain").Build(),
	)
	return r
}

// Binding pushes parameter values into an engine. Only values that changed
// since the previous Apply are sent.
type Binding struct {
	params   []*Parameter
	last     []float64
	rebuilds int
}

// NewBinding binds every parameter of reg. The first Apply sends all of
// them.
func NewBinding(reg *Registry) *Binding {
	params := reg.All()
	last := make([]float64, len(params))
	for i := range last {
		last[i] = math.NaN()
	}
	return &Binding{params: params, last: last}
}

// Apply sends changed values to e and returns how many were sent. Mode and
// voice count changes rebuild the pool and allocate; everything else is
// safe between any two samples.
func (b *Binding) Apply(e *voice.Engine) int {
	sent := 0
	for i, p := range b.params {
		v := p.GetPlainValue()
		if v == b.last[i] {
			continue
		}
		if !apply(e, p.ID, v) {
			continue
		}
		if p.Flags&Rebuilds != 0 {
			b.rebuilds++
		}
		b.last[i] = v
		sent++
	}
	return sent
}

// Rebuilds returns how many pool-rebuilding changes Apply has sent.
func (b *Binding) Rebuilds() int {
	return b.rebuilds
}

// Invalidate makes the next Apply resend every value.
func (b *Binding) Invalidate() {
	for i := range b.last {
		b.last[i] = math.NaN()
	}
}

func apply(e *voice.Engine, id uint32, v float64) bool {
	switch id {
	case ParamMode:
		e.SetMode(voice.Mode(math.Round(v)))
	case ParamVoices:
		e.SetNumVoices(int(math.Round(v)))
	case ParamAttack:
		e.SetAttack(v)
	case ParamDecay:
		e.SetDecay(v)
	case ParamSustain:
		e.SetSustain(v)
	case ParamRelease:
		e.SetRelease(v)
	case ParamStartPoint:
		e.SetStartPoint(v)
	case ParamEndPoint:
		e.SetEndPoint(v)
	case ParamSusStart:
		e.SetSusStart(v)
	case ParamSusEnd:
		e.SetSusEnd(v)
	case ParamLoopMode:
		e.SetLoopMode(voice.LoopMode(math.Round(v)))
	case ParamCrossfade:
		e.SetCrossfade(v)
	case ParamVelocityToSustain:
		e.SetVelocityToSustain(v > 0.5)
	case ParamBaseNote:
		e.SetBaseNote(uint8(math.Round(v)))
	default:
		return false
	}
	return true
}
