package voice

import (
	"math"

	"github.com/justyntemme/gosampler/pkg/dsp/crossfade"
)

// The loop handlers work in play-direction coordinates: positions are
// multiplied by direction() so that reversed playback uses the same
// comparisons as forward playback. Reversed playback enters the loop at
// the sustain end and wraps or turns at the sustain start.

// wrap implements the Wrap sustain loop. The tail fades out while
// approaching the turn point, the phase jumps back to the entry point and
// the head fades in.
func (v *Voice) wrap(rateRatio float64) {
	d := v.direction()
	if v.step*d < 0 {
		v.step = -v.step
	}
	entry, turn := v.loopPoints()
	p, s, e := v.phase*d, entry*d, turn*d

	if p >= e {
		over := 0.0
		if length := e - s; length > 0 {
			over = math.Mod(p-e, length)
		}
		v.phase = (s + over) * d
		v.xfade.StartFadeIn()
		v.spliced = v.xfade.FadeSamples() > 0
		return
	}

	span := v.xfade.FadeSamples() * math.Abs(v.step*rateRatio)
	if span > 0 && e-p <= span && v.xfade.State() == crossfade.Quiescent {
		v.xfade.StartFadeOut()
	}
}

// bounce implements the Bounce sustain loop. Once the phase has reached the
// sustain region the step reverses at either loop point, reflecting any
// overshoot back inside.
func (v *Voice) bounce() {
	d := v.direction()
	entry, turn := v.loopPoints()
	p, s, e := v.phase*d, entry*d, turn*d

	if !v.susPassed {
		if p < s {
			return
		}
		v.susPassed = true
	}

	forward := v.step*d > 0
	switch {
	case forward && p >= e:
		p = e - (p - e)
	case !forward && p <= s:
		p = s + (s - p)
	default:
		return
	}
	v.step = -v.step
	v.phase = clamp(p, s, e) * d
}

// unloop runs whenever no sustain loop is active: playback heads toward the
// end point again and an unfinished splice fade is undone.
func (v *Voice) unloop() {
	if v.step*v.direction() < 0 {
		v.step = -v.step
	}
	v.xfade.Reverse()
}
