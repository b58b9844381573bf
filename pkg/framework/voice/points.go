package voice

import "math"

// SetStartPoint sets the playback start as a percentage of the buffer length.
func (v *Voice) SetStartPoint(pct float64) {
	v.startPct = clampPercent(pct)
	v.resolvedLen = -1
}

// SetEndPoint sets the playback end as a percentage of the buffer length.
// An end before the start plays the sample backwards.
func (v *Voice) SetEndPoint(pct float64) {
	v.endPct = clampPercent(pct)
	v.resolvedLen = -1
}

// SetSusStart sets the lower sustain loop point. Reversed playback enters
// the loop at the upper point and wraps or turns at this one.
func (v *Voice) SetSusStart(pct float64) {
	v.susStartPct = clampPercent(pct)
	v.resolvedLen = -1
}

// SetSusEnd sets the upper sustain loop point.
func (v *Voice) SetSusEnd(pct float64) {
	v.susEndPct = clampPercent(pct)
	v.resolvedLen = -1
}

// Points returns the start and end points as percentages.
func (v *Voice) Points() (start, end float64) {
	return v.startPct, orDefault(v.endPct, 100)
}

// SustainPoints returns the configured sustain loop points as percentages,
// before clamping.
func (v *Voice) SustainPoints() (start, end float64) {
	return orDefault(v.susStartPct, DefaultSusStart), orDefault(v.susEndPct, DefaultSusEnd)
}

// Positions returns the resolved start, end, sustain start and sustain end
// as absolute sample positions. Unresolved points are reported as -1.
func (v *Voice) Positions() (start, end, susStart, susEnd float64) {
	return v.startPoint, v.endPoint, v.susStart, v.susEnd
}

// resolve converts the percentage points into sample positions for a buffer
// with capacity n. It only does work when n or a point changed.
func (v *Voice) resolve(n int) {
	if n == v.resolvedLen {
		return
	}
	wasReversed := v.reversed

	v.startPoint = position(v.startPct, n)
	v.endPoint = position(orDefault(v.endPct, 100), n)
	v.reversed = v.startPoint > v.endPoint

	v.susStart = position(orDefault(v.susStartPct, DefaultSusStart), n)
	v.susEnd = position(orDefault(v.susEndPct, DefaultSusEnd), n)
	v.clampSustain()

	v.resolvedLen = n
	if v.reversed != wasReversed {
		v.step = -v.step
	}
}

// position maps pct of a capacity-n buffer to a sample index. 100% lands
// on the last sample rather than on n, which would wrap to the first.
func position(pct float64, n int) float64 {
	return math.Min(pct/100*float64(n), float64(n-1))
}

// clampSustain keeps susStart < susEnd inside the start/end span, at least
// one margin away from it and from each other. The order does not depend on
// the play direction.
func (v *Voice) clampSustain() {
	lo := math.Min(v.startPoint, v.endPoint)
	hi := math.Max(v.startPoint, v.endPoint)

	m := v.margin()
	if span := hi - lo; span < 3*m {
		m = span / 3
	}

	v.susStart = clamp(v.susStart, lo+m, hi-2*m)
	v.susEnd = clamp(v.susEnd, v.susStart+m, hi-m)
}

// loopPoints returns the sustain point the phase reaches first and the one
// where it wraps or turns, for the current play direction.
func (v *Voice) loopPoints() (entry, turn float64) {
	if v.reversed {
		return v.susEnd, v.susStart
	}
	return v.susStart, v.susEnd
}

// margin is the minimum loop separation in samples.
func (v *Voice) margin() float64 {
	return math.Max(MinLoopSamples, v.loopMargin*v.sourceRate)
}

func clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clampPercent(pct float64) float64 {
	if math.IsNaN(pct) {
		return 0
	}
	return clamp(pct, 0, 100)
}

func orDefault(v, def float64) float64 {
	if v == unset {
		return def
	}
	return v
}
