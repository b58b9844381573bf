package voice

// Parameter setters fan a value out to every voice, Assign slots included.
// They do not allocate and may be called between any two samples.

// ADSR returns the global envelope parameters.
func (e *Engine) ADSR() ADSR {
	return e.adsr
}

// SetADSR sets all four global envelope parameters.
func (e *Engine) SetADSR(adsr ADSR) {
	e.adsr = adsr
	e.eachEnvelope(func(v *Voice) {
		v.Envelope().SetADSR(adsr.Attack, adsr.Decay, adsr.Sustain, adsr.Release)
	})
}

// SetAttack sets the attack time in seconds.
func (e *Engine) SetAttack(seconds float64) {
	e.adsr.Attack = seconds
	e.eachEnvelope(func(v *Voice) { v.Envelope().SetAttack(seconds) })
}

// SetDecay sets the decay time in seconds.
func (e *Engine) SetDecay(seconds float64) {
	e.adsr.Decay = seconds
	e.eachEnvelope(func(v *Voice) { v.Envelope().SetDecay(seconds) })
}

// SetSustain sets the sustain level (0-1).
func (e *Engine) SetSustain(level float64) {
	e.adsr.Sustain = level
	e.eachEnvelope(func(v *Voice) { v.Envelope().SetSustain(level) })
}

// SetRelease sets the release time in seconds.
func (e *Engine) SetRelease(seconds float64) {
	e.adsr.Release = seconds
	e.eachEnvelope(func(v *Voice) { v.Envelope().SetRelease(seconds) })
}

// SetStartPoint sets the start point in percent.
func (e *Engine) SetStartPoint(pct float64) {
	e.points.start = clampPercent(pct)
	e.eachPoints(func(v *Voice) { v.SetStartPoint(pct) })
}

// SetEndPoint sets the end point in percent.
func (e *Engine) SetEndPoint(pct float64) {
	e.points.end = clampPercent(pct)
	e.eachPoints(func(v *Voice) { v.SetEndPoint(pct) })
}

// SetSusStart sets the sustain loop start in percent.
func (e *Engine) SetSusStart(pct float64) {
	e.points.susStart = clampPercent(pct)
	e.each(func(v *Voice) { v.SetSusStart(pct) })
}

// SetSusEnd sets the sustain loop end in percent.
func (e *Engine) SetSusEnd(pct float64) {
	e.points.susEnd = clampPercent(pct)
	e.each(func(v *Voice) { v.SetSusEnd(pct) })
}

// SetLoopMode selects the sustain loop behavior.
func (e *Engine) SetLoopMode(mode LoopMode) {
	e.loopMode = mode
	e.each(func(v *Voice) { v.SetLoopMode(mode) })
}

// SetCrossfade sets the loop splice fade time in seconds.
func (e *Engine) SetCrossfade(seconds float64) {
	e.crossfade = seconds
	e.each(func(v *Voice) { v.Crossfader().SetDuration(seconds) })
}

// SetVelocityToSustain makes note-on velocity set the sustain level.
func (e *Engine) SetVelocityToSustain(on bool) {
	e.velocityToSustain = on
	e.each(func(v *Voice) { v.SetVelocityToSustain(on) })
}

// SetLoopMargin sets the minimum sustain loop separation in seconds.
func (e *Engine) SetLoopMargin(seconds float64) {
	e.loopMargin = seconds
	e.each(func(v *Voice) { v.SetLoopMargin(seconds) })
}

// SetBaseNote sets the note that plays the Warp source at its original
// pitch.
func (e *Engine) SetBaseNote(note uint8) {
	e.baseNote = note
	if e.mode != ModeWarp {
		return
	}
	for _, v := range e.voices {
		v.SetBaseNote(note)
	}
}

// SetHostRate changes the output sample rate.
func (e *Engine) SetHostRate(rate float64) {
	if rate <= 0 {
		return
	}
	e.hostRate = rate
	e.each(func(v *Voice) { v.SetSampleRate(rate) })
	for _, note := range e.slotNotes {
		s := e.slots[note]
		s.ratio = s.sourceRate / rate
	}
}

func (e *Engine) each(fn func(*Voice)) {
	for _, v := range e.voices {
		fn(v)
	}
	for _, note := range e.slotNotes {
		fn(e.slots[note].voice)
	}
}

// eachEnvelope skips Assign slots that carry their own envelope.
func (e *Engine) eachEnvelope(fn func(*Voice)) {
	for _, v := range e.voices {
		fn(v)
	}
	for _, note := range e.slotNotes {
		if s := e.slots[note]; !s.hasADSR {
			s.adsr = e.adsr
			fn(s.voice)
		}
	}
}

// eachPoints skips Assign slots that carry their own start and end.
func (e *Engine) eachPoints(fn func(*Voice)) {
	for _, v := range e.voices {
		fn(v)
	}
	for _, note := range e.slotNotes {
		if s := e.slots[note]; !s.hasPoints {
			fn(s.voice)
		}
	}
}
