package voice

import "github.com/justyntemme/gosampler/pkg/dsp/envelope"

// VoiceID picks the pool slot for a new note:
//  1. the first inactive voice,
//  2. else the quietest voice in its release stage,
//  3. else the quietest voice overall.
//
// Ties go to the earlier slot.
func (e *Engine) VoiceID() int {
	return e.voiceID(0)
}

// voiceID is VoiceID skipping the slots set in exclude. It returns -1 when
// every slot is excluded.
func (e *Engine) voiceID(exclude uint32) int {
	for i, v := range e.voices {
		if exclude&(1<<uint(i)) == 0 && !v.IsActive() {
			return i
		}
	}

	if id := e.quietest(exclude, true); id >= 0 {
		return id
	}
	return e.quietest(exclude, false)
}

// quietest returns the voice with the lowest envelope value, optionally
// restricted to voices in release.
func (e *Engine) quietest(exclude uint32, releasing bool) int {
	best := -1
	var bestAmp float64
	for i, v := range e.voices {
		if exclude&(1<<uint(i)) != 0 {
			continue
		}
		if releasing && v.Stage() != envelope.StageRelease {
			continue
		}
		if amp := v.Amplitude(); best < 0 || amp < bestAmp {
			best = i
			bestAmp = amp
		}
	}
	return best
}
