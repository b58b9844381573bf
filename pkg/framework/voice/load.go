package voice

import (
	"fmt"
)

// SourceState reports the outcome of the most recent load.
func (e *Engine) SourceState() SourceState {
	return e.state
}

// LastLoadError returns the error recorded by the last failed load, or nil.
func (e *Engine) LastLoadError() error {
	return e.loadErr
}

// LoadSource replaces the Warp source. Voices reading the old data are
// stopped before the swap.
func (e *Engine) LoadSource(samples []float32, sourceRate float64) error {
	if err := validateSamples(samples, sourceRate); err != nil {
		return e.fail(fmt.Errorf("load source: %w", err))
	}

	e.stopPool()
	e.source.Load(samples)
	e.sourceRate = sourceRate
	for _, v := range e.voices {
		v.SetSourceRate(sourceRate)
	}
	e.ready()
	e.log.Info("Loaded source: %d samples at %.0f Hz", len(samples), sourceRate)
	return nil
}

// SetRegions replaces the Sfz region list. The sample data is referenced,
// not copied; each voice copies a region into its own buffer on note-on.
// Voices are stopped and their buffers grown to fit the longest region.
func (e *Engine) SetRegions(regions []Region) error {
	maxLen := 0
	for i, r := range regions {
		if err := validateSamples(r.Samples, r.SampleRate); err != nil {
			return e.fail(fmt.Errorf("region %d (%s): %w", i, r.Name, err))
		}
		if len(r.Samples) > maxLen {
			maxLen = len(r.Samples)
		}
	}

	e.stopPool()
	e.regions = append(e.regions[:0], regions...)
	e.maxRegionLen = maxLen
	for _, v := range e.voices {
		v.ReserveOwn(maxLen)
	}

	if len(regions) == 0 {
		e.state = SourceEmpty
		e.loadErr = nil
		return nil
	}
	e.ready()
	e.log.Info("Loaded %d regions, longest %d samples", len(regions), maxLen)
	return nil
}

// Regions returns the Sfz region list. The slice must not be modified.
func (e *Engine) Regions() []Region {
	return e.regions
}

// MarkLoadFailed records a failure reported by the control layer, for
// example a decoder error, and silences the pool. A nil err is ignored.
func (e *Engine) MarkLoadFailed(err error) {
	if err == nil {
		return
	}
	e.Reset()
	e.fail(err)
}

func (e *Engine) fail(err error) error {
	err = loadError(err)
	e.state = SourceFailed
	e.loadErr = err
	e.log.Error("%v", err)
	return err
}

func (e *Engine) ready() {
	e.state = SourceReady
	e.loadErr = nil
}
