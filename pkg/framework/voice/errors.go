package voice

import (
	"errors"
	"fmt"
)

// ErrLoadFailed is wrapped by every error returned from a source load.
var ErrLoadFailed = errors.New("sample load failed")

// SourceState describes the outcome of the most recent load.
type SourceState int

const (
	// SourceEmpty means nothing has been loaded yet.
	SourceEmpty SourceState = iota
	// SourceReady means sample data is loaded and playable.
	SourceReady
	// SourceFailed means the last load failed; see Engine.LastLoadError.
	SourceFailed
)

// String returns the state name.
func (s SourceState) String() string {
	switch s {
	case SourceReady:
		return "ready"
	case SourceFailed:
		return "failed"
	default:
		return "empty"
	}
}

// loadError wraps err with ErrLoadFailed unless it already carries it.
func loadError(err error) error {
	if errors.Is(err, ErrLoadFailed) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrLoadFailed, err)
}

func validateSamples(samples []float32, sourceRate float64) error {
	if len(samples) == 0 {
		return fmt.Errorf("%w: no sample data", ErrLoadFailed)
	}
	if sourceRate <= 0 {
		return fmt.Errorf("%w: invalid sample rate %g", ErrLoadFailed, sourceRate)
	}
	return nil
}
