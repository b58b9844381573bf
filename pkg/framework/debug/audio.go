package debug

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/justyntemme/gosampler/pkg/dsp/gain"
)

// AudioAnalyzer measures rendered buffers.
type AudioAnalyzer struct {
	clippingThreshold float64
	dcThreshold       float64
	silenceThreshold  float64
	scratch           []float64
}

// NewAudioAnalyzer creates an analyzer with default thresholds.
func NewAudioAnalyzer() *AudioAnalyzer {
	return &AudioAnalyzer{
		clippingThreshold: 0.99,
		dcThreshold:       0.01,
		silenceThreshold:  0.0001,
	}
}

// SetClippingThreshold sets the absolute level counted as clipping.
func (a *AudioAnalyzer) SetClippingThreshold(level float64) {
	a.clippingThreshold = level
}

// AnalysisResult holds the measurements of one buffer. NaN and infinite
// samples are counted and left out of every other figure.
type AnalysisResult struct {
	Samples        int
	Peak           float64
	RMS            float64
	DC             float64
	ClippedSamples int
	NaNCount       int
	ZeroCrossings  int
	Silent         bool
}

// PeakDb returns the peak in dBFS.
func (r AnalysisResult) PeakDb() float64 {
	return gain.LinearToDb(r.Peak)
}

// RMSDb returns the RMS level in dBFS.
func (r AnalysisResult) RMSDb() float64 {
	return gain.LinearToDb(r.RMS)
}

// Analyze measures buffer.
func (a *AudioAnalyzer) Analyze(buffer []float32) AnalysisResult {
	result := AnalysisResult{Samples: len(buffer)}

	x := a.scratch[:0]
	for _, s := range buffer {
		v := float64(s)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			result.NaNCount++
			continue
		}
		x = append(x, v)
	}
	a.scratch = x
	if len(x) == 0 {
		result.Silent = true
		return result
	}

	n := float64(len(x))
	result.Peak = math.Max(floats.Max(x), -floats.Min(x))
	result.RMS = floats.Norm(x, 2) / math.Sqrt(n)
	result.DC = floats.Sum(x) / n
	result.Silent = result.RMS < a.silenceThreshold

	for i, v := range x {
		if math.Abs(v) >= a.clippingThreshold {
			result.ClippedSamples++
		}
		if i > 0 && (x[i-1] < 0) != (v < 0) {
			result.ZeroCrossings++
		}
	}
	return result
}

// Issues lists the problems found in r, prefixed with name.
func (a *AudioAnalyzer) Issues(r AnalysisResult, name string) []string {
	var issues []string
	if r.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%s: %d NaN or infinite samples", name, r.NaNCount))
	}
	if r.ClippedSamples > 0 {
		issues = append(issues, fmt.Sprintf("%s: %d samples at or above %.2f", name, r.ClippedSamples, a.clippingThreshold))
	}
	if math.Abs(r.DC) > a.dcThreshold {
		issues = append(issues, fmt.Sprintf("%s: DC offset %.3f", name, r.DC))
	}
	return issues
}

// CheckBuffer analyzes buffer and returns its problems.
func CheckBuffer(buffer []float32, name string) []string {
	a := NewAudioAnalyzer()
	return a.Issues(a.Analyze(buffer), name)
}

// LogBufferStats logs the measurements of a buffer at debug level and its
// problems as warnings on the default logger.
func LogBufferStats(buffer []float32, name string) AnalysisResult {
	a := NewAudioAnalyzer()
	r := a.Analyze(buffer)
	Debug("%s: %d samples, peak %.1f dBFS, RMS %.1f dBFS, DC %.6f, %d zero crossings",
		name, r.Samples, r.PeakDb(), r.RMSDb(), r.DC, r.ZeroCrossings)
	for _, issue := range a.Issues(r, name) {
		Warn("%s", issue)
	}
	return r
}
