package debug

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler collects timing statistics for named sections.
type Profiler struct {
	mu           sync.RWMutex
	measurements map[string]*Measurement
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	name        string
	count       uint64
	totalTime   time.Duration
	minTime     time.Duration
	maxTime     time.Duration
	lastTime    time.Duration
	samples     []time.Duration
	sampleIndex int
}

// NewProfiler creates a profiler keeping the last maxSamples timings per
// section for percentiles.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// IsEnabled returns whether profiling is enabled.
func (p *Profiler) IsEnabled() bool {
	return p.enabled.Load()
}

// Start begins timing a named section. Call the returned function to stop.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.record(name, time.Since(start))
	}
}

// Time measures fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

func (p *Profiler) record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			name:    name,
			minTime: elapsed,
			maxTime: elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
	}

	m.count++
	m.totalTime += elapsed
	m.lastTime = elapsed
	m.minTime = min(m.minTime, elapsed)
	m.maxTime = max(m.maxTime, elapsed)

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.sampleIndex] = elapsed
	}
	m.sampleIndex = (m.sampleIndex + 1) % p.maxSamples
}

// GetMeasurement returns a copy of the measurement for a named section.
func (p *Profiler) GetMeasurement(name string) (*Measurement, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	m, exists := p.measurements[name]
	if !exists {
		return nil, false
	}
	return m.clone(), true
}

// GetAllMeasurements returns copies of all measurements.
func (p *Profiler) GetAllMeasurements() map[string]*Measurement {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make(map[string]*Measurement, len(p.measurements))
	for k, v := range p.measurements {
		result[k] = v.clone()
	}
	return result
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
}

// Report formats every measurement, sorted by name.
func (p *Profiler) Report() string {
	measurements := p.GetAllMeasurements()
	if len(measurements) == 0 {
		return "No measurements recorded"
	}

	names := make([]string, 0, len(measurements))
	for name := range measurements {
		names = append(names, name)
	}
	sort.Strings(names)

	var sb strings.Builder
	for _, name := range names {
		m := measurements[name]
		fmt.Fprintf(&sb, "%s: count %d, total %v, avg %v, min %v, max %v, p99 %v\n",
			name, m.count, m.totalTime, m.Average(), m.minTime, m.maxTime, m.Percentile(99))
	}
	return sb.String()
}

func (m *Measurement) clone() *Measurement {
	c := *m
	c.samples = append([]time.Duration(nil), m.samples...)
	return &c
}

// Count returns how many times the section ran.
func (m *Measurement) Count() uint64 {
	return m.count
}

// Total returns the summed time.
func (m *Measurement) Total() time.Duration {
	return m.totalTime
}

// Average returns the mean time.
func (m *Measurement) Average() time.Duration {
	if m.count == 0 {
		return 0
	}
	return m.totalTime / time.Duration(m.count)
}

// Percentile returns the p-th percentile (0-100) of the retained timings.
func (m *Measurement) Percentile(p float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), m.samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	p = min(max(p, 0), 100)
	return sorted[int(float64(len(sorted)-1)*p/100)]
}

// RenderSection is the measurement name used by RenderProfiler.
const RenderSection = "RenderBlock"

// RenderProfiler times rendered blocks against the audio time they cover.
type RenderProfiler struct {
	*Profiler
	sampleRate float64
	rendered   atomic.Int64
}

// NewRenderProfiler creates a profiler for audio at sampleRate.
func NewRenderProfiler(sampleRate float64) *RenderProfiler {
	return &RenderProfiler{
		Profiler:   NewProfiler(1000),
		sampleRate: sampleRate,
	}
}

// Block starts timing a block of n samples.
func (r *RenderProfiler) Block(n int) func() {
	stop := r.Start(RenderSection)
	return func() {
		stop()
		r.rendered.Add(int64(n))
	}
}

// Rendered returns the audio time covered by timed blocks.
func (r *RenderProfiler) Rendered() time.Duration {
	return time.Duration(float64(r.rendered.Load()) / r.sampleRate * float64(time.Second))
}

// Load returns render time as a percentage of the audio time rendered.
func (r *RenderProfiler) Load() float64 {
	m, ok := r.GetMeasurement(RenderSection)
	audio := r.Rendered()
	if !ok || audio == 0 {
		return 0
	}
	return float64(m.totalTime) / float64(audio) * 100
}

// RealtimeFactor returns how many seconds of audio render per second.
func (r *RenderProfiler) RealtimeFactor() float64 {
	m, ok := r.GetMeasurement(RenderSection)
	if !ok || m.totalTime == 0 {
		return 0
	}
	return r.Rendered().Seconds() / m.totalTime.Seconds()
}

// AudioReport formats the block timings and the render load.
func (r *RenderProfiler) AudioReport() string {
	return fmt.Sprintf("%sRendered %v at %.0f Hz, load %.2f%%, %.1fx realtime\n",
		r.Report(), r.Rendered(), r.sampleRate, r.Load(), r.RealtimeFactor())
}
