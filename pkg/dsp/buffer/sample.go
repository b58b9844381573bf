// Package buffer provides the sample storage used by the playback engine and
// the FIFO that feeds rendered audio to an output device.
package buffer

import (
	"math"

	"github.com/justyntemme/gosampler/pkg/dsp/interpolation"
)

// SampleBuffer is a fixed-capacity circular buffer of mono samples with
// independent read and write cursors. Every index wraps modulo the capacity,
// so no operation can go out of bounds.
//
// A SampleBuffer is not safe for concurrent mutation. Readers that run on
// another goroutine (waveform displays) must work on a Snapshot.
type SampleBuffer struct {
	data     []float32
	readPos  int
	writePos int
}

// NewSampleBuffer creates a buffer with the given capacity. Capacities below 1
// are raised to 1.
func NewSampleBuffer(capacity int) *SampleBuffer {
	if capacity < 1 {
		capacity = 1
	}
	return &SampleBuffer{data: make([]float32, capacity)}
}

// Cap returns the number of slots in the buffer.
func (b *SampleBuffer) Cap() int {
	return len(b.data)
}

// Len returns the distance from the read cursor to the write cursor. It is
// 0 when the cursors coincide, including after Resize and after a full
// capacity of pushes; use Cap for the number of slots.
func (b *SampleBuffer) Len() int {
	n := len(b.data)
	d := (b.writePos - b.readPos) % n
	if d < 0 {
		d += n
	}
	return d
}

// Push writes v at the write cursor and advances it.
func (b *SampleBuffer) Push(v float32) {
	b.data[b.writePos] = v
	b.writePos = (b.writePos + 1) % len(b.data)
}

// Pop reads the sample at the read cursor and advances it.
func (b *SampleBuffer) Pop() float32 {
	v := b.data[b.readPos]
	b.readPos = (b.readPos + 1) % len(b.data)
	return v
}

// Put writes v at the write cursor without advancing it.
func (b *SampleBuffer) Put(v float32) {
	b.data[b.writePos] = v
}

// Peek reads the sample at the read cursor without advancing it.
func (b *SampleBuffer) Peek() float32 {
	return b.data[b.readPos]
}

// Get returns the sample at index i mod capacity. Negative indices wrap from
// the end.
func (b *SampleBuffer) Get(i int) float32 {
	n := len(b.data)
	i %= n
	if i < 0 {
		i += n
	}
	return b.data[i]
}

// GetFrac linearly interpolates between Get(floor(offset)) and
// Get(floor(offset)+1).
func (b *SampleBuffer) GetFrac(offset float64) float32 {
	base := math.Floor(offset)
	i := int(base)
	frac := float32(offset - base)
	if frac == 0 {
		return b.Get(i)
	}
	return interpolation.Linear(b.Get(i), b.Get(i+1), frac)
}

// GetFracHermite reads with 4-point Hermite interpolation around offset.
func (b *SampleBuffer) GetFracHermite(offset float64) float32 {
	base := math.Floor(offset)
	i := int(base)
	frac := float32(offset - base)
	if frac == 0 {
		return b.Get(i)
	}
	return interpolation.Hermite(b.Get(i-1), b.Get(i), b.Get(i+1), b.Get(i+2), frac)
}

// Resize sets the capacity to exactly n slots, fills them with fill and
// resets both cursors. The backing array is reused when it is large enough.
func (b *SampleBuffer) Resize(n int, fill float32) {
	if n < 1 {
		n = 1
	}
	if cap(b.data) >= n {
		b.data = b.data[:n]
	} else {
		b.data = make([]float32, n)
	}
	for i := range b.data {
		b.data[i] = fill
	}
	b.readPos = 0
	b.writePos = 0
}

// Reserve grows the backing array so that later Resize or Load calls up to n
// samples do not allocate. Contents and capacity are unchanged.
func (b *SampleBuffer) Reserve(n int) {
	if cap(b.data) >= n {
		return
	}
	grown := make([]float32, len(b.data), n)
	copy(grown, b.data)
	b.data = grown
}

// Load replaces the contents with samples and resets the cursors. An empty
// slice leaves a single silent slot.
func (b *SampleBuffer) Load(samples []float32) {
	if len(samples) == 0 {
		b.Resize(1, 0)
		return
	}
	if cap(b.data) >= len(samples) {
		b.data = b.data[:len(samples)]
	} else {
		b.data = make([]float32, len(samples))
	}
	copy(b.data, samples)
	b.readPos = 0
	b.writePos = 0
}

// Snapshot copies the contents into dst, growing it if needed, and returns
// the copy. Display code reads the copy instead of the live buffer.
func (b *SampleBuffer) Snapshot(dst []float32) []float32 {
	if cap(dst) < len(b.data) {
		dst = make([]float32, len(b.data))
	}
	dst = dst[:len(b.data)]
	copy(dst, b.data)
	return dst
}
