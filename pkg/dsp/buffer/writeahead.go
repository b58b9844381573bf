package buffer

import (
	"errors"
	"math"
	"sync/atomic"
	"time"
)

// ErrOverrun is returned by Write when the FIFO cannot take the whole block.
var ErrOverrun = errors.New("buffer overrun: not enough space available")

// WriteAheadBuffer is a single-producer single-consumer FIFO between the
// render goroutine and an audio device callback. The write cursor starts one
// latency ahead of the read cursor, so the device plays silence until the
// renderer has had a head start; that distance absorbs scheduling and GC
// pauses on the render side.
type WriteAheadBuffer struct {
	data       []float32
	size       uint64
	mask       uint64
	latency    uint64
	sampleRate float64

	readPos  atomic.Uint64
	writePos atomic.Uint64

	underruns atomic.Uint64
	overruns  atomic.Uint64
}

// BufferStats reports FIFO health for logging.
type BufferStats struct {
	Underruns      uint64
	Overruns       uint64
	FillPercentage float32
	CurrentLatency time.Duration
}

// NewWriteAheadBuffer sizes a FIFO for mono samples at sampleRate with the
// given write-ahead latency. Storage is four times the latency, rounded up to
// a power of two.
func NewWriteAheadBuffer(sampleRate float64, latency time.Duration) *WriteAheadBuffer {
	latencySamples := uint64(math.Round(latency.Seconds() * sampleRate))
	if latencySamples < 1 {
		latencySamples = 1
	}
	size := nextPowerOf2(latencySamples * 4)

	buf := &WriteAheadBuffer{
		data:       make([]float32, size),
		size:       size,
		mask:       size - 1,
		latency:    latencySamples,
		sampleRate: sampleRate,
	}
	buf.writePos.Store(latencySamples)
	return buf
}

// LatencySamples returns the configured write-ahead distance.
func (buf *WriteAheadBuffer) LatencySamples() int {
	return int(buf.latency)
}

// Free returns how many samples can be written without overrunning.
func (buf *WriteAheadBuffer) Free() int {
	used := buf.writePos.Load() - buf.readPos.Load()
	if used >= buf.size {
		return 0
	}
	return int(buf.size - used)
}

// Buffered returns how many samples are waiting to be read.
func (buf *WriteAheadBuffer) Buffered() int {
	w, r := buf.writePos.Load(), buf.readPos.Load()
	if w < r {
		return 0
	}
	return int(w - r)
}

// Write appends samples. The write is all or nothing.
func (buf *WriteAheadBuffer) Write(samples []float32) error {
	if len(samples) == 0 {
		return nil
	}
	if buf.Free() < len(samples) {
		buf.overruns.Add(1)
		return ErrOverrun
	}

	writePos := buf.writePos.Load()
	remaining := len(samples)
	src := 0
	for remaining > 0 {
		dst := writePos & buf.mask
		n := remaining
		if dst+uint64(n) > buf.size {
			n = int(buf.size - dst)
		}
		copy(buf.data[dst:dst+uint64(n)], samples[src:src+n])
		src += n
		remaining -= n
		writePos += uint64(n)
	}
	buf.writePos.Store(writePos)
	return nil
}

// Read fills output from the FIFO and returns how many samples were real
// data. Missing samples are zeroed and counted as an underrun.
func (buf *WriteAheadBuffer) Read(output []float32) int {
	if len(output) == 0 {
		return 0
	}
	readPos := buf.readPos.Load()
	toRead := buf.Buffered()
	if toRead > len(output) {
		toRead = len(output)
	}
	if toRead < len(output) {
		buf.underruns.Add(1)
	}

	remaining := toRead
	dst := 0
	for remaining > 0 {
		src := readPos & buf.mask
		n := remaining
		if src+uint64(n) > buf.size {
			n = int(buf.size - src)
		}
		copy(output[dst:dst+n], buf.data[src:src+uint64(n)])
		dst += n
		remaining -= n
		readPos += uint64(n)
	}
	buf.readPos.Store(readPos)

	for i := toRead; i < len(output); i++ {
		output[i] = 0
	}
	return toRead
}

// Stats returns the current counters and fill level.
func (buf *WriteAheadBuffer) Stats() BufferStats {
	buffered := buf.Buffered()
	return BufferStats{
		Underruns:      buf.underruns.Load(),
		Overruns:       buf.overruns.Load(),
		FillPercentage: float32(buffered) / float32(buf.size) * 100,
		CurrentLatency: time.Duration(float64(buffered) / buf.sampleRate * float64(time.Second)),
	}
}

// Reset clears the data and restores the initial write-ahead distance.
func (buf *WriteAheadBuffer) Reset() {
	for i := range buf.data {
		buf.data[i] = 0
	}
	buf.readPos.Store(0)
	buf.writePos.Store(buf.latency)
	buf.underruns.Store(0)
	buf.overruns.Store(0)
}

// nextPowerOf2 rounds up to the next power of 2
func nextPowerOf2(n uint64) uint64 {
	if n == 0 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	n++
	return n
}
