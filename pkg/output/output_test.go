package output

import (
	"context"
	"encoding/binary"
	"io"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
	"github.com/justyntemme/gosampler/pkg/framework/debug"
	"github.com/justyntemme/gosampler/pkg/framework/process"
	"github.com/justyntemme/gosampler/pkg/framework/voice"
	"github.com/justyntemme/gosampler/pkg/midi"
)

const testRate = 1000

// newFIFO returns a FIFO with a 10-sample write-ahead and 64 slots.
func newFIFO() *buffer.WriteAheadBuffer {
	return buffer.NewWriteAheadBuffer(testRate, 10*time.Millisecond)
}

func fill(n int, v float32) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = v
	}
	return s
}

func newRenderer(t *testing.T) *process.Renderer {
	t.Helper()
	cfg := voice.DefaultConfig()
	cfg.HostRate = testRate
	cfg.ADSR = voice.ADSR{Sustain: 1, Release: 1}
	cfg.Logger = debug.New(io.Discard, "", 0)
	e := voice.NewEngine(cfg)
	require.NoError(t, e.LoadSource(fill(testRate, 0.5), testRate))

	q := midi.NewEventQueue()
	q.Add(midi.NoteOnEvent{NoteNumber: 60, Velocity: 127})
	r := process.NewRenderer(e, nil, q)
	r.SetLogger(debug.New(io.Discard, "", 0))
	return r
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend(" OTO ")
	require.NoError(t, err)
	assert.Equal(t, BackendOto, b)

	b, err = ParseBackend("beep")
	require.NoError(t, err)
	assert.Equal(t, BackendBeep, b)

	_, err = ParseBackend("alsa")
	assert.Error(t, err)
}

func TestStreamerDuplicatesChannels(t *testing.T) {
	fifo := newFIFO()
	require.NoError(t, fifo.Write(fill(20, 0.5)))

	s := NewStreamer(fifo)
	samples := make([][2]float64, 40)
	n, ok := s.Stream(samples)
	assert.True(t, ok, "the stream never ends")
	assert.Equal(t, 40, n)
	assert.NoError(t, s.Err())

	for i, frame := range samples {
		want := 0.0
		if i >= 10 && i < 30 {
			want = 0.5
		}
		assert.Equal(t, want, frame[0], "frame %d", i)
		assert.Equal(t, frame[0], frame[1], "frame %d", i)
	}
}

func TestStreamerGrowsScratch(t *testing.T) {
	s := NewStreamer(newFIFO())
	n, ok := s.Stream(make([][2]float64, 2000))
	assert.True(t, ok)
	assert.Equal(t, 2000, n)
}

func TestFIFOReaderInterleaves(t *testing.T) {
	fifo := newFIFO()
	samples := []float32{0.25, -0.5, 1}
	fifo.Reset()
	fifo.Read(make([]float32, fifo.LatencySamples()))
	require.NoError(t, fifo.Write(samples))

	r := NewFIFOReader(fifo)
	p := make([]byte, 4*8+3)
	n, err := r.Read(p)
	require.NoError(t, err)
	assert.Equal(t, 32, n, "only whole frames are written")

	for i := 0; i < 4; i++ {
		left := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i:]))
		right := math.Float32frombits(binary.LittleEndian.Uint32(p[8*i+4:]))
		want := float32(0)
		if i < len(samples) {
			want = samples[i]
		}
		assert.Equal(t, want, left, "frame %d", i)
		assert.Equal(t, want, right, "frame %d", i)
	}
}

func TestFIFOReaderShortBuffer(t *testing.T) {
	r := NewFIFOReader(newFIFO())
	n, err := r.Read(make([]byte, 7))
	assert.NoError(t, err)
	assert.Zero(t, n)
}

func TestFeederStopsAtLength(t *testing.T) {
	r := newRenderer(t)
	fifo := buffer.NewWriteAheadBuffer(testRate, 100*time.Millisecond)
	f := NewFeeder(r, fifo, 64)
	f.SetLogger(debug.New(io.Discard, "", 0))
	f.SetLength(300)
	prof := debug.NewRenderProfiler(testRate)
	f.SetProfiler(prof)

	require.NoError(t, f.Run(context.Background()))
	assert.Equal(t, int64(300), r.Position())
	assert.Equal(t, 300*time.Millisecond, prof.Rendered())
	assert.Equal(t, fifo.LatencySamples()+300, fifo.Buffered())

	out := make([]float32, fifo.Buffered())
	fifo.Read(out)
	assert.Equal(t, float32(0), out[0], "write-ahead plays silence first")
	assert.InDelta(t, 0.5, out[fifo.LatencySamples()+100], 1e-6)
}

func TestFeederStopsOnCancel(t *testing.T) {
	r := newRenderer(t)
	fifo := newFIFO()
	f := NewFeeder(r, fifo, 16)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Run(ctx) }()

	require.Eventually(t, func() bool { return fifo.Free() < 16 }, time.Second, time.Millisecond,
		"the feeder fills the FIFO")
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("feeder did not stop")
	}
}

func TestFeederDrain(t *testing.T) {
	r := newRenderer(t)
	fifo := newFIFO()
	f := NewFeeder(r, fifo, 16)

	go func() {
		out := make([]float32, 8)
		for fifo.Buffered() > 0 {
			fifo.Read(out)
			time.Sleep(time.Millisecond)
		}
	}()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, f.Drain(ctx))
	assert.Zero(t, fifo.Buffered())
}
