package output

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
)

// speakerLatency is the buffer length handed to speaker.Init.
const speakerLatency = 100 * time.Millisecond

// Streamer is an endless beep.Streamer over a mono FIFO. Underruns stream
// silence.
type Streamer struct {
	fifo *buffer.WriteAheadBuffer
	mono []float32
}

// NewStreamer creates a streamer over fifo.
func NewStreamer(fifo *buffer.WriteAheadBuffer) *Streamer {
	return &Streamer{fifo: fifo, mono: make([]float32, 512)}
}

// Stream fills both channels of samples from the FIFO.
func (s *Streamer) Stream(samples [][2]float64) (n int, ok bool) {
	if len(s.mono) < len(samples) {
		s.mono = make([]float32, len(samples))
	}
	mono := s.mono[:len(samples)]
	s.fifo.Read(mono)
	for i, v := range mono {
		samples[i][0] = float64(v)
		samples[i][1] = float64(v)
	}
	return len(samples), true
}

// Err always returns nil.
func (s *Streamer) Err() error {
	return nil
}

// BeepPlayer plays a FIFO through the beep speaker.
type BeepPlayer struct {
	mu          sync.Mutex
	sampleRate  beep.SampleRate
	ctrl        *beep.Ctrl
	initialized bool
}

// NewBeepPlayer prepares a player at sampleRate. The speaker is opened by
// Start.
func NewBeepPlayer(sampleRate int, fifo *buffer.WriteAheadBuffer) *BeepPlayer {
	return &BeepPlayer{
		sampleRate: beep.SampleRate(sampleRate),
		ctrl:       &beep.Ctrl{Streamer: NewStreamer(fifo)},
	}
}

// Start opens the speaker on first use and unpauses the stream.
func (p *BeepPlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		if err := speaker.Init(p.sampleRate, p.sampleRate.N(speakerLatency)); err != nil {
			return err
		}
		speaker.Play(p.ctrl)
		p.initialized = true
		return nil
	}
	speaker.Lock()
	p.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

// Stop pauses the stream.
func (p *BeepPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.initialized {
		return
	}
	speaker.Lock()
	p.ctrl.Paused = true
	speaker.Unlock()
}

// Close stops the stream and closes the speaker.
func (p *BeepPlayer) Close() error {
	p.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.initialized {
		speaker.Clear()
		speaker.Close()
		p.initialized = false
	}
	return nil
}
