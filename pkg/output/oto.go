package output

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/ebitengine/oto/v3"

	"github.com/justyntemme/gosampler/pkg/dsp"
	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
)

// otoBufferSize is the device buffer length requested from oto.
const otoBufferSize = 4096

// FIFOReader is an io.Reader producing interleaved float32 little-endian
// stereo frames from a mono FIFO. Underruns read as silence.
type FIFOReader struct {
	fifo   *buffer.WriteAheadBuffer
	mono   []float32
	stereo []float32
}

// NewFIFOReader creates a reader over fifo.
func NewFIFOReader(fifo *buffer.WriteAheadBuffer) *FIFOReader {
	return &FIFOReader{
		fifo:   fifo,
		mono:   make([]float32, otoBufferSize),
		stereo: make([]float32, 2*otoBufferSize),
	}
}

// Read fills p with whole frames. It never blocks and never returns an error.
func (r *FIFOReader) Read(p []byte) (int, error) {
	frames := len(p) / (dsp.Stereo * 4)
	if frames == 0 {
		return 0, nil
	}
	// Grows only if the device asks for more than it announced
	if len(r.mono) < frames {
		r.mono = make([]float32, frames)
		r.stereo = make([]float32, 2*frames)
	}
	mono := r.mono[:frames]
	r.fifo.Read(mono)
	dsp.Interleave(r.stereo, mono)

	n := frames * dsp.Stereo * 4
	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&r.stereo[0])), n))
	return n, nil
}

// OtoPlayer plays a FIFO through an oto context.
type OtoPlayer struct {
	ctx     *oto.Context
	player  *oto.Player
	reader  *FIFOReader
	started bool
	mu      sync.Mutex
}

// NewOtoPlayer opens a float32 stereo context at sampleRate. oto allows one
// context per process.
func NewOtoPlayer(sampleRate int, fifo *buffer.WriteAheadBuffer) (*OtoPlayer, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: dsp.Stereo,
		Format:       oto.FormatFloat32LE,
	}
	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("failed to open oto context: %w", err)
	}
	<-ready

	p := &OtoPlayer{ctx: ctx, reader: NewFIFOReader(fifo)}
	p.player = ctx.NewPlayer(p.reader)
	p.player.SetBufferSize(otoBufferSize * dsp.Stereo * 4)
	return p, nil
}

// Start begins playback.
func (p *OtoPlayer) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return fmt.Errorf("oto player is closed")
	}
	if !p.started {
		p.player.Play()
		p.started = true
	}
	return nil
}

// Stop pauses playback. Start resumes it.
func (p *OtoPlayer) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started && p.player != nil {
		p.player.Pause()
		p.started = false
	}
}

// Close stops playback and releases the player.
func (p *OtoPlayer) Close() error {
	p.Stop()
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.player == nil {
		return nil
	}
	err := p.player.Close()
	p.player = nil
	return err
}
