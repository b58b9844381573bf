package output

import (
	"context"
	"time"

	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
	"github.com/justyntemme/gosampler/pkg/framework/debug"
	"github.com/justyntemme/gosampler/pkg/framework/process"
)

// Feeder keeps a FIFO topped up with blocks from a Renderer.
type Feeder struct {
	renderer *process.Renderer
	fifo     *buffer.WriteAheadBuffer
	block    []float32
	length   int64
	poll     time.Duration
	log      *debug.Logger
	profiler *debug.RenderProfiler
}

// NewFeeder creates a feeder rendering blockSize samples at a time.
func NewFeeder(r *process.Renderer, fifo *buffer.WriteAheadBuffer, blockSize int) *Feeder {
	if blockSize < 1 {
		blockSize = 1
	}
	rate := r.Engine().HostRate()
	poll := time.Duration(float64(blockSize) / rate / 2 * float64(time.Second))
	if poll < time.Millisecond {
		poll = time.Millisecond
	}
	return &Feeder{
		renderer: r,
		fifo:     fifo,
		block:    make([]float32, blockSize),
		poll:     poll,
		log:      debug.Default(),
	}
}

// SetLength stops the feeder once the renderer has produced samples
// samples. Zero renders until cancelled.
func (f *Feeder) SetLength(samples int64) {
	f.length = samples
}

// SetLogger replaces the logger.
func (f *Feeder) SetLogger(l *debug.Logger) {
	if l != nil {
		f.log = l
	}
}

// SetProfiler times every rendered block with p. Nil disables timing.
func (f *Feeder) SetProfiler(p *debug.RenderProfiler) {
	f.profiler = p
}

// Run renders until ctx is cancelled or the length is reached. It returns
// ctx.Err() on cancellation and nil when the length was rendered.
func (f *Feeder) Run(ctx context.Context) error {
	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		block := f.block
		if f.length > 0 {
			left := f.length - f.renderer.Position()
			if left <= 0 {
				f.log.Debug("Feeder finished after %d samples", f.renderer.Position())
				return nil
			}
			if left < int64(len(block)) {
				block = block[:left]
			}
		}

		if f.fifo.Free() < len(block) {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
			}
			continue
		}

		if f.profiler != nil {
			stop := f.profiler.Block(len(block))
			f.renderer.RenderBlock(block)
			stop()
		} else {
			f.renderer.RenderBlock(block)
		}
		if err := f.fifo.Write(block); err != nil {
			// Free was checked above and only this goroutine writes
			return err
		}
	}
}

// Drain waits until the device has read everything written to the FIFO.
func (f *Feeder) Drain(ctx context.Context) error {
	ticker := time.NewTicker(f.poll)
	defer ticker.Stop()

	for f.fifo.Buffered() > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
