// Command sampler renders or plays a sampler session.
//
// Usage:
//
//	sampler render [options] session.yaml out.wav
//	sampler play [options] session.yaml
//	sampler info session.yaml
//
// A session file describes the engine setup, its samples and a note script;
// see package session. Parameters can be overridden with -set, for example
// -set "Attack=250 ms".
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"sort"
	"strings"
	"time"

	"github.com/justyntemme/gosampler/pkg/dsp"
	"github.com/justyntemme/gosampler/pkg/dsp/buffer"
	"github.com/justyntemme/gosampler/pkg/framework/debug"
	"github.com/justyntemme/gosampler/pkg/framework/param"
	"github.com/justyntemme/gosampler/pkg/framework/process"
	"github.com/justyntemme/gosampler/pkg/framework/voice"
	"github.com/justyntemme/gosampler/pkg/loader"
	"github.com/justyntemme/gosampler/pkg/output"
	"github.com/justyntemme/gosampler/pkg/session"
)

const (
	defaultBitDepth  = 24
	defaultLatencyMs = 50
	minRequiredArgs  = 1
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

func run(args []string) error {
	if len(args) < minRequiredArgs {
		usage()
		return fmt.Errorf("missing command")
	}
	switch args[0] {
	case "render":
		return runRender(args[1:])
	case "play":
		return runPlay(args[1:])
	case "info":
		return runInfo(args[1:])
	case "-h", "-help", "--help", "help":
		usage()
		return nil
	}
	usage()
	return fmt.Errorf("unknown command %q", args[0])
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage:\n")
	fmt.Fprintf(os.Stderr, "  %s render [options] session.yaml out.wav\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s play [options] session.yaml\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "  %s info session.yaml\n\n", filepath.Base(os.Args[0]))
	fmt.Fprintf(os.Stderr, "Run a command with -h for its options.\n")
}

// paramFlags collects repeated -set name=value flags.
type paramFlags map[string]string

func (p paramFlags) String() string {
	parts := make([]string, 0, len(p))
	for k, v := range p {
		parts = append(parts, k+"="+v)
	}
	sort.Strings(parts)
	return strings.Join(parts, ",")
}

func (p paramFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(name) == "" {
		return fmt.Errorf("want name=value, got %q", s)
	}
	p[strings.TrimSpace(name)] = strings.TrimSpace(value)
	return nil
}

// common holds the options shared by render and play.
type common struct {
	verbose    bool
	logFile    string
	gainDb     float64
	blockSize  int
	set        paramFlags
	cpuprofile string

	fs     *flag.FlagSet
	logger *debug.Logger
}

func newCommon(name string) *common {
	c := &common{set: paramFlags{}}
	c.fs = flag.NewFlagSet(name, flag.ContinueOnError)
	c.fs.BoolVar(&c.verbose, "v", false, "Verbose output (debug logging, render statistics)")
	c.fs.StringVar(&c.logFile, "log", "", "Write log messages to this file instead of stderr")
	c.fs.Float64Var(&c.gainDb, "gain", 0, "Output gain in dB, added to the session gain")
	c.fs.IntVar(&c.blockSize, "block", dsp.DefaultBufferSize, "Render block size in samples")
	c.fs.Var(c.set, "set", "Override a parameter, name=value (repeatable)")
	c.fs.StringVar(&c.cpuprofile, "cpuprofile", "", "Write CPU profile to file")
	return c
}

// setup configures logging and profiling. The returned function undoes it.
func (c *common) setup() (func(), error) {
	if c.blockSize < dsp.MinBufferSize || c.blockSize > dsp.MaxBufferSize {
		return nil, fmt.Errorf("block size must be %d-%d, got %d", dsp.MinBufferSize, dsp.MaxBufferSize, c.blockSize)
	}

	c.logger = debug.New(os.Stderr, "sampler", debug.DefaultFlags)
	if c.logFile != "" {
		path, err := loader.ExpandPath(c.logFile)
		if err != nil {
			return nil, err
		}
		if c.logger, err = debug.NewFileLogger(path, "sampler", debug.DefaultFlags); err != nil {
			return nil, err
		}
	}
	if c.verbose {
		c.logger.SetLevel(debug.LogLevelDebug)
	}
	prev := debug.Default()
	debug.SetDefault(c.logger)

	var cleanup []func()
	done := func() {
		for i := len(cleanup) - 1; i >= 0; i-- {
			cleanup[i]()
		}
	}
	cleanup = append(cleanup, func() {
		debug.SetDefault(prev)
		_ = c.logger.Close()
	})

	if c.cpuprofile != "" {
		f, err := os.Create(c.cpuprofile)
		if err != nil {
			done()
			return nil, fmt.Errorf("could not create CPU profile: %w", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			_ = f.Close()
			done()
			return nil, fmt.Errorf("could not start CPU profile: %w", err)
		}
		cleanup = append(cleanup, func() {
			pprof.StopCPUProfile()
			_ = f.Close()
		})
	}
	return done, nil
}

// load reads the session and applies the command-line overrides.
func (c *common) load(path string) (*session.Session, error) {
	sess, err := session.Load(path)
	if err != nil {
		return nil, err
	}
	sess.Gain += c.gainDb
	if len(c.set) > 0 {
		if sess.Params == nil {
			sess.Params = map[string]string{}
		}
		for k, v := range c.set {
			sess.Params[k] = v
		}
	}
	if err := sess.Validate(); err != nil {
		return nil, err
	}
	c.logger.Info("Session: %s", sess)
	return sess, nil
}

// build creates an engine and a renderer for the session.
func (c *common) build(sess *session.Session) (*process.Renderer, error) {
	cfg := sess.Config()
	cfg.Logger = c.logger
	engine := voice.NewEngine(cfg)
	reg := param.EngineParams()
	if err := sess.Apply(engine, reg); err != nil {
		return nil, err
	}
	r := process.NewRenderer(engine, reg, sess.Events(sess.HostRate))
	r.SetLogger(c.logger)
	return r, nil
}

func runRender(args []string) error {
	c := newCommon("render")
	bits := c.fs.Int("bits", defaultBitDepth, "Output bit depth: 16 or 24")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.fs.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Usage: render [options] session.yaml out.wav\n\nOptions:\n")
		c.fs.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}
	if *bits != 16 && *bits != 24 {
		return fmt.Errorf("bit depth must be 16 or 24, got %d", *bits)
	}

	done, err := c.setup()
	if err != nil {
		return err
	}
	defer done()

	inputPath, outputPath := c.fs.Arg(0), c.fs.Arg(1)
	sess, err := c.load(inputPath)
	if err != nil {
		return err
	}
	r, err := c.build(sess)
	if err != nil {
		return err
	}

	start := time.Now()
	prof := debug.NewRenderProfiler(sess.HostRate)
	out := make([]float32, sess.RenderLength(sess.HostRate))
	for pos := 0; pos < len(out); pos += c.blockSize {
		block := out[pos:min(pos+c.blockSize, len(out))]
		stop := prof.Block(len(block))
		r.RenderBlock(block)
		stop()
	}
	elapsed := time.Since(start)

	stats := debug.LogBufferStats(out, filepath.Base(outputPath))
	clipped := dsp.Clip(out, dsp.ClipThreshold)
	if err := writeWAV(outputPath, out, int(sess.HostRate), *bits); err != nil {
		return err
	}

	fmt.Printf("Rendered %s -> %s\n", filepath.Base(inputPath), filepath.Base(outputPath))
	fmt.Printf("  %d samples at %.0f Hz, %d-bit mono (%.2fs)\n",
		len(out), sess.HostRate, *bits, float64(len(out))/sess.HostRate)
	fmt.Printf("  Peak: %.1f dBFS, RMS: %.1f dBFS\n", stats.PeakDb(), stats.RMSDb())
	if clipped > 0 {
		fmt.Printf("  Clipped: %d samples\n", clipped)
	}
	fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n", elapsed.Seconds(), prof.RealtimeFactor())
	if c.verbose {
		fmt.Print(prof.AudioReport())
	}
	return nil
}

func writeWAV(path string, samples []float32, sampleRate, bits int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := loader.WriteWAV(f, samples, sampleRate, bits); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close output file: %w", err)
	}
	return nil
}

func runPlay(args []string) error {
	c := newCommon("play")
	backendName := c.fs.String("backend", string(output.BackendOto), "Audio backend: oto or beep")
	latencyMs := c.fs.Int("latency", defaultLatencyMs, "Write-ahead latency in milliseconds")
	if err := c.fs.Parse(args); err != nil {
		return err
	}
	if c.fs.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: play [options] session.yaml\n\nOptions:\n")
		c.fs.PrintDefaults()
		return fmt.Errorf("insufficient arguments")
	}
	backend, err := output.ParseBackend(*backendName)
	if err != nil {
		return err
	}

	done, err := c.setup()
	if err != nil {
		return err
	}
	defer done()

	sess, err := c.load(c.fs.Arg(0))
	if err != nil {
		return err
	}
	r, err := c.build(sess)
	if err != nil {
		return err
	}

	latency := time.Duration(*latencyMs) * time.Millisecond
	fifo := buffer.NewWriteAheadBuffer(sess.HostRate, latency)
	feeder := output.NewFeeder(r, fifo, c.blockSize)
	feeder.SetLogger(c.logger)
	feeder.SetLength(int64(sess.RenderLength(sess.HostRate)))
	prof := debug.NewRenderProfiler(sess.HostRate)
	feeder.SetProfiler(prof)

	player, err := output.New(backend, int(sess.HostRate), fifo)
	if err != nil {
		return err
	}
	defer func() {
		if err := player.Close(); err != nil {
			c.logger.Warn("Closing %s player: %v", backend, err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := player.Start(); err != nil {
		return fmt.Errorf("failed to start %s output: %w", backend, err)
	}
	c.logger.Info("Playing through %s with %v latency", backend, latency)

	if err := feeder.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	if err := feeder.Drain(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	st := fifo.Stats()
	fmt.Printf("Played %.2fs (%d underruns, %d overruns, load %.1f%%)\n",
		prof.Rendered().Seconds(), st.Underruns, st.Overruns, prof.Load())
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("usage: info session.yaml")
	}
	sess, err := session.Load(fs.Arg(0))
	if err != nil {
		return err
	}

	fmt.Println(sess)
	fmt.Printf("Render length: %.2fs\n", float64(sess.RenderLength(sess.HostRate))/sess.HostRate)

	reg := param.EngineParams()
	if err := sess.ApplyParams(reg); err != nil {
		return err
	}
	for _, p := range reg.All() {
		fmt.Printf("  %-20s %s\n", p.Name, p.FormatValue(p.GetValue()))
	}
	return nil
}
