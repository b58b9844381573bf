// Package loader decodes audio files into the flat mono buffers the voice
// engine plays, and reads SFZ region lists.
package loader

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"

	"github.com/justyntemme/gosampler/pkg/framework/voice"
)

var (
	// ErrLoadFailed is wrapped by every loader error. It is the engine's
	// load error, so callers can test either with errors.Is.
	ErrLoadFailed = voice.ErrLoadFailed

	// ErrUnsupportedBitDepth is returned for PCM that is not 16, 24 or 32 bit.
	ErrUnsupportedBitDepth = fmt.Errorf("%w: unsupported bit depth", ErrLoadFailed)

	// ErrUnsupportedFormat is returned for unknown extensions and non-PCM WAV.
	ErrUnsupportedFormat = fmt.Errorf("%w: unsupported format", ErrLoadFailed)
)

// Source is a decoded, normalized mono sample.
type Source struct {
	Samples    []float32
	SampleRate float64
	Path       string
}

// Duration returns the playback length at the native rate.
func (s *Source) Duration() time.Duration {
	if s.SampleRate <= 0 {
		return 0
	}
	return time.Duration(float64(len(s.Samples)) / s.SampleRate * float64(time.Second))
}

// ExpandPath resolves a leading ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", fmt.Errorf("%w: expand %s: %w", ErrLoadFailed, path, err)
	}
	return expanded, nil
}

// LoadFile decodes a .wav or .mp3 file, chosen by extension.
func LoadFile(path string) (*Source, error) {
	resolved, err := ExpandPath(path)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(resolved)
	if err != nil {
		return nil, wrap(path, err)
	}
	defer func() { _ = f.Close() }()

	var src *Source
	switch ext := strings.ToLower(filepath.Ext(resolved)); ext {
	case ".wav", ".wave":
		src, err = DecodeWAV(f)
	case ".mp3":
		src, err = DecodeMP3(f)
	default:
		err = fmt.Errorf("%w: extension %q", ErrUnsupportedFormat, ext)
	}
	if err != nil {
		return nil, wrap(path, err)
	}
	src.Path = resolved
	return src, nil
}

// wrap adds the path to err and makes sure it carries ErrLoadFailed.
func wrap(path string, err error) error {
	if errors.Is(err, ErrLoadFailed) {
		return fmt.Errorf("%s: %w", path, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrLoadFailed, path, err)
}

// downmix averages interleaved integer frames into mono floats scaled by
// 1/fullScale.
func downmix(data []int, channels int, fullScale float64) []float32 {
	if channels < 1 {
		channels = 1
	}
	frames := len(data) / channels
	out := make([]float32, frames)
	scale := 1 / (fullScale * float64(channels))
	for i := range out {
		sum := 0
		for _, v := range data[i*channels : (i+1)*channels] {
			sum += v
		}
		out[i] = float32(float64(sum) * scale)
	}
	return out
}
