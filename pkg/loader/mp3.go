package loader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/hajimehoshi/go-mp3"
)

// mp3 decodes to interleaved 16-bit little-endian stereo.
const (
	mp3Channels   = 2
	mp3FrameBytes = 4
	mp3FullScale  = 32768.0
)

// DecodeMP3 decodes an MP3 stream and averages its two channels to mono.
func DecodeMP3(r io.Reader) (*Source, error) {
	dec, err := mp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid MP3 stream: %w", ErrLoadFailed, err)
	}

	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("%w: decode MP3: %w", ErrLoadFailed, err)
	}
	frames := len(raw) / mp3FrameBytes
	if frames == 0 {
		return nil, fmt.Errorf("%w: no sample data", ErrLoadFailed)
	}

	data := make([]int, frames*mp3Channels)
	for i := range data {
		data[i] = int(int16(binary.LittleEndian.Uint16(raw[2*i:])))
	}
	return &Source{
		Samples:    downmix(data, mp3Channels, mp3FullScale),
		SampleRate: float64(dec.SampleRate()),
	}, nil
}
