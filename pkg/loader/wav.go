package loader

import (
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const (
	wavFormatPCM        = 1
	wavFormatExtensible = 0xFFFE
)

// DecodeWAV reads a 16, 24 or 32-bit PCM WAV stream. Multi-channel audio is
// averaged to mono.
func DecodeWAV(r io.ReadSeeker) (*Source, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid WAV file", ErrLoadFailed)
	}
	if dec.WavAudioFormat != wavFormatPCM && dec.WavAudioFormat != wavFormatExtensible {
		return nil, fmt.Errorf("%w: WAV format tag %d", ErrUnsupportedFormat, dec.WavAudioFormat)
	}

	bitDepth := int(dec.BitDepth)
	fullScale, err := fullScaleFor(bitDepth)
	if err != nil {
		return nil, err
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("%w: read PCM data: %w", ErrLoadFailed, err)
	}
	channels := int(dec.NumChans)
	if len(buf.Data) < channels || channels == 0 {
		return nil, fmt.Errorf("%w: no sample data", ErrLoadFailed)
	}

	return &Source{
		Samples:    downmix(buf.Data, channels, fullScale),
		SampleRate: float64(dec.SampleRate),
	}, nil
}

// WriteWAV encodes mono samples as integer PCM. Samples outside [-1, 1] are
// clipped.
func WriteWAV(w io.WriteSeeker, samples []float32, sampleRate, bitDepth int) error {
	fullScale, err := fullScaleFor(bitDepth)
	if err != nil {
		return err
	}
	peak := fullScale - 1

	data := make([]int, len(samples))
	for i, s := range samples {
		v := float64(s) * fullScale
		if v > peak {
			v = peak
		} else if v < -fullScale {
			v = -fullScale
		}
		data[i] = int(v)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, 1, wavFormatPCM)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("write WAV data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finalize WAV header: %w", err)
	}
	return nil
}

func fullScaleFor(bitDepth int) (float64, error) {
	switch bitDepth {
	case 16, 24, 32:
		return float64(int64(1) << (bitDepth - 1)), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
}
