package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFixture encodes interleaved integer frames with the go-audio encoder.
func writeFixture(t *testing.T, name string, data []int, rate, bitDepth, channels int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	f, err := os.Create(path)
	require.NoError(t, err)
	defer func() { require.NoError(t, f.Close()) }()

	enc := wav.NewEncoder(f, rate, bitDepth, channels, 1)
	require.NoError(t, enc.Write(&audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: rate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}))
	require.NoError(t, enc.Close())
	return path
}

func TestDecodeWAV16(t *testing.T) {
	path := writeFixture(t, "mono16.wav", []int{0, 16384, -16384, 32767, -32768}, 22050, 16, 1)

	src, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 22050.0, src.SampleRate)
	assert.Equal(t, path, src.Path)
	require.Len(t, src.Samples, 5)
	assert.InDeltaSlice(t, []float32{0, 0.5, -0.5, 0.99997, -1}, src.Samples, 1e-4)
}

func TestDecodeWAV24(t *testing.T) {
	path := writeFixture(t, "mono24.wav", []int{4194304, -8388608}, 48000, 24, 1)

	src, err := LoadFile(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.5, -1}, src.Samples, 1e-6)
}

func TestDecodeWAVDownmixesChannels(t *testing.T) {
	// Left/right pairs average to 0.5, 0 and -0.25.
	path := writeFixture(t, "stereo.wav", []int{16384, 16384, 16384, -16384, 0, -16384}, 44100, 16, 2)

	src, err := LoadFile(path)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0.5, 0, -0.25}, src.Samples, 1e-6)
	assert.InDelta(t, 3.0/44100, src.Duration().Seconds(), 1e-9)
}

func TestDecodeWAVUnsupportedBitDepth(t *testing.T) {
	path := writeFixture(t, "mono8.wav", []int{10, 200, 128}, 8000, 8, 1)

	_, err := LoadFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestDecodeWAVInvalid(t *testing.T) {
	_, err := DecodeWAV(bytes.NewReader([]byte("not a wav file")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestWriteWAVRoundTrip(t *testing.T) {
	samples := []float32{0, 0.25, -0.25, 1.5, -1.5}
	for _, depth := range []int{16, 24} {
		path := filepath.Join(t.TempDir(), "out.wav")
		f, err := os.Create(path)
		require.NoError(t, err)
		require.NoError(t, WriteWAV(f, samples, 44100, depth))
		require.NoError(t, f.Close())

		src, err := LoadFile(path)
		require.NoError(t, err, "depth %d", depth)
		assert.Equal(t, 44100.0, src.SampleRate)
		assert.InDeltaSlice(t, []float32{0, 0.25, -0.25, 1, -1}, src.Samples, 1e-4, "out-of-range samples clip")
	}

	f, err := os.Create(filepath.Join(t.TempDir(), "bad.wav"))
	require.NoError(t, err)
	defer func() { _ = f.Close() }()
	assert.ErrorIs(t, WriteWAV(f, samples, 44100, 12), ErrUnsupportedBitDepth)
}

func TestLoadFileErrors(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.wav"))
	assert.ErrorIs(t, err, ErrLoadFailed)

	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))
	_, err = LoadFile(path)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestDecodeMP3Invalid(t *testing.T) {
	_, err := DecodeMP3(bytes.NewReader([]byte("definitely not mpeg audio")))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrLoadFailed)
}

func TestExpandPath(t *testing.T) {
	home, err := ExpandPath("~")
	require.NoError(t, err)
	assert.NotEqual(t, "~", home)

	plain, err := ExpandPath("/tmp/kick.wav")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/kick.wav", plain)
}
