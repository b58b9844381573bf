package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/gosampler/pkg/framework/voice"
)

func TestParseSFZ(t *testing.T) {
	const doc = `
// Two-layer piano
<control> default_path=samples/
<global> hivel=127
<group> lovel=0 hivel=63
<region> sample=piano soft.wav lokey=c4 hikey=b4 pitch_keycenter=60
<region> sample=low.wav key=36
<group> lovel=64
<region>
sample=piano loud.wav   lokey=60 hikey=71 // trailing comment
<region> lokey=10
`
	regions, err := ParseSFZ(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, regions, 3, "regions without a sample are dropped")

	soft := regions[0]
	assert.Equal(t, "samples/piano soft.wav", soft.Sample)
	assert.Equal(t, 60, soft.KeyLow)
	assert.Equal(t, 71, soft.KeyHigh)
	assert.Equal(t, 60, soft.PitchCenter)
	assert.Equal(t, 0, soft.VelLow)
	assert.Equal(t, 63, soft.VelHigh, "group opcodes override global ones")

	low := regions[1]
	assert.Equal(t, 36, low.KeyLow)
	assert.Equal(t, 36, low.KeyHigh)
	assert.Equal(t, 36, low.PitchCenter, "key sets the pitch center too")

	loud := regions[2]
	assert.Equal(t, "samples/piano loud.wav", loud.Sample)
	assert.Equal(t, 64, loud.VelLow)
	assert.Equal(t, 127, loud.VelHigh, "a new group drops the old group's opcodes")
	assert.Equal(t, voice.Unset, loud.PitchCenter)
}

func TestParseSFZMalformedFallsBackToUnset(t *testing.T) {
	regions, err := ParseSFZ(strings.NewReader(`<region> sample=a.wav lokey=banana hivel=300 lovel=-3 pitch_keycenter=`))
	require.NoError(t, err)
	require.Len(t, regions, 1)

	r := regions[0]
	assert.Equal(t, voice.Unset, r.KeyLow)
	assert.Equal(t, voice.Unset, r.VelHigh)
	assert.Equal(t, voice.Unset, r.VelLow)
	assert.Equal(t, voice.Unset, r.PitchCenter)
}

func TestParseSFZBackslashes(t *testing.T) {
	regions, err := ParseSFZ(strings.NewReader(`<region> sample=kit\snare.wav`))
	require.NoError(t, err)
	require.Len(t, regions, 1)
	assert.Equal(t, "kit/snare.wav", regions[0].Sample)
}

func TestLoadSFZ(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "wavs"), 0o755))

	writeInto := func(name string, data []int) {
		src := writeFixture(t, name, data, 22050, 16, 1)
		raw, err := os.ReadFile(src)
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "wavs", name), raw, 0o644))
	}
	writeInto("a.wav", []int{16384, 16384})
	writeInto("b.wav", []int{-16384, -16384, -16384})

	sfz := filepath.Join(dir, "kit.sfz")
	require.NoError(t, os.WriteFile(sfz, []byte(`
<region> sample=wavs/a.wav lokey=0 hikey=59
<region> sample=wavs/b.wav lokey=60 hikey=127 pitch_keycenter=c5
<region> sample=wavs/a.wav key=100
`), 0o644))

	regions, err := LoadSFZ(sfz)
	require.NoError(t, err)
	require.Len(t, regions, 3)

	assert.Equal(t, "wavs/a.wav", regions[0].Name)
	assert.Len(t, regions[0].Samples, 2)
	assert.Equal(t, 22050.0, regions[0].SampleRate)
	assert.True(t, regions[0].Matches(40, 1))
	assert.False(t, regions[0].Matches(60, 1))

	assert.Len(t, regions[1].Samples, 3)
	assert.Equal(t, uint8(72), regions[1].Center())
	assert.Same(t, &regions[0].Samples[0], &regions[2].Samples[0], "shared samples are decoded once")
}

func TestLoadSFZErrors(t *testing.T) {
	dir := t.TempDir()

	empty := filepath.Join(dir, "empty.sfz")
	require.NoError(t, os.WriteFile(empty, []byte("<group> lokey=1"), 0o644))
	_, err := LoadSFZ(empty)
	assert.ErrorIs(t, err, ErrLoadFailed)

	missing := filepath.Join(dir, "missing.sfz")
	require.NoError(t, os.WriteFile(missing, []byte("<region> sample=nowhere.wav"), 0o644))
	_, err = LoadSFZ(missing)
	assert.ErrorIs(t, err, ErrLoadFailed)
	assert.Contains(t, err.Error(), "region 0")
}
