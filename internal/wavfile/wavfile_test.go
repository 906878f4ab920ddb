package wavfile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.wav")
	samples := []float32{0, 0, 0.5, -0.5, 1, -1, 2, -2}

	require.NoError(t, WriteFile(path, samples, 44100, 16))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)

	assert.Equal(t, 2, buf.Format.NumChannels)
	assert.Equal(t, 44100, buf.Format.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)
	assert.Equal(t, []int{0, 0, 16384, -16384, 32767, -32767, 32767, -32767}, buf.Data)
}

func TestWrite_Bits24(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out24.wav")
	require.NoError(t, WriteFile(path, []float32{1, -1}, 48000, 24))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, []int{8388607, -8388607}, buf.Data)
}

func TestWrite_UnsupportedBitDepth(t *testing.T) {
	err := WriteFile(filepath.Join(t.TempDir(), "x.wav"), nil, 44100, 12)
	assert.ErrorIs(t, err, ErrUnsupportedBitDepth)
}
