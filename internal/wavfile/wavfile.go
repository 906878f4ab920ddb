// Package wavfile writes interleaved float samples as PCM WAV files.
package wavfile

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// DefaultBitDepth is the PCM sample size used when none is configured.
const DefaultBitDepth = 16

const pcmFormat = 1

// ErrUnsupportedBitDepth is returned for bit depths other than 16, 24 and 32.
var ErrUnsupportedBitDepth = errors.New("unsupported bit depth")

// chunkFrames bounds the size of each buffer handed to the encoder.
const chunkFrames = 1 << 14

// Write encodes interleaved samples with the given channel count to w.
// Samples are clamped to [-1, 1] before quantization.
func Write(w io.WriteSeeker, samples []float32, sampleRate, channels, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("%w: %d", ErrUnsupportedBitDepth, bitDepth)
	}
	if channels <= 0 {
		return fmt.Errorf("invalid channel count %d", channels)
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, channels, pcmFormat)
	scale := float64(int64(1)<<(bitDepth-1) - 1)

	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: channels, SampleRate: sampleRate},
		SourceBitDepth: bitDepth,
	}
	step := chunkFrames * channels
	for start := 0; start < len(samples); start += step {
		end := min(start+step, len(samples))
		buf.Data = quantize(buf.Data[:0], samples[start:end], scale)
		if err := enc.Write(buf); err != nil {
			return err
		}
	}
	if len(samples) == 0 {
		buf.Data = nil
		if err := enc.Write(buf); err != nil {
			return err
		}
	}

	return enc.Close()
}

// WriteFile writes a stereo WAV file at path.
func WriteFile(path string, samples []float32, sampleRate, bitDepth int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	return Write(f, samples, sampleRate, 2, bitDepth)
}

func quantize(dst []int, src []float32, scale float64) []int {
	for _, s := range src {
		v := math.Max(-1, math.Min(1, float64(s)))
		dst = append(dst, int(math.Round(v*scale)))
	}
	return dst
}
