// Package synth renders sequenced tracks to stereo sample buffers using a
// SoundFont synthesizer.
package synth

import (
	"context"
	"errors"
	"time"

	"github.com/leandrodaf/midisynth/internal/sequencer"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// DefaultPadding is the silence rendered after a track ends so that
// released notes can decay.
const DefaultPadding = 1500 * time.Millisecond

// ErrInvalidSynth is returned when a synthesizer reports a non-positive
// sample rate or block size.
var ErrInvalidSynth = errors.New("synthesizer has invalid sample rate or block size")

// Synth is a block-based synthesizer playing on a single channel.
type Synth interface {
	ProgramChange(bank, preset uint8)
	NoteOn(key, velocity uint8)
	NoteOff(key uint8)
	Render(left, right []float32)
	BlockSize() int
	SampleRate() int
}

// Progress receives the sample count of a render and per-block increments.
type Progress interface {
	SetTotal(total int64)
	IncrBy(n int)
}

// Options control how a track is rendered.
type Options struct {
	Padding       time.Duration
	IgnoreNoteOff bool
	Logger        contracts.Logger
}

// SampleCount returns the number of samples per channel needed to render
// length plus padding, rounded up to a whole number of blocks.
func SampleCount(length, padding time.Duration, sampleRate, blockSize int) int {
	micros := (length + padding).Microseconds()
	n := int(micros * int64(sampleRate) / 1_000_000)
	if blockSize <= 0 {
		return n
	}
	if rem := n % blockSize; rem != 0 {
		n += blockSize - rem
	}
	return n
}

// RenderTrack plays track through s using the given instrument layer and
// returns the left and right channels.
func RenderTrack(ctx context.Context, s Synth, track sequencer.PlayerTrack, inst contracts.Instrument, opts Options, progress Progress) ([]float32, []float32, error) {
	sr := s.SampleRate()
	bs := s.BlockSize()
	if sr <= 0 || bs <= 0 {
		return nil, nil, ErrInvalidSynth
	}
	sc := SampleCount(track.Length, opts.Padding, sr, bs)

	left := make([]float32, sc)
	right := make([]float32, sc)

	s.ProgramChange(inst.Bank, inst.Preset)

	if progress != nil {
		progress.SetTotal(int64(sc))
	}

	events := track.Events
	next := 0
	for si := 0; si < sc; si += bs {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		t := time.Duration(int64(si)*1_000_000/int64(sr)) * time.Microsecond
		for next < len(events) && events[next].Time <= t {
			play(s, events[next], inst.Transpose, opts)
			next++
		}

		s.Render(left[si:si+bs], right[si:si+bs])

		if progress != nil {
			progress.IncrBy(bs)
		}
	}

	return left, right, nil
}

func play(s Synth, ev sequencer.PlayerEvent, transpose int8, opts Options) {
	key := int(ev.Key) + int(transpose)
	if key < 0 || key > 127 {
		if opts.Logger != nil {
			opts.Logger.Debug("transposed note out of range; dropped",
				opts.Logger.Field().Int("key", int(ev.Key)),
				opts.Logger.Field().Int("transpose", int(transpose)))
		}
		return
	}

	if ev.Off {
		if !opts.IgnoreNoteOff {
			s.NoteOff(uint8(key))
		}
		return
	}
	s.NoteOn(uint8(key), ev.Velocity)
}
