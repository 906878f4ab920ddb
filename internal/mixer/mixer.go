// Package mixer combines rendered stereo tracks into a single interleaved
// stereo stream.
package mixer

import "math"

// GainFactors holds the four channel routing coefficients of a track.
type GainFactors struct {
	LtoL, LtoR float64
	RtoL, RtoR float64
}

// NewGainFactors computes the routing for a gain in dB and a pan position in
// [-1, 1]. Out-of-range pan values are clamped.
func NewGainFactors(gainDB, pan float64) GainFactors {
	pan = math.Max(-1, math.Min(1, pan))

	// Map pan from [-1, 1] to [0, π/2].
	theta := (pan + 1) / 2 * (math.Pi / 2)
	gain := math.Pow(10, gainDB/20)

	return GainFactors{
		// Left destination follows the cosine curve.
		LtoL: gain * math.Cos(theta),
		RtoL: gain * math.Max(0, math.Cos(theta+math.Pi/4)),

		// Right destination follows the sine curve.
		RtoR: gain * math.Sin(theta),
		LtoR: gain * math.Max(0, math.Sin(theta-math.Pi/4)),
	}
}

// Track is one rendered layer.
type Track struct {
	Left, Right []float32
	Gain        GainFactors
}

// Progress receives the frame count of a mix and per-frame increments.
type Progress interface {
	SetTotal(total int64)
	IncrBy(n int)
}

// progressStep is the number of frames mixed between progress updates.
const progressStep = 4096

// MixStereo sums tracks into interleaved left/right samples. The output is as
// long as the longest track; shorter tracks are silent past their end.
func MixStereo(tracks []Track, progress Progress) []float32 {
	frames := 0
	for _, t := range tracks {
		frames = max(frames, len(t.Left), len(t.Right))
	}

	out := make([]float32, 0, frames*2)
	if progress != nil {
		progress.SetTotal(int64(frames))
	}

	for i := 0; i < frames; i++ {
		var l, r float64
		for _, t := range tracks {
			il := sample(t.Left, i)
			ir := sample(t.Right, i)
			l += t.Gain.LtoL*il + t.Gain.RtoL*ir
			r += t.Gain.LtoR*il + t.Gain.RtoR*ir
		}
		out = append(out, float32(l), float32(r))

		if progress != nil && (i+1)%progressStep == 0 {
			progress.IncrBy(progressStep)
		}
	}
	if progress != nil && frames%progressStep != 0 {
		progress.IncrBy(frames % progressStep)
	}

	return out
}

func sample(buf []float32, i int) float64 {
	if i < len(buf) {
		return float64(buf[i])
	}
	return 0
}
