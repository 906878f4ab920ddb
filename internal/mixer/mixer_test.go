package mixer

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const eps = 1e-9

func TestNewGainFactors_Center(t *testing.T) {
	g := NewGainFactors(0, 0)

	assert.InDelta(t, math.Sqrt2/2, g.LtoL, eps)
	assert.InDelta(t, math.Sqrt2/2, g.RtoR, eps)
	assert.InDelta(t, 0, g.RtoL, eps)
	assert.InDelta(t, 0, g.LtoR, eps)
}

func TestNewGainFactors_HardPan(t *testing.T) {
	left := NewGainFactors(0, -1)
	assert.InDelta(t, 1, left.LtoL, eps)
	assert.InDelta(t, math.Sqrt2/2, left.RtoL, eps, "right input folds into the left output")
	assert.InDelta(t, 0, left.RtoR, eps)
	assert.InDelta(t, 0, left.LtoR, eps)

	right := NewGainFactors(0, 1)
	assert.InDelta(t, 0, right.LtoL, eps)
	assert.InDelta(t, 0, right.RtoL, eps)
	assert.InDelta(t, 1, right.RtoR, eps)
	assert.InDelta(t, math.Sqrt2/2, right.LtoR, eps)
}

func TestNewGainFactors_ClampsPanAndAppliesGain(t *testing.T) {
	assert.Equal(t, NewGainFactors(0, 1), NewGainFactors(0, 3))
	assert.Equal(t, NewGainFactors(0, -1), NewGainFactors(0, -1.5))

	g := NewGainFactors(-20, -1)
	assert.InDelta(t, 0.1, g.LtoL, eps)
}

type progress struct{ total, n int64 }

func (p *progress) SetTotal(total int64) { p.total = total }
func (p *progress) IncrBy(n int)         { p.n += int64(n) }

func TestMixStereo(t *testing.T) {
	unity := GainFactors{LtoL: 1, RtoR: 1}
	tracks := []Track{
		{Left: []float32{1, 1, 1}, Right: []float32{-1, -1, -1}, Gain: unity},
		{Left: []float32{0.5}, Right: []float32{0.25}, Gain: GainFactors{LtoL: 1, LtoR: 1, RtoL: 2, RtoR: 2}},
	}
	p := &progress{}

	out := MixStereo(tracks, p)
	require.Len(t, out, 6)

	assert.InDelta(t, 1+0.5+0.5, out[0], 1e-6)
	assert.InDelta(t, -1+0.5+0.5, out[1], 1e-6)
	assert.Equal(t, []float32{1, -1, 1, -1}, out[2:])
	assert.EqualValues(t, 3, p.total)
	assert.EqualValues(t, 3, p.n)
}

func TestMixStereo_Empty(t *testing.T) {
	assert.Empty(t, MixStereo(nil, nil))
}
