package midisynth

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"
	"go.uber.org/goleak"

	"github.com/leandrodaf/midisynth/internal/config"
	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/internal/sequencer"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	goleak.VerifyTestMain(m)
}

const (
	testRate  = 1000
	testBlock = 64
)

// levelSynth outputs a constant level on both channels while any key is down.
type levelSynth struct {
	down map[uint8]bool
}

func (s *levelSynth) ProgramChange(bank, preset uint8) {}
func (s *levelSynth) NoteOn(key, velocity uint8) {
	if velocity == 0 {
		delete(s.down, key)
		return
	}
	s.down[key] = true
}
func (s *levelSynth) NoteOff(key uint8) { delete(s.down, key) }
func (s *levelSynth) Render(left, right []float32) {
	var v float32
	if len(s.down) > 0 {
		v = 0.5
	}
	for i := range left {
		left[i], right[i] = v, v
	}
}
func (s *levelSynth) BlockSize() int  { return testBlock }
func (s *levelSynth) SampleRate() int { return testRate }

type fakeSoundFont struct {
	err error
}

func (f fakeSoundFont) NewSynth(int) (synth.Synth, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &levelSynth{down: map[uint8]bool{}}, nil
}

const testConfig = `
soundfont = "bank.sf2"

[instr]
"Lyra" = [ { bank = 0, preset = 3 } ]
"Broken" = [ { preset = 1 } ]
`

func newTestRenderer(t *testing.T, out *bytes.Buffer) *Renderer {
	t.Helper()
	r, err := NewRenderer(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithRenderConfig(contracts.RenderConfig{
			SampleRate: testRate,
			Padding:    100 * time.Millisecond,
			Workers:    2,
		}),
		contracts.WithProgressOutput(out),
	)
	require.NoError(t, err)
	return r
}

func loadConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load(strings.NewReader(testConfig))
	require.NoError(t, err)
	return cfg
}

func decodeWAV(t *testing.T, path string) (*wav.Decoder, []int) {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { f.Close() })

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	return dec, buf.Data
}

func TestRenderTracks(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out)

	tracks := []sequencer.PlayerTrack{
		{Name: "Conductor", HasName: true},
		{
			Name:    "Lyra",
			HasName: true,
			Length:  100 * time.Millisecond,
			Events:  []sequencer.PlayerEvent{{Time: 0, Key: 60, Velocity: 100}},
		},
		{Name: "Daouli", HasName: true},
		{Name: "Broken", HasName: true},
		{}, // unnamed tracks are skipped silently
	}

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, r.RenderTracks(context.Background(), loadConfig(t), fakeSoundFont{}, tracks, f))
	require.NoError(t, f.Close())

	dec, data := decodeWAV(t, path)
	assert.Equal(t, uint16(2), dec.NumChans)
	assert.Equal(t, uint32(testRate), dec.SampleRate)
	assert.Equal(t, uint16(16), dec.BitDepth)

	// 200ms at 1kHz rounded up to whole blocks, two channels.
	require.Len(t, data, 2*256)
	// Centre pan: 0.5 * cos(pi/4) on each side.
	assert.InDelta(t, 11585, data[0], 1)
	assert.InDelta(t, 11585, data[1], 1)

	log := out.String()
	assert.NotContains(t, log, "Sequencing", "tracks were already sequenced")
	assert.Contains(t, log, "[2/3] Rendering tracks...")
	assert.Contains(t, log, "[3/3] Mixing...")
	assert.Contains(t, log, "Warning: No instruments defined for Daouli, skipping track!")
	assert.NotContains(t, log, "No instruments defined for Conductor")
	assert.Contains(t, log, "\n      Warning: Missing bank value for Broken, skipping track!\n")
	assert.NotContains(t, log, "layer 0")
}

func TestRenderTracks_NoMusic(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out)

	err := r.RenderTracks(context.Background(), loadConfig(t), fakeSoundFont{},
		[]sequencer.PlayerTrack{{Name: "Daouli", HasName: true}}, nopSeeker{})
	assert.ErrorIs(t, err, ErrNoMusic)
}

func TestRenderTracks_SynthError(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out)
	boom := errors.New("boom")

	err := r.RenderTracks(context.Background(), loadConfig(t), fakeSoundFont{err: boom},
		[]sequencer.PlayerTrack{{Name: "Lyra", HasName: true, Length: time.Second}}, nopSeeker{})
	assert.ErrorIs(t, err, boom)
}

func TestRenderTracks_Canceled(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := r.RenderTracks(ctx, loadConfig(t), fakeSoundFont{},
		[]sequencer.PlayerTrack{{Name: "Lyra", HasName: true, Length: time.Second}}, nopSeeker{})
	assert.ErrorIs(t, err, context.Canceled)
}

func writeSMF(t *testing.T) []byte {
	t.Helper()

	var conductor smf.Track
	conductor.Add(0, smf.MetaTempo(120))
	conductor.Close(0)

	var lyra smf.Track
	lyra.Add(0, smf.MetaTrackSequenceName("Lyra"))
	lyra.Add(0, midi.NoteOn(0, 60, 100))
	lyra.Add(96, midi.NoteOff(0, 60))
	lyra.Close(0)

	s := smf.New()
	s.TimeFormat = smf.MetricTicks(480)
	require.NoError(t, s.Add(conductor))
	require.NoError(t, s.Add(lyra))

	var buf bytes.Buffer
	_, err := s.WriteTo(&buf)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRender(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out)

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	require.NoError(t, err)
	err = r.Render(context.Background(), loadConfig(t), fakeSoundFont{}, bytes.NewReader(writeSMF(t)), f)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, data := decodeWAV(t, path)
	// 96 ticks at 120 bpm is 100ms, plus 100ms padding.
	require.Len(t, data, 2*256)
	assert.InDelta(t, 11585, data[0], 1)
	// The note is released after 100ms, so the tail is silent.
	assert.Zero(t, data[len(data)-1])

	assert.Contains(t, out.String(), "[1/3] Sequencing MIDI file...")
}

func TestRender_InvalidMIDI(t *testing.T) {
	var out bytes.Buffer
	r := newTestRenderer(t, &out)

	err := r.Render(context.Background(), loadConfig(t), fakeSoundFont{}, strings.NewReader("not midi"), nopSeeker{})
	assert.Error(t, err)
}

func TestRenderFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "aegean.toml")
	midiPath := filepath.Join(dir, "song.mid")
	wavPath := filepath.Join(dir, "song.wav")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o600))
	require.NoError(t, os.WriteFile(midiPath, writeSMF(t), 0o600))

	var out bytes.Buffer
	r := newTestRenderer(t, &out)
	r.render.RelativeSoundFont = true

	var opened string
	r.openSoundFont = func(path string) (SoundFont, error) {
		opened = path
		return fakeSoundFont{}, nil
	}

	require.NoError(t, r.RenderFile(context.Background(), configPath, midiPath, wavPath))
	assert.Equal(t, filepath.Join(dir, "bank.sf2"), opened)

	_, data := decodeWAV(t, wavPath)
	assert.Len(t, data, 2*256)
}

func TestRenderFile_Errors(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "gm.toml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfig), 0o600))

	var out bytes.Buffer
	r := newTestRenderer(t, &out)
	r.openSoundFont = func(string) (SoundFont, error) { return fakeSoundFont{}, nil }

	err := r.RenderFile(context.Background(), filepath.Join(dir, "missing.toml"), "x.mid", "x.wav")
	assert.ErrorContains(t, err, "Reading configuration file")

	err = r.RenderFile(context.Background(), configPath, filepath.Join(dir, "missing.mid"), "x.wav")
	assert.ErrorContains(t, err, "Reading MIDI file")

	garbage := filepath.Join(dir, "garbage.mid")
	require.NoError(t, os.WriteFile(garbage, []byte("garbage"), 0o600))
	err = r.RenderFile(context.Background(), configPath, garbage, "x.wav")
	assert.ErrorContains(t, err, "Loading MIDI file")
}

// nopSeeker discards writes.
type nopSeeker struct{}

func (nopSeeker) Write(p []byte) (int, error) { return len(p), nil }
func (nopSeeker) Seek(offset int64, whence int) (int64, error) { return 0, nil }
