package midisynth

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/internal/settings"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func TestApplyDefaultOptions(t *testing.T) {
	options, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)

	assert.Equal(t, contracts.InfoLevel, options.LogLevel)
	assert.Equal(t, "midisynth", options.CoreMIDIConfig.ClientName)
	assert.Equal(t, os.Stdout, options.Progress)
	assert.Equal(t, contracts.RenderConfig{
		SampleRate: 44100,
		Padding:    1500 * time.Millisecond,
		BitDepth:   16,
		Workers:    runtime.NumCPU(),
	}, *options.Render)
}

func TestApplyDefaultOptions_KeepsExplicitValues(t *testing.T) {
	options, err := applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithLogLevel(contracts.DebugLevel),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "studio"}),
		contracts.WithRenderConfig(contracts.RenderConfig{SampleRate: 48000, BitDepth: 24, IgnoreNoteOff: true}),
		contracts.WithoutProgress(),
	)
	require.NoError(t, err)

	assert.Equal(t, contracts.DebugLevel, options.LogLevel)
	assert.Equal(t, "studio", options.CoreMIDIConfig.ClientName)
	assert.Nil(t, options.Progress)
	assert.Equal(t, 48000, options.Render.SampleRate)
	assert.Equal(t, 24, options.Render.BitDepth)
	assert.True(t, options.Render.IgnoreNoteOff)
	assert.Equal(t, 1500*time.Millisecond, options.Render.Padding)
}

func TestApplyDefaultOptions_ZeroPaddingFromSettings(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	fs := pflag.NewFlagSet("render", pflag.ContinueOnError)
	settings.RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--padding", "0s"}))

	s, err := settings.Load("", fs)
	require.NoError(t, err)
	require.Zero(t, s.Padding)

	options, err := applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithRenderConfig(s.RenderConfig()),
	)
	require.NoError(t, err)
	assert.Zero(t, options.Render.Padding)
}

func TestApplyDefaultOptions_ExplicitZeroPadding(t *testing.T) {
	options, err := applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithRenderConfig(contracts.RenderConfig{PaddingSet: true}),
	)
	require.NoError(t, err)
	assert.Zero(t, options.Render.Padding)
	assert.Equal(t, DefaultSampleRate, options.Render.SampleRate)
}

func TestApplyDefaultOptions_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "render.log")
	log := logger.NewZapLogger()

	_, err := applyDefaultOptions(contracts.WithLogger(log), contracts.WithLogFile(path))
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	_, err = applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithLogFile(filepath.Join(t.TempDir(), "missing", "render.log")),
	)
	assert.Error(t, err)
}

func TestNewClient_UnsupportedOS(t *testing.T) {
	options, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	require.NoError(t, err)

	_, err = newClient("plan9", &options)
	assert.ErrorIs(t, err, ErrUnsupportedOS)
	assert.ErrorContains(t, err, "plan9")
}
