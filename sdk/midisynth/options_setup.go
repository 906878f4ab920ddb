package midisynth

import (
	"fmt"
	"os"
	"runtime"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/internal/wavfile"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// DefaultSampleRate is the output sample rate used when none is configured.
const DefaultSampleRate = 44100

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
//
// opts ...contracts.Option: A variadic list of option functions that can modify ClientOptions.
//
// Returns:
//   - contracts.ClientOptions: A structure containing the finalized client options with defaults applied.
//   - error: An error if the log file could not be opened.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.LogLevel == 0 {
		options.LogLevel = contracts.InfoLevel
	}
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return contracts.ClientOptions{}, fmt.Errorf("failed to open log file: %w", err)
		}
	}

	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: "midisynth"}
	}

	render := contracts.RenderConfig{}
	if options.Render != nil {
		render = *options.Render
	}
	if render.SampleRate == 0 {
		render.SampleRate = DefaultSampleRate
	}
	if render.Padding == 0 && !render.PaddingSet {
		render.Padding = synth.DefaultPadding
	}
	if render.BitDepth == 0 {
		render.BitDepth = wavfile.DefaultBitDepth
	}
	if render.Workers <= 0 {
		render.Workers = runtime.NumCPU()
	}
	options.Render = &render

	if options.Progress == nil && !options.QuietProgress {
		options.Progress = os.Stdout
	}

	options.Logger.SetLevel(options.LogLevel)
	return *options, nil
}
