package main

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/midisynth/sdk/midisynth"
)

func renderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render -c CONFIG MIDIFILE WAVFILE",
		Short: "Render a MIDI file to WAV",
		Long: `Render a Standard MIDI File to a stereo WAV file.

Every named track with instruments in the configuration is rendered once per
instrument layer; the layers are mixed with their pan and gain settings.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd, opts, args[0], args[1])
		},
	}
}

func runRender(cmd *cobra.Command, opts *rootOptions, midiPath, wavPath string) error {
	if opts.configPath == "" {
		return errConfigRequired
	}

	s, log, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	renderer, err := midisynth.NewRenderer(sdkOptions(cmd, s, log)...)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	return renderer.RenderFile(ctx, opts.configPath, midiPath, wavPath)
}
