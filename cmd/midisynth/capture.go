package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/midisynth/internal/config"
	"github.com/leandrodaf/midisynth/internal/recorder"
	"github.com/leandrodaf/midisynth/internal/sequencer"
	"github.com/leandrodaf/midisynth/internal/synth"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/leandrodaf/midisynth/sdk/midisynth"
)

// captureBuffer is the capacity of the channel between the driver callback and the recorder.
const captureBuffer = 1024

var errNothingRecorded = errors.New("no notes were recorded")

type captureOptions struct {
	device int
	track  string
}

func captureCmd(opts *rootOptions) *cobra.Command {
	co := &captureOptions{}

	cmd := &cobra.Command{
		Use:   "capture -c CONFIG [--device N] [--track NAME] WAVFILE",
		Short: "Record from a MIDI input device and render the performance",
		Long: `Record note events from a MIDI input device until interrupted (Ctrl+C),
then render the performance with the instruments configured for --track.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCapture(cmd, opts, co, args[0])
		},
	}

	cmd.Flags().IntVar(&co.device, "device", 0, "index of the input device (see \"midisynth devices\")")
	cmd.Flags().StringVar(&co.track, "track", "Live", "configuration track name whose instruments play the recording")

	return cmd
}

func runCapture(cmd *cobra.Command, opts *rootOptions, co *captureOptions, wavPath string) error {
	if opts.configPath == "" {
		return errConfigRequired
	}

	s, log, err := setup(cmd, opts)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.LoadFile(opts.configPath)
	if err != nil {
		return fmt.Errorf("Reading configuration file %s failed: %w", opts.configPath, err)
	}
	if _, ok, _ := cfg.Layers(co.track); !ok {
		return fmt.Errorf("no instruments defined for %s in %s", co.track, opts.configPath)
	}

	base := ""
	if s.RelativeSoundFont {
		base = filepath.Dir(opts.configPath)
	}
	sf, err := synth.OpenSoundFont(cfg.ResolveSoundFont(base))
	if err != nil {
		return err
	}

	sdkOpts := sdkOptions(cmd, s, log)
	client, err := midisynth.NewMIDIClient(append(sdkOpts, contracts.WithMIDIEventFilter(contracts.MIDIEventFilter{
		Commands: []contracts.MIDICommand{contracts.NoteOn, contracts.NoteOff},
	}))...)
	if err != nil {
		return err
	}
	if err := client.SelectDevice(co.device); err != nil {
		_ = client.Stop()
		return err
	}

	events := make(chan contracts.MIDI, captureBuffer)
	client.StartCapture(events)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	fmt.Fprintln(cmd.OutOrStdout(), "Recording... press Ctrl+C to stop.")
	track := recorder.Record(ctx, co.track, events, log)
	stop()

	if err := client.Stop(); err != nil {
		log.Warn("failed to stop MIDI capture", log.Field().Error("error", err))
	}
	if len(track.Events) == 0 {
		return errNothingRecorded
	}
	log.Info("recording finished",
		log.Field().Int("events", len(track.Events)),
		log.Field().Duration("length", track.Length))

	renderer, err := midisynth.NewRenderer(sdkOpts...)
	if err != nil {
		return err
	}

	f, err := os.Create(wavPath)
	if err != nil {
		return fmt.Errorf("Writing output WAV file %s failed: %w", wavPath, err)
	}
	defer f.Close()

	if err := renderer.RenderTracks(cmd.Context(), cfg, sf, []sequencer.PlayerTrack{track}, f); err != nil {
		return err
	}
	return f.Close()
}
