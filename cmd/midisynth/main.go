// Package main provides the midisynth CLI entry point.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/internal/settings"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev" //nolint:gochecknoglobals // set by the linker

var errConfigRequired = errors.New("an instrument configuration is required (-c CONFIG)")

// rootOptions holds the flags shared by every command.
type rootOptions struct {
	configPath   string
	settingsPath string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		printError(os.Stderr, err)
		os.Exit(1)
	}
}

// printError writes err with a bold red "Error" label.
func printError(w io.Writer, err error) {
	fmt.Fprintf(w, "%s: %v\n", color.New(color.FgRed, color.Bold).Sprint("Error"), err)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "midisynth [-c CONFIG] [MIDIFILE WAVFILE]",
		Short: "Render MIDI files to WAV with SoundFont instruments",
		Long: `midisynth renders a Standard MIDI File to a stereo WAV file. Instruments come
from a SoundFont (.sf2); a TOML configuration assigns bank/preset layers to
MIDI tracks by track name.

Given MIDIFILE and WAVFILE, the root command behaves like "midisynth render".`,
		Args:          cobra.RangeArgs(0, 2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch len(args) {
			case 0:
				return cmd.Help()
			case 2:
				return runRender(cmd, opts, args[0], args[1])
			default:
				return fmt.Errorf("expected MIDIFILE and WAVFILE, got %d argument", len(args))
			}
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.configPath, "config", "c", "", "instrument configuration file (TOML)")
	flags.StringVar(&opts.settingsPath, "settings", "", "settings file (default is ./.midisynth.toml or $HOME/.midisynth.toml)")
	settings.RegisterFlags(flags)

	rootCmd.AddCommand(renderCmd(opts))
	rootCmd.AddCommand(captureCmd(opts))
	rootCmd.AddCommand(devicesCmd(opts))
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "midisynth %s\n", version)
		},
	}
}

// setup resolves the settings for cmd and builds the logger they describe.
func setup(cmd *cobra.Command, opts *rootOptions) (*settings.Settings, contracts.Logger, error) {
	s, err := settings.Load(opts.settingsPath, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	return s, logger.NewConsoleLogger(), nil
}

// sdkOptions translates the settings into SDK options.
func sdkOptions(cmd *cobra.Command, s *settings.Settings, log contracts.Logger) []contracts.Option {
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(s.Level()),
		contracts.WithRenderConfig(s.RenderConfig()),
		contracts.WithProgressOutput(cmd.OutOrStdout()),
	}
	if s.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(s.LogFile))
	}
	if !s.Progress {
		opts = append(opts, contracts.WithoutProgress())
	}
	return opts
}
