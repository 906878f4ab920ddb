package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/midisynth/sdk/midisynth"
)

func devicesCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List MIDI input devices available for capture",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, log, err := setup(cmd, opts)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			client, err := midisynth.NewMIDIClient(sdkOptions(cmd, s, log)...)
			if err != nil {
				return err
			}
			defer func() { _ = client.Stop() }()

			devices, err := client.ListDevices()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for i, d := range devices {
				fmt.Fprintf(out, "%3d  %s", i, d.Name)
				if d.Manufacturer != "" {
					fmt.Fprintf(out, " (%s)", d.Manufacturer)
				}
				fmt.Fprintln(out)
			}
			return nil
		},
	}
}
