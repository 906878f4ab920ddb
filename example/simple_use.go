package main

import (
	"context"
	"fmt"
	"os"

	"github.com/leandrodaf/midisynth/internal/logger"
	"github.com/leandrodaf/midisynth/sdk/contracts"
	"github.com/leandrodaf/midisynth/sdk/midisynth"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: simple_use CONFIG MIDIFILE WAVFILE")
		os.Exit(2)
	}

	log := logger.NewConsoleLogger()

	renderer, err := midisynth.NewRenderer(
		contracts.WithLogger(log),
		contracts.WithLogLevel(contracts.InfoLevel),
		contracts.WithRenderConfig(contracts.RenderConfig{
			SampleRate: 48000,
			BitDepth:   24,
		}),
	)
	if err != nil {
		log.Error("Failed to initialize renderer", log.Field().Error("error", err))
		os.Exit(1)
	}

	if err := renderer.RenderFile(context.Background(), os.Args[1], os.Args[2], os.Args[3]); err != nil {
		log.Error("Render failed", log.Field().Error("error", err))
		os.Exit(1)
	}

	devices, err := midisynth.NewMIDIClient(contracts.WithLogger(log))
	if err != nil {
		log.Info("Live capture is not available here", log.Field().Error("error", err))
		return
	}
	defer devices.Stop()

	list, err := devices.ListDevices()
	if err != nil {
		log.Info("No MIDI devices found", log.Field().Error("error", err))
		return
	}
	fmt.Println("MIDI devices available for \"midisynth capture\":", list)
}
