package midisynth

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/leandrodaf/midisynth/internal/midi/mididarwin"
	"github.com/leandrodaf/midisynth/internal/midi/midiwindows"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ErrUnsupportedOS is returned when live MIDI capture is not available on the current OS.
var ErrUnsupportedOS = errors.New("unsupported operating system")

// clientInitializers maps OS names to corresponding MIDI client initializers.
var clientInitializers = map[string]func(*contracts.ClientOptions) (contracts.ClientMIDI, error){
	"darwin":  mididarwin.NewMIDIClient,  // CoreMIDI
	"windows": midiwindows.NewMIDIClient, // WinMM
}

// NewMIDIClient creates a live capture client for the current operating system.
// A recorded performance is rendered with Renderer.RenderTracks.
func NewMIDIClient(opts ...contracts.Option) (contracts.ClientMIDI, error) {
	options, err := applyDefaultOptions(opts...)
	if err != nil {
		return nil, err
	}
	return newClient(runtime.GOOS, &options)
}

func newClient(goos string, opts *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	if initializer, exists := clientInitializers[goos]; exists {
		return initializer(opts)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOS, goos)
}
