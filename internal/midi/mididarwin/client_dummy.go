//go:build !darwin

package mididarwin

import (
	"errors"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the placeholder client.
var ErrUnavailable = errors.New("CoreMIDI is not available on this platform")

// NewMIDIClient fails on systems other than macOS.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("CoreMIDI client requested on non-macOS system")
	return nil, ErrUnavailable
}
