//go:build !windows

package midiwindows

import (
	"errors"

	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// ErrUnavailable is returned by every operation of the placeholder client.
var ErrUnavailable = errors.New("WinMM MIDI is not available on this platform")

// NewMIDIClient fails on systems other than Windows.
func NewMIDIClient(options *contracts.ClientOptions) (contracts.ClientMIDI, error) {
	options.Logger.Debug("WinMM client requested on non-Windows system")
	return nil, ErrUnavailable
}
