package synth

import (
	"fmt"
	"io"
	"os"

	"github.com/sinshu/go-meltysynth/meltysynth"
)

const (
	controlChange = 0xB0
	programChange = 0xC0
	bankSelect    = 0x00
)

// SoundFont is a loaded SF2 bank. It is read-only and may be shared by any
// number of synthesizers.
type SoundFont struct {
	sf *meltysynth.SoundFont
}

// LoadSoundFont parses an SF2 file from r.
func LoadSoundFont(r io.Reader) (*SoundFont, error) {
	sf, err := meltysynth.NewSoundFont(r)
	if err != nil {
		return nil, err
	}
	return &SoundFont{sf: sf}, nil
}

// OpenSoundFont loads the SF2 file at path.
func OpenSoundFont(path string) (*SoundFont, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("Opening soundfont file %s failed: %w", path, err)
	}
	defer f.Close()

	sf, err := LoadSoundFont(f)
	if err != nil {
		return nil, fmt.Errorf("Loading soundfont file %s failed: %w", path, err)
	}
	return sf, nil
}

// NewSynth creates a synthesizer over the soundfont at the given sample rate.
func (s *SoundFont) NewSynth(sampleRate int) (Synth, error) {
	settings := meltysynth.NewSynthesizerSettings(int32(sampleRate))
	ms, err := meltysynth.NewSynthesizer(s.sf, settings)
	if err != nil {
		return nil, err
	}
	return &melty{s: ms, blockSize: int(settings.BlockSize), sampleRate: int(settings.SampleRate)}, nil
}

// melty adapts meltysynth.Synthesizer to Synth. All notes play on channel 0.
type melty struct {
	s          *meltysynth.Synthesizer
	blockSize  int
	sampleRate int
}

func (m *melty) ProgramChange(bank, preset uint8) {
	// The synthesizer has no direct API for this, so use the MIDI messages.
	m.s.ProcessMidiMessage(0, controlChange, bankSelect, int32(bank))
	m.s.ProcessMidiMessage(0, programChange, int32(preset), 0)
}

func (m *melty) NoteOn(key, velocity uint8) {
	m.s.NoteOn(0, int32(key), int32(velocity))
}

func (m *melty) NoteOff(key uint8) {
	m.s.NoteOff(0, int32(key))
}

func (m *melty) Render(left, right []float32) {
	m.s.Render(left, right)
}

func (m *melty) BlockSize() int {
	return m.blockSize
}

func (m *melty) SampleRate() int {
	return m.sampleRate
}
