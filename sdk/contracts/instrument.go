package contracts

// Instrument is one instrument layer assigned to a MIDI track.
type Instrument struct {
	Bank      uint8   // SoundFont bank number.
	Preset    uint8   // SoundFont preset (program) number.
	Transpose int8    // Semitones added to every note.
	Pan       float64 // Stereo position, -1 (left) .. 1 (right).
	Gain      float64 // Gain in dB.
}
