package contracts

// MIDI represents a captured MIDI event with a timestamp, command, note, and velocity.
type MIDI struct {
	Timestamp uint64 // Timestamp is the wall-clock time of the event in nanoseconds.
	Command   byte   // Command is the status byte (command in the high nibble, channel in the low nibble).
	Note      byte   // Note represents the MIDI note number (0-127).
	Velocity  byte   // Velocity indicates the strength of the note being played (0-127).
}

// Kind returns the command with the channel nibble cleared.
func (m MIDI) Kind() MIDICommand {
	return MIDICommand(m.Command & 0xF0)
}

// Channel returns the zero-based MIDI channel of the event.
func (m MIDI) Channel() uint8 {
	return m.Command & 0x0F
}

// IsNoteOff reports whether the event releases a note, including Note On with zero velocity.
func (m MIDI) IsNoteOff() bool {
	return m.Kind() == NoteOff || (m.Kind() == NoteOn && m.Velocity == 0)
}

// ClientMIDI defines an interface for live MIDI input operations.
type ClientMIDI interface {
	Stop() error                         // Stops the MIDI client and releases resources.
	ListDevices() ([]DeviceInfo, error)  // Lists all available MIDI devices.
	SelectDevice(deviceID int) error     // Selects a MIDI device by its ID for communication.
	StartCapture(eventChannel chan MIDI) // Starts capturing MIDI events and sends them to the specified channel.
}
