package contracts

import (
	"io"
	"time"
)

// MIDICommand represents the types of MIDI commands for event filtering.
type MIDICommand byte

const (
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
	// ProgramChange is the MIDI command for a Program Change event (0xC0).
	ProgramChange MIDICommand = 0xC0
)

// MIDIEventFilter allows users to specify which MIDI commands to capture.
type MIDIEventFilter struct {
	Commands []MIDICommand // List of MIDI commands to filter.
}

// Allows reports whether the status byte passes the filter. The channel nibble is ignored.
func (f *MIDIEventFilter) Allows(status byte) bool {
	if f == nil {
		return true
	}
	for _, c := range f.Commands {
		if status&0xF0 == byte(c) {
			return true
		}
	}
	return false
}

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// RenderConfig holds the synthesis and output parameters of a render.
type RenderConfig struct {
	SampleRate    int           // Output sample rate in Hz.
	Padding       time.Duration // Silence rendered after the end of each track so notes can decay.
	PaddingSet    bool          // Padding is explicit, so zero means no padding instead of the default.
	BitDepth      int           // PCM bit depth of the WAV output (16, 24 or 32).
	Workers       int           // Maximum number of tracks rendered concurrently.
	IgnoreNoteOff bool          // Drop Note Off events so notes only stop by decaying.

	// RelativeSoundFont resolves a relative soundfont path against the
	// directory of the configuration file instead of the working directory.
	RelativeSoundFont bool
}

// ClientOptions defines the configuration options for the renderer and the MIDI client.
type ClientOptions struct {
	Logger          Logger           // Logger for logging events and errors.
	LogLevel        LogLevel         // Level of logging to use.
	LogFilePath     string           // File path for logging if file logging is enabled.
	MIDIEventFilter *MIDIEventFilter // Optional filter for MIDI events to capture.
	CoreMIDIConfig  *CoreMIDIConfig  // Configuration specific to CoreMIDI.
	Render          *RenderConfig    // Synthesis and output parameters.
	Progress        io.Writer        // Destination of progress bars and warnings; nil means stdout.
	QuietProgress   bool             // Disable progress output entirely.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile sends log output to the given file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithMIDIEventFilter sets the MIDI event filter for the MIDI client.
func WithMIDIEventFilter(filter MIDIEventFilter) Option {
	return func(opts *ClientOptions) {
		opts.MIDIEventFilter = &filter
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI client.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithRenderConfig sets the synthesis parameters. Zero fields are replaced by defaults.
func WithRenderConfig(config RenderConfig) Option {
	return func(opts *ClientOptions) {
		opts.Render = &config
	}
}

// WithProgressOutput sets where progress bars and warnings are written.
func WithProgressOutput(w io.Writer) Option {
	return func(opts *ClientOptions) {
		opts.Progress = w
	}
}

// WithoutProgress disables progress output.
func WithoutProgress() Option {
	return func(opts *ClientOptions) {
		opts.QuietProgress = true
	}
}
