// Package smfin reads Standard MIDI Files into sequencer tracks.
package smfin

import (
	"fmt"
	"io"
	"math"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/leandrodaf/midisynth/internal/sequencer"
)

const (
	metaStatus     = 0xFF
	metaEndOfTrack = 0x2F
)

// File is a decoded MIDI file.
type File struct {
	Timing sequencer.Timing
	Tracks []sequencer.Track
}

// Decode parses an SMF from r.
func Decode(r io.Reader) (*File, error) {
	s, err := smf.ReadFrom(r)
	if err != nil {
		return nil, err
	}

	f := &File{Tracks: make([]sequencer.Track, 0, len(s.Tracks))}

	switch tf := s.TimeFormat.(type) {
	case smf.MetricTicks:
		f.Timing.TicksPerBeat = tf.Resolution()
	case smf.TimeCode:
		f.Timing.FramesPerSecond = tf.FramesPerSecond
		f.Timing.SubFrames = tf.SubFrames
	default:
		return nil, fmt.Errorf("%w: %v", sequencer.ErrUnsupportedTiming, s.TimeFormat)
	}

	for _, tr := range s.Tracks {
		events := make(sequencer.Track, 0, len(tr))
		for _, ev := range tr {
			events = append(events, convert(ev))
		}
		f.Tracks = append(f.Tracks, events)
	}
	return f, nil
}

func convert(ev smf.Event) sequencer.Event {
	out := sequencer.Event{Delta: ev.Delta}

	var (
		channel, key, velocity uint8
		bpm                    float64
		name                   string
	)
	msg := ev.Message
	switch {
	case midi.Message(msg).GetNoteOn(&channel, &key, &velocity):
		out.Kind = sequencer.NoteOn
		out.Key, out.Velocity = key, velocity
	case midi.Message(msg).GetNoteOff(&channel, &key, &velocity):
		out.Kind = sequencer.NoteOff
		out.Key = key
	case msg.GetMetaTempo(&bpm):
		if bpm > 0 {
			out.Kind = sequencer.Tempo
			out.Tempo = uint32(math.Round(60_000_000 / bpm))
		}
	case msg.GetMetaTrackName(&name):
		out.Kind = sequencer.TrackName
		out.Name = []byte(name)
	case len(msg) >= 2 && msg[0] == metaStatus && msg[1] == metaEndOfTrack:
		out.Kind = sequencer.EndOfTrack
	}
	return out
}
