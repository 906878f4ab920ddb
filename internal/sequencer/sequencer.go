// Package sequencer merges the tracks of a Standard MIDI File in time order
// and converts tick positions into absolute playback times.
package sequencer

import (
	"errors"
	"math"
	"time"
	"unicode/utf8"
)

// DefaultTempo is the tempo in microseconds per quarter note assumed until
// the first tempo event.
const DefaultTempo = 500_000

// ErrUnsupportedTiming is returned for a Timing with no usable resolution.
var ErrUnsupportedTiming = errors.New("unsupported MIDI timing")

// EventKind identifies the decoded events the sequencer cares about.
type EventKind uint8

const (
	Other      EventKind = iota // ignored by the sequencer
	NoteOn                      // key and velocity set; velocity 0 releases the key
	NoteOff                     // key set
	Tempo                       // Tempo set
	TrackName                   // Name set
	EndOfTrack                  // marks the track length
)

// Event is a track event with its delta time in ticks.
type Event struct {
	Delta    uint32
	Kind     EventKind
	Tempo    uint32 // microseconds per quarter note, for Tempo events
	Name     []byte // raw track name, for TrackName events
	Key      uint8
	Velocity uint8
}

// Track is the event list of one SMF track.
type Track []Event

// Timing describes how ticks map to time. Exactly one of TicksPerBeat or
// FramesPerSecond*SubFrames is used.
type Timing struct {
	TicksPerBeat    uint16
	FramesPerSecond uint8
	SubFrames       uint8
}

// Metrical reports whether the timing is tempo based.
func (t Timing) Metrical() bool {
	return t.TicksPerBeat > 0
}

// PlayerEvent is a note event at an absolute time.
type PlayerEvent struct {
	Time     time.Duration
	Key      uint8
	Velocity uint8
	Off      bool
}

// PlayerTrack is the sequenced content of one track.
type PlayerTrack struct {
	Name    string
	HasName bool
	Length  time.Duration
	Events  []PlayerEvent
}

// Progress receives the event count before sequencing and one increment per
// processed event.
type Progress interface {
	SetTotal(total int64)
	Increment()
}

type cursor struct {
	events Track
	pos    int
	ticks  uint64
	done   bool
}

func newCursor(events Track) *cursor {
	c := &cursor{events: events}
	c.load()
	return c
}

func (c *cursor) load() {
	if c.pos >= len(c.events) {
		c.done = true
		return
	}
	c.ticks += uint64(c.events[c.pos].Delta)
}

func (c *cursor) advance() {
	c.pos++
	c.load()
}

// Sequencer yields the events of several tracks in global tick order.
type Sequencer struct {
	cursors []*cursor
}

// New creates a Sequencer over tracks.
func New(tracks []Track) *Sequencer {
	s := &Sequencer{cursors: make([]*cursor, len(tracks))}
	for i, t := range tracks {
		s.cursors[i] = newCursor(t)
	}
	return s
}

// Count returns the total number of events in all tracks.
func (s *Sequencer) Count() int {
	n := 0
	for _, c := range s.cursors {
		n += len(c.events)
	}
	return n
}

// Next returns the pending event with the smallest absolute tick, along with
// its track index and tick. Ties go to the lowest track index. ok is false
// when every track is exhausted.
func (s *Sequencer) Next() (idx int, ticks uint64, ev Event, ok bool) {
	best := -1
	var lowest uint64 = math.MaxUint64
	for i, c := range s.cursors {
		if !c.done && c.ticks < lowest {
			best, lowest = i, c.ticks
		}
	}
	if best < 0 {
		return 0, 0, Event{}, false
	}

	c := s.cursors[best]
	ev = c.events[c.pos]
	c.advance()
	return best, lowest, ev, true
}

// PlayAll consumes the sequencer and returns one PlayerTrack per input track.
func (s *Sequencer) PlayAll(timing Timing, progress Progress) ([]PlayerTrack, error) {
	clock, err := newClock(timing)
	if err != nil {
		return nil, err
	}

	tracks := make([]PlayerTrack, len(s.cursors))
	sawEnd := make([]bool, len(s.cursors))

	if progress != nil {
		progress.SetTotal(int64(s.Count()))
	}

	for {
		idx, ticks, ev, ok := s.Next()
		if !ok {
			break
		}
		at := clock.at(ticks)
		tr := &tracks[idx]

		switch ev.Kind {
		case Tempo:
			clock.setTempo(ticks, ev.Tempo)
		case TrackName:
			if utf8.Valid(ev.Name) {
				tr.Name = string(ev.Name)
				tr.HasName = true
			}
		case EndOfTrack:
			tr.Length = at
			sawEnd[idx] = true
		case NoteOn:
			tr.Events = append(tr.Events, PlayerEvent{Time: at, Key: ev.Key, Velocity: ev.Velocity})
		case NoteOff:
			tr.Events = append(tr.Events, PlayerEvent{Time: at, Key: ev.Key, Off: true})
		}

		if !sawEnd[idx] && at > tr.Length {
			tr.Length = at
		}

		if progress != nil {
			progress.Increment()
		}
	}

	return tracks, nil
}

// clock converts absolute ticks to time, tracking tempo changes.
type clock struct {
	timing    Timing
	tempo     uint64
	baseTicks uint64
	baseTime  uint64 // microseconds
}

func newClock(timing Timing) (*clock, error) {
	if !timing.Metrical() && (timing.FramesPerSecond == 0 || timing.SubFrames == 0) {
		return nil, ErrUnsupportedTiming
	}
	return &clock{timing: timing, tempo: DefaultTempo}, nil
}

func (c *clock) micros(ticks uint64) uint64 {
	if !c.timing.Metrical() {
		perSecond := uint64(c.timing.FramesPerSecond) * uint64(c.timing.SubFrames)
		return ticks * 1_000_000 / perSecond
	}
	return c.baseTime + (ticks-c.baseTicks)*c.tempo/uint64(c.timing.TicksPerBeat)
}

func (c *clock) at(ticks uint64) time.Duration {
	return time.Duration(c.micros(ticks)) * time.Microsecond
}

func (c *clock) setTempo(ticks uint64, tempo uint32) {
	if !c.timing.Metrical() {
		return
	}
	c.baseTime = c.micros(ticks)
	c.baseTicks = ticks
	c.tempo = uint64(tempo)
}
