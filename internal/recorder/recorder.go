// Package recorder turns a live stream of captured MIDI events into a
// sequenced track that can be rendered like a track from a file.
package recorder

import (
	"context"
	"time"

	"github.com/leandrodaf/midisynth/internal/sequencer"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

// Record consumes events until ctx is done or events is closed and returns
// them as a track named name. Times are relative to the first note event.
// Only Note On and Note Off commands are kept.
func Record(ctx context.Context, name string, events <-chan contracts.MIDI, log contracts.Logger) sequencer.PlayerTrack {
	track := sequencer.PlayerTrack{Name: name, HasName: name != ""}

	var (
		start   uint64
		started bool
	)
	for {
		select {
		case <-ctx.Done():
			return track
		case ev, ok := <-events:
			if !ok {
				return track
			}
			if ev.Kind() != contracts.NoteOn && ev.Kind() != contracts.NoteOff {
				continue
			}
			if !started {
				start, started = ev.Timestamp, true
			}

			var at time.Duration
			if ev.Timestamp > start {
				// Keep microsecond resolution like sequenced tracks.
				at = time.Duration((ev.Timestamp-start)/1000) * time.Microsecond
			}

			pe := sequencer.PlayerEvent{Time: at, Key: ev.Note & 0x7F}
			if ev.IsNoteOff() {
				pe.Off = true
			} else {
				pe.Velocity = ev.Velocity & 0x7F
			}
			// Events may arrive slightly out of order from the driver.
			if n := len(track.Events); n > 0 && track.Events[n-1].Time > at {
				pe.Time = track.Events[n-1].Time
			}
			track.Events = append(track.Events, pe)
			track.Length = pe.Time

			if log != nil {
				log.Debug("recorded event",
					log.Field().Uint8("key", pe.Key),
					log.Field().Bool("off", pe.Off),
					log.Field().Duration("at", pe.Time))
			}
		}
	}
}
