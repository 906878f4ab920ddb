package recorder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/leandrodaf/midisynth/internal/sequencer"
	"github.com/leandrodaf/midisynth/sdk/contracts"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const base = uint64(1_700_000_000_000_000_000)

func TestRecord_ClosedChannel(t *testing.T) {
	events := make(chan contracts.MIDI, 8)
	events <- contracts.MIDI{Timestamp: base, Command: 0xB0, Note: 64, Velocity: 127} // sustain, dropped
	events <- contracts.MIDI{Timestamp: base + 1_000_000, Command: 0x90, Note: 60, Velocity: 100}
	events <- contracts.MIDI{Timestamp: base + 501_000_000, Command: 0x91, Note: 64, Velocity: 80}
	events <- contracts.MIDI{Timestamp: base + 751_000_000, Command: 0x90, Note: 60, Velocity: 0}
	events <- contracts.MIDI{Timestamp: base + 1_001_000_000, Command: 0x81, Note: 64, Velocity: 30}
	close(events)

	track := Record(context.Background(), "Live", events, nil)

	assert.Equal(t, "Live", track.Name)
	assert.True(t, track.HasName)
	assert.Equal(t, []sequencer.PlayerEvent{
		{Time: 0, Key: 60, Velocity: 100},
		{Time: 500 * time.Millisecond, Key: 64, Velocity: 80},
		{Time: 750 * time.Millisecond, Key: 60, Off: true},
		{Time: time.Second, Key: 64, Off: true},
	}, track.Events)
	assert.Equal(t, time.Second, track.Length)
}

func TestRecord_OutOfOrderTimestampsAreMonotonic(t *testing.T) {
	events := make(chan contracts.MIDI, 2)
	events <- contracts.MIDI{Timestamp: base + 10_000_000, Command: 0x90, Note: 60, Velocity: 1}
	events <- contracts.MIDI{Timestamp: base + 5_000_000, Command: 0x80, Note: 60}
	close(events)

	track := Record(context.Background(), "", events, nil)
	require.Len(t, track.Events, 2)
	assert.Equal(t, time.Duration(0), track.Events[1].Time)
	assert.False(t, track.HasName)
}

func TestRecord_StopsOnContext(t *testing.T) {
	events := make(chan contracts.MIDI)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan sequencer.PlayerTrack)
	go func() {
		done <- Record(ctx, "Live", events, nil)
	}()

	events <- contracts.MIDI{Timestamp: base, Command: 0x90, Note: 60, Velocity: 1}
	cancel()

	select {
	case track := <-done:
		assert.Len(t, track.Events, 1)
	case <-time.After(5 * time.Second):
		t.Fatal("Record did not return after cancel")
	}
}
