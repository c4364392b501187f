package process

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/param"
	"github.com/justyntemme/plugcore/pkg/midi"
)

const (
	paramGain uint32 = iota + 1
	paramPan
)

type renderCall struct {
	start, length int
	gain          float64
}

type noteRecorder struct {
	events []Event
}

func (n *noteRecorder) HandleNote(ev Event) {
	n.events = append(n.events, ev)
}

func newTestScheduler(t *testing.T) (*Scheduler, *channel.Channel, *noteRecorder) {
	t.Helper()
	cat, err := param.NewCatalog(
		param.New(paramGain, "Gain").Default(1).Build(),
		param.New(paramPan, "Pan").Range(-1, 1).Default(0).Build(),
	)
	require.NoError(t, err)
	ch := channel.New(cat, 16)
	notes := &noteRecorder{}
	return NewScheduler(ch, notes), ch, notes
}

func TestGainChangeMidBlock(t *testing.T) {
	s, ch, _ := newTestScheduler(t)

	var calls []renderCall
	render := func(start, length int) {
		calls = append(calls, renderCall{start, length, ch.CurrentValue(paramGain)})
	}

	events := []Event{{Kind: ParamValue, ParamID: paramGain, Value: 0.5, Offset: 200}}
	require.NoError(t, s.ProcessBlock(512, events, render))

	require.Len(t, calls, 2)
	assert.Equal(t, renderCall{0, 200, 1.0}, calls[0])
	assert.Equal(t, renderCall{200, 312, 0.5}, calls[1])
}

func TestRenderCallsPartitionBlock(t *testing.T) {
	offsets := [][]int32{
		{0},
		{0, 1, 2},
		{17, 64, 500},
		{511},
		{0, 100, 200, 300, 400, 511},
	}

	for _, offs := range offsets {
		s, ch, _ := newTestScheduler(t)
		events := make([]Event, len(offs))
		for i, o := range offs {
			events[i] = Event{Kind: ParamValue, ParamID: paramPan, Value: float64(i+1) / 10, Offset: o}
		}

		var calls []renderCall
		require.NoError(t, s.ProcessBlock(512, events, func(start, length int) {
			calls = append(calls, renderCall{start, length, ch.CurrentValue(paramPan)})
		}))

		require.Len(t, calls, len(offs)+1, "offsets %v", offs)
		cursor := 0
		for i, c := range calls {
			assert.Equal(t, cursor, c.start, "offsets %v call %d", offs, i)
			cursor += c.length
			if i > 0 {
				// Event i-1 sits at the start of range i and is already applied.
				assert.InDelta(t, float64(i)/10, c.gain, 1e-12)
			}
		}
		assert.Equal(t, 512, cursor)
	}
}

func TestEventsAtSameOffsetApplyInListOrder(t *testing.T) {
	s, ch, _ := newTestScheduler(t)
	events := []Event{
		{Kind: ParamValue, ParamID: paramGain, Value: 0.1, Offset: 10},
		{Kind: ParamValue, ParamID: paramGain, Value: 0.9, Offset: 10},
		{Kind: ParamValue, ParamID: paramGain, Value: 0.3, Offset: 10},
	}
	var calls []renderCall
	require.NoError(t, s.ProcessBlock(64, events, func(start, length int) {
		calls = append(calls, renderCall{start, length, ch.CurrentValue(paramGain)})
	}))

	require.Len(t, calls, 2)
	assert.Equal(t, renderCall{10, 54, 0.3}, calls[1])
}

func TestNoteEventsForwardedAtOffset(t *testing.T) {
	s, ch, notes := newTestScheduler(t)
	note := midi.HostNote(0, 0, 60)
	events := []Event{
		{Kind: NoteOn, Note: note, Value: 0.8, Offset: 32},
		{Kind: ParamValue, ParamID: paramGain, Value: 0.2, Offset: 32},
		{Kind: NoteOff, Note: note, Offset: 96},
	}

	var seenAt []int
	require.NoError(t, s.ProcessBlock(128, events, func(start, length int) {
		seenAt = append(seenAt, len(notes.events))
	}))

	assert.Equal(t, []int{0, 1, 2}, seenAt)
	assert.Equal(t, 0.2, ch.CurrentValue(paramGain))
	require.Len(t, notes.events, 2)
	assert.Equal(t, NoteOn, notes.events[0].Kind)
	assert.Equal(t, NoteOff, notes.events[1].Kind)
}

func TestZeroEventsSingleRenderWithoutAllocating(t *testing.T) {
	s, _, _ := newTestScheduler(t)
	calls := 0
	var lastStart, lastLen int
	render := func(start, length int) {
		calls++
		lastStart, lastLen = start, length
	}

	require.NoError(t, s.ProcessBlock(256, nil, render))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, lastStart)
	assert.Equal(t, 256, lastLen)

	allocs := testing.AllocsPerRun(100, func() {
		_ = s.ProcessBlock(256, nil, render)
	})
	assert.Zero(t, allocs)
}

func TestMalformedBlocksAreRejectedBeforeApplying(t *testing.T) {
	tests := []struct {
		name   string
		events []Event
		reason FaultReason
		index  int
	}{
		{
			name: "descending offsets",
			events: []Event{
				{Kind: ParamValue, ParamID: paramGain, Value: 0.1, Offset: 100},
				{Kind: ParamValue, ParamID: paramGain, Value: 0.2, Offset: 50},
			},
			reason: FaultOutOfOrder,
			index:  1,
		},
		{
			name: "offset equals block length",
			events: []Event{
				{Kind: ParamValue, ParamID: paramGain, Value: 0.1, Offset: 10},
				{Kind: ParamValue, ParamID: paramGain, Value: 0.2, Offset: 128},
			},
			reason: FaultOffsetOutOfRange,
			index:  1,
		},
		{
			name:   "negative offset",
			events: []Event{{Kind: ParamValue, ParamID: paramGain, Value: 0.1, Offset: -1}},
			reason: FaultOutOfOrder,
			index:  0,
		},
		{
			name: "unknown parameter",
			events: []Event{
				{Kind: ParamValue, ParamID: paramGain, Value: 0.1, Offset: 0},
				{Kind: ParamValue, ParamID: 404, Value: 0.2, Offset: 5},
			},
			reason: FaultUnknownParam,
			index:  1,
		},
		{
			name:   "bad key",
			events: []Event{{Kind: NoteOn, Note: midi.HostNote(0, 0, 200), Offset: 5}},
			reason: FaultBadNote,
			index:  0,
		},
		{
			name:   "unknown kind",
			events: []Event{{Kind: EventKind(99), Offset: 5}},
			reason: FaultUnknownKind,
			index:  0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, ch, notes := newTestScheduler(t)
			rendered := 0
			err := s.ProcessBlock(128, tt.events, func(start, length int) { rendered++ })

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedBlock))
			var be *BlockError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.reason, be.Reason)
			assert.Equal(t, tt.index, be.Index)

			assert.Zero(t, rendered, "nothing is rendered for a rejected block")
			assert.Equal(t, 1.0, ch.CurrentValue(paramGain), "nothing is applied for a rejected block")
			assert.Empty(t, notes.events)
		})
	}
}

func TestModulationEventsReachTable(t *testing.T) {
	s, ch, _ := newTestScheduler(t)
	events := []Event{{Kind: ParamModulation, ParamID: paramPan, Value: -0.25, Offset: 0}}
	require.NoError(t, s.ProcessBlock(32, events, func(int, int) {}))
	assert.Equal(t, -0.25, ch.ModulationOffset(paramPan))
}
