package channel

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plugcore/pkg/framework/param"
)

const (
	paramGain uint32 = iota + 1
	paramCutoff
	paramMode
	paramMeter
)

func testCatalog(t *testing.T) *param.Catalog {
	t.Helper()
	c, err := param.NewCatalog(
		param.New(paramGain, "Gain").Default(0.8).Modulatable().Build(),
		param.New(paramCutoff, "Cutoff").Range(20, 20000).Curve(param.LogCurve{}).Default(1000).Build(),
		param.New(paramMode, "Mode").List("A", "B", "C").Build(),
		param.New(paramMeter, "Meter").ReadOnly().Build(),
	)
	require.NoError(t, err)
	return c
}

func TestSendThenReceiveIsFIFO(t *testing.T) {
	ch := New(testCatalog(t), 16)

	for i := 0; i < 10; i++ {
		require.NoError(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: float64(i) / 10}))
	}

	var seen []float64
	n := ch.TryReceiveAll(func(ev ChangeEvent) {
		seen = append(seen, ev.Value)
		// The table is updated before the visitor runs.
		assert.Equal(t, ev.Value, ch.CurrentValue(paramGain))
	})

	assert.Equal(t, 10, n)
	require.Len(t, seen, 10)
	for i, v := range seen {
		assert.InDelta(t, float64(i)/10, v, 1e-12)
	}
	assert.Equal(t, 0, ch.TryReceiveAll(nil), "events are consumed at most once")
}

func TestCurrentValueReadsAppliedNotQueued(t *testing.T) {
	ch := New(testCatalog(t), 16)
	def := ch.CurrentValue(paramGain)

	require.True(t, ch.TrySend(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.1}))
	assert.Equal(t, def, ch.CurrentValue(paramGain), "queued change must not be visible yet")

	ch.TryReceiveAll(nil)
	assert.Equal(t, 0.1, ch.CurrentValue(paramGain))
}

func TestSetValueIsIdempotent(t *testing.T) {
	ch := New(testCatalog(t), 16)
	ev := ChangeEvent{Kind: SetValue, ParamID: paramCutoff, Value: 0.37}

	require.NoError(t, ch.Apply(ev))
	once := ch.CurrentValue(paramCutoff)
	require.NoError(t, ch.Apply(ev))
	assert.Equal(t, once, ch.CurrentValue(paramCutoff))
}

func TestFullControlQueueRejects(t *testing.T) {
	ch := New(testCatalog(t), 4)
	for i := 0; i < 4; i++ {
		require.NoError(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.5}))
	}

	err := ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.6})
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.False(t, ch.TrySend(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.6}))

	rejected, _ := ch.Stats()
	assert.Equal(t, uint64(2), rejected)
}

func TestFullTelemetryQueueDropsSilently(t *testing.T) {
	ch := New(testCatalog(t), 2)
	assert.True(t, ch.Notify(Telemetry{Kind: Meter, Value: 0.1}))
	assert.True(t, ch.Notify(Telemetry{Kind: Meter, Value: 0.2}))
	assert.False(t, ch.Notify(Telemetry{Kind: Meter, Value: 0.3}))

	_, dropped := ch.Stats()
	assert.Equal(t, uint64(1), dropped)

	var got []float64
	ch.Flush(func(tm Telemetry) { got = append(got, tm.Value) })
	assert.Equal(t, []float64{0.1, 0.2}, got)
}

func TestSendValidates(t *testing.T) {
	ch := New(testCatalog(t), 8)

	assert.ErrorIs(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: 999}), ErrUnknownParam)
	assert.ErrorIs(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramMeter, Value: 1}), ErrReadOnly)
	assert.ErrorIs(t, ch.Send(ChangeEvent{Kind: ChangeKind(42), ParamID: paramGain}), ErrUnknownKind)

	require.NoError(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 7}))
	require.NoError(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramCutoff, Value: math.NaN()}))
	ch.TryReceiveAll(nil)

	assert.Equal(t, 1.0, ch.CurrentValue(paramGain), "values are clamped into [0,1]")
	assert.Equal(t, ch.Catalog().Get(paramCutoff).DefaultValue, ch.CurrentValue(paramCutoff))
}

func TestSteppedValuesAreQuantized(t *testing.T) {
	ch := New(testCatalog(t), 8)
	require.NoError(t, ch.Apply(ChangeEvent{Kind: SetValue, ParamID: paramMode, Value: 0.6}))
	assert.Equal(t, 0.5, ch.CurrentValue(paramMode))
}

func TestModulationCombinesWithBase(t *testing.T) {
	ch := New(testCatalog(t), 8)
	require.NoError(t, ch.Apply(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.5}))
	require.NoError(t, ch.Apply(ChangeEvent{Kind: SetModulationOffset, ParamID: paramGain, Value: 0.25}))

	assert.Equal(t, 0.5, ch.CurrentValue(paramGain))
	assert.Equal(t, 0.25, ch.ModulationOffset(paramGain))
	assert.Equal(t, 0.75, ch.EffectiveValue(paramGain))

	require.NoError(t, ch.Apply(ChangeEvent{Kind: SetModulationOffset, ParamID: paramGain, Value: 2}))
	assert.Equal(t, 1.0, ch.EffectiveValue(paramGain))

	// Cutoff is not modulatable.
	require.NoError(t, ch.Apply(ChangeEvent{Kind: SetModulationOffset, ParamID: paramCutoff, Value: 0.5}))
	assert.Equal(t, ch.CurrentValue(paramCutoff), ch.EffectiveValue(paramCutoff))
}

func TestGestureEndIsAcknowledged(t *testing.T) {
	ch := New(testCatalog(t), 8)
	require.NoError(t, ch.Send(ChangeEvent{Kind: GestureBegin, ParamID: paramGain}))
	require.NoError(t, ch.Send(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.3}))

	ch.TryReceiveAll(nil)
	assert.True(t, ch.InGesture(paramGain))

	require.NoError(t, ch.Send(ChangeEvent{Kind: GestureEnd, ParamID: paramGain}))
	ch.TryReceiveAll(nil)
	assert.False(t, ch.InGesture(paramGain))

	var acks []Telemetry
	ch.ReceiveTelemetry(func(tm Telemetry) { acks = append(acks, tm) })
	require.Len(t, acks, 1)
	assert.Equal(t, GestureEnded, acks[0].Kind)
	assert.Equal(t, paramGain, acks[0].ParamID)
	assert.Equal(t, 0.3, acks[0].Value)
}

func TestSnapshotRestore(t *testing.T) {
	ch := New(testCatalog(t), 8)
	require.NoError(t, ch.Apply(ChangeEvent{Kind: SetValue, ParamID: paramGain, Value: 0.25}))
	snap := ch.Snapshot()
	assert.Len(t, snap, 4)

	other := New(testCatalog(t), 8)
	snap[12345] = 0.9
	assert.Equal(t, 4, other.Restore(snap))
	assert.Equal(t, 0.25, other.CurrentValue(paramGain))
}
