// Package channel carries parameter changes between the control thread and
// the audio thread.
//
// A Channel owns two bounded SPSC rings: commands flow control->audio and
// telemetry flows audio->control. Draining on the audio side mutates the
// live value table, which both sides can read.
package channel

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/plugcore/pkg/framework/param"
)

// DefaultCapacity is the per-direction queue size used when none is given.
const DefaultCapacity = 64

var (
	// ErrQueueFull means the control->audio ring had no room. The caller
	// decides whether to retry later or drop the change.
	ErrQueueFull = errors.New("channel: control queue full")
	// ErrUnknownParam means the event names a parameter not in the catalog.
	ErrUnknownParam = errors.New("channel: unknown parameter")
	// ErrReadOnly means a change was sent to a read-only parameter.
	ErrReadOnly = errors.New("channel: parameter is read-only")
	// ErrUnknownKind means the event kind is not one of the defined kinds.
	ErrUnknownKind = errors.New("channel: unknown change kind")
)

// Channel is the only mutable state shared between the two threads.
type Channel struct {
	catalog   *param.Catalog
	table     *Table
	toAudio   *Ring[ChangeEvent]
	toControl *Ring[Telemetry]

	rejected atomic.Uint64
	dropped  atomic.Uint64
}

// New creates a channel for catalog with capacity entries per direction.
func New(catalog *param.Catalog, capacity int) *Channel {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Channel{
		catalog:   catalog,
		table:     NewTable(catalog),
		toAudio:   NewRing[ChangeEvent](capacity),
		toControl: NewRing[Telemetry](capacity),
	}
}

// Catalog returns the descriptors this channel validates against.
func (c *Channel) Catalog() *param.Catalog {
	return c.catalog
}

// Table exposes the live value table.
func (c *Channel) Table() *Table {
	return c.table
}

// Send queues a change for the audio thread. Control thread only.
func (c *Channel) Send(ev ChangeEvent) error {
	d := c.catalog.Get(ev.ParamID)
	if d == nil {
		return fmt.Errorf("%w: %d", ErrUnknownParam, ev.ParamID)
	}
	switch ev.Kind {
	case SetValue:
		if d.Flags&param.IsReadOnly != 0 {
			return fmt.Errorf("%w: %s", ErrReadOnly, d.Name)
		}
		ev.Value = param.ClampNormalized(ev.Value, d.DefaultValue)
	case SetModulationOffset:
		ev.Value = param.Clamp(ev.Value, -1, 1)
	case GestureBegin, GestureEnd:
	default:
		return fmt.Errorf("%w: %d", ErrUnknownKind, ev.Kind)
	}
	if !c.toAudio.TryPush(ev) {
		c.rejected.Add(1)
		return ErrQueueFull
	}
	return nil
}

// TrySend is Send reduced to a bool. False means the change was not queued.
func (c *Channel) TrySend(ev ChangeEvent) bool {
	return c.Send(ev) == nil
}

// TryReceiveAll drains every pending control change in arrival order,
// applying each to the live table before visiting it. Audio thread only.
// visit may be nil.
func (c *Channel) TryReceiveAll(visit func(ChangeEvent)) int {
	// Bound the drain to what was queued on entry so a busy producer
	// cannot keep the audio thread here.
	n := c.toAudio.Len()
	for i := 0; i < n; i++ {
		ev, ok := c.toAudio.TryPop()
		if !ok {
			return i
		}
		// Send validated the event already.
		_ = c.Apply(ev)
		if visit != nil {
			visit(ev)
		}
	}
	return n
}

// Apply writes ev to the live table. Audio thread only (or control thread
// while processing is suspended).
func (c *Channel) Apply(ev ChangeEvent) error {
	idx, ok := c.catalog.IndexOf(ev.ParamID)
	if !ok {
		return ErrUnknownParam
	}
	switch ev.Kind {
	case SetValue:
		c.table.setValue(idx, ev.Value)
	case SetModulationOffset:
		c.table.setModulation(idx, ev.Value)
	case GestureBegin:
		c.table.gesture[idx].Store(true)
	case GestureEnd:
		c.table.gesture[idx].Store(false)
		c.Notify(Telemetry{Kind: GestureEnded, ParamID: ev.ParamID, Value: c.table.Value(idx)})
	default:
		return ErrUnknownKind
	}
	return nil
}

// Known reports whether id is in the catalog.
func (c *Channel) Known(id uint32) bool {
	_, ok := c.catalog.IndexOf(id)
	return ok
}

// CurrentValue reads the last-applied normalized value, not the queue.
// Unknown ids read as 0.
func (c *Channel) CurrentValue(id uint32) float64 {
	idx, ok := c.catalog.IndexOf(id)
	if !ok {
		return 0
	}
	return c.table.Value(idx)
}

// ModulationOffset reads the last-applied modulation offset.
func (c *Channel) ModulationOffset(id uint32) float64 {
	idx, ok := c.catalog.IndexOf(id)
	if !ok {
		return 0
	}
	return c.table.Modulation(idx)
}

// EffectiveValue is the base value plus modulation, clamped to [0,1].
func (c *Channel) EffectiveValue(id uint32) float64 {
	idx, ok := c.catalog.IndexOf(id)
	if !ok {
		return 0
	}
	return c.table.Effective(idx)
}

// InGesture reports whether a GestureBegin is open for id.
func (c *Channel) InGesture(id uint32) bool {
	idx, ok := c.catalog.IndexOf(id)
	if !ok {
		return false
	}
	return c.table.gesture[idx].Load()
}

// Notify queues telemetry for the control thread. A full queue drops the
// item silently. Audio thread only.
func (c *Channel) Notify(t Telemetry) bool {
	if !c.toControl.TryPush(t) {
		c.dropped.Add(1)
		return false
	}
	return true
}

// ReceiveTelemetry drains pending telemetry in order. Control thread only.
func (c *Channel) ReceiveTelemetry(visit func(Telemetry)) int {
	return c.toControl.Drain(visit)
}

// Flush synchronously drains the audio->control queue before state is
// persisted. Call it only while audio processing is suspended.
func (c *Channel) Flush(visit func(Telemetry)) int {
	if visit == nil {
		visit = func(Telemetry) {}
	}
	return c.toControl.Drain(visit)
}

// Snapshot copies every parameter's last-applied value.
func (c *Channel) Snapshot() map[uint32]float64 {
	out := make(map[uint32]float64, c.table.Len())
	for i := 0; i < c.table.Len(); i++ {
		out[c.catalog.At(i).ID] = c.table.Value(i)
	}
	return out
}

// Restore writes values straight into the table. Unknown ids are ignored so
// older state keeps loading. Only call while processing is suspended; a
// running engine must go through Send instead.
func (c *Channel) Restore(values map[uint32]float64) int {
	n := 0
	for id, v := range values {
		idx, ok := c.catalog.IndexOf(id)
		if !ok {
			continue
		}
		c.table.setValue(idx, param.ClampNormalized(v, c.catalog.At(idx).DefaultValue))
		n++
	}
	return n
}

// Pending returns how many control changes wait for the audio thread.
func (c *Channel) Pending() int {
	return c.toAudio.Len()
}

// Stats reports rejected control sends and dropped telemetry.
func (c *Channel) Stats() (rejected, dropped uint64) {
	return c.rejected.Load(), c.dropped.Load()
}
