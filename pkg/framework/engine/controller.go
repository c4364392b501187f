package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/param"
	"github.com/justyntemme/plugcore/pkg/framework/process"
)

// restoreRetry is how long Restore waits for the audio thread to drain a
// full queue before trying again.
const restoreRetry = time.Millisecond

// Controller is the control-thread surface of an engine: automation, UI
// and persistence. It is safe for concurrent use; calls are serialized so
// the channel keeps a single producer and a single telemetry consumer.
type Controller struct {
	mu     sync.Mutex
	eng    *Engine
	ch     *channel.Channel
	log    *debug.Logger
	meter  float64
	faults uint64
	steals uint64
}

// Stats is a point-in-time view of engine health.
type Stats struct {
	Blocks   uint64
	Rejected uint64
	Dropped  uint64
	Faults   uint64
	Steals   uint64
	Pending  int
	Sounding bool
	Active   bool
	Meter    float64
}

func newController(e *Engine) *Controller {
	return &Controller{
		eng: e,
		ch:  e.ch,
		log: debug.Default().With("engine"),
	}
}

// SetLogger replaces the logger telemetry is reported to.
func (c *Controller) SetLogger(l *debug.Logger) {
	c.mu.Lock()
	c.log = l
	c.mu.Unlock()
}

// Descriptors returns the catalog in index order.
func (c *Controller) Descriptors() []*param.Descriptor {
	return c.ch.Catalog().All()
}

// Descriptor looks up id.
func (c *Controller) Descriptor(id uint32) (*param.Descriptor, error) {
	d := c.ch.Catalog().Get(id)
	if d == nil {
		return nil, fmt.Errorf("%w: %d", channel.ErrUnknownParam, id)
	}
	return d, nil
}

// Send queues ev for the audio thread. It returns channel.ErrQueueFull when
// the audio thread is behind; the caller decides whether to retry.
func (c *Controller) Send(ev channel.ChangeEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.Send(ev)
}

// SetValue queues a normalized value.
func (c *Controller) SetValue(id uint32, normalized float64) error {
	return c.Send(channel.ChangeEvent{Kind: channel.SetValue, ParamID: id, Value: normalized})
}

// SetPlain queues a value given in the parameter's own units.
func (c *Controller) SetPlain(id uint32, plain float64) error {
	d, err := c.Descriptor(id)
	if err != nil {
		return err
	}
	return c.SetValue(id, d.Normalize(plain))
}

// SetModulation queues a modulation offset in [-1, 1].
func (c *Controller) SetModulation(id uint32, offset float64) error {
	return c.Send(channel.ChangeEvent{Kind: channel.SetModulationOffset, ParamID: id, Value: offset})
}

// BeginGesture marks the start of a user edit of id.
func (c *Controller) BeginGesture(id uint32) error {
	return c.Send(channel.ChangeEvent{Kind: channel.GestureBegin, ParamID: id})
}

// EndGesture marks the end of a user edit. The audio thread acknowledges it
// with a GestureEnded telemetry record.
func (c *Controller) EndGesture(id uint32) error {
	return c.Send(channel.ChangeEvent{Kind: channel.GestureEnd, ParamID: id})
}

// CurrentValue returns the last value the audio thread applied, which may
// lag a value still in the queue.
func (c *Controller) CurrentValue(id uint32) (float64, error) {
	if !c.ch.Known(id) {
		return 0, fmt.Errorf("%w: %d", channel.ErrUnknownParam, id)
	}
	return c.ch.CurrentValue(id), nil
}

// Snapshot returns every parameter's last-applied normalized value.
func (c *Controller) Snapshot() map[uint32]float64 {
	return c.ch.Snapshot()
}

// Restore loads values. While the engine is inactive the table is written
// directly; while active every value goes through the queue, waiting for
// the audio thread whenever it is full. Unknown ids are skipped.
func (c *Controller) Restore(ctx context.Context, values map[uint32]float64) error {
	if !c.eng.Active() {
		c.mu.Lock()
		n := c.ch.Restore(values)
		c.mu.Unlock()
		c.log.Debug("restored %d of %d values while inactive", n, len(values))
		return nil
	}

	ids := make([]uint32, 0, len(values))
	for id := range values {
		if c.ch.Known(id) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		for {
			err := c.SetValue(id, values[id])
			if err == nil {
				break
			}
			if !errors.Is(err, channel.ErrQueueFull) {
				if errors.Is(err, channel.ErrReadOnly) {
					break
				}
				return fmt.Errorf("restore parameter %d: %w", id, err)
			}
			select {
			case <-ctx.Done():
				return fmt.Errorf("restore interrupted: %w", ctx.Err())
			case <-time.After(restoreRetry):
			}
		}
	}
	return nil
}

// Flush applies queued changes and drains telemetry. Call it only while the
// engine is inactive, e.g. before taking a snapshot for persistence.
func (c *Controller) Flush() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.eng.Active() {
		c.ch.TryReceiveAll(nil)
	}
	return c.ch.Flush(c.observe)
}

// Poll drains pending telemetry, logs what deserves attention and passes
// each record to visit, which may be nil.
func (c *Controller) Poll(visit func(channel.Telemetry)) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ch.ReceiveTelemetry(func(t channel.Telemetry) {
		c.observe(t)
		if visit != nil {
			visit(t)
		}
	})
}

// observe runs with c.mu held.
func (c *Controller) observe(t channel.Telemetry) {
	switch t.Kind {
	case channel.Meter:
		c.meter = t.Value
	case channel.UnknownNote:
		c.log.Debug("note-off for unknown note key=%d host=%d", t.Code, int64(t.Value))
	case channel.VoiceStolen:
		c.steals++
		c.log.Debug("voice %d stolen from key %d", t.Code, int64(t.Value))
	case channel.BlockFault:
		c.faults++
		c.log.Warn("block rejected: %s at offset %d", process.FaultReason(t.Code), int64(t.Value))
	case channel.GestureEnded:
		c.log.Debug("gesture ended on parameter %d", t.ParamID)
	}
}

// Meter returns the last reported output peak in dBFS.
func (c *Controller) Meter() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.meter <= 0 {
		return math.Inf(-1)
	}
	return 20 * math.Log10(c.meter)
}

// Stats returns counters from both sides of the channel.
func (c *Controller) Stats() Stats {
	rejected, dropped := c.ch.Stats()
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Blocks:   c.eng.Blocks(),
		Rejected: rejected,
		Dropped:  dropped,
		Faults:   c.faults,
		Steals:   c.steals,
		Pending:  c.ch.Pending(),
		Sounding: c.eng.Sounding(),
		Active:   c.eng.Active(),
		Meter:    c.meter,
	}
}
