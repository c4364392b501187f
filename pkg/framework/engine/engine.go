// Package engine composes the parameter channel, event scheduler, voice
// pool and fan-out mapper into one real-time processor. Process runs on the
// audio thread; everything else goes through the Controller.
package engine

import (
	"fmt"
	"sync/atomic"

	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/fanout"
	"github.com/justyntemme/plugcore/pkg/framework/param"
	"github.com/justyntemme/plugcore/pkg/framework/plugin"
	"github.com/justyntemme/plugcore/pkg/framework/process"
	"github.com/justyntemme/plugcore/pkg/framework/voice"
	"github.com/justyntemme/plugcore/pkg/midi"
)

// Engine hosts one instrument. It allocates everything in New; Process
// neither locks nor allocates.
type Engine struct {
	cfg        Config
	instrument plugin.Instrument
	graph      plugin.Graph
	catalog    *param.Catalog

	ch     *channel.Channel
	sched  *process.Scheduler
	pool   *voice.Pool
	mapper *fanout.Mapper
	values *process.Values
	ctx    *process.Context

	render process.RenderFunc
	fault  process.BlockError
	chord  *param.Descriptor
	modes  []fanout.Mode

	sounding   bool
	active     atomic.Bool
	wasVoicing atomic.Bool
	blocks     atomic.Uint64

	controller *Controller
}

// New builds an engine for inst. The engine starts inactive.
func New(cfg Config, inst plugin.Instrument) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	catalog := inst.Catalog()
	if catalog == nil {
		return nil, fmt.Errorf("engine: %s has no parameter catalog", inst.Info().Name)
	}

	e := &Engine{
		cfg:        cfg,
		instrument: inst,
		catalog:    catalog,
		mapper:     fanout.NewMapper(cfg.MaxFanoutEntries),
	}
	if g, ok := inst.(plugin.Graph); ok {
		e.graph = g
	}

	if cfg.ChordParam != 0 {
		e.chord = catalog.Get(cfg.ChordParam)
		if e.chord == nil {
			return nil, fmt.Errorf("engine: chord parameter %d not in catalog", cfg.ChordParam)
		}
		e.modes = cfg.ChordModes
		if len(e.modes) == 0 {
			e.modes = fanout.Modes()
		}
	}

	e.ch = channel.New(catalog, cfg.QueueCapacity)
	e.values = process.NewValues(e.ch)
	e.ctx = process.NewContext(cfg.MaxBlockSize, cfg.Channels, cfg.SampleRate, e.values)
	e.sched = process.NewScheduler(e.ch, e)

	voices := make([]voice.Voice, cfg.Voices)
	for i := range voices {
		voices[i] = inst.NewVoice(i, e.values, cfg.SampleRate)
	}
	e.pool = voice.NewPool(voices, cfg.MaxBlockSize)
	e.pool.SetStrategy(cfg.Strategy)
	e.pool.SetLegato(cfg.Legato)
	e.pool.OnSteal(e.voiceStolen)

	// Bound once so the scheduler callback never allocates.
	e.render = e.renderRange
	e.values.Resolve()
	e.controller = newController(e)
	return e, nil
}

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config {
	return e.cfg
}

// Controller returns the control-thread surface.
func (e *Engine) Controller() *Controller {
	return e.controller
}

// Instrument returns the hosted instrument.
func (e *Engine) Instrument() plugin.Instrument {
	return e.instrument
}

// SetActive starts or stops processing. The host must not call Process
// concurrently with SetActive. Activation clears all voice and fan-out
// state.
func (e *Engine) SetActive(active bool) {
	if active && !e.active.Load() {
		e.pool.Reset()
		e.mapper.Reset()
		if r, ok := e.instrument.(plugin.Resetter); ok {
			r.Reset()
		}
	}
	e.active.Store(active)
}

// Active reports whether Process renders.
func (e *Engine) Active() bool {
	return e.active.Load()
}

// Sounding reports whether any voice sounded during the last block.
func (e *Engine) Sounding() bool {
	return e.wasVoicing.Load()
}

// Blocks returns the number of blocks processed.
func (e *Engine) Blocks() uint64 {
	return e.blocks.Load()
}

// Process renders one block into out, one slice per channel, all the same
// length. events must be sorted by Offset. On a malformed block the output
// is silenced, a BlockFault telemetry record is sent and the *BlockError
// is returned.
func (e *Engine) Process(out [][]float32, events []process.Event) error {
	n := 0
	if len(out) > 0 {
		n = len(out[0])
	}
	e.ctx.Bind(out)
	e.ctx.ClearFrom(0)

	if !e.active.Load() {
		return nil
	}
	if err := e.checkBlock(out, n); err != nil {
		e.fail(err)
		return err
	}

	e.ch.TryReceiveAll(nil)
	e.sounding = false
	if err := e.sched.ProcessBlock(n, events, e.render); err != nil {
		e.fail(err)
		return err
	}
	e.wasVoicing.Store(e.sounding)
	e.blocks.Add(1)

	e.ctx.SetRange(0, n)
	e.ch.Notify(channel.Telemetry{Kind: channel.Meter, Value: float64(e.ctx.Peak())})
	return nil
}

func (e *Engine) checkBlock(out [][]float32, n int) error {
	if n > e.cfg.MaxBlockSize || len(out) != e.cfg.Channels {
		e.fault = process.BlockError{Reason: process.FaultBadBlockLength, Index: -1, BlockLength: n}
		return &e.fault
	}
	for ch := range out {
		if len(out[ch]) != n {
			e.fault = process.BlockError{Reason: process.FaultBadBlockLength, Index: -1, BlockLength: len(out[ch])}
			return &e.fault
		}
	}
	return nil
}

func (e *Engine) fail(err error) {
	e.ctx.ClearFrom(0)
	t := channel.Telemetry{Kind: channel.BlockFault}
	if be, ok := err.(*process.BlockError); ok {
		t.Code = int32(be.Reason)
		t.Value = float64(be.Offset)
	}
	e.ch.Notify(t)
}

// renderRange is the scheduler callback for one sub-range.
func (e *Engine) renderRange(start, length int) {
	e.ctx.SetRange(start, length)
	e.values.Resolve()

	mono := e.ctx.Mono()
	clear(mono)
	if e.pool.ProcessAudio(mono) {
		e.sounding = true
	}

	if e.graph != nil {
		e.graph.ProcessRange(e.ctx)
		return
	}
	e.ctx.SpreadMono(1)
}

// HandleNote receives note events from the scheduler at their offset.
func (e *Engine) HandleNote(ev process.Event) {
	switch ev.Kind {
	case process.NoteOn:
		if ev.Value <= 0 {
			e.noteOff(ev.Note, 0)
			return
		}
		e.noteOn(ev.Note, ev.Value)
	case process.NoteOff:
		e.noteOff(ev.Note, ev.Value)
	case process.Choke:
		set, ok := e.mapper.Collapse(ev.Note)
		if !ok {
			e.unknownNote(ev.Note)
			return
		}
		e.chokeSet(&set)
	case process.AllNotesOff:
		e.mapper.Reset()
		e.pool.ReleaseAll()
	case process.AllSoundOff:
		e.mapper.Reset()
		e.pool.ChokeAll()
	}
}

func (e *Engine) noteOn(host midi.NoteIdentity, velocity float64) {
	// A retriggered host note releases what it was sounding before.
	if prev, ok := e.mapper.Collapse(host); ok {
		for _, n := range prev.Notes() {
			e.pool.NoteOff(n, 0)
		}
	}

	set, evicted, err := e.mapper.Expand(host, e.currentMode())
	if err != nil {
		return
	}
	e.chokeSet(&evicted)
	for _, n := range set.Notes() {
		e.pool.NoteOn(n, velocity)
	}
}

func (e *Engine) noteOff(host midi.NoteIdentity, velocity float64) {
	set, ok := e.mapper.Collapse(host)
	if !ok {
		e.unknownNote(host)
		return
	}
	for _, n := range set.Notes() {
		e.pool.NoteOff(n, velocity)
	}
}

func (e *Engine) chokeSet(set *fanout.Set) {
	for _, n := range set.Notes() {
		e.pool.Choke(n)
	}
}

// currentMode reads the chord parameter from the live table, so a chord
// change at the same offset as a note-on already applies to it.
func (e *Engine) currentMode() fanout.Mode {
	if e.chord == nil {
		return e.cfg.Fanout
	}
	plain := e.chord.Denormalize(e.ch.EffectiveValue(e.chord.ID))
	i := int(plain - e.chord.Min + 0.5)
	if i < 0 || i >= len(e.modes) {
		return e.cfg.Fanout
	}
	return e.modes[i]
}

func (e *Engine) unknownNote(n midi.NoteIdentity) {
	e.ch.Notify(channel.Telemetry{Kind: channel.UnknownNote, Code: int32(n.Key), Value: float64(n.HostID)})
}

func (e *Engine) voiceStolen(slot int, victim midi.NoteIdentity) {
	e.ch.Notify(channel.Telemetry{Kind: channel.VoiceStolen, Code: int32(slot), Value: float64(victim.Key)})
}
