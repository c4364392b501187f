package voice

import (
	"github.com/justyntemme/plugcore/pkg/midi"
)

const maxHeld = 16

// StealFunc observes a slot being stolen from victim.
type StealFunc func(slot int, victim midi.NoteIdentity)

// Pool is a fixed-capacity arena of voice slots. Slots are created once and
// reassigned across notes; returning a slot to the free stack is the only
// form of destruction. Everything runs on the audio thread without locks or
// allocation.
type Pool struct {
	slots    []Slot
	voices   []Voice
	free     []int
	scratch  []float32
	strategy Strategy
	legato   bool
	clock    uint64
	steals   uint64
	onSteal  StealFunc

	// MonoLast state: the sounding slot and the keys still held under it.
	mono      int
	held      [maxHeld]heldNote
	heldCount int
}

type heldNote struct {
	note     midi.NoteIdentity
	velocity float64
}

// NewPool builds a pool around voices. maxBlockSize sizes the per-voice
// render buffer.
func NewPool(voices []Voice, maxBlockSize int) *Pool {
	if maxBlockSize < 1 {
		maxBlockSize = 1
	}
	p := &Pool{
		slots:   make([]Slot, len(voices)),
		voices:  voices,
		free:    make([]int, 0, len(voices)),
		scratch: make([]float32, maxBlockSize),
		mono:    -1,
	}
	for i := range p.slots {
		p.slots[i].Index = i
	}
	p.resetFree()
	return p
}

// resetFree refills the free stack so slot 0 is handed out first.
func (p *Pool) resetFree() {
	p.free = p.free[:0]
	for i := len(p.slots) - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}
}

// Capacity returns the number of slots.
func (p *Pool) Capacity() int {
	return len(p.slots)
}

// SetStrategy switches strategy. Every sounding voice is choked first.
func (p *Pool) SetStrategy(s Strategy) {
	if s == p.strategy {
		return
	}
	p.ChokeAll()
	p.strategy = s
}

// Strategy returns the current strategy.
func (p *Pool) Strategy() Strategy {
	return p.strategy
}

// SetLegato selects legato (true) or retrigger (false) for MonoLast.
func (p *Pool) SetLegato(on bool) {
	p.legato = on
}

// Legato reports the MonoLast legato flag.
func (p *Pool) Legato() bool {
	return p.legato
}

// OnSteal registers an observer for stolen slots.
func (p *Pool) OnSteal(fn StealFunc) {
	p.onSteal = fn
}

// NoteOn assigns note to a slot and returns the slot index. At full
// capacity the slot activated longest ago is choked and reused.
func (p *Pool) NoteOn(note midi.NoteIdentity, velocity float64) int {
	if len(p.slots) == 0 {
		return -1
	}
	if p.strategy == MonoLast {
		return p.noteOnMono(note, velocity)
	}

	idx := p.allocate()
	p.activate(idx, note, velocity, false)
	return idx
}

// NoteOff releases every Active slot addressed by target. It reports
// whether anything matched.
func (p *Pool) NoteOff(target midi.NoteIdentity, velocity float64) bool {
	if p.strategy == MonoLast {
		return p.noteOffMono(target, velocity)
	}

	found := false
	for i := range p.slots {
		s := &p.slots[i]
		if s.State == Active && s.Note.Matches(target) {
			p.voices[i].NoteOff(velocity)
			s.State = Releasing
			found = true
		}
	}
	return found
}

// Choke silences every sounding slot addressed by target immediately,
// whatever its release time. It reports whether anything matched.
func (p *Pool) Choke(target midi.NoteIdentity) bool {
	if p.strategy == MonoLast {
		p.forgetHeld(target)
	}

	found := false
	for i := range p.slots {
		s := &p.slots[i]
		if s.State != Idle && s.Note.Matches(target) {
			p.choke(i)
			found = true
		}
	}
	return found
}

// ReleaseAll sends NoteOff to every Active slot.
func (p *Pool) ReleaseAll() {
	p.heldCount = 0
	for i := range p.slots {
		if p.slots[i].State == Active {
			p.voices[i].NoteOff(0)
			p.slots[i].State = Releasing
		}
	}
}

// ChokeAll silences every sounding slot.
func (p *Pool) ChokeAll() {
	p.heldCount = 0
	for i := range p.slots {
		if p.slots[i].State != Idle {
			p.choke(i)
		}
	}
}

// Reset chokes everything and restores the initial allocation order.
func (p *Pool) Reset() {
	p.ChokeAll()
	p.resetFree()
	p.clock = 0
}

// ProcessAudio renders every Active or Releasing slot once into out and
// returns whether any slot was sounding when the call started. A slot whose
// render reports silence returns to Idle, so the flag drops on the call
// after the last voice finishes and stays down until the next NoteOn.
func (p *Pool) ProcessAudio(out []float32) bool {
	sounding := false
	for i := range p.slots {
		if p.slots[i].State == Idle {
			continue
		}
		sounding = true
		if !p.renderSlot(i, out) {
			p.release(i)
		}
	}
	return sounding
}

func (p *Pool) renderSlot(i int, out []float32) bool {
	alive := false
	// Render in scratch-sized pieces so a host block larger than the
	// configured maximum still cannot allocate.
	for start := 0; start < len(out) || start == 0; {
		n := len(out) - start
		if n > len(p.scratch) {
			n = len(p.scratch)
		}
		buf := p.scratch[:n]
		clear(buf)
		alive = p.voices[i].Render(buf)
		dst := out[start : start+n]
		for j, s := range buf {
			dst[j] += s
		}
		start += n
		if !alive || n == 0 {
			break
		}
	}
	return alive
}

// ActiveCount returns the number of Active or Releasing slots.
func (p *Pool) ActiveCount() int {
	n := 0
	for i := range p.slots {
		if p.slots[i].State != Idle {
			n++
		}
	}
	return n
}

// Slot returns a copy of slot i.
func (p *Pool) Slot(i int) Slot {
	return p.slots[i]
}

// Steals returns how many slots have been stolen.
func (p *Pool) Steals() uint64 {
	return p.steals
}

// allocate pops a free slot or steals the oldest sounding one.
func (p *Pool) allocate() int {
	if n := len(p.free); n > 0 {
		idx := p.free[n-1]
		p.free = p.free[:n-1]
		return idx
	}

	oldest := 0
	for i := 1; i < len(p.slots); i++ {
		if p.slots[i].Activation < p.slots[oldest].Activation {
			oldest = i
		}
	}
	victim := p.slots[oldest].Note
	// Forced choke, then reuse without passing through the free stack.
	p.voices[oldest].Choke()
	p.slots[oldest].State = Idle
	p.steals++
	if p.onSteal != nil {
		p.onSteal(oldest, victim)
	}
	return oldest
}

func (p *Pool) activate(idx int, note midi.NoteIdentity, velocity float64, legato bool) {
	p.clock++
	s := &p.slots[idx]
	s.Note = note
	s.State = Active
	s.Activation = p.clock
	p.voices[idx].NoteOn(note, velocity, legato)
}

func (p *Pool) choke(i int) {
	p.voices[i].Choke()
	p.release(i)
}

// release returns a sounding slot to the free stack.
func (p *Pool) release(i int) {
	if p.slots[i].State == Idle {
		return
	}
	p.slots[i].State = Idle
	p.free = append(p.free, i)
	if i == p.mono {
		p.mono = -1
		p.heldCount = 0
	}
}

func (p *Pool) noteOnMono(note midi.NoteIdentity, velocity float64) int {
	p.forgetHeld(note)
	p.pushHeld(note, velocity)

	if p.mono >= 0 && p.slots[p.mono].State != Idle {
		glide := p.legato && p.slots[p.mono].State == Active
		p.activate(p.mono, note, velocity, glide)
		return p.mono
	}
	p.mono = p.allocate()
	p.activate(p.mono, note, velocity, false)
	return p.mono
}

func (p *Pool) noteOffMono(target midi.NoteIdentity, velocity float64) bool {
	found := p.forgetHeld(target)
	if p.mono < 0 {
		return found
	}
	s := &p.slots[p.mono]
	if s.State != Active || !s.Note.Matches(target) {
		return found
	}
	found = true

	if p.heldCount > 0 {
		// Fall back to the most recent key still held.
		prev := p.held[p.heldCount-1]
		p.activate(p.mono, prev.note, prev.velocity, p.legato)
		return found
	}
	p.voices[p.mono].NoteOff(velocity)
	s.State = Releasing
	return found
}

func (p *Pool) pushHeld(note midi.NoteIdentity, velocity float64) {
	if p.heldCount == maxHeld {
		copy(p.held[:], p.held[1:])
		p.heldCount--
	}
	p.held[p.heldCount] = heldNote{note: note, velocity: velocity}
	p.heldCount++
}

func (p *Pool) forgetHeld(target midi.NoteIdentity) bool {
	for i := p.heldCount - 1; i >= 0; i-- {
		if p.held[i].note.Matches(target) {
			copy(p.held[i:p.heldCount], p.held[i+1:p.heldCount])
			p.heldCount--
			return true
		}
	}
	return false
}
