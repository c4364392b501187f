package fanout

import (
	"github.com/justyntemme/plugcore/pkg/midi"
)

// DefaultEntries is the default number of host notes tracked at once.
const DefaultEntries = 128

// Set is an ordered, fixed-capacity list of synthesized notes.
type Set struct {
	notes [MaxVoices]midi.NoteIdentity
	n     int
}

// Len returns the number of notes in the set.
func (s *Set) Len() int { return s.n }

// At returns note i.
func (s *Set) At(i int) midi.NoteIdentity { return s.notes[i] }

// Notes returns the notes as a slice backed by the set.
func (s *Set) Notes() []midi.NoteIdentity { return s.notes[:s.n] }

func (s *Set) add(n midi.NoteIdentity) {
	s.notes[s.n] = n
	s.n++
}

type entry struct {
	host midi.NoteIdentity
	set  Set
	seq  uint64
	used bool
}

// Mapper tracks host note -> synthesized set. It runs on the audio thread
// and never allocates after NewMapper.
type Mapper struct {
	entries []entry
	live    int
	seq     uint64
	nextID  uint32
}

// NewMapper builds a mapper tracking up to capacity host notes.
func NewMapper(capacity int) *Mapper {
	if capacity < 1 {
		capacity = DefaultEntries
	}
	return &Mapper{entries: make([]entry, capacity)}
}

// Expand synthesizes one note per voice of mode, each with a fresh
// InternalID, and records the set under host. Keys outside 0..127 are
// skipped. When the table is full the oldest entry is forgotten and
// returned as evicted so the caller can silence it. A host note that is
// already mapped is replaced; callers should Collapse it first.
func (m *Mapper) Expand(host midi.NoteIdentity, mode Mode) (set Set, evicted Set, err error) {
	if err := mode.Validate(); err != nil {
		return Set{}, Set{}, err
	}

	for i := 0; i < mode.Count(); i++ {
		n := host
		n.Key = host.Key + int16(mode.Offset(i))
		if !n.ValidKey() {
			continue
		}
		n.InternalID = m.allocID()
		set.add(n)
	}
	if set.n == 0 {
		return set, evicted, nil
	}

	slot := m.find(host)
	if slot < 0 {
		slot = m.freeSlot()
	}
	if slot < 0 {
		slot = m.oldest()
		evicted = m.entries[slot].set
		m.entries[slot].used = false
		m.live--
	}

	e := &m.entries[slot]
	if !e.used {
		m.live++
	}
	m.seq++
	*e = entry{host: host, set: set, seq: m.seq, used: true}
	return set, evicted, nil
}

// Collapse removes and returns the set recorded for host. The set is the
// one captured at Expand time whatever mode is current now.
func (m *Mapper) Collapse(host midi.NoteIdentity) (Set, bool) {
	slot := m.find(host)
	if slot < 0 {
		return Set{}, false
	}
	e := &m.entries[slot]
	set := e.set
	e.used = false
	m.live--
	return set, true
}

// Lookup returns the set recorded for host without removing it.
func (m *Mapper) Lookup(host midi.NoteIdentity) (Set, bool) {
	slot := m.find(host)
	if slot < 0 {
		return Set{}, false
	}
	return m.entries[slot].set, true
}

// Len returns the number of host notes currently mapped.
func (m *Mapper) Len() int {
	return m.live
}

// Reset forgets every mapping. Internal ids keep counting so ids from
// before the reset are never reissued to a new note.
func (m *Mapper) Reset() {
	for i := range m.entries {
		m.entries[i].used = false
	}
	m.live = 0
}

func (m *Mapper) allocID() uint32 {
	m.nextID++
	if m.nextID == midi.Unassigned {
		m.nextID++
	}
	return m.nextID
}

func (m *Mapper) find(host midi.NoteIdentity) int {
	for i := range m.entries {
		if m.entries[i].used && m.entries[i].host.SameHostNote(host) {
			return i
		}
	}
	return -1
}

func (m *Mapper) freeSlot() int {
	for i := range m.entries {
		if !m.entries[i].used {
			return i
		}
	}
	return -1
}

func (m *Mapper) oldest() int {
	oldest := -1
	for i := range m.entries {
		if !m.entries[i].used {
			continue
		}
		if oldest < 0 || m.entries[i].seq < m.entries[oldest].seq {
			oldest = i
		}
	}
	return oldest
}
