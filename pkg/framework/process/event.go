package process

import (
	"fmt"

	"github.com/justyntemme/plugcore/pkg/midi"
)

// EventKind identifies a host block event.
type EventKind uint8

const (
	// ParamValue sets a normalized parameter value.
	ParamValue EventKind = iota
	// ParamModulation sets a modulation offset in [-1,1].
	ParamModulation
	// NoteOn starts a host note; Value is the velocity in [0,1].
	NoteOn
	// NoteOff releases a host note; Value is the release velocity.
	NoteOff
	// Choke silences a host note immediately.
	Choke
	// AllNotesOff releases every sounding note.
	AllNotesOff
	// AllSoundOff chokes every sounding note.
	AllSoundOff
)

func (k EventKind) String() string {
	switch k {
	case ParamValue:
		return "ParamValue"
	case ParamModulation:
		return "ParamModulation"
	case NoteOn:
		return "NoteOn"
	case NoteOff:
		return "NoteOff"
	case Choke:
		return "Choke"
	case AllNotesOff:
		return "AllNotesOff"
	case AllSoundOff:
		return "AllSoundOff"
	default:
		return fmt.Sprintf("EventKind(%d)", uint8(k))
	}
}

// IsNote reports whether the event is routed to the note sink.
func (k EventKind) IsNote() bool {
	return k >= NoteOn && k <= AllSoundOff
}

// Event is one timestamped entry of a host block. Offset is relative to
// the start of the block.
type Event struct {
	Kind    EventKind
	Offset  int32
	ParamID uint32
	Value   float64
	Note    midi.NoteIdentity
}

func (e Event) String() string {
	if e.Kind.IsNote() {
		return fmt.Sprintf("%s{%s, val:%.3f, offset:%d}", e.Kind, e.Note, e.Value, e.Offset)
	}
	return fmt.Sprintf("%s{param:%d, val:%.4f, offset:%d}", e.Kind, e.ParamID, e.Value, e.Offset)
}

// NoteSink receives note events at their sample position.
type NoteSink interface {
	HandleNote(ev Event)
}
