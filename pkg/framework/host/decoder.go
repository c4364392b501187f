// Package host turns raw MIDI from drivers and files into the block-ordered
// event lists the engine consumes.
package host

import (
	"gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/plugcore/pkg/framework/process"
	pmidi "github.com/justyntemme/plugcore/pkg/midi"
)

// Decoder maps MIDI channel messages to engine events. Note identities
// carry no host id; MIDI 1.0 addresses notes by (port, channel, key).
type Decoder struct {
	Port int16
	cc   [128]uint32
}

// NewDecoder creates a decoder for port.
func NewDecoder(port int16) *Decoder {
	return &Decoder{Port: port}
}

// MapCC routes controller cc to parameter id; id 0 removes the mapping.
// CC 120 and 123 are channel mode messages and cannot be mapped.
func (d *Decoder) MapCC(cc uint8, id uint32) {
	if cc < 120 {
		d.cc[cc] = id
	}
}

// Decode converts msg into an event at offset. It reports false for
// messages the engine has no use for. Decode does not allocate.
func (d *Decoder) Decode(msg midi.Message, offset int32) (process.Event, bool) {
	var ch, key, vel, cc, val uint8
	ev := process.Event{Offset: offset}

	switch {
	case msg.GetNoteOn(&ch, &key, &vel):
		ev.Kind = process.NoteOn
		ev.Note = pmidi.HostNote(d.Port, int16(ch), int16(key))
		ev.Value = float64(vel) / 127
	case msg.GetNoteOff(&ch, &key, &vel):
		ev.Kind = process.NoteOff
		ev.Note = pmidi.HostNote(d.Port, int16(ch), int16(key))
		ev.Value = float64(vel) / 127
	case msg.GetControlChange(&ch, &cc, &val):
		switch cc {
		case pmidi.CCAllSoundOff:
			ev.Kind = process.AllSoundOff
		case pmidi.CCAllNotesOff:
			ev.Kind = process.AllNotesOff
		default:
			id := d.cc[cc&0x7f]
			if id == 0 {
				return ev, false
			}
			ev.Kind = process.ParamValue
			ev.ParamID = id
			ev.Value = float64(val) / 127
		}
		ev.Note = pmidi.HostNote(d.Port, int16(ch), 0)
	default:
		return ev, false
	}
	return ev, true
}
