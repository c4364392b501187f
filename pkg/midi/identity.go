// Package midi holds note identity and pitch helpers shared by the voice
// pool, the fan-out mapper and the host adapters.
package midi

import (
	"fmt"
	"math"
)

// NoHostID marks a note whose host did not supply a note id.
const NoHostID int32 = -1

// Unassigned is the InternalID of a note the fan-out mapper has not
// synthesized.
const Unassigned uint32 = 0

// NoteIdentity names one sounding note. HostID is host-assigned and may be
// absent; then (Port, Channel, Key) is the matching key. InternalID is set
// only on identities synthesized by the fan-out mapper.
type NoteIdentity struct {
	HostID     int32
	Port       int16
	Channel    int16
	Key        int16
	InternalID uint32
}

// HostNote builds a host identity without a host note id.
func HostNote(port, channel, key int16) NoteIdentity {
	return NoteIdentity{HostID: NoHostID, Port: port, Channel: channel, Key: key}
}

// HasHostID reports whether the host supplied a note id.
func (n NoteIdentity) HasHostID() bool {
	return n.HostID >= 0
}

// SameHostNote reports whether n and other refer to the same host note.
// Host ids win when both sides carry one; otherwise the (port, channel,
// key) triple decides.
func (n NoteIdentity) SameHostNote(other NoteIdentity) bool {
	if n.HasHostID() && other.HasHostID() {
		return n.HostID == other.HostID
	}
	return n.Port == other.Port && n.Channel == other.Channel && n.Key == other.Key
}

// Matches reports whether a pool slot holding n is addressed by target.
// Synthesized identities match on InternalID alone.
func (n NoteIdentity) Matches(target NoteIdentity) bool {
	if target.InternalID != Unassigned {
		return n.InternalID == target.InternalID
	}
	return n.SameHostNote(target)
}

// ValidKey reports whether Key is a MIDI key number.
func (n NoteIdentity) ValidKey() bool {
	return n.Key >= 0 && n.Key <= 127
}

func (n NoteIdentity) String() string {
	if n.InternalID != Unassigned {
		return fmt.Sprintf("Note{host:%d, port:%d, ch:%d, key:%d, id:%d}", n.HostID, n.Port, n.Channel, n.Key, n.InternalID)
	}
	return fmt.Sprintf("Note{host:%d, port:%d, ch:%d, key:%d}", n.HostID, n.Port, n.Channel, n.Key)
}

// NoteToFrequency converts a key number to Hz. A zero tuning means A4=440.
func NoteToFrequency(key float64, tuningA4 float64) float64 {
	if tuningA4 == 0 {
		tuningA4 = 440.0
	}
	return tuningA4 * math.Pow(2, (key-69.0)/12.0)
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// NoteNumberToName formats a key as a name with octave, e.g. 60 -> C4.
func NoteNumberToName(key int16) string {
	if key < 0 || key > 127 {
		return fmt.Sprintf("key(%d)", key)
	}
	return fmt.Sprintf("%s%d", noteNames[key%12], int(key)/12-1)
}
