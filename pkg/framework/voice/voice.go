// Package voice manages a fixed set of note voices on the audio thread.
package voice

import (
	"fmt"

	"github.com/justyntemme/plugcore/pkg/midi"
)

// Voice is the per-voice DSP state an instrument injects into the pool.
// The pool calls it only from the audio thread and only for its own slot.
type Voice interface {
	// NoteOn starts note. With legato set the voice should glide to the
	// new pitch without restarting its envelope.
	NoteOn(note midi.NoteIdentity, velocity float64, legato bool)
	// NoteOff enters the release stage.
	NoteOff(velocity float64)
	// Choke silences the voice at once and resets its state.
	Choke()
	// Render adds up to len(out) samples into out and reports whether the
	// voice is still producing audible output.
	Render(out []float32) bool
}

// State is the lifecycle state of a slot.
type State uint8

const (
	Idle State = iota
	Active
	Releasing
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case Active:
		return "Active"
	case Releasing:
		return "Releasing"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Strategy is the pool-wide allocation strategy.
type Strategy int

const (
	// Polyphonic gives every NoteOn its own slot.
	Polyphonic Strategy = iota
	// MonoLast keeps at most one slot sounding; the newest note wins.
	MonoLast
)

func (s Strategy) String() string {
	switch s {
	case Polyphonic:
		return "poly"
	case MonoLast:
		return "mono"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy accepts "poly" or "mono".
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "poly", "polyphonic":
		return Polyphonic, nil
	case "mono", "monolast":
		return MonoLast, nil
	}
	return Polyphonic, fmt.Errorf("voice: unknown strategy %q", s)
}

// Slot is the pool's bookkeeping for one voice.
type Slot struct {
	Index      int
	Note       midi.NoteIdentity
	State      State
	Activation uint64
}

// Sounding reports whether the slot is Active or Releasing.
func (s Slot) Sounding() bool {
	return s.State != Idle
}
