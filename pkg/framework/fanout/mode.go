// Package fanout expands one host note into a chord or unison of
// synthesized notes and remembers the mapping until the host note ends.
package fanout

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// MaxVoices bounds how many notes one host note can fan out to.
const MaxVoices = 8

// ErrInvalidMode is returned for a mode with no intervals or too many voices.
var ErrInvalidMode = errors.New("fanout: invalid mode")

// Mode is a chord or unison shape. Voices beyond len(Intervals) reuse the
// intervals an octave higher per wrap. Voices of zero means one voice per
// interval.
type Mode struct {
	Name      string
	Intervals []int
	Voices    int
}

// Built-in modes.
var (
	Single  = Mode{Name: "single", Intervals: []int{0}}
	Fifth   = Mode{Name: "fifth", Intervals: []int{0, 7}}
	Major   = Mode{Name: "major", Intervals: []int{0, 4, 7}}
	Minor   = Mode{Name: "minor", Intervals: []int{0, 3, 7}}
	Seventh = Mode{Name: "seventh", Intervals: []int{0, 4, 7, 10}}
	Octave  = Mode{Name: "octave", Intervals: []int{0, 12}}
)

// Unison stacks n voices on the same key.
func Unison(n int) Mode {
	return Mode{Name: "unison:" + strconv.Itoa(n), Intervals: make([]int, n)}
}

// Modes lists the built-in fixed modes.
func Modes() []Mode {
	return []Mode{Single, Fifth, Major, Minor, Seventh, Octave}
}

// Count returns the number of synthesized notes per host note.
func (m Mode) Count() int {
	if m.Voices > 0 {
		return m.Voices
	}
	return len(m.Intervals)
}

// Offset returns the semitone offset of voice i.
func (m Mode) Offset(i int) int {
	n := len(m.Intervals)
	return m.Intervals[i%n] + 12*(i/n)
}

// Validate checks that the mode can be expanded without allocating.
func (m Mode) Validate() error {
	if len(m.Intervals) == 0 {
		return fmt.Errorf("%w: %q has no intervals", ErrInvalidMode, m.Name)
	}
	if c := m.Count(); c > MaxVoices {
		return fmt.Errorf("%w: %q needs %d voices, max %d", ErrInvalidMode, m.Name, c, MaxVoices)
	}
	return nil
}

func (m Mode) String() string {
	return m.Name
}

// ParseMode resolves a mode name such as "major" or "unison:3". A "/n"
// suffix sets the voice count, e.g. "major/5".
func ParseMode(s string) (Mode, error) {
	name, voices, hasVoices := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "/")

	var m Mode
	if rest, ok := strings.CutPrefix(name, "unison:"); ok {
		n, err := strconv.Atoi(rest)
		if err != nil || n < 1 {
			return Mode{}, fmt.Errorf("%w: bad unison count %q", ErrInvalidMode, rest)
		}
		m = Unison(n)
	} else {
		found := false
		for _, candidate := range Modes() {
			if candidate.Name == name {
				m, found = candidate, true
				break
			}
		}
		if !found {
			return Mode{}, fmt.Errorf("%w: unknown mode %q", ErrInvalidMode, s)
		}
	}

	if hasVoices {
		n, err := strconv.Atoi(voices)
		if err != nil || n < 1 {
			return Mode{}, fmt.Errorf("%w: bad voice count %q", ErrInvalidMode, voices)
		}
		m.Voices = n
		m.Name = name + "/" + voices
	}
	return m, m.Validate()
}
