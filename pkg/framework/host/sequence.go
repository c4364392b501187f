package host

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/justyntemme/plugcore/pkg/framework/process"
)

// timedEvent is an event at an absolute sample position.
type timedEvent struct {
	at int64
	ev process.Event
}

// Sequence is a pre-rendered event timeline cut into blocks on demand, the
// way a host delivers automation and notes from its arrangement.
type Sequence struct {
	events []timedEvent
	next   int
	pos    int64
	length int64
}

// NewSequence starts an empty timeline.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Add places ev at sample position at. Call Sort before playback when
// events were not added in order.
func (s *Sequence) Add(at int64, ev process.Event) {
	s.events = append(s.events, timedEvent{at: at, ev: ev})
	if at+1 > s.length {
		s.length = at + 1
	}
}

// Sort orders events by position, keeping insertion order at equal
// positions.
func (s *Sequence) Sort() {
	sort.SliceStable(s.events, func(i, j int) bool { return s.events[i].at < s.events[j].at })
}

// Len returns the number of events.
func (s *Sequence) Len() int {
	return len(s.events)
}

// Length returns the position one past the last event, in samples.
func (s *Sequence) Length() int64 {
	return s.length
}

// Done reports whether every event has been delivered.
func (s *Sequence) Done() bool {
	return s.next >= len(s.events)
}

// Rewind restarts playback from sample 0.
func (s *Sequence) Rewind() {
	s.next = 0
	s.pos = 0
}

// NextBlock appends the events falling in the next blockLength samples to
// dst with block-relative offsets and advances the play position. Pass the
// previous result truncated to zero length to avoid allocating.
func (s *Sequence) NextBlock(blockLength int, dst []process.Event) []process.Event {
	end := s.pos + int64(blockLength)
	for s.next < len(s.events) && s.events[s.next].at < end {
		te := s.events[s.next]
		ev := te.ev
		ev.Offset = int32(te.at - s.pos)
		if te.at < s.pos {
			ev.Offset = 0
		}
		dst = append(dst, ev)
		s.next++
	}
	s.pos = end
	return dst
}

// LoadSMF reads a Standard MIDI File and converts every track to sample
// positions at sampleRate, honoring tempo changes.
func LoadSMF(r io.Reader, dec *Decoder, sampleRate float64) (seq *Sequence, err error) {
	if sampleRate <= 0 {
		return nil, errors.New("host: sample rate must be positive")
	}
	// smf panics on some malformed files.
	defer func() {
		if p := recover(); p != nil {
			seq, err = nil, fmt.Errorf("host: malformed MIDI file: %v", p)
		}
	}()

	file, err := smf.ReadFrom(r)
	if err != nil {
		return nil, fmt.Errorf("host: read MIDI file: %w", err)
	}

	seq = NewSequence()
	for _, track := range file.Tracks {
		var ticks int64
		for _, e := range track {
			ticks += int64(e.Delta)
			ev, ok := dec.Decode(midi.Message(e.Message), 0)
			if !ok {
				continue
			}
			micros := file.TimeAt(ticks)
			seq.Add(int64(float64(micros)*sampleRate/1e6+0.5), ev)
		}
	}
	seq.Sort()
	return seq, nil
}
