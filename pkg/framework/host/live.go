package host

import (
	"sync/atomic"

	"gitlab.com/gomidi/midi/v2"

	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/process"
)

// LiveInput carries decoded events from a MIDI driver callback to the audio
// callback over a lock-free ring. Live events have no sample position; each
// block delivers everything that arrived since the previous one at offset 0.
type LiveInput struct {
	dec     *Decoder
	ring    *channel.Ring[process.Event]
	dropped atomic.Uint64
}

// NewLiveInput creates an input buffering up to capacity events.
func NewLiveInput(dec *Decoder, capacity int) *LiveInput {
	return &LiveInput{dec: dec, ring: channel.NewRing[process.Event](capacity)}
}

// Feed decodes msg and queues it. Driver goroutine only.
func (l *LiveInput) Feed(msg midi.Message) {
	ev, ok := l.dec.Decode(msg, 0)
	if !ok {
		return
	}
	if !l.ring.TryPush(ev) {
		l.dropped.Add(1)
	}
}

// Drain appends every queued event to dst. Audio goroutine only.
func (l *LiveInput) Drain(dst []process.Event) []process.Event {
	for {
		ev, ok := l.ring.TryPop()
		if !ok {
			return dst
		}
		dst = append(dst, ev)
	}
}

// Dropped returns how many events were lost to a full ring.
func (l *LiveInput) Dropped() uint64 {
	return l.dropped.Load()
}
