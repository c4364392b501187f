package host

import (
	"encoding/binary"
	"math"
	"sync/atomic"
	"time"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/engine"
	"github.com/justyntemme/plugcore/pkg/framework/process"
)

type errBox struct{ err error }

// EventSource supplies the events of the next block.
type EventSource interface {
	NextBlock(blockLength int, dst []process.Event) []process.Event
}

// NextBlock lets a LiveInput act as an EventSource.
func (l *LiveInput) NextBlock(_ int, dst []process.Event) []process.Event {
	return l.Drain(dst)
}

// Stream drives an engine block by block and serves the output as
// interleaved little-endian float32 frames. It is the pull callback of an
// audio device and the sample source of offline renders.
type Stream struct {
	eng      *engine.Engine
	source   EventSource
	block    int
	channels int
	out      [][]float32
	events   []process.Event
	pcm      []byte
	pos      int
	timer    *debug.BlockTimer
	budget   time.Duration
	faults   atomic.Uint64
	lastErr  atomic.Pointer[errBox]
	rendered atomic.Int64
}

// NewStream renders blockSize frames per engine call; it must not exceed
// the engine's MaxBlockSize. source may be nil.
func NewStream(eng *engine.Engine, source EventSource, blockSize int) *Stream {
	cfg := eng.Config()
	if blockSize <= 0 || blockSize > cfg.MaxBlockSize {
		blockSize = cfg.MaxBlockSize
	}
	s := &Stream{
		eng:      eng,
		source:   source,
		block:    blockSize,
		channels: cfg.Channels,
		out:      make([][]float32, cfg.Channels),
		events:   make([]process.Event, 0, 256),
		pcm:      make([]byte, 0, blockSize*cfg.Channels*4),
		budget:   debug.Budget(blockSize, cfg.SampleRate),
	}
	for ch := range s.out {
		s.out[ch] = make([]float32, blockSize)
	}
	return s
}

// SetTimer records every block's processing time in t.
func (s *Stream) SetTimer(t *debug.BlockTimer) {
	s.timer = t
}

// FrameBytes is the size of one interleaved frame.
func (s *Stream) FrameBytes() int {
	return s.channels * 4
}

// Read fills p with whole or partial frames, rendering blocks as needed.
// It never returns an error; a rejected block plays as silence and is
// counted in Faults.
func (s *Stream) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		if s.pos == len(s.pcm) {
			s.renderBlock()
		}
		c := copy(p[n:], s.pcm[s.pos:])
		s.pos += c
		n += c
	}
	return n, nil
}

func (s *Stream) renderBlock() {
	s.events = s.events[:0]
	if s.source != nil {
		s.events = s.source.NextBlock(s.block, s.events)
	}

	start := time.Now()
	if err := s.eng.Process(s.out, s.events); err != nil {
		s.faults.Add(1)
		s.lastErr.Store(&errBox{err})
	}
	if s.timer != nil {
		s.timer.Record(time.Since(start), s.budget)
	}

	s.pcm = s.pcm[:s.block*s.channels*4]
	i := 0
	for f := 0; f < s.block; f++ {
		for ch := 0; ch < s.channels; ch++ {
			binary.LittleEndian.PutUint32(s.pcm[i:], math.Float32bits(s.out[ch][f]))
			i += 4
		}
	}
	s.pos = 0
	s.rendered.Add(int64(s.block))
}

// Frames returns how many frames have been rendered.
func (s *Stream) Frames() int64 {
	return s.rendered.Load()
}

// Faults returns the number of rejected blocks and the last error.
func (s *Stream) Faults() (uint64, error) {
	var err error
	if b := s.lastErr.Load(); b != nil {
		err = b.err
	}
	return s.faults.Load(), err
}

// Block returns the channel buffers of the most recent block.
func (s *Stream) Block() [][]float32 {
	return s.out
}
