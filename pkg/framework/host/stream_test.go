package host

import (
	"encoding/binary"
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/justyntemme/plugcore/examples/simplesynth"
	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/engine"
	"github.com/justyntemme/plugcore/pkg/framework/process"
	pmidi "github.com/justyntemme/plugcore/pkg/midi"
)

func newStreamEngine(t *testing.T) *engine.Engine {
	t.Helper()
	cfg := engine.DefaultConfig()
	cfg.MaxBlockSize = 128
	e, err := engine.New(cfg, simplesynth.New())
	require.NoError(t, err)
	e.SetActive(true)
	return e
}

func TestStreamInterleavesFrames(t *testing.T) {
	e := newStreamEngine(t)
	seq := NewSequence()
	seq.Add(0, process.Event{Kind: process.NoteOn, Note: pmidi.HostNote(0, 0, 69), Value: 1})
	seq.Sort()

	s := NewStream(e, seq, 64)
	timer := debug.NewBlockTimer(16)
	s.SetTimer(timer)

	// An odd size forces reads across block boundaries.
	buf := make([]byte, 64*s.FrameBytes()*3+12)
	n, err := io.ReadFull(s, buf)
	require.NoError(t, err)
	assert.Equal(t, len(buf), n)
	assert.Equal(t, int64(256), s.Frames())
	assert.Equal(t, uint64(4), timer.Stats().Count)

	var peak float64
	for i := 0; i+8 <= n; i += 8 {
		l := math.Float32frombits(binary.LittleEndian.Uint32(buf[i:]))
		r := math.Float32frombits(binary.LittleEndian.Uint32(buf[i+4:]))
		assert.Equal(t, l, r, "mono voice spreads to both channels")
		peak = math.Max(peak, math.Abs(float64(l)))
	}
	assert.Greater(t, peak, 0.0)

	faults, lastErr := s.Faults()
	assert.Zero(t, faults)
	assert.NoError(t, lastErr)
}

func TestStreamClampsBlockSize(t *testing.T) {
	e := newStreamEngine(t)
	s := NewStream(e, nil, 4096)
	buf := make([]byte, s.FrameBytes())
	_, err := s.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, int64(128), s.Frames())
	assert.Len(t, s.Block()[0], 128)
}

func TestStreamCountsFaults(t *testing.T) {
	s := NewStream(newStreamEngine(t), badSource{}, 64)
	_, err := s.Read(make([]byte, 8))
	require.NoError(t, err)

	faults, lastErr := s.Faults()
	assert.Equal(t, uint64(1), faults)
	var be *process.BlockError
	assert.ErrorAs(t, lastErr, &be)
}

type badSource struct{}

func (badSource) NextBlock(_ int, dst []process.Event) []process.Event {
	return append(dst, process.Event{Kind: process.NoteOn, Offset: 999})
}
