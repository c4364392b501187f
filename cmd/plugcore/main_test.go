package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/smf"

	"github.com/justyntemme/plugcore/pkg/framework/fanout"
	"github.com/justyntemme/plugcore/pkg/framework/host"
	"github.com/justyntemme/plugcore/pkg/framework/voice"
)

func TestEngineConfigFromFlags(t *testing.T) {
	t.Cleanup(func() { strategy, chord, blockSize = "poly", "single", 512 })

	strategy, chord, blockSize = "mono", "minor/5", 256
	cfg, err := engineConfig()
	require.NoError(t, err)
	assert.Equal(t, voice.MonoLast, cfg.Strategy)
	assert.Equal(t, 5, cfg.Fanout.Count())
	assert.Equal(t, 256, cfg.MaxBlockSize)

	chord = "bogus"
	_, err = engineConfig()
	assert.ErrorIs(t, err, fanout.ErrInvalidMode)

	chord, blockSize = "single", 0
	_, err = engineConfig()
	assert.Error(t, err)
}

func TestParamsCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"params"})
	require.NoError(t, rootCmd.Execute())

	assert.Contains(t, out.String(), "Cutoff")
	assert.Contains(t, out.String(), "Chord")
	assert.Contains(t, out.String(), "modulate")
}

func writeSMF(t *testing.T) string {
	t.Helper()
	file := smf.New()
	var tr smf.Track
	tr.Add(0, smf.MetaTempo(120))
	tr.Add(0, midi.NoteOn(0, 57, 100))
	tr.Add(960, midi.NoteOff(0, 57))
	tr.Close(0)
	require.NoError(t, file.Add(tr))

	path := filepath.Join(t.TempDir(), "in.mid")
	require.NoError(t, file.WriteFile(path))
	return path
}

func TestRender(t *testing.T) {
	eng, _, err := newEngine()
	require.NoError(t, err)

	f, err := os.Open(writeSMF(t))
	require.NoError(t, err)
	defer f.Close()
	seq, err := host.LoadSMF(f, host.NewDecoder(0), sampleRate)
	require.NoError(t, err)

	var out bytes.Buffer
	res, err := render(eng, seq, &out, 48000)
	require.NoError(t, err)

	assert.GreaterOrEqual(t, res.frames, int64(48000))
	assert.Zero(t, res.frames%512, "whole blocks only")
	assert.Equal(t, int(res.frames)*2*4, out.Len())
	assert.Greater(t, res.analysis.Peak, float32(0))
	assert.Zero(t, res.analysis.NaNCount)
	assert.Zero(t, res.faults)
	assert.False(t, eng.Active())
}

func TestRenderCommandWritesFile(t *testing.T) {
	in := writeSMF(t)
	out := filepath.Join(t.TempDir(), "out.f32")

	var stderr bytes.Buffer
	rootCmd.SetErr(&stderr)
	rootCmd.SetArgs([]string{"render", in, "-o", out, "--tail", "100ms", "--log-level", "off"})
	require.NoError(t, rootCmd.Execute())

	st, err := os.Stat(out)
	require.NoError(t, err)
	assert.Positive(t, st.Size())
	assert.Zero(t, st.Size()%(512*8))
	assert.Contains(t, stderr.String(), "peak")
}
