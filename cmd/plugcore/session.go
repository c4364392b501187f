package main

import (
	"context"
	"errors"
	"io/fs"
	"time"

	"gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // autoregisters driver
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/engine"
	"github.com/justyntemme/plugcore/pkg/framework/host"
	"github.com/justyntemme/plugcore/pkg/framework/state"
	"github.com/justyntemme/plugcore/pkg/remote"
)

// sessionFlags are shared by the live commands.
type sessionFlags struct {
	midiPort  int
	listen    string
	origins   []string
	statePath string
	quiet     time.Duration
	report    time.Duration
}

// session is an engine with its live inputs and control surfaces.
type session struct {
	flags  sessionFlags
	eng    *engine.Engine
	states *state.Manager
	saver  *state.AutoSaver
	live   *host.LiveInput
	stream *host.Stream
	timer  *debug.BlockTimer
	log    *debug.Logger
}

func openSession(ctx context.Context, flags sessionFlags) (*session, error) {
	eng, synth, err := newEngine()
	if err != nil {
		return nil, err
	}
	s := &session{
		flags:  flags,
		eng:    eng,
		states: state.NewManager(synth.Info()),
		live:   host.NewLiveInput(host.NewDecoder(0), 1024),
		timer:  debug.NewBlockTimer(2048),
		log:    debug.Default().With("session"),
	}
	s.stream = host.NewStream(eng, s.live, eng.Config().MaxBlockSize)
	s.stream.SetTimer(s.timer)

	if flags.statePath != "" {
		snap, err := s.states.LoadFile(flags.statePath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			s.log.Info("no saved state at %s", flags.statePath)
		case err != nil:
			return nil, err
		default:
			if err := eng.Controller().Restore(ctx, snap.Values); err != nil {
				return nil, err
			}
			s.log.Info("restored %d values from %s", len(snap.Values), flags.statePath)
		}
		s.saver = state.NewAutoSaver(s.states, eng.Controller(), flags.statePath, flags.quiet)
	}
	return s, nil
}

// start launches MIDI input, the remote server and telemetry polling on g.
// The returned function stops MIDI input.
func (s *session) start(ctx context.Context, g *errgroup.Group) (func(), error) {
	stopMIDI := func() {}
	if s.flags.midiPort >= 0 {
		in, err := midi.InPort(s.flags.midiPort)
		if err != nil {
			return nil, err
		}
		stop, err := midi.ListenTo(in, func(msg midi.Message, _ int32) {
			s.live.Feed(msg)
		})
		if err != nil {
			return nil, err
		}
		s.log.Info("listening to MIDI port %s", in)
		stopMIDI = func() {
			stop()
			midi.CloseDriver()
		}
	}

	if s.flags.listen != "" {
		opts := remote.Options{AllowedOrigins: s.flags.origins}
		if s.saver != nil {
			opts.OnChange = s.saver
		}
		srv := remote.NewServer(s.eng.Controller(), s.eng.Instrument().Info(), s.states, opts)
		g.Go(func() error {
			return srv.ListenAndServe(ctx, s.flags.listen)
		})
	}

	g.Go(func() error {
		return s.poll(ctx)
	})
	return stopMIDI, nil
}

func (s *session) poll(ctx context.Context) error {
	tick := time.NewTicker(20 * time.Millisecond)
	defer tick.Stop()
	var report <-chan time.Time
	if s.flags.report > 0 {
		t := time.NewTicker(s.flags.report)
		defer t.Stop()
		report = t.C
	}

	ctrl := s.eng.Controller()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			ctrl.Poll(nil)
		case <-report:
			st := ctrl.Stats()
			s.log.Info("blocks=%d voices=%v meter=%.1fdB faults=%d steals=%d midi-dropped=%d",
				st.Blocks, st.Sounding, ctrl.Meter(), st.Faults, st.Steals, s.live.Dropped())
			s.log.Debug("%s", s.timer.Stats())
		}
	}
}

// close deactivates the engine and writes a final state file.
func (s *session) close() {
	s.eng.SetActive(false)
	s.eng.Controller().Flush()
	if s.saver != nil {
		s.saver.Save()
	}
}
