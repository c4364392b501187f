package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
)

var serveFlags sessionFlags

func init() {
	rootCmd.AddCommand(serveCmd)
	addSessionFlags(serveCmd, &serveFlags, ":8080")
	serveCmd.Flags().IntVarP(&serveFlags.midiPort, "midi-port", "m", -1, "MIDI input port, -1 for none")
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Runs the engine headless behind the remote API",
	Long: `serve clocks the engine in real time without an audio device and
discards its output. Parameter edits, gestures and state transfers
behave as they would during playback.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, serveFlags)
		if err != nil {
			return err
		}
		defer s.close()

		g, gctx := errgroup.WithContext(ctx)
		stopMIDI, err := s.start(gctx, g)
		if err != nil {
			return err
		}
		defer stopMIDI()

		s.eng.SetActive(true)
		g.Go(func() error {
			return s.clock(gctx, io.Discard)
		})
		return g.Wait()
	},
}

// clock renders one block per block period into w until ctx is done.
func (s *session) clock(ctx context.Context, w io.Writer) error {
	cfg := s.eng.Config()
	tick := time.NewTicker(debug.Budget(cfg.MaxBlockSize, cfg.SampleRate))
	defer tick.Stop()

	block := make([]byte, cfg.MaxBlockSize*s.stream.FrameBytes())
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-tick.C:
			if _, err := s.stream.Read(block); err != nil {
				return err
			}
			if _, err := w.Write(block); err != nil {
				return err
			}
		}
	}
}
