package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ebitengine/oto/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
)

var playFlags sessionFlags

func init() {
	rootCmd.AddCommand(playCmd)
	addSessionFlags(playCmd, &playFlags, "")
	playCmd.Flags().IntVarP(&playFlags.midiPort, "midi-port", "m", 0, "MIDI input port, -1 for none")
}

func addSessionFlags(cmd *cobra.Command, f *sessionFlags, listen string) {
	cmd.Flags().StringVarP(&f.listen, "listen", "l", listen, "serve the remote API on this address, e.g. :8080")
	cmd.Flags().StringSliceVar(&f.origins, "allow-origin", nil, "CORS origins for the remote API")
	cmd.Flags().StringVar(&f.statePath, "state", "", "load parameters from and autosave them to this file")
	cmd.Flags().DurationVar(&f.quiet, "autosave-delay", time.Second, "quiet period before an autosave")
	cmd.Flags().DurationVar(&f.report, "report", 10*time.Second, "log engine statistics at this interval, 0 to disable")
}

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Plays live MIDI input through the default audio device",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		s, err := openSession(ctx, playFlags)
		if err != nil {
			return err
		}
		defer s.close()

		cfg := s.eng.Config()
		otoCtx, ready, err := oto.NewContext(&oto.NewContextOptions{
			SampleRate:   int(cfg.SampleRate),
			ChannelCount: cfg.Channels,
			Format:       oto.FormatFloat32LE,
			BufferSize:   2 * debug.Budget(cfg.MaxBlockSize, cfg.SampleRate),
		})
		if err != nil {
			return err
		}
		<-ready

		g, gctx := errgroup.WithContext(ctx)
		stopMIDI, err := s.start(gctx, g)
		if err != nil {
			return err
		}
		defer stopMIDI()

		s.eng.SetActive(true)
		player := otoCtx.NewPlayer(s.stream)
		player.Play()
		defer player.Close()
		s.log.Info("playing at %.0f Hz, %d frame blocks", cfg.SampleRate, cfg.MaxBlockSize)

		g.Go(func() error {
			<-gctx.Done()
			return player.Err()
		})
		return g.Wait()
	},
}
