package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/engine"
	"github.com/justyntemme/plugcore/pkg/framework/host"
	"github.com/justyntemme/plugcore/pkg/framework/state"
)

var (
	renderOut   string
	renderTail  time.Duration
	renderState string
)

func init() {
	rootCmd.AddCommand(renderCmd)
	renderCmd.Flags().StringVarP(&renderOut, "output", "o", "-", "raw interleaved float32 LE output, - for stdout")
	renderCmd.Flags().DurationVar(&renderTail, "tail", 2*time.Second, "silence rendered after the last event")
	renderCmd.Flags().StringVar(&renderState, "state", "", "restore parameters from this state file first")
}

var renderCmd = &cobra.Command{
	Use:   "render <file.mid>",
	Short: "Renders a standard MIDI file offline",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, synth, err := newEngine()
		if err != nil {
			return err
		}
		log := debug.Default().With("render")

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()
		seq, err := host.LoadSMF(in, host.NewDecoder(0), sampleRate)
		if err != nil {
			return err
		}
		log.Info("loaded %d events from %s", seq.Len(), args[0])

		if renderState != "" {
			snap, err := state.NewManager(synth.Info()).LoadFile(renderState)
			if err != nil {
				return err
			}
			if err := eng.Controller().Restore(cmd.Context(), snap.Values); err != nil {
				return err
			}
		}

		var w io.Writer = cmd.OutOrStdout()
		if renderOut != "-" {
			f, err := os.Create(renderOut)
			if err != nil {
				return err
			}
			defer f.Close()
			w = f
		}

		frames := seq.Length() + int64(renderTail.Seconds()*sampleRate)
		res, err := render(eng, seq, w, frames)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), res.timing)
		fmt.Fprintln(cmd.ErrOrStderr(), res.analysis)
		for _, p := range res.analysis.Problems() {
			log.Warn("%s", p)
		}
		if res.faults > 0 {
			return fmt.Errorf("%d blocks rejected, last: %w", res.faults, res.lastErr)
		}
		return nil
	},
}

type renderResult struct {
	frames   int64
	timing   debug.BlockStats
	analysis debug.Analysis
	faults   uint64
	lastErr  error
}

// render pulls whole blocks from eng until at least frames have been
// written to w.
func render(eng *engine.Engine, seq *host.Sequence, w io.Writer, frames int64) (renderResult, error) {
	cfg := eng.Config()
	stream := host.NewStream(eng, seq, cfg.MaxBlockSize)
	timer := debug.NewBlockTimer(1024)
	stream.SetTimer(timer)

	eng.SetActive(true)
	defer eng.SetActive(false)

	bw := bufio.NewWriterSize(w, 1<<16)
	block := make([]byte, cfg.MaxBlockSize*stream.FrameBytes())
	var a debug.Analyzer
	for stream.Frames() < frames {
		if _, err := stream.Read(block); err != nil {
			return renderResult{}, err
		}
		a.Add(stream.Block()[0])
		if _, err := bw.Write(block); err != nil {
			return renderResult{}, err
		}
		eng.Controller().Poll(nil)
	}
	if err := bw.Flush(); err != nil {
		return renderResult{}, err
	}

	res := renderResult{
		frames:   stream.Frames(),
		timing:   timer.Stats(),
		analysis: a.Result(),
	}
	res.faults, res.lastErr = stream.Faults()
	return res, nil
}
