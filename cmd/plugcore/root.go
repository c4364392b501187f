// Command plugcore hosts the bundled synthesizer outside a plugin host:
// it renders MIDI files offline, plays live MIDI through the sound card and
// serves the parameter surface over HTTP.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/justyntemme/plugcore/examples/simplesynth"
	"github.com/justyntemme/plugcore/pkg/framework/debug"
	"github.com/justyntemme/plugcore/pkg/framework/engine"
	"github.com/justyntemme/plugcore/pkg/framework/fanout"
	"github.com/justyntemme/plugcore/pkg/framework/voice"
)

var (
	logLevel   string
	logFile    string
	sampleRate float64
	blockSize  int
	voices     int
	strategy   string
	legato     bool
	chord      string

	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "plugcore",
	Short: "Polyphonic instrument engine",
	Long: `plugcore drives the simplesynth instrument through the real-time
engine: offline renders from MIDI files, live playback and remote
parameter control.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := debug.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		debug.SetLevel(level)
		if logFile != "" {
			f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
			if err != nil {
				return fmt.Errorf("open log file: %w", err)
			}
			logCloser = f
			debug.SetOutput(f)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if logCloser != nil {
			debug.SetOutput(os.Stderr)
			return logCloser.Close()
		}
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&logLevel, "log-level", "info", "debug, info, warn, error or off")
	f.StringVar(&logFile, "log-file", "", "append logs to this file instead of stderr")
	f.Float64Var(&sampleRate, "sample-rate", 48000, "sample rate in Hz")
	f.IntVarP(&blockSize, "block-size", "b", 512, "frames per processing block")
	f.IntVarP(&voices, "voices", "v", 16, "voice pool capacity")
	f.StringVar(&strategy, "strategy", "poly", "voice allocation: poly or mono")
	f.BoolVar(&legato, "legato", false, "glide between overlapping notes in mono mode")
	f.StringVar(&chord, "chord", "single", "fan-out mode, e.g. major, unison:3, minor/5")
}

// engineConfig builds the engine configuration from the global flags.
func engineConfig() (engine.Config, error) {
	cfg := engine.DefaultConfig()
	cfg.SampleRate = sampleRate
	cfg.MaxBlockSize = blockSize
	cfg.Voices = voices
	cfg.Legato = legato

	s, err := voice.ParseStrategy(strategy)
	if err != nil {
		return cfg, err
	}
	cfg.Strategy = s

	mode, err := fanout.ParseMode(chord)
	if err != nil {
		return cfg, err
	}
	cfg.Fanout = mode

	cfg.ChordParam = simplesynth.ParamChord
	cfg.ChordModes = simplesynth.ChordModes()
	return cfg, cfg.Validate()
}

func newEngine() (*engine.Engine, *simplesynth.Synth, error) {
	cfg, err := engineConfig()
	if err != nil {
		return nil, nil, err
	}
	synth := simplesynth.New()
	eng, err := engine.New(cfg, synth)
	if err != nil {
		return nil, nil, err
	}
	return eng, synth, nil
}
