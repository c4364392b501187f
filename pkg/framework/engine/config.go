package engine

import (
	"errors"
	"fmt"

	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/fanout"
	"github.com/justyntemme/plugcore/pkg/framework/voice"
)

// Config fixes every size the engine allocates up front.
type Config struct {
	SampleRate    float64
	MaxBlockSize  int
	Channels      int
	Voices        int
	QueueCapacity int

	Strategy voice.Strategy
	Legato   bool

	// Fanout is the chord mode used when no chord parameter is configured.
	Fanout           fanout.Mode
	MaxFanoutEntries int

	// ChordParam, when non-zero, names a list parameter whose index picks
	// the fan-out mode from ChordModes at every note-on.
	ChordParam uint32
	ChordModes []fanout.Mode
}

// DefaultConfig returns a stereo, 16-voice polyphonic configuration.
func DefaultConfig() Config {
	return Config{
		SampleRate:       48000,
		MaxBlockSize:     512,
		Channels:         2,
		Voices:           16,
		QueueCapacity:    channel.DefaultCapacity,
		Strategy:         voice.Polyphonic,
		Fanout:           fanout.Single,
		MaxFanoutEntries: fanout.DefaultEntries,
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	var errs []error
	if c.SampleRate <= 0 {
		errs = append(errs, fmt.Errorf("sample rate must be positive, got %v", c.SampleRate))
	}
	if c.MaxBlockSize < 1 {
		errs = append(errs, fmt.Errorf("max block size must be positive, got %d", c.MaxBlockSize))
	}
	if c.Channels < 1 {
		errs = append(errs, fmt.Errorf("channels must be positive, got %d", c.Channels))
	}
	if c.Voices < 1 {
		errs = append(errs, fmt.Errorf("voices must be positive, got %d", c.Voices))
	}
	if c.QueueCapacity < 1 {
		errs = append(errs, fmt.Errorf("queue capacity must be positive, got %d", c.QueueCapacity))
	}
	if c.MaxFanoutEntries < 1 {
		errs = append(errs, fmt.Errorf("fan-out entries must be positive, got %d", c.MaxFanoutEntries))
	}
	if c.Strategy != voice.Polyphonic && c.Strategy != voice.MonoLast {
		errs = append(errs, fmt.Errorf("unknown voice strategy %v", c.Strategy))
	}
	if err := c.Fanout.Validate(); err != nil {
		errs = append(errs, err)
	}
	for _, m := range c.ChordModes {
		if err := m.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("engine: invalid config: %w", err)
	}
	return nil
}
