package plugin

import (
	"github.com/justyntemme/plugcore/pkg/framework/param"
	"github.com/justyntemme/plugcore/pkg/framework/process"
	"github.com/justyntemme/plugcore/pkg/framework/voice"
)

// Instrument is implemented by every plugin the engine can host.
type Instrument interface {
	Info() Info
	// Catalog returns the immutable parameter catalog. It is read once.
	Catalog() *param.Catalog
	// NewVoice builds the DSP state of slot index. values is resolved by
	// the engine before every sub-range and stays valid for the engine's
	// lifetime.
	NewVoice(index int, values *process.Values, sampleRate float64) voice.Voice
}

// Graph is implemented by instruments that process the voice mix. When it
// is absent the mix is copied to every output channel unchanged.
type Graph interface {
	// ProcessRange writes ctx.Output for the current sub-range. The voice
	// mix is in ctx.Mono(). Output starts zeroed.
	ProcessRange(ctx *process.Context)
}

// Resetter is implemented by instruments holding block-to-block state
// outside their voices, cleared when the engine is reactivated.
type Resetter interface {
	Reset()
}
