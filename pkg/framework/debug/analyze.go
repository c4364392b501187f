package debug

import (
	"fmt"
	"math"
)

// Analysis holds level statistics of a rendered buffer.
type Analysis struct {
	Samples        int
	Peak           float32
	RMS            float32
	DC             float32
	ClippedSamples int
	NaNCount       int
	Silent         bool
}

const (
	clipThreshold    = 0.99
	silenceThreshold = 0.0001
)

// Analyzer accumulates statistics over any number of buffers, e.g. every
// block of an offline render.
type Analyzer struct {
	count      int
	peak       float32
	sum        float64
	sumSquares float64
	clipped    int
	nans       int
}

// Add folds buf into the running statistics. NaN and Inf samples are
// counted and otherwise skipped.
func (a *Analyzer) Add(buf []float32) {
	for _, s := range buf {
		f := float64(s)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			a.nans++
			continue
		}
		abs := float32(math.Abs(f))
		if abs > a.peak {
			a.peak = abs
		}
		if abs >= clipThreshold {
			a.clipped++
		}
		a.sum += f
		a.sumSquares += f * f
		a.count++
	}
}

// Result returns the statistics so far.
func (a *Analyzer) Result() Analysis {
	r := Analysis{
		Samples:        a.count,
		Peak:           a.peak,
		ClippedSamples: a.clipped,
		NaNCount:       a.nans,
	}
	if a.count > 0 {
		r.RMS = float32(math.Sqrt(a.sumSquares / float64(a.count)))
		r.DC = float32(a.sum / float64(a.count))
	}
	r.Silent = r.RMS < silenceThreshold
	return r
}

// Analyze returns the statistics of a single buffer.
func Analyze(buf []float32) Analysis {
	var a Analyzer
	a.Add(buf)
	return a.Result()
}

// Problems lists the conditions worth warning about.
func (r Analysis) Problems() []string {
	var issues []string
	if r.NaNCount > 0 {
		issues = append(issues, fmt.Sprintf("%d NaN/Inf samples", r.NaNCount))
	}
	if r.ClippedSamples > 0 {
		issues = append(issues, fmt.Sprintf("%d clipped samples", r.ClippedSamples))
	}
	if math.Abs(float64(r.DC)) > 0.01 {
		issues = append(issues, fmt.Sprintf("DC offset %.4f", r.DC))
	}
	return issues
}

func (r Analysis) String() string {
	peakDB := -math.Inf(1)
	if r.Peak > 0 {
		peakDB = 20 * math.Log10(float64(r.Peak))
	}
	return fmt.Sprintf("samples=%d peak=%.4f (%.1f dBFS) rms=%.4f dc=%.4f",
		r.Samples, r.Peak, peakDB, r.RMS, r.DC)
}
