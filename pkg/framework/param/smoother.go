package param

import "math"

// SmoothingType selects how a Smoother approaches its target.
type SmoothingType int

const (
	// LinearSmoothing reaches the target in a fixed number of samples.
	LinearSmoothing SmoothingType = iota
	// ExponentialSmoothing is a one-pole lag.
	ExponentialSmoothing
	// LogarithmicSmoothing moves at a constant ratio per sample; use it for
	// frequencies.
	LogarithmicSmoothing
)

const (
	smoothThreshold = 1e-4
	logFloor        = 1e-3
)

// Smoother ramps a plain parameter value towards the last value resolved
// for it, one sample at a time. The zero value jumps straight to targets.
type Smoother struct {
	kind    SmoothingType
	current float64
	target  float64
	step    float64 // linear or log-space increment, or the pole
	samples float64
	left    int
	active  bool
}

// NewSmoother returns a smoother that settles in about timeMs.
func NewSmoother(kind SmoothingType, sampleRate, timeMs float64) Smoother {
	s := Smoother{kind: kind}
	s.SetTime(sampleRate, timeMs)
	return s
}

// SetTime changes the settling time. ExponentialSmoothing reaches -60 dB of
// the distance to the target in timeMs.
func (s *Smoother) SetTime(sampleRate, timeMs float64) {
	s.samples = math.Max(0, sampleRate*timeMs/1000)
	if s.active {
		s.active = false
		s.SetTarget(s.target)
	}
}

// SetTarget starts a ramp from the current value to target.
func (s *Smoother) SetTarget(target float64) {
	if s.active && target == s.target {
		return
	}
	s.target = target
	if s.samples < 1 || math.Abs(target-s.current) < smoothThreshold {
		s.current, s.active = target, false
		return
	}
	s.active = true
	s.left = int(math.Ceil(s.samples))

	switch s.kind {
	case LinearSmoothing:
		s.step = (target - s.current) / s.samples
	case ExponentialSmoothing:
		s.step = math.Exp(-6.908 / s.samples)
	case LogarithmicSmoothing:
		s.step = (math.Log(math.Max(target, logFloor)) - math.Log(math.Max(s.current, logFloor))) / s.samples
	}
}

// Next advances one sample and returns the smoothed value.
func (s *Smoother) Next() float64 {
	if !s.active {
		return s.current
	}

	switch s.kind {
	case LinearSmoothing:
		s.current += s.step
		if s.left--; s.left <= 0 || (s.step > 0) == (s.current >= s.target) {
			s.settle()
		}
	case ExponentialSmoothing:
		s.current = s.target + (s.current-s.target)*s.step
		if math.Abs(s.current-s.target) < smoothThreshold {
			s.settle()
		}
	case LogarithmicSmoothing:
		s.current = math.Max(s.current, logFloor) * math.Exp(s.step)
		if s.left--; s.left <= 0 || (s.step > 0) == (s.current >= s.target) {
			s.settle()
		}
	}
	return s.current
}

func (s *Smoother) settle() {
	s.current, s.active = s.target, false
}

// Smoothing reports whether a ramp is in progress.
func (s *Smoother) Smoothing() bool {
	return s.active
}

// Current returns the value without advancing.
func (s *Smoother) Current() float64 {
	return s.current
}

// Reset jumps to value.
func (s *Smoother) Reset(value float64) {
	s.current, s.target, s.active = value, value, false
}
