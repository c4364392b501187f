package param

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Curve maps between a descriptor's plain range and the normalized [0,1]
// domain. Implementations must be monotonic and map 0->min, 1->max.
type Curve interface {
	ToNormalized(plain, min, max float64) float64
	ToPlain(normalized, min, max float64) float64
}

// LinearCurve is the default straight-line mapping.
type LinearCurve struct{}

func (LinearCurve) ToNormalized(plain, min, max float64) float64 {
	if max <= min {
		return 0
	}
	return Clamp((plain-min)/(max-min), 0, 1)
}

func (LinearCurve) ToPlain(normalized, min, max float64) float64 {
	return min + Clamp(normalized, 0, 1)*(max-min)
}

// LogCurve spaces values geometrically, suited to frequency and time
// parameters. Both ends of the range must be positive.
type LogCurve struct{}

func (LogCurve) ToNormalized(plain, min, max float64) float64 {
	if max <= min || min <= 0 {
		return LinearCurve{}.ToNormalized(plain, min, max)
	}
	if plain <= min {
		return 0
	}
	return Clamp(math.Log(plain/min)/math.Log(max/min), 0, 1)
}

func (LogCurve) ToPlain(normalized, min, max float64) float64 {
	if max <= min || min <= 0 {
		return LinearCurve{}.ToPlain(normalized, min, max)
	}
	return min * math.Pow(max/min, Clamp(normalized, 0, 1))
}

// PowerCurve skews the range by an exponent. Exponents above 1 give more
// resolution near the minimum.
type PowerCurve struct {
	Exponent float64
}

func (c PowerCurve) exponent() float64 {
	if c.Exponent <= 0 {
		return 1
	}
	return c.Exponent
}

func (c PowerCurve) ToNormalized(plain, min, max float64) float64 {
	lin := LinearCurve{}.ToNormalized(plain, min, max)
	return math.Pow(lin, 1/c.exponent())
}

func (c PowerCurve) ToPlain(normalized, min, max float64) float64 {
	return LinearCurve{}.ToPlain(math.Pow(Clamp(normalized, 0, 1), c.exponent()), min, max)
}

// Clamp limits v to [lo, hi].
func Clamp[T constraints.Float | constraints.Integer](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampNormalized clamps a raw value to [0,1]. NaN maps to fallback.
func ClampNormalized(v, fallback float64) float64 {
	if math.IsNaN(v) {
		return fallback
	}
	return Clamp(v, 0, 1)
}
