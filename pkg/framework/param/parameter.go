// Package param describes plugin parameters: immutable descriptors, their
// response curves and the catalog that indexes them.
package param

import (
	"fmt"
	"math"
	"strconv"
)

// Descriptor is an immutable catalog entry. It is built once at
// configuration time and shared across threads without synchronization.
type Descriptor struct {
	ID           uint32
	Name         string
	ShortName    string
	Unit         string
	Min          float64
	Max          float64
	DefaultValue float64 // normalized
	StepCount    int32
	Flags        uint32

	curve      Curve
	labels     []string
	formatFunc func(float64) string
	parseFunc  func(string) (float64, error)
}

// Flags for descriptors
const (
	CanAutomate  uint32 = 1 << 0
	IsReadOnly   uint32 = 1 << 1
	IsWrapAround uint32 = 1 << 2
	IsList       uint32 = 1 << 3
	IsHidden     uint32 = 1 << 4
	CanModulate  uint32 = 1 << 5
	IsBypass     uint32 = 1 << 16
)

// Automatable reports whether the host may automate this parameter.
func (d *Descriptor) Automatable() bool { return d.Flags&CanAutomate != 0 }

// Modulatable reports whether modulation offsets apply to this parameter.
func (d *Descriptor) Modulatable() bool { return d.Flags&CanModulate != 0 }

// Stepped reports whether the parameter takes discrete values.
func (d *Descriptor) Stepped() bool { return d.StepCount > 0 }

// Curve returns the response curve, linear when none was configured.
func (d *Descriptor) Curve() Curve {
	if d.curve == nil {
		return LinearCurve{}
	}
	return d.curve
}

// Labels returns the entry names of an enumerated parameter.
func (d *Descriptor) Labels() []string {
	return d.labels
}

// Quantize snaps a normalized value onto the descriptor's step grid.
func (d *Descriptor) Quantize(normalized float64) float64 {
	normalized = ClampNormalized(normalized, d.DefaultValue)
	if d.StepCount <= 0 {
		return normalized
	}
	steps := float64(d.StepCount)
	return math.Round(normalized*steps) / steps
}

// Normalize converts a plain value to normalized (0-1)
func (d *Descriptor) Normalize(plain float64) float64 {
	return d.Quantize(d.Curve().ToNormalized(plain, d.Min, d.Max))
}

// Denormalize converts a normalized value (0-1) to a plain value
func (d *Descriptor) Denormalize(normalized float64) float64 {
	return d.Curve().ToPlain(d.Quantize(normalized), d.Min, d.Max)
}

// DefaultPlain returns the default in plain units.
func (d *Descriptor) DefaultPlain() float64 {
	return d.Denormalize(d.DefaultValue)
}

// FormatValue renders a normalized value for display.
func (d *Descriptor) FormatValue(normalized float64) string {
	plain := d.Denormalize(normalized)

	if d.formatFunc != nil {
		return d.formatFunc(plain)
	}
	if len(d.labels) > 0 {
		idx := Clamp(int(math.Round(plain-d.Min)), 0, len(d.labels)-1)
		return d.labels[idx]
	}
	if d.StepCount > 0 {
		return fmt.Sprintf("%.0f", plain)
	}
	return fmt.Sprintf("%.2f", plain)
}

// ParseValue parses display text into a normalized value.
func (d *Descriptor) ParseValue(str string) (float64, error) {
	if d.parseFunc != nil {
		plain, err := d.parseFunc(str)
		if err != nil {
			return 0, err
		}
		return d.Normalize(plain), nil
	}
	for i, label := range d.labels {
		if label == str {
			return d.Normalize(d.Min + float64(i)), nil
		}
	}
	plain, err := strconv.ParseFloat(str, 64)
	if err != nil {
		return 0, err
	}
	return d.Normalize(plain), nil
}

func (d *Descriptor) String() string {
	return fmt.Sprintf("Param{id:%d, name:%q, range:[%g,%g], unit:%q}", d.ID, d.Name, d.Min, d.Max, d.Unit)
}
