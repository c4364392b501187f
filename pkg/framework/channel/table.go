package channel

import (
	"math"
	"sync/atomic"

	"github.com/justyntemme/plugcore/pkg/framework/param"
)

// Table holds the last-applied value of every parameter, indexed densely by
// catalog position. Only the audio thread writes it (or the control thread
// while processing is suspended); any thread may read it.
type Table struct {
	catalog *param.Catalog
	values  []atomic.Uint64
	mods    []atomic.Uint64
	gesture []atomic.Bool
}

// NewTable creates a table initialised to catalog defaults.
func NewTable(catalog *param.Catalog) *Table {
	n := catalog.Count()
	t := &Table{
		catalog: catalog,
		values:  make([]atomic.Uint64, n),
		mods:    make([]atomic.Uint64, n),
		gesture: make([]atomic.Bool, n),
	}
	t.Reset()
	return t
}

// Reset restores defaults and clears modulation and gestures.
func (t *Table) Reset() {
	for i := range t.values {
		t.values[i].Store(math.Float64bits(t.catalog.At(i).DefaultValue))
		t.mods[i].Store(math.Float64bits(0))
		t.gesture[i].Store(false)
	}
}

// Value returns the base value at a dense index.
func (t *Table) Value(index int) float64 {
	return math.Float64frombits(t.values[index].Load())
}

// Modulation returns the modulation offset at a dense index.
func (t *Table) Modulation(index int) float64 {
	return math.Float64frombits(t.mods[index].Load())
}

// Effective returns base plus modulation, clamped and quantized.
func (t *Table) Effective(index int) float64 {
	d := t.catalog.At(index)
	v := t.Value(index)
	if d.Modulatable() {
		v += t.Modulation(index)
	}
	return d.Quantize(v)
}

func (t *Table) setValue(index int, v float64) {
	d := t.catalog.At(index)
	t.values[index].Store(math.Float64bits(d.Quantize(v)))
}

func (t *Table) setModulation(index int, v float64) {
	if math.IsNaN(v) {
		v = 0
	}
	t.mods[index].Store(math.Float64bits(param.Clamp(v, -1, 1)))
}

// Len returns the number of parameters.
func (t *Table) Len() int {
	return len(t.values)
}
