package process

import (
	"github.com/justyntemme/plugcore/pkg/framework/channel"
	"github.com/justyntemme/plugcore/pkg/framework/param"
)

// Values holds every parameter resolved to plain units for the sub-range
// being rendered. Resolve refreshes it from the live table; reads never
// touch the queues.
type Values struct {
	catalog *param.Catalog
	table   *channel.Table
	norm    []float64
	plain   []float64
}

// NewValues allocates a resolver for ch's catalog.
func NewValues(ch *channel.Channel) *Values {
	n := ch.Catalog().Count()
	v := &Values{
		catalog: ch.Catalog(),
		table:   ch.Table(),
		norm:    make([]float64, n),
		plain:   make([]float64, n),
	}
	v.Resolve()
	return v
}

// Resolve copies effective values out of the table and maps them through
// each descriptor's curve.
func (v *Values) Resolve() {
	for i := range v.norm {
		n := v.table.Effective(i)
		v.norm[i] = n
		v.plain[i] = v.catalog.At(i).Denormalize(n)
	}
}

// Plain returns the resolved plain value of id, or 0 when unknown.
func (v *Values) Plain(id uint32) float64 {
	if i, ok := v.catalog.IndexOf(id); ok {
		return v.plain[i]
	}
	return 0
}

// Normalized returns the resolved normalized value of id.
func (v *Values) Normalized(id uint32) float64 {
	if i, ok := v.catalog.IndexOf(id); ok {
		return v.norm[i]
	}
	return 0
}

// Bool reads a toggle parameter.
func (v *Values) Bool(id uint32) bool {
	return v.Normalized(id) >= 0.5
}

// Index reads a list parameter as an entry index.
func (v *Values) Index(id uint32) int {
	d := v.catalog.Get(id)
	if d == nil {
		return 0
	}
	return int(v.Plain(id) - d.Min + 0.5)
}
