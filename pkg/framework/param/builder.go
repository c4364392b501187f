package param

// Builder provides a fluent API for creating descriptors
type Builder struct {
	desc         *Descriptor
	defaultPlain *float64
}

// New creates a new descriptor builder
func New(id uint32, name string) *Builder {
	return &Builder{
		desc: &Descriptor{
			ID:        id,
			Name:      name,
			ShortName: name,
			Min:       0,
			Max:       1,
			Flags:     CanAutomate,
		},
	}
}

// ShortName sets the short name
func (b *Builder) ShortName(name string) *Builder {
	b.desc.ShortName = name
	return b
}

// Range sets the min and max values
func (b *Builder) Range(min, max float64) *Builder {
	b.desc.Min = min
	b.desc.Max = max
	return b
}

// Default sets the default value in plain units. It is normalized in Build
// so that it respects the curve regardless of call order.
func (b *Builder) Default(value float64) *Builder {
	b.defaultPlain = &value
	return b
}

// Unit sets the unit label
func (b *Builder) Unit(unit string) *Builder {
	b.desc.Unit = unit
	return b
}

// Curve sets the response curve
func (b *Builder) Curve(c Curve) *Builder {
	b.desc.curve = c
	return b
}

// Steps sets the number of discrete steps
func (b *Builder) Steps(count int32) *Builder {
	b.desc.StepCount = count
	return b
}

// Flags sets descriptor flags
func (b *Builder) Flags(flags uint32) *Builder {
	b.desc.Flags = flags
	return b
}

// Modulatable allows modulation offsets on this parameter
func (b *Builder) Modulatable() *Builder {
	b.desc.Flags |= CanModulate
	return b
}

// Toggle creates a boolean parameter
func (b *Builder) Toggle() *Builder {
	b.desc.Min = 0
	b.desc.Max = 1
	b.desc.StepCount = 1
	b.desc.formatFunc = OnOffFormatter
	b.desc.parseFunc = OnOffParser
	return b
}

// List creates an enumerated parameter with one step per label
func (b *Builder) List(labels ...string) *Builder {
	b.desc.labels = append([]string(nil), labels...)
	b.desc.Min = 0
	b.desc.Max = float64(len(labels) - 1)
	if len(labels) > 1 {
		b.desc.StepCount = int32(len(labels) - 1)
	}
	b.desc.Flags |= IsList
	return b
}

// ReadOnly marks the parameter as read-only
func (b *Builder) ReadOnly() *Builder {
	b.desc.Flags |= IsReadOnly
	b.desc.Flags &^= CanAutomate
	return b
}

// Hidden marks the parameter as hidden
func (b *Builder) Hidden() *Builder {
	b.desc.Flags |= IsHidden
	return b
}

// Bypass marks this as the bypass parameter
func (b *Builder) Bypass() *Builder {
	b.desc.Flags |= IsBypass
	return b.Toggle()
}

// Formatter sets custom value formatting and parsing
func (b *Builder) Formatter(format func(float64) string, parse func(string) (float64, error)) *Builder {
	b.desc.formatFunc = format
	b.desc.parseFunc = parse
	return b
}

// Build returns the configured descriptor
func (b *Builder) Build() *Descriptor {
	if b.defaultPlain != nil {
		b.desc.DefaultValue = b.desc.Normalize(*b.defaultPlain)
	}
	return b.desc
}
