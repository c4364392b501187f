package param

import (
	"errors"
	"fmt"
)

// ErrDuplicateID is returned when two descriptors share an ID.
var ErrDuplicateID = errors.New("param: duplicate parameter id")

// Catalog is the immutable, ordered set of descriptors for one plugin
// instance. Each descriptor also gets a dense index so that live values can
// be stored in flat arrays.
type Catalog struct {
	descs []*Descriptor
	index map[uint32]int
}

// NewCatalog builds a catalog. Declaration order is preserved.
func NewCatalog(descs ...*Descriptor) (*Catalog, error) {
	c := &Catalog{
		descs: make([]*Descriptor, 0, len(descs)),
		index: make(map[uint32]int, len(descs)),
	}
	for _, d := range descs {
		if d == nil {
			continue
		}
		if _, exists := c.index[d.ID]; exists {
			return nil, fmt.Errorf("%w: %d (%s)", ErrDuplicateID, d.ID, d.Name)
		}
		c.index[d.ID] = len(c.descs)
		c.descs = append(c.descs, d)
	}
	return c, nil
}

// MustCatalog is NewCatalog for static declarations.
func MustCatalog(descs ...*Descriptor) *Catalog {
	c, err := NewCatalog(descs...)
	if err != nil {
		panic(err)
	}
	return c
}

// Get retrieves a descriptor by ID
func (c *Catalog) Get(id uint32) *Descriptor {
	if i, ok := c.index[id]; ok {
		return c.descs[i]
	}
	return nil
}

// IndexOf returns the dense index of id.
func (c *Catalog) IndexOf(id uint32) (int, bool) {
	i, ok := c.index[id]
	return i, ok
}

// At returns the descriptor at a dense index
func (c *Catalog) At(index int) *Descriptor {
	if index < 0 || index >= len(c.descs) {
		return nil
	}
	return c.descs[index]
}

// Count returns the number of descriptors
func (c *Catalog) Count() int {
	return len(c.descs)
}

// All returns all descriptors in declaration order. The slice is a copy;
// the descriptors are shared.
func (c *Catalog) All() []*Descriptor {
	out := make([]*Descriptor, len(c.descs))
	copy(out, c.descs)
	return out
}

// ByName finds a descriptor by name or short name.
func (c *Catalog) ByName(name string) *Descriptor {
	for _, d := range c.descs {
		if d.Name == name || d.ShortName == name {
			return d
		}
	}
	return nil
}
