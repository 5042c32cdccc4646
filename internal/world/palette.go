package world

import (
	"fmt"
	"math"
)

// Category is the terrain tag stored in every grid cell.
// Categories are interned through a Palette; the numeric value has no meaning
// outside the palette that produced it.
type Category uint8

// Unspecified is the catch-all category. It is never declared in a palette;
// resolution tables bind it to a single plain tile.
const Unspecified Category = 0

// UnspecifiedName is the reserved name of the Unspecified category.
const UnspecifiedName = "unspecified"

// Palette maps category names to Category values and back
type Palette struct {
	names  []string // index = Category
	byName map[string]Category
}

// NewPalette interns the given category names in order. The first name gets
// Category 1; Unspecified is always present as 0.
func NewPalette(names ...string) (*Palette, error) {
	if len(names) > math.MaxUint8 {
		return nil, fmt.Errorf("palette supports at most %d categories, got %d", math.MaxUint8, len(names))
	}

	p := &Palette{
		names:  make([]string, 1, len(names)+1),
		byName: make(map[string]Category, len(names)+1),
	}
	p.names[0] = UnspecifiedName
	p.byName[UnspecifiedName] = Unspecified

	for _, name := range names {
		if name == "" {
			return nil, fmt.Errorf("empty category name")
		}
		if name == UnspecifiedName {
			return nil, fmt.Errorf("category name %q is reserved", name)
		}
		if _, exists := p.byName[name]; exists {
			return nil, fmt.Errorf("duplicate category %q", name)
		}
		c := Category(len(p.names))
		p.names = append(p.names, name)
		p.byName[name] = c
	}

	return p, nil
}

// Lookup returns the category registered under name
func (p *Palette) Lookup(name string) (Category, bool) {
	c, ok := p.byName[name]
	return c, ok
}

// MustLookup is Lookup for names known to exist; it panics otherwise.
func (p *Palette) MustLookup(name string) Category {
	c, ok := p.byName[name]
	if !ok {
		panic("unknown category: " + name)
	}
	return c
}

// Name returns the category's name, or a placeholder for values the palette never issued.
func (p *Palette) Name(c Category) string {
	if int(c) < len(p.names) {
		return p.names[c]
	}
	return fmt.Sprintf("category(%d)", c)
}

// Categories returns the declared categories in declaration order, without Unspecified.
func (p *Palette) Categories() []Category {
	out := make([]Category, 0, len(p.names)-1)
	for i := 1; i < len(p.names); i++ {
		out = append(out, Category(i))
	}
	return out
}

// Len returns the number of declared categories.
func (p *Palette) Len() int {
	return len(p.names) - 1
}

// Has reports whether c was issued by this palette (Unspecified included).
func (p *Palette) Has(c Category) bool {
	return int(c) < len(p.names)
}
