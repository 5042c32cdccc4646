// Package atlas maps tile ids from a tileset descriptor to their position
// in the atlas image.
package atlas

import (
	"errors"
	"fmt"
	"image"
	"sort"

	"github.com/zyedidia/generic/mapset"
)

var (
	ErrInvalidGeometry = errors.New("invalid atlas geometry")
	ErrDuplicateTile   = errors.New("duplicate tile id")
	ErrNegativeTile    = errors.New("negative tile id")
	ErrTileOutOfRange  = errors.New("tile id beyond tile count")
	ErrUnknownVariant  = errors.New("unknown variant")
)

// TileID is the descriptor's tile identifier. It is the stable name of a variant.
type TileID int

// Geometry describes how tiles are laid out in the atlas image.
type Geometry struct {
	Image       string
	ImageWidth  int
	ImageHeight int
	TileWidth   int
	TileHeight  int
	Columns     int
	TileCount   int // 0 when the descriptor does not declare one
	Margin      int
	Spacing     int
}

// Validate checks the fields lookups depend on.
func (g Geometry) Validate() error {
	switch {
	case g.TileWidth <= 0 || g.TileHeight <= 0:
		return fmt.Errorf("%w: tile size %dx%d", ErrInvalidGeometry, g.TileWidth, g.TileHeight)
	case g.Columns <= 0:
		return fmt.Errorf("%w: %d columns", ErrInvalidGeometry, g.Columns)
	case g.TileCount < 0:
		return fmt.Errorf("%w: tile count %d", ErrInvalidGeometry, g.TileCount)
	case g.Margin < 0 || g.Spacing < 0:
		return fmt.Errorf("%w: margin %d spacing %d", ErrInvalidGeometry, g.Margin, g.Spacing)
	}
	return nil
}

// Rows returns the number of tile rows the geometry declares, or 0 when unknown.
func (g Geometry) Rows() int {
	if g.TileCount == 0 {
		return 0
	}
	return (g.TileCount + g.Columns - 1) / g.Columns
}

// Coordinate locates one tile inside the atlas image
type Coordinate struct {
	Tile TileID
	Row  int
	Col  int
	Rect image.Rectangle
}

func (c Coordinate) String() string {
	return fmt.Sprintf("tile %d (%d,%d)", c.Tile, c.Row, c.Col)
}

// Entry is one labeled tile from a descriptor.
type Entry struct {
	ID    TileID
	Label string
}

// Index is an immutable id -> coordinate table. Ids may be sparse.
type Index struct {
	geometry Geometry
	coords   map[TileID]Coordinate
	labels   map[TileID]string
	ids      []TileID
}

// NewIndex validates the geometry and entries and builds the index.
func NewIndex(g Geometry, entries []Entry) (*Index, error) {
	if err := g.Validate(); err != nil {
		return nil, err
	}

	ix := &Index{
		geometry: g,
		coords:   make(map[TileID]Coordinate, len(entries)),
		labels:   make(map[TileID]string, len(entries)),
		ids:      make([]TileID, 0, len(entries)),
	}

	for _, e := range entries {
		switch {
		case e.ID < 0:
			return nil, fmt.Errorf("tile %d (%q): %w", e.ID, e.Label, ErrNegativeTile)
		case g.TileCount > 0 && int(e.ID) >= g.TileCount:
			return nil, fmt.Errorf("tile %d (%q) with tile count %d: %w", e.ID, e.Label, g.TileCount, ErrTileOutOfRange)
		}
		if _, exists := ix.coords[e.ID]; exists {
			return nil, fmt.Errorf("tile %d (%q and %q): %w", e.ID, ix.labels[e.ID], e.Label, ErrDuplicateTile)
		}
		ix.coords[e.ID] = g.coordinate(e.ID)
		ix.labels[e.ID] = e.Label
		ix.ids = append(ix.ids, e.ID)
	}

	sort.Slice(ix.ids, func(i, j int) bool { return ix.ids[i] < ix.ids[j] })
	return ix, nil
}

func (g Geometry) coordinate(id TileID) Coordinate {
	row, col := int(id)/g.Columns, int(id)%g.Columns
	x := g.Margin + col*(g.TileWidth+g.Spacing)
	y := g.Margin + row*(g.TileHeight+g.Spacing)
	return Coordinate{
		Tile: id,
		Row:  row,
		Col:  col,
		Rect: image.Rect(x, y, x+g.TileWidth, y+g.TileHeight),
	}
}

// Lookup returns the coordinate of id.
func (ix *Index) Lookup(id TileID) (Coordinate, error) {
	c, ok := ix.coords[id]
	if !ok {
		return Coordinate{}, fmt.Errorf("tile %d: %w", id, ErrUnknownVariant)
	}
	return c, nil
}

// Label returns the descriptor label of id.
func (ix *Index) Label(id TileID) (string, bool) {
	l, ok := ix.labels[id]
	return l, ok
}

// Has reports whether id is indexed.
func (ix *Index) Has(id TileID) bool {
	_, ok := ix.coords[id]
	return ok
}

// IDs returns every indexed id in ascending order.
func (ix *Index) IDs() []TileID {
	out := make([]TileID, len(ix.ids))
	copy(out, ix.ids)
	return out
}

// Entries returns the indexed entries in id order.
func (ix *Index) Entries() []Entry {
	out := make([]Entry, 0, len(ix.ids))
	for _, id := range ix.ids {
		out = append(out, Entry{ID: id, Label: ix.labels[id]})
	}
	return out
}

func (ix *Index) Len() int { return len(ix.ids) }

func (ix *Index) Geometry() Geometry { return ix.geometry }

// CrossCheck compares the ids a resolution table can emit against the index.
// An emitted id missing from the index is an error naming every such id.
// Indexed ids that are never emitted come back as unreachable; they are not an error.
func CrossCheck(ix *Index, emitted []TileID) (unreachable []TileID, err error) {
	seen := mapset.New[TileID]()
	var missing []TileID
	for _, id := range emitted {
		if seen.Has(id) {
			continue
		}
		seen.Put(id)
		if !ix.Has(id) {
			missing = append(missing, id)
		}
	}

	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, fmt.Errorf("table emits tiles %v absent from atlas: %w", missing, ErrUnknownVariant)
	}

	for _, id := range ix.ids {
		if !seen.Has(id) {
			unreachable = append(unreachable, id)
		}
	}
	return unreachable, nil
}
