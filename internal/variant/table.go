// Package variant maps a terrain category and adjacency mask to the tile
// authored for that situation.
package variant

import (
	"errors"
	"fmt"
	"sort"

	"github.com/zyedidia/generic/mapset"
	"go.uber.org/multierr"

	"autotile/internal/atlas"
	"autotile/internal/world"
)

var (
	ErrInvalidLabel      = errors.New("invalid tile label")
	ErrInvalidPattern    = errors.New("invalid pattern")
	ErrDuplicateLabel    = errors.New("duplicate label")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrMissingFallback   = errors.New("category has no wildcard fallback")
	ErrAmbiguousPattern  = errors.New("ambiguous equal-specificity patterns")
	ErrUnresolvedPattern = errors.New("no pattern matches")
)

// Rule binds one pattern of a category to a tile.
type Rule struct {
	Label    string
	Category world.Category
	Pattern  Pattern
	Tile     atlas.TileID
	Kind     Kind
}

type categoryTable struct {
	candidates []Rule // resolution order
	plain      int // index into candidates, -1 when absent
	alternates []Rule
	lut        [256]uint16
}

// Table is the validated, immutable resolution table. It is safe for
// concurrent use.
type Table struct {
	palette    *world.Palette
	categories map[world.Category]*categoryTable
	emitted    []atlas.TileID
	shadowed   []Rule
}

// Builder accumulates rules until Build validates them.
type Builder struct {
	palette *world.Palette
	rules   []Rule
}

func NewBuilder(p *world.Palette) *Builder {
	return &Builder{palette: p}
}

// Add registers a rule. Plain and alternate rules must carry the wildcard.
// The only rule Unspecified accepts is a plain one, see BindUnspecified.
func (b *Builder) Add(r Rule) {
	b.rules = append(b.rules, r)
}

// AddLabel parses a descriptor label and registers it for tile id.
func (b *Builder) AddLabel(id atlas.TileID, raw string) (Rule, error) {
	l, err := ParseLabel(b.palette, raw)
	if err != nil {
		return Rule{}, err
	}
	r := Rule{
		Label:    raw,
		Category: b.palette.MustLookup(l.Category),
		Pattern:  l.Pattern(),
		Tile:     id,
		Kind:     l.Kind,
	}
	b.Add(r)
	return r, nil
}

// BindUnspecified makes tile the plain rule of the Unspecified category.
// Build fails with ErrMissingFallback when no binding was made.
func (b *Builder) BindUnspecified(tile atlas.TileID) {
	b.Add(Rule{Label: world.UnspecifiedName, Category: world.Unspecified, Tile: tile, Kind: KindPlain})
}

// Build validates every category over all 256 masks and freezes the table.
// All problems found are returned together.
func (b *Builder) Build() (*Table, error) {
	var errs error

	byCategory := make(map[world.Category][]Rule)
	labels := make(map[string]Rule, len(b.rules))
	for _, r := range b.rules {
		if prev, dup := labels[r.Label]; dup {
			errs = multierr.Append(errs, fmt.Errorf("%q on tiles %d and %d: %w", r.Label, prev.Tile, r.Tile, ErrDuplicateLabel))
			continue
		}
		labels[r.Label] = r
		if !b.palette.Has(r.Category) {
			errs = multierr.Append(errs, fmt.Errorf("rule %q: category %d: %w", r.Label, r.Category, ErrUnknownCategory))
			continue
		}
		if r.Category == world.Unspecified && r.Kind != KindPlain {
			errs = multierr.Append(errs, fmt.Errorf("rule %q: %s rule for %s: %w", r.Label, r.Kind, world.UnspecifiedName, ErrInvalidPattern))
			continue
		}
		if r.Kind != KindTransition && !r.Pattern.IsWildcard() {
			errs = multierr.Append(errs, fmt.Errorf("rule %q: %s rule with pattern %s: %w", r.Label, r.Kind, r.Pattern, ErrInvalidPattern))
			continue
		}
		byCategory[r.Category] = append(byCategory[r.Category], r)
	}

	t := &Table{
		palette:    b.palette,
		categories: make(map[world.Category]*categoryTable),
	}
	emitted := mapset.New[atlas.TileID]()

	all := append([]world.Category{world.Unspecified}, b.palette.Categories()...)
	for _, c := range all {
		rules, ok := byCategory[c]
		if !ok && c == world.Unspecified {
			errs = multierr.Append(errs, fmt.Errorf("%s: no tile bound: %w", world.UnspecifiedName, ErrMissingFallback))
			continue
		}
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("%s: no rules: %w", b.palette.Name(c), ErrMissingFallback))
			continue
		}
		ct, err := b.buildCategory(c, rules)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		t.categories[c] = ct

		wins := make([]bool, len(ct.candidates))
		for _, idx := range ct.lut {
			wins[idx] = true
		}
		for i, r := range ct.candidates {
			if wins[i] {
				emitted.Put(r.Tile)
			} else {
				t.shadowed = append(t.shadowed, r)
			}
		}
		for _, r := range ct.alternates {
			emitted.Put(r.Tile)
		}
	}

	if errs != nil {
		return nil, errs
	}

	t.emitted = make([]atlas.TileID, 0, emitted.Size())
	emitted.Each(func(id atlas.TileID) {
		t.emitted = append(t.emitted, id)
	})
	sort.Slice(t.emitted, func(i, j int) bool { return t.emitted[i] < t.emitted[j] })
	return t, nil
}

func (b *Builder) buildCategory(c world.Category, rules []Rule) (*categoryTable, error) {
	name := b.palette.Name(c)
	var errs error

	ct := &categoryTable{plain: -1}
	for _, r := range rules {
		if r.Kind == KindAlternate {
			ct.alternates = append(ct.alternates, r)
			continue
		}
		ct.candidates = append(ct.candidates, r)
	}

	sort.SliceStable(ct.candidates, func(i, j int) bool {
		return ct.candidates[i].Pattern.Specificity() > ct.candidates[j].Pattern.Specificity()
	})
	for i, r := range ct.candidates {
		if r.Pattern.IsWildcard() {
			if ct.plain >= 0 {
				errs = multierr.Append(errs, fmt.Errorf("%s: %q and %q are both wildcards: %w",
					name, ct.candidates[ct.plain].Label, r.Label, ErrAmbiguousPattern))
				continue
			}
			ct.plain = i
		}
	}
	if ct.plain < 0 {
		return nil, multierr.Append(errs, fmt.Errorf("%s: %w", name, ErrMissingFallback))
	}

	// Only ties among the most specific matches of a mask are ambiguous.
	// Each pair is reported once.
	reported := make(map[[2]int]bool)
	for m := 0; m < 256; m++ {
		mask := world.Mask(m)
		winner := -1
		for i, r := range ct.candidates {
			if !r.Pattern.Matches(mask) {
				continue
			}
			if winner < 0 {
				winner = i
				continue
			}
			if r.Pattern.Specificity() < ct.candidates[winner].Pattern.Specificity() || r.Pattern.IsWildcard() {
				break
			}
			if pair := [2]int{winner, i}; !reported[pair] {
				reported[pair] = true
				errs = multierr.Append(errs, fmt.Errorf("%s: %q and %q both match mask %s: %w",
					name, ct.candidates[winner].Label, r.Label, mask, ErrAmbiguousPattern))
			}
		}
		ct.lut[m] = uint16(winner)
	}

	if errs != nil {
		return nil, errs
	}
	return ct, nil
}

// Palette returns the palette the table was built for.
func (t *Table) Palette() *world.Palette { return t.palette }

// ResolveRule returns the rule that wins for (c, m).
func (t *Table) ResolveRule(c world.Category, m world.Mask) (Rule, error) {
	ct, ok := t.categories[c]
	if !ok {
		return Rule{}, fmt.Errorf("category %s mask %s: %w", t.palette.Name(c), m, ErrUnresolvedPattern)
	}
	return ct.candidates[ct.lut[m]], nil
}

// Resolve returns the tile id that wins for (c, m).
func (t *Table) Resolve(c world.Category, m world.Mask) (atlas.TileID, error) {
	r, err := t.ResolveRule(c, m)
	if err != nil {
		return 0, err
	}
	return r.Tile, nil
}

// Plain returns the wildcard rule of c.
func (t *Table) Plain(c world.Category) (Rule, bool) {
	ct, ok := t.categories[c]
	if !ok {
		return Rule{}, false
	}
	return ct.candidates[ct.plain], true
}

// Alternates returns the decorative variations of c's plain tile in
// declaration order.
func (t *Table) Alternates(c world.Category) []Rule {
	ct, ok := t.categories[c]
	if !ok {
		return nil
	}
	return append([]Rule(nil), ct.alternates...)
}

// Rules returns c's candidate rules in resolution order.
func (t *Table) Rules(c world.Category) []Rule {
	ct, ok := t.categories[c]
	if !ok {
		return nil
	}
	return append([]Rule(nil), ct.candidates...)
}

// Emitted lists every tile id the table can produce, alternates included.
func (t *Table) Emitted() []atlas.TileID {
	return append([]atlas.TileID(nil), t.emitted...)
}

// Shadowed lists rules that never win for any mask.
func (t *Table) Shadowed() []Rule {
	return append([]Rule(nil), t.shadowed...)
}
