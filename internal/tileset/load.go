package tileset

import (
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"autotile/internal/atlas"
	"autotile/internal/config"
	"autotile/internal/logger"
	"autotile/internal/resolver"
	"autotile/internal/threading/core"
	"autotile/internal/variant"
	"autotile/internal/world"
)

// ConfigError is a load-time failure. Err may combine several problems;
// use multierr.Errors to list them.
type ConfigError struct {
	Source string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error in %s: %v", e.Source, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Bundle is everything built from one descriptor and rules file.
type Bundle struct {
	Descriptor *Descriptor
	Palette    *world.Palette
	Atlas      *atlas.Index
	Table      *variant.Table
	Legend     world.Legend
	Fallback   world.Category
	Bands      []world.Band
	Warnings   []string
}

// LoadFromConfig loads the descriptor and rules named in cfg.
func LoadFromConfig(cfg config.TilesetConfig) (*Bundle, error) {
	rules := &config.RulesConfig{}
	if cfg.Rules != "" {
		rc, err := config.LoadRules(cfg.Rules)
		if err != nil {
			return nil, &ConfigError{Source: cfg.Rules, Err: err}
		}
		rules = rc
	}
	return Load(cfg.Descriptor, rules)
}

// Load reads the descriptor at path and builds it with rules.
func Load(path string, rules *config.RulesConfig) (*Bundle, error) {
	desc, err := LoadDescriptor(path)
	if err != nil {
		return nil, &ConfigError{Source: path, Err: err}
	}
	return Build(desc, rules)
}

// Build validates desc against rules. Every problem found is reported in the
// returned *ConfigError; warnings do not fail the build.
//
// Unspecified cells resolve to a tile labeled "unspecified" when the
// descriptor has one, otherwise to the plain tile of the fallback category.
// Without either the build fails with ErrMissingFallback.
func Build(desc *Descriptor, rules *config.RulesConfig) (*Bundle, error) {
	if rules == nil {
		rules = &config.RulesConfig{}
	}
	source := desc.Source
	if source == "" {
		source = desc.Name
	}
	fail := func(err error) (*Bundle, error) {
		return nil, &ConfigError{Source: source, Err: err}
	}

	index, err := atlas.NewIndex(desc.Geometry, desc.Tiles)
	if err != nil {
		return fail(err)
	}

	names := rules.Categories
	if len(names) == 0 {
		names = variant.DeriveCategories(desc.Labels())
	}
	palette, err := world.NewPalette(names...)
	if err != nil {
		return fail(err)
	}

	b := &Bundle{Descriptor: desc, Palette: palette, Atlas: index}
	builder := variant.NewBuilder(palette)
	var errs error

	byLabel := make(map[string]variant.Rule, len(desc.Tiles))
	bound := false
	for _, e := range desc.Tiles {
		if e.Label == world.UnspecifiedName {
			builder.BindUnspecified(e.ID)
			bound = true
			continue
		}
		r, err := ruleFor(palette, e, rules.Patterns)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		byLabel[e.Label] = r
		builder.Add(r)
	}
	for label := range rules.Patterns {
		if _, ok := byLabel[label]; !ok && !hasTile(desc, label) {
			errs = multierr.Append(errs, fmt.Errorf("pattern override for unknown label %q: %w", label, variant.ErrInvalidLabel))
		}
	}

	for _, a := range rules.Aliases {
		target, ok := byLabel[a.Tile]
		if !ok {
			errs = multierr.Append(errs, fmt.Errorf("alias %q reuses unknown label %q: %w", a.Label, a.Tile, variant.ErrInvalidLabel))
			continue
		}
		p, err := variant.ParsePattern(a.Pattern)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("alias %q: %w", a.Label, err))
			continue
		}
		builder.Add(variant.Rule{
			Label:    a.Label,
			Category: target.Category,
			Pattern:  p,
			Tile:     target.Tile,
			Kind:     variant.KindTransition,
		})
	}

	if rules.FallbackCategory != "" {
		c, ok := palette.Lookup(rules.FallbackCategory)
		if !ok || c == world.Unspecified {
			errs = multierr.Append(errs, fmt.Errorf("fallback category %q is not declared", rules.FallbackCategory))
		} else {
			b.Fallback = c
			plain, ok := byLabel[rules.FallbackCategory]
			switch {
			case bound:
			case !ok || plain.Kind != variant.KindPlain:
				errs = multierr.Append(errs, fmt.Errorf("fallback category %q has no plain tile: %w", rules.FallbackCategory, variant.ErrMissingFallback))
			default:
				// Unspecified cells draw as the fallback's plain tile.
				builder.BindUnspecified(plain.Tile)
			}
		}
	}

	table, err := builder.Build()
	errs = multierr.Append(errs, err)
	if errs != nil {
		return fail(errs)
	}
	b.Table = table

	unreachable, err := atlas.CrossCheck(index, table.Emitted())
	if err != nil {
		return fail(err)
	}
	for _, id := range unreachable {
		label, _ := index.Label(id)
		b.Warnings = append(b.Warnings, fmt.Sprintf("tile %d (%s) is never produced", id, label))
	}
	for _, r := range table.Shadowed() {
		b.Warnings = append(b.Warnings, fmt.Sprintf("rule %q (%s) never wins for any mask", r.Label, r.Pattern))
	}

	if b.Legend, err = world.NewLegend(palette, rules.Legend); err != nil {
		errs = multierr.Append(errs, err)
	}
	for _, band := range rules.Generator {
		c, ok := palette.Lookup(band.Category)
		if !ok || c == world.Unspecified {
			errs = multierr.Append(errs, fmt.Errorf("generator band for unknown category %q", band.Category))
			continue
		}
		b.Bands = append(b.Bands, world.Band{Max: band.Max, Category: c})
	}
	if errs != nil {
		return fail(errs)
	}

	logger.Named("tileset").Debug("tileset built",
		zap.String("source", source),
		zap.Int("tiles", index.Len()),
		zap.Int("categories", palette.Len()),
		zap.Int("warnings", len(b.Warnings)))
	return b, nil
}

func ruleFor(p *world.Palette, e atlas.Entry, overrides map[string]string) (variant.Rule, error) {
	l, err := variant.ParseLabel(p, e.Label)
	if err != nil {
		return variant.Rule{}, fmt.Errorf("tile %d: %w", e.ID, err)
	}
	r := variant.Rule{
		Label:    e.Label,
		Category: p.MustLookup(l.Category),
		Pattern:  l.Pattern(),
		Tile:     e.ID,
		Kind:     l.Kind,
	}
	if text, ok := overrides[e.Label]; ok {
		if l.Kind != variant.KindTransition {
			return variant.Rule{}, fmt.Errorf("tile %d: %s label %q cannot take a pattern: %w", e.ID, l.Kind, e.Label, variant.ErrInvalidPattern)
		}
		pat, err := variant.ParsePattern(text)
		if err != nil {
			return variant.Rule{}, fmt.Errorf("tile %d (%s): %w", e.ID, e.Label, err)
		}
		r.Pattern = pat
	}
	return r, nil
}

func hasTile(d *Descriptor, label string) bool {
	for _, t := range d.Tiles {
		if t.Label == label {
			return true
		}
	}
	return false
}

// NewResolver builds a resolver for the bundle with the configured policy.
// Extra options are applied last.
func (b *Bundle) NewResolver(cfg config.ResolveConfig, opts ...resolver.Option) (*resolver.Resolver, error) {
	policy, err := resolver.ParseFaultPolicy(cfg.FaultPolicy)
	if err != nil {
		return nil, err
	}
	all := []resolver.Option{
		resolver.WithFaultPolicy(policy),
		resolver.WithDecoration(cfg.Decoration),
		resolver.WithFallbackCategory(b.Fallback),
	}
	return resolver.New(b.Table, b.Atlas, append(all, opts...)...)
}

// GenerateParams combines generator settings with the bundle's bands.
func (b *Bundle) GenerateParams(cfg config.GenerateConfig, edge world.EdgePolicy) world.GenerateParams {
	return world.GenerateParams{
		Seed:           cfg.Seed,
		Rows:           cfg.Rows,
		Cols:           cfg.Cols,
		ContinentScale: cfg.ContinentScale,
		Octaves:        cfg.Octaves,
		Alpha:          cfg.Alpha,
		Beta:           cfg.Beta,
		Bands:          b.Bands,
		Edge:           edge,
	}
}

// NewPool returns a started worker pool sized by cfg.
func NewPool(cfg config.ResolveConfig) *core.WorkerPool {
	pool := core.NewWorkerPool(cfg.Workers)
	pool.Start()
	return pool
}
