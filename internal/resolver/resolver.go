// Package resolver turns a terrain grid into atlas coordinates, one cell at a
// time or as a whole-grid pass.
package resolver

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"go.uber.org/zap"

	"autotile/internal/atlas"
	"autotile/internal/logger"
	"autotile/internal/threading/core"
	"autotile/internal/threading/monitoring"
	"autotile/internal/variant"
	"autotile/internal/world"
)

// FaultPolicy decides what a batch pass does with a cell that fails to resolve.
type FaultPolicy uint8

const (
	// Abort yields the failing cell with its error and ends the pass.
	Abort FaultPolicy = iota
	// Substitute replaces the cell with a plain tile and carries on.
	Substitute
)

func (p FaultPolicy) String() string {
	switch p {
	case Abort:
		return "abort"
	case Substitute:
		return "substitute"
	default:
		return fmt.Sprintf("policy(%d)", uint8(p))
	}
}

// ParseFaultPolicy reads "abort" or "substitute".
func ParseFaultPolicy(s string) (FaultPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "abort":
		return Abort, nil
	case "substitute":
		return Substitute, nil
	default:
		return Abort, fmt.Errorf("unknown fault policy %q (want abort or substitute)", s)
	}
}

// Cell is the full resolution record of one grid position.
type Cell struct {
	Row         int
	Col         int
	Category    world.Category
	Mask        world.Mask
	Label       string
	Kind        variant.Kind
	Tile        atlas.Coordinate
	Substituted bool
	Fault       error // set when Substituted
}

// Option configures a Resolver.
type Option func(*Resolver)

func WithFaultPolicy(p FaultPolicy) Option {
	return func(r *Resolver) { r.policy = p }
}

// WithDecoration lets plain cells pick among the category's alternate tiles.
// The pick depends only on the cell position.
func WithDecoration(on bool) Option {
	return func(r *Resolver) { r.decorate = on }
}

// WithFallbackCategory names the category whose plain tile substitutes for
// faulting cells under the Substitute policy. The default is the tile bound
// to Unspecified.
func WithFallbackCategory(c world.Category) Option {
	return func(r *Resolver) { r.fallback = c }
}

func WithMonitor(m *monitoring.PerformanceMonitor) Option {
	return func(r *Resolver) { r.monitor = m }
}

func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) { r.log = l }
}

// Resolver combines a validated table with an atlas index. It holds no
// per-pass state and may be shared between goroutines.
type Resolver struct {
	table       *variant.Table
	index       *atlas.Index
	policy      FaultPolicy
	decorate    bool
	fallback    world.Category
	monitor     *monitoring.PerformanceMonitor
	log         *zap.Logger
	alternates  map[world.Category][]variant.Rule
	unreachable []atlas.TileID
}

// New cross-checks table against index and returns a resolver. Tiles the
// table emits but the atlas lacks are an error; atlas tiles the table never
// emits are logged as warnings.
func New(table *variant.Table, index *atlas.Index, opts ...Option) (*Resolver, error) {
	r := &Resolver{
		table:      table,
		index:      index,
		fallback:   world.Unspecified,
		monitor:    monitoring.NewPerformanceMonitor(),
		log:        logger.Named("resolver"),
		alternates: make(map[world.Category][]variant.Rule),
	}
	for _, opt := range opts {
		opt(r)
	}

	unreachable, err := atlas.CrossCheck(index, table.Emitted())
	if err != nil {
		return nil, err
	}
	r.unreachable = unreachable
	if len(unreachable) > 0 {
		r.log.Warn("atlas tiles never produced by the table", zap.Int("count", len(unreachable)), zap.Any("tiles", unreachable))
	}

	palette := table.Palette()
	if r.fallback != world.Unspecified {
		if _, ok := table.Plain(r.fallback); !ok {
			return nil, fmt.Errorf("fallback category %s has no plain tile", palette.Name(r.fallback))
		}
	}
	for _, c := range palette.Categories() {
		if alts := table.Alternates(c); len(alts) > 0 {
			r.alternates[c] = alts
		}
	}
	return r, nil
}

// Unreachable lists the atlas tiles the table never produces.
func (r *Resolver) Unreachable() []atlas.TileID {
	return append([]atlas.TileID(nil), r.unreachable...)
}

func (r *Resolver) Monitor() *monitoring.PerformanceMonitor { return r.monitor }

func (r *Resolver) Policy() FaultPolicy { return r.policy }

// ResolveCell returns the atlas coordinate for (row, col). Faults are
// returned as errors; the fault policy applies to batch passes only.
func (r *Resolver) ResolveCell(g *world.Grid, row, col int) (atlas.Coordinate, error) {
	cell, err := r.Inspect(g, row, col)
	return cell.Tile, err
}

// Inspect returns the full record for (row, col).
func (r *Resolver) Inspect(g *world.Grid, row, col int) (Cell, error) {
	c, m, err := world.ComputeCell(g, row, col)
	if err != nil {
		return Cell{Row: row, Col: col}, err
	}
	return r.resolve(row, col, c, m)
}

func (r *Resolver) resolve(row, col int, c world.Category, m world.Mask) (Cell, error) {
	cell := Cell{Row: row, Col: col, Category: c, Mask: m}

	rule, err := r.table.ResolveRule(c, m)
	if err != nil {
		return cell, err
	}
	if r.decorate && rule.Kind == variant.KindPlain {
		if alts := r.alternates[c]; len(alts) > 0 {
			if pick := (row*7 + col*13) % (1 + len(alts)); pick > 0 {
				rule = alts[pick-1]
			}
		}
	}
	cell.Label = rule.Label
	cell.Kind = rule.Kind

	coord, err := r.index.Lookup(rule.Tile)
	if err != nil {
		return cell, fmt.Errorf("%s at (%d, %d): %w", rule.Label, row, col, err)
	}
	cell.Tile = coord
	return cell, nil
}

// absorb applies the fault policy. A nil error means the cell was substituted.
func (r *Resolver) absorb(cell Cell, fault error) (Cell, error) {
	r.monitor.RecordFault()
	palette := r.table.Palette()

	if r.policy == Substitute {
		for _, c := range []world.Category{cell.Category, r.fallback} {
			plain, ok := r.table.Plain(c)
			if !ok {
				continue
			}
			coord, err := r.index.Lookup(plain.Tile)
			if err != nil {
				continue
			}
			cell.Label = plain.Label
			cell.Kind = plain.Kind
			cell.Tile = coord
			cell.Substituted = true
			cell.Fault = fault
			r.monitor.RecordSubstitution()
			r.log.Error("cell substituted",
				zap.Int("row", cell.Row), zap.Int("col", cell.Col),
				zap.String("category", palette.Name(cell.Category)),
				zap.String("substitute", plain.Label), zap.Error(fault))
			return cell, nil
		}
	}

	r.log.Error("cell failed to resolve",
		zap.Int("row", cell.Row), zap.Int("col", cell.Col),
		zap.String("category", palette.Name(cell.Category)),
		zap.Stringer("policy", r.policy), zap.Error(fault))
	return cell, fault
}

// ResolveAll lazily resolves every cell in row-major order. Each iteration
// works on a snapshot taken when it starts, so edits made while the sequence
// is consumed are not seen. A fault that the policy cannot absorb is yielded
// with its cell and ends the sequence.
func (r *Resolver) ResolveAll(g *world.Grid) iter.Seq2[Cell, error] {
	return func(yield func(Cell, error) bool) {
		snap := g.Snapshot()
		timer := r.monitor.StartPass()
		n := 0
		defer func() { timer.EndPass(n) }()

		for row := 0; row < snap.Rows(); row++ {
			for col := 0; col < snap.Cols(); col++ {
				cell, err := r.cellOf(snap, row, col)
				if err != nil {
					yield(cell, err)
					return
				}
				n++
				if !yield(cell, nil) {
					return
				}
			}
		}
	}
}

func (r *Resolver) cellOf(snap *world.Grid, row, col int) (Cell, error) {
	c, m, err := world.ComputeCell(snap, row, col)
	if err != nil {
		return Cell{Row: row, Col: col}, err
	}
	cell, err := r.resolve(row, col, c, m)
	if err != nil {
		return r.absorb(cell, err)
	}
	return cell, nil
}

// ResolveParallel resolves the whole grid with rows spread across pool and
// returns cells in row-major order, identical to draining ResolveAll. An
// unabsorbed fault returns the error of the first failing cell in row-major
// order. Cancelling ctx stops scheduling further rows. A pool that is not
// running fails with core.ErrPoolNotRunning.
func (r *Resolver) ResolveParallel(ctx context.Context, g *world.Grid, pool *core.WorkerPool) ([]Cell, error) {
	snap := g.Snapshot()
	rows, cols := snap.Rows(), snap.Cols()
	cells := make([]Cell, rows*cols)
	rowErrs := make([]error, rows)

	timer := r.monitor.StartPass()
	err := pool.ParallelForWithContext(ctx, 0, rows, func(row int) {
		for col := 0; col < cols; col++ {
			cell, err := r.cellOf(snap, row, col)
			if err != nil {
				rowErrs[row] = err
				return
			}
			cells[row*cols+col] = cell
		}
	})
	if err != nil {
		timer.EndPass(0)
		return nil, err
	}
	for row, rowErr := range rowErrs {
		if rowErr != nil {
			timer.EndPass(row * cols)
			return nil, rowErr
		}
	}
	timer.EndPass(len(cells))
	return cells, nil
}

// Collect drains ResolveAll into a slice.
func (r *Resolver) Collect(g *world.Grid) ([]Cell, error) {
	cells := make([]Cell, 0, g.Len())
	for cell, err := range r.ResolveAll(g) {
		if err != nil {
			return cells, err
		}
		cells = append(cells, cell)
	}
	return cells, nil
}
