package world

import (
	"context"
	"fmt"
	"sort"

	"github.com/aquilax/go-perlin"

	"autotile/internal/threading/core"
)

// Band assigns Category to noise values up to and including Max.
type Band struct {
	Max      float64
	Category Category
}

// GenerateParams controls noise terrain generation.
type GenerateParams struct {
	Seed           int64
	Rows, Cols     int
	ContinentScale float64 // 0 gives small islands, 1 large continents
	Octaves        int32
	Alpha          float64 // weight falloff between octaves
	Beta           float64 // frequency step between octaves
	Bands          []Band
	Edge           EdgePolicy
}

// DefaultGenerateParams returns the classic island settings. Bands still need
// categories from a palette.
func DefaultGenerateParams() GenerateParams {
	return GenerateParams{
		Seed:           0xdead,
		Rows:           64,
		Cols:           64,
		ContinentScale: 0.5,
		Octaves:        6,
		Alpha:          2,
		Beta:           2.25,
	}
}

func (p GenerateParams) validate() error {
	if p.Rows <= 0 || p.Cols <= 0 {
		return fmt.Errorf("invalid generator size %dx%d", p.Rows, p.Cols)
	}
	if len(p.Bands) == 0 {
		return fmt.Errorf("generator needs at least one band")
	}
	if !sort.SliceIsSorted(p.Bands, func(i, j int) bool { return p.Bands[i].Max < p.Bands[j].Max }) {
		return fmt.Errorf("generator bands must be in ascending order")
	}
	if p.Octaves <= 0 {
		return fmt.Errorf("generator octaves must be positive, got %d", p.Octaves)
	}
	return nil
}

// scale maps ContinentScale to noise units per cell; larger continents
// sample the noise more slowly.
func (p GenerateParams) scale() float64 {
	s := clamp01(p.ContinentScale)
	const near, far = 0.12, 0.02
	return near + (far-near)*s
}

// Generate fills a new grid from Perlin noise, one row per pool job.
// The same params always produce the same grid. pool must be started;
// otherwise the error is core.ErrPoolNotRunning.
func Generate(ctx context.Context, p GenerateParams, pool *core.WorkerPool) (*Grid, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	g, err := NewGrid(p.Rows, p.Cols, p.Bands[0].Category)
	if err != nil {
		return nil, err
	}
	g.edge = p.Edge

	noise := perlin.NewPerlin(p.Alpha, p.Beta, p.Octaves, p.Seed)
	scale := p.scale()

	err = pool.ParallelForWithContext(ctx, 0, p.Rows, func(row int) {
		values := make([]Category, p.Cols)
		for col := range values {
			v := clamp01(noise.Noise2D(float64(col)*scale, float64(row)*scale))
			values[col] = p.band(v)
		}
		g.setRowUnlocked(row, values)
	})
	if err != nil {
		return nil, err
	}
	return g, nil
}

func (p GenerateParams) band(v float64) Category {
	for _, b := range p.Bands {
		if v <= b.Max {
			return b.Category
		}
	}
	return p.Bands[len(p.Bands)-1].Category
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
