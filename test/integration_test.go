package test

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"autotile/internal/config"
	"autotile/internal/resolver"
	"autotile/internal/tileset"
	"autotile/internal/world"
)

// loadTestConfig reads the shipped config with paths rebased onto the repo root.
func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.LoadConfig(filepath.Join("..", "config.yaml"))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	cfg.Tileset.Descriptor = filepath.Join("..", cfg.Tileset.Descriptor)
	cfg.Tileset.Rules = filepath.Join("..", cfg.Tileset.Rules)
	cfg.Generate.Rows, cfg.Generate.Cols = 24, 32
	return cfg
}

// TestGenerateFormatResolveRoundTrip generates a map, writes it in the text
// format, loads it back and resolves both copies.
func TestGenerateFormatResolveRoundTrip(t *testing.T) {
	cfg := loadTestConfig(t)
	b, err := tileset.LoadFromConfig(cfg.Tileset)
	if err != nil {
		t.Fatal(err)
	}
	r, err := b.NewResolver(cfg.Resolve)
	if err != nil {
		t.Fatal(err)
	}
	pool := tileset.NewPool(cfg.Resolve)
	defer pool.Stop()

	ctx := context.Background()
	generated, err := world.Generate(ctx, b.GenerateParams(cfg.Generate, world.EdgeWrap), pool)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	var buf bytes.Buffer
	if err := world.FormatMap(&buf, generated, b.Legend); err != nil {
		t.Fatal(err)
	}
	loaded, err := world.NewMapLoader(b.Legend, nil).ParseMap(&buf)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.EdgePolicy() != world.EdgeWrap {
		t.Error("edge policy lost in the round trip")
	}

	want, err := r.ResolveParallel(ctx, generated, pool)
	if err != nil {
		t.Fatalf("resolve generated: %v", err)
	}
	got, err := r.Collect(loaded)
	if err != nil {
		t.Fatalf("resolve loaded: %v", err)
	}
	assertSameTiles(t, want, got)
}

// TestEditsReachNextPass paints on a grid and checks that only the next pass
// sees the change, and that the neighbors of the stroke blend into it.
func TestEditsReachNextPass(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Resolve.Decoration = false
	b, err := tileset.LoadFromConfig(cfg.Tileset)
	if err != nil {
		t.Fatal(err)
	}
	r, err := b.NewResolver(cfg.Resolve)
	if err != nil {
		t.Fatal(err)
	}

	grass := b.Palette.MustLookup("grass")
	g, err := world.NewGrid(9, 9, grass)
	if err != nil {
		t.Fatal(err)
	}

	next, stop := iterPull(r, g)
	defer stop()
	first, _ := next()

	world.PaintCircle(g, 4, 4, world.BrushRadius(3), b.Palette.MustLookup("water_shallow"))
	// The running pass works on its own snapshot.
	for i := 1; i < 4*9+4; i++ {
		next()
	}
	centre, _ := next()
	if centre.Category != grass {
		t.Errorf("running pass saw the edit at (%d,%d)", centre.Row, centre.Col)
	}
	if first.Label != "grass" {
		t.Errorf("untouched grass resolved to %s", first.Label)
	}

	cell, err := r.Inspect(g, 4, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cell.Label != "grass_water_east" {
		t.Errorf("grass west of the pond resolved to %s, want grass_water_east", cell.Label)
	}
}

// TestMirroredMapsResolveSymmetrically checks that a left-right mirrored map
// picks the east/west counterpart of every tile that has one.
func TestMirroredMapsResolveSymmetrically(t *testing.T) {
	cfg := loadTestConfig(t)
	cfg.Resolve.Decoration = false
	b, err := tileset.LoadFromConfig(cfg.Tileset)
	if err != nil {
		t.Fatal(err)
	}
	r, err := b.NewResolver(cfg.Resolve)
	if err != nil {
		t.Fatal(err)
	}
	ml := world.NewMapLoader(b.Legend, nil)

	for _, name := range []string{"island.map", "wrap.map"} {
		g, _, err := ml.FindMap(filepath.Join("..", "assets", "maps", name))
		if err != nil {
			t.Fatal(err)
		}

		orig, err := r.Collect(g)
		if err != nil {
			t.Fatal(err)
		}
		mirrored, err := r.Collect(g.MirrorHorizontal())
		if err != nil {
			t.Fatal(err)
		}
		cols := g.Cols()
		counterparts := 0
		for _, c := range orig {
			m := mirrored[c.Row*cols+(cols-1-c.Col)]
			if m.Mask != c.Mask.MirrorHorizontal() {
				t.Fatalf("%s (%d,%d): mask %s mirrors to %s", name, c.Row, c.Col, c.Mask, m.Mask)
			}
			if c.Category != m.Category {
				t.Fatalf("%s (%d,%d): category differs after mirroring", name, c.Row, c.Col)
			}
			want := mirrorLabel(c.Label)
			if !authored(b, c.Category, want) {
				want = c.Label
			}
			if want != c.Label {
				counterparts++
			}
			if m.Label != want {
				t.Errorf("%s (%d,%d): %s mirrored to %s, want %s", name, c.Row, c.Col, c.Label, m.Label, want)
			}
		}
		if name == "island.map" && counterparts == 0 {
			t.Error("island map should contain east/west tiles")
		}
	}
}

func assertSameTiles(t *testing.T, want, got []resolver.Cell) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("got %d cells, want %d", len(got), len(want))
	}
	for i := range want {
		if want[i].Tile != got[i].Tile || want[i].Label != got[i].Label {
			t.Fatalf("cell %d: got %s %s, want %s %s", i, got[i].Label, got[i].Tile, want[i].Label, want[i].Tile)
		}
	}
}
