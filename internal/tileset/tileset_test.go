package tileset

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/multierr"

	"autotile/internal/atlas"
	"autotile/internal/config"
	"autotile/internal/variant"
	"autotile/internal/world"
)

var (
	bundledDescriptor = filepath.Join("..", "..", "assets", "sprites", "tiles.tsx")
	bundledRules      = filepath.Join("..", "..", "assets", "autotile.yaml")
)

func loadBundled(t *testing.T) *Bundle {
	t.Helper()
	b, err := LoadFromConfig(config.TilesetConfig{Descriptor: bundledDescriptor, Rules: bundledRules})
	if err != nil {
		t.Fatalf("LoadFromConfig failed: %v", err)
	}
	return b
}

// causes lists the individual problems inside a ConfigError.
func causes(t *testing.T, err error) []error {
	t.Helper()
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("expected *ConfigError, got %T: %v", err, err)
	}
	return multierr.Errors(ce.Err)
}

func hasCause(t *testing.T, err, target error) bool {
	t.Helper()
	for _, e := range causes(t, err) {
		if errors.Is(e, target) {
			return true
		}
	}
	return false
}

func TestLoadBundledTileset(t *testing.T) {
	b := loadBundled(t)

	if b.Atlas.Len() != 39 {
		t.Errorf("atlas has %d tiles, want 39", b.Atlas.Len())
	}
	if b.Palette.Len() != 5 {
		t.Errorf("palette has %d categories, want 5", b.Palette.Len())
	}
	if len(b.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", b.Warnings)
	}
	if b.Palette.Name(b.Fallback) != "void" {
		t.Errorf("fallback = %s, want void", b.Palette.Name(b.Fallback))
	}
	if len(b.Bands) != 4 || b.Bands[3].Max != 1 {
		t.Errorf("bands = %+v", b.Bands)
	}
	if ch, ok := b.Legend.Char(b.Palette.MustLookup("beach")); !ok || ch != 'b' {
		t.Errorf("legend char for beach = %q", ch)
	}

	geom := b.Atlas.Geometry()
	if geom.Columns != 20 || geom.TileWidth != 8 || geom.Image != "tiles.png" {
		t.Errorf("geometry = %+v", geom)
	}
	if got := b.Descriptor.ImagePath(); got != filepath.Join("..", "..", "assets", "sprites", "tiles.png") {
		t.Errorf("ImagePath = %s", got)
	}
}

func TestBundledTableCoversEveryMask(t *testing.T) {
	b := loadBundled(t)
	for _, c := range b.Palette.Categories() {
		for m := 0; m < 256; m++ {
			id, err := b.Table.Resolve(c, world.Mask(m))
			if err != nil {
				t.Fatalf("%s mask %s: %v", b.Palette.Name(c), world.Mask(m), err)
			}
			if _, err := b.Atlas.Lookup(id); err != nil {
				t.Fatalf("%s mask %s resolved to unknown tile %d", b.Palette.Name(c), world.Mask(m), id)
			}
		}
	}
}

func TestBundledScenarios(t *testing.T) {
	b := loadBundled(t)
	r, err := b.NewResolver(config.ResolveConfig{FaultPolicy: "abort"})
	if err != nil {
		t.Fatalf("NewResolver failed: %v", err)
	}
	if len(r.Unreachable()) != 0 {
		t.Errorf("unreachable tiles: %v", r.Unreachable())
	}
	ml := world.NewMapLoader(b.Legend, nil)

	deep, err := ml.ParseMap(strings.NewReader("ddd\nddd\nddd\n"))
	if err != nil {
		t.Fatal(err)
	}
	cells, err := r.Collect(deep)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range cells {
		if c.Label != "water_deep" {
			t.Errorf("(%d,%d) = %s, want water_deep", c.Row, c.Col, c.Label)
		}
	}

	lone, _ := ml.ParseMap(strings.NewReader("sss\nsgs\nsss\n"))
	cell, err := r.Inspect(lone, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cell.Tile.Tile != 0 {
		t.Errorf("lone grass resolved to tile %d (%s), want plain grass 0", cell.Tile.Tile, cell.Label)
	}

	corner, _ := ml.ParseMap(strings.NewReader("ggg\nggs\ngsg\n"))
	cell, err = r.Inspect(corner, 1, 1)
	if err != nil {
		t.Fatal(err)
	}
	if cell.Label != "grass_water_south_and_east" {
		t.Errorf("resolved to %s, want grass_water_south_and_east", cell.Label)
	}

	inner, _ := ml.ParseMap(strings.NewReader("ggs\nggg\nggg\n"))
	cell, _ = r.Inspect(inner, 1, 1)
	if cell.Label != "grass_water_north_east" {
		t.Errorf("inner corner resolved to %s, want grass_water_north_east", cell.Label)
	}
}

func TestBundledIslandMapResolves(t *testing.T) {
	b := loadBundled(t)
	r, err := b.NewResolver(config.ResolveConfig{Decoration: true})
	if err != nil {
		t.Fatal(err)
	}
	g, err := world.NewMapLoader(b.Legend, nil).LoadMap(filepath.Join("..", "..", "assets", "maps", "island.map"))
	if err != nil {
		t.Fatalf("load island: %v", err)
	}
	cells, err := r.Collect(g)
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(cells) != g.Len() {
		t.Errorf("got %d cells, want %d", len(cells), g.Len())
	}
}

func TestBundledUnspecifiedCellsResolve(t *testing.T) {
	b := loadBundled(t)
	r, err := b.NewResolver(config.ResolveConfig{FaultPolicy: "abort"})
	if err != nil {
		t.Fatal(err)
	}
	g, err := world.NewGrid(2, 2, world.Unspecified)
	if err != nil {
		t.Fatal(err)
	}

	void, _ := b.Table.Plain(b.Fallback)
	for row := 0; row < 2; row++ {
		for col := 0; col < 2; col++ {
			coord, err := r.ResolveCell(g, row, col)
			if err != nil {
				t.Fatalf("ResolveCell(%d, %d) failed: %v", row, col, err)
			}
			if coord.Tile != void.Tile {
				t.Errorf("(%d,%d) resolved to tile %d, want the void plain tile %d", row, col, coord.Tile, void.Tile)
			}
		}
	}
}

// mirrorLabel swaps the east/west words of a label.
func mirrorLabel(label string) string {
	swap := map[string]string{"east": "west", "west": "east", "left": "right", "right": "left"}
	toks := strings.Split(label, "_")
	for i, tok := range toks {
		if m, ok := swap[tok]; ok {
			toks[i] = m
		}
	}
	return strings.Join(toks, "_")
}

func TestBundledTableIsMirrorSymmetric(t *testing.T) {
	b := loadBundled(t)
	cats := append([]world.Category{world.Unspecified}, b.Palette.Categories()...)
	for _, c := range cats {
		authored := make(map[string]bool)
		for _, r := range b.Table.Rules(c) {
			authored[r.Label] = true
		}
		for m := 0; m < 256; m++ {
			mask := world.Mask(m)
			r, err := b.Table.ResolveRule(c, mask)
			if err != nil {
				t.Fatal(err)
			}
			mr, err := b.Table.ResolveRule(c, mask.MirrorHorizontal())
			if err != nil {
				t.Fatal(err)
			}
			want := mirrorLabel(r.Label)
			if !authored[want] {
				continue
			}
			if mr.Label != want {
				t.Errorf("%s: mask %s resolves to %s but its mirror %s resolves to %s, want %s",
					b.Palette.Name(c), mask, r.Label, mask.MirrorHorizontal(), mr.Label, want)
			}
		}
	}
}

func TestBuildWithoutShapeAliasesIsAmbiguous(t *testing.T) {
	rules := config.MustLoadRules(bundledRules)
	rules.Aliases = nil

	_, err := Load(bundledDescriptor, rules)
	if err == nil {
		t.Fatal("expected an ambiguity error")
	}
	if !hasCause(t, err, variant.ErrAmbiguousPattern) {
		t.Errorf("expected ErrAmbiguousPattern among %v", err)
	}
	if !strings.Contains(err.Error(), "tiles.tsx") {
		t.Errorf("error should name the source file: %v", err)
	}
}

func TestBuildDerivesCategories(t *testing.T) {
	desc := &Descriptor{
		Name:     "mini",
		Geometry: atlas.Geometry{TileWidth: 8, TileHeight: 8, Columns: 4, TileCount: 16},
		Tiles: []atlas.Entry{
			{ID: 0, Label: "grass"},
			{ID: 1, Label: "grass_water_north"},
			{ID: 2, Label: "water"},
			{ID: 3, Label: "water_ripple"},
			{ID: 4, Label: "unspecified"},
		},
	}
	b, err := Build(desc, nil)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if b.Palette.Len() != 2 {
		t.Errorf("derived %d categories, want 2", b.Palette.Len())
	}
	if _, ok := b.Palette.Lookup("water"); !ok {
		t.Error("water should be a derived category")
	}
	if id, err := b.Table.Resolve(world.Unspecified, 0); err != nil || id != 4 {
		t.Errorf("unspecified resolved to %d, %v; want the tile labeled unspecified", id, err)
	}
}

func TestBuildBindsUnspecifiedToFallback(t *testing.T) {
	geom := atlas.Geometry{TileWidth: 8, TileHeight: 8, Columns: 4, TileCount: 16}
	tiles := []atlas.Entry{{ID: 0, Label: "grass"}, {ID: 1, Label: "beach"}}

	b, err := Build(&Descriptor{Name: "inline", Geometry: geom, Tiles: tiles},
		&config.RulesConfig{Categories: []string{"grass", "beach"}, FallbackCategory: "beach"})
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	r, err := b.Table.ResolveRule(world.Unspecified, world.MaskAll)
	if err != nil || r.Tile != 1 || r.Label != world.UnspecifiedName {
		t.Errorf("unspecified resolved to %+v, %v; want the beach tile", r, err)
	}

	_, err = Build(&Descriptor{Name: "inline", Geometry: geom, Tiles: tiles},
		&config.RulesConfig{Categories: []string{"grass", "beach"}})
	if err == nil || !hasCause(t, err, variant.ErrMissingFallback) {
		t.Errorf("expected ErrMissingFallback without a binding, got %v", err)
	}
}

func TestBuildReportsConfigErrors(t *testing.T) {
	geom := atlas.Geometry{TileWidth: 8, TileHeight: 8, Columns: 4, TileCount: 16}
	rules := &config.RulesConfig{Categories: []string{"grass", "beach"}}

	tests := []struct {
		name  string
		tiles []atlas.Entry
		rules *config.RulesConfig
		want  error
	}{
		{
			name:  "duplicate id",
			tiles: []atlas.Entry{{ID: 0, Label: "grass"}, {ID: 0, Label: "beach"}},
			rules: rules,
			want:  atlas.ErrDuplicateTile,
		},
		{
			name:  "bad label",
			tiles: []atlas.Entry{{ID: 0, Label: "grass"}, {ID: 1, Label: "beach"}, {ID: 2, Label: "grass_north_water"}},
			rules: rules,
			want:  variant.ErrInvalidLabel,
		},
		{
			name:  "missing fallback",
			tiles: []atlas.Entry{{ID: 0, Label: "grass"}, {ID: 1, Label: "beach_top"}},
			rules: rules,
			want:  variant.ErrMissingFallback,
		},
		{
			name:  "override on plain tile",
			tiles: []atlas.Entry{{ID: 0, Label: "grass"}, {ID: 1, Label: "beach"}},
			rules: &config.RulesConfig{Categories: []string{"grass", "beach"}, Patterns: map[string]string{"grass": "n+"}},
			want:  variant.ErrInvalidPattern,
		},
		{
			name:  "fallback without plain tile",
			tiles: []atlas.Entry{{ID: 0, Label: "grass"}, {ID: 1, Label: "beach_top"}},
			rules: &config.RulesConfig{Categories: []string{"grass", "beach"}, FallbackCategory: "beach"},
			want:  variant.ErrMissingFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(&Descriptor{Name: "inline", Geometry: geom, Tiles: tt.tiles}, tt.rules)
			if err == nil {
				t.Fatal("expected an error")
			}
			var ce *ConfigError
			if !errors.As(err, &ce) || ce.Source != "inline" {
				t.Fatalf("expected *ConfigError from inline, got %v", err)
			}
			if !errors.Is(ce.Err, tt.want) && !hasCause(t, err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestParseTSJ(t *testing.T) {
	src := `{
  "name": "tiles", "image": "tiles.png", "imagewidth": 160, "imageheight": 160,
  "tilewidth": 8, "tileheight": 8, "tilecount": 400, "columns": 20,
  "tiles": [
    {"id": 0, "type": "grass"},
    {"id": 5, "class": "grass_water_south"},
    {"id": 6}
  ]
}`
	d, err := ParseTSJ(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseTSJ failed: %v", err)
	}
	if d.Geometry.Columns != 20 || d.Geometry.ImageWidth != 160 {
		t.Errorf("geometry = %+v", d.Geometry)
	}
	if len(d.Tiles) != 2 || d.Tiles[1].Label != "grass_water_south" {
		t.Errorf("tiles = %+v", d.Tiles)
	}
}

func TestParseTSXClassAttribute(t *testing.T) {
	src := `<?xml version="1.0" encoding="UTF-8"?>
<tileset name="t" tilewidth="16" tileheight="16" tilecount="4" columns="2" spacing="1" margin="2">
 <image source="t.png" width="35" height="35"/>
 <tile id="0" class="grass"/>
 <tile id="3" type="grass_2"/>
 <tile id="2"/>
</tileset>`
	d, err := ParseTSX(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseTSX failed: %v", err)
	}
	if d.Geometry.Spacing != 1 || d.Geometry.Margin != 2 {
		t.Errorf("geometry = %+v", d.Geometry)
	}
	if len(d.Tiles) != 2 || d.Tiles[0].Label != "grass" || d.Tiles[1].ID != 3 {
		t.Errorf("tiles = %+v", d.Tiles)
	}
}

func TestLoadDescriptorRejectsUnknownExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tiles.png")
	if err := os.WriteFile(path, []byte("not a tileset"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadDescriptor(path); err == nil {
		t.Error("expected an error for a .png descriptor")
	}
	if _, err := Load(path, nil); err == nil {
		t.Error("Load should fail too")
	} else {
		var ce *ConfigError
		if !errors.As(err, &ce) {
			t.Errorf("expected *ConfigError, got %T", err)
		}
	}
}
