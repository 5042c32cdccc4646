// Package tileset reads Tiled tileset descriptors and turns them, together
// with a rules file, into a validated resolution table and atlas index.
package tileset

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"autotile/internal/atlas"
)

// Descriptor is the part of a tileset file the resolver needs.
type Descriptor struct {
	Name     string
	Source   string // file the descriptor was read from, if any
	Geometry atlas.Geometry
	Tiles    []atlas.Entry // labeled tiles in file order
}

// Labels returns the tile labels in file order.
func (d *Descriptor) Labels() []string {
	out := make([]string, len(d.Tiles))
	for i, t := range d.Tiles {
		out[i] = t.Label
	}
	return out
}

// ImagePath resolves the atlas image relative to the descriptor file.
func (d *Descriptor) ImagePath() string {
	if d.Source == "" || filepath.IsAbs(d.Geometry.Image) {
		return d.Geometry.Image
	}
	return filepath.Join(filepath.Dir(d.Source), d.Geometry.Image)
}

type tsxTileset struct {
	XMLName    xml.Name  `xml:"tileset"`
	Name       string    `xml:"name,attr"`
	TileWidth  int       `xml:"tilewidth,attr"`
	TileHeight int       `xml:"tileheight,attr"`
	TileCount  int       `xml:"tilecount,attr"`
	Columns    int       `xml:"columns,attr"`
	Margin     int       `xml:"margin,attr"`
	Spacing    int       `xml:"spacing,attr"`
	Image      tsxImage  `xml:"image"`
	Tiles      []tsxTile `xml:"tile"`
}

type tsxImage struct {
	Source string `xml:"source,attr"`
	Width  int    `xml:"width,attr"`
	Height int    `xml:"height,attr"`
}

type tsxTile struct {
	ID    int    `xml:"id,attr"`
	Type  string `xml:"type,attr"`
	Class string `xml:"class,attr"`
}

// ParseTSX reads a Tiled XML tileset.
func ParseTSX(r io.Reader) (*Descriptor, error) {
	var ts tsxTileset
	if err := xml.NewDecoder(r).Decode(&ts); err != nil {
		return nil, fmt.Errorf("failed to parse tsx: %w", err)
	}

	d := &Descriptor{
		Name: ts.Name,
		Geometry: atlas.Geometry{
			Image:       ts.Image.Source,
			ImageWidth:  ts.Image.Width,
			ImageHeight: ts.Image.Height,
			TileWidth:   ts.TileWidth,
			TileHeight:  ts.TileHeight,
			Columns:     ts.Columns,
			TileCount:   ts.TileCount,
			Margin:      ts.Margin,
			Spacing:     ts.Spacing,
		},
	}
	for _, t := range ts.Tiles {
		d.addTile(t.ID, t.Type, t.Class)
	}
	return d, nil
}

type tsjTileset struct {
	Name        string    `json:"name"`
	Image       string    `json:"image"`
	ImageWidth  int       `json:"imagewidth"`
	ImageHeight int       `json:"imageheight"`
	TileWidth   int       `json:"tilewidth"`
	TileHeight  int       `json:"tileheight"`
	TileCount   int       `json:"tilecount"`
	Columns     int       `json:"columns"`
	Margin      int       `json:"margin"`
	Spacing     int       `json:"spacing"`
	Tiles       []tsjTile `json:"tiles"`
}

type tsjTile struct {
	ID    int    `json:"id"`
	Type  string `json:"type"`
	Class string `json:"class"`
}

// ParseTSJ reads a Tiled JSON tileset.
func ParseTSJ(r io.Reader) (*Descriptor, error) {
	var ts tsjTileset
	if err := json.NewDecoder(r).Decode(&ts); err != nil {
		return nil, fmt.Errorf("failed to parse tsj: %w", err)
	}

	d := &Descriptor{
		Name: ts.Name,
		Geometry: atlas.Geometry{
			Image:       ts.Image,
			ImageWidth:  ts.ImageWidth,
			ImageHeight: ts.ImageHeight,
			TileWidth:   ts.TileWidth,
			TileHeight:  ts.TileHeight,
			Columns:     ts.Columns,
			TileCount:   ts.TileCount,
			Margin:      ts.Margin,
			Spacing:     ts.Spacing,
		},
	}
	for _, t := range ts.Tiles {
		d.addTile(t.ID, t.Type, t.Class)
	}
	return d, nil
}

// addTile keeps labeled tiles only; "class" is the newer Tiled name for "type".
func (d *Descriptor) addTile(id int, typ, class string) {
	label := strings.TrimSpace(typ)
	if label == "" {
		label = strings.TrimSpace(class)
	}
	if label == "" {
		return
	}
	d.Tiles = append(d.Tiles, atlas.Entry{ID: atlas.TileID(id), Label: label})
}

// LoadDescriptor reads a .tsx or .tsj file.
func LoadDescriptor(path string) (*Descriptor, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tileset %s: %w", path, err)
	}
	defer file.Close()

	var d *Descriptor
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".tsx", ".xml":
		d, err = ParseTSX(file)
	case ".tsj", ".json":
		d, err = ParseTSJ(file)
	default:
		return nil, fmt.Errorf("tileset %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("tileset %s: %w", path, err)
	}
	d.Source = path
	return d, nil
}
