package world

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

// Legend maps one map character to a category.
type Legend map[rune]Category

// NewLegend builds a legend from character -> category name pairs.
func NewLegend(p *Palette, chars map[string]string) (Legend, error) {
	l := make(Legend, len(chars))
	for ch, name := range chars {
		if utf8.RuneCountInString(ch) != 1 {
			return nil, fmt.Errorf("legend key %q must be a single character", ch)
		}
		r, _ := utf8.DecodeRuneInString(ch)
		if r == '#' || r == '!' || r == ' ' {
			return nil, fmt.Errorf("legend key %q is reserved", ch)
		}
		c, ok := p.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("legend %q: unknown category %q", ch, name)
		}
		l[r] = c
	}
	return l, nil
}

// Char returns the character drawn for c, preferring the smallest rune when
// several map to it.
func (l Legend) Char(c Category) (rune, bool) {
	var best rune
	found := false
	for r, lc := range l {
		if lc == c && (!found || r < best) {
			best, found = r, true
		}
	}
	return best, found
}

// MapLoader reads text maps: one character per cell, lines starting with
// '#' are comments and "!edge wrap" switches the border policy.
type MapLoader struct {
	legend Legend
	log    *zap.Logger
}

func NewMapLoader(legend Legend, log *zap.Logger) *MapLoader {
	if log == nil {
		log = zap.NewNop()
	}
	return &MapLoader{legend: legend, log: log}
}

// LoadMap loads a map file.
func (ml *MapLoader) LoadMap(mapPath string) (*Grid, error) {
	file, err := os.Open(mapPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open map file %s: %w", mapPath, err)
	}
	defer file.Close()

	g, err := ml.ParseMap(file)
	if err != nil {
		return nil, fmt.Errorf("map %s: %w", mapPath, err)
	}
	ml.log.Debug("map loaded", zap.String("path", mapPath), zap.Int("rows", g.Rows()), zap.Int("cols", g.Cols()))
	return g, nil
}

// ParseMap reads a map from r.
func (ml *MapLoader) ParseMap(r io.Reader) (*Grid, error) {
	var lines [][]rune
	var lineNumbers []int
	edge := EdgeOpen

	scanner := bufio.NewScanner(r)
	n := 0
	for scanner.Scan() {
		n++
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if directive, ok := strings.CutPrefix(line, "!"); ok {
			fields := strings.Fields(directive)
			if len(fields) != 2 || fields[0] != "edge" {
				return nil, fmt.Errorf("line %d: unknown directive %q", n, line)
			}
			p, err := ParseEdgePolicy(fields[1])
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", n, err)
			}
			edge = p
			continue
		}
		lines = append(lines, []rune(line))
		lineNumbers = append(lineNumbers, n)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading map: %w", err)
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("map contains no rows")
	}

	width := len(lines[0])
	for i, line := range lines {
		if len(line) != width {
			return nil, fmt.Errorf("line %d has inconsistent width: expected %d, got %d", lineNumbers[i], width, len(line))
		}
	}

	g, err := NewGrid(len(lines), width, Unspecified)
	if err != nil {
		return nil, err
	}
	g.edge = edge

	row := make([]Category, width)
	for y, line := range lines {
		for x, ch := range line {
			c, ok := ml.legend[ch]
			if !ok {
				return nil, fmt.Errorf("line %d column %d: character %q not in legend", lineNumbers[y], x+1, ch)
			}
			row[x] = c
		}
		g.setRowUnlocked(y, row)
	}
	return g, nil
}

// FindMap looks for name in the usual asset locations relative to the
// working directory and loads the first match.
func (ml *MapLoader) FindMap(name string) (*Grid, string, error) {
	possiblePaths := []string{
		name,
		filepath.Join("assets", "maps", name),
		filepath.Join("..", "assets", "maps", name),
		filepath.Join("..", "..", "assets", "maps", name),
	}
	for _, p := range possiblePaths {
		if _, err := os.Stat(p); err == nil {
			g, err := ml.LoadMap(p)
			return g, p, err
		}
	}
	return nil, "", fmt.Errorf("map %s not found in any of the expected locations", name)
}

// FormatMap writes g in the text map format. Categories without a legend
// character are written as '?', which does not load back.
func FormatMap(w io.Writer, g *Grid, legend Legend) error {
	bw := bufio.NewWriter(w)
	if g.EdgePolicy() == EdgeWrap {
		fmt.Fprintln(bw, "!edge wrap")
	}

	chars := make(map[Category]rune)
	used := make([]rune, 0, len(legend))
	for r := range legend {
		used = append(used, r)
	}
	sort.Slice(used, func(i, j int) bool { return used[i] < used[j] })
	for _, r := range used {
		if _, ok := chars[legend[r]]; !ok {
			chars[legend[r]] = r
		}
	}

	cells := g.Cells()
	for row := 0; row < g.Rows(); row++ {
		for _, c := range cells[row*g.Cols() : (row+1)*g.Cols()] {
			ch, ok := chars[c]
			if !ok {
				ch = '?'
			}
			bw.WriteRune(ch)
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
