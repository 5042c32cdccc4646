package variant

import (
	"fmt"
	"strings"

	"autotile/internal/world"
)

// Kind classifies a parsed tile label.
type Kind uint8

const (
	// KindPlain is the unblended tile of a category; its pattern is the wildcard.
	KindPlain Kind = iota
	// KindTransition names the directions in which the neighbor differs.
	KindTransition
	// KindAlternate is a decorative variation of the plain tile. It never
	// takes part in pattern resolution.
	KindAlternate
)

func (k Kind) String() string {
	switch k {
	case KindPlain:
		return "plain"
	case KindTransition:
		return "transition"
	case KindAlternate:
		return "alternate"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Label is a tile type label split into its grammatical parts.
type Label struct {
	Raw        string
	Category   string
	Against    string // tokens between category and directions, joined by "_"
	Directions []world.Direction
	Kind       Kind
}

// Pattern pins each named direction to "differs". Plain and alternate labels
// yield the wildcard.
func (l Label) Pattern() Pattern {
	p := Wildcard
	if l.Kind != KindTransition {
		return p
	}
	for _, d := range l.Directions {
		p = p.Pin(d, false)
	}
	return p
}

var singlePhrases = map[string]world.Direction{
	"north": world.North, "top": world.North,
	"south": world.South, "bottom": world.South,
	"east": world.East, "right": world.East,
	"west": world.West, "left": world.West,
}

var doublePhrases = map[[2]string]world.Direction{
	{"north", "east"}: world.NorthEast, {"top", "right"}: world.NorthEast,
	{"north", "west"}: world.NorthWest, {"top", "left"}: world.NorthWest,
	{"south", "east"}: world.SouthEast, {"bottom", "right"}: world.SouthEast,
	{"south", "west"}: world.SouthWest, {"bottom", "left"}: world.SouthWest,
}

const conjunction = "and"

func isDirectionWord(tok string) bool {
	_, ok := singlePhrases[tok]
	return ok || tok == conjunction
}

// parsePhrase reads one direction phrase of one or two tokens.
func parsePhrase(toks []string) (world.Direction, bool) {
	switch len(toks) {
	case 1:
		d, ok := singlePhrases[toks[0]]
		return d, ok
	case 2:
		d, ok := doublePhrases[[2]string{toks[0], toks[1]}]
		return d, ok
	}
	return 0, false
}

// parseDirections reads "<phrase>" or "<phrase>_and_<phrase>".
func parseDirections(toks []string) ([]world.Direction, bool) {
	for i, t := range toks {
		if t != conjunction {
			continue
		}
		a, okA := parsePhrase(toks[:i])
		b, okB := parsePhrase(toks[i+1:])
		if !okA || !okB || a == b {
			return nil, false
		}
		return []world.Direction{a, b}, true
	}
	d, ok := parsePhrase(toks)
	if !ok {
		return nil, false
	}
	return []world.Direction{d}, true
}

// ParseLabel splits raw into category, neighbor terrain and directions.
// The category is the longest "_"-joined prefix that names a palette entry.
func ParseLabel(p *world.Palette, raw string) (Label, error) {
	toks := strings.Split(raw, "_")
	for _, t := range toks {
		if t == "" {
			return Label{}, fmt.Errorf("label %q: empty token: %w", raw, ErrInvalidLabel)
		}
	}

	split := 0
	for i := len(toks); i > 0; i-- {
		name := strings.Join(toks[:i], "_")
		if _, ok := p.Lookup(name); ok && name != world.UnspecifiedName {
			split = i
			break
		}
	}
	if split == 0 {
		return Label{}, fmt.Errorf("label %q: no known category prefix: %w", raw, ErrInvalidLabel)
	}

	l := Label{Raw: raw, Category: strings.Join(toks[:split], "_")}
	rest := toks[split:]
	if len(rest) == 0 {
		l.Kind = KindPlain
		return l, nil
	}

	for i := range rest {
		dirs, ok := parseDirections(rest[i:])
		if !ok {
			continue
		}
		for _, t := range rest[:i] {
			if isDirectionWord(t) {
				return Label{}, fmt.Errorf("label %q: stray direction word %q: %w", raw, t, ErrInvalidLabel)
			}
		}
		l.Kind = KindTransition
		l.Against = strings.Join(rest[:i], "_")
		l.Directions = dirs
		return l, nil
	}

	for _, t := range rest {
		if isDirectionWord(t) {
			return Label{}, fmt.Errorf("label %q: malformed direction expression: %w", raw, ErrInvalidLabel)
		}
	}
	l.Kind = KindAlternate
	l.Against = strings.Join(rest, "_")
	return l, nil
}

// DeriveCategories guesses the category names of a descriptor that does not
// declare them: every label free of direction words whose shorter
// "_"-prefixes are not labels themselves. Order follows first appearance.
func DeriveCategories(labels []string) []string {
	known := make(map[string]bool, len(labels))
	for _, l := range labels {
		known[l] = true
	}

	var out []string
	seen := make(map[string]bool)
	for _, l := range labels {
		if l == "" || seen[l] || l == world.UnspecifiedName {
			continue
		}
		toks := strings.Split(l, "_")
		candidate := true
		for i, t := range toks {
			if t == "" || isDirectionWord(t) {
				candidate = false
				break
			}
			if i > 0 && known[strings.Join(toks[:i], "_")] {
				candidate = false
				break
			}
		}
		if candidate {
			seen[l] = true
			out = append(out, l)
		}
	}
	return out
}
