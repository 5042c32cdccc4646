package test

import (
	"iter"
	"strings"

	"autotile/internal/resolver"
	"autotile/internal/tileset"
	"autotile/internal/world"
)

func iterPull(r *resolver.Resolver, g *world.Grid) (func() (resolver.Cell, error), func()) {
	next, stop := iter.Pull2(r.ResolveAll(g))
	return func() (resolver.Cell, error) {
		c, err, _ := next()
		return c, err
	}, stop
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

// authored reports whether label is a rule of c in the bundle's table.
func authored(b *tileset.Bundle, c world.Category, label string) bool {
	for _, r := range b.Table.Rules(c) {
		if r.Label == label {
			return true
		}
	}
	return false
}
