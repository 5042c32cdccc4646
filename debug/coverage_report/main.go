package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"
	"text/tabwriter"

	"autotile/internal/config"
	"autotile/internal/threading/core"
	"autotile/internal/tileset"
	"autotile/internal/world"
)

// ruleCount is how many of the 256 masks one rule wins.
type ruleCount struct {
	label string
	masks int
}

type categoryReport struct {
	name  string
	rules []ruleCount
	lost  []string // rules that never win
}

func main() {
	descriptor := flag.String("tileset", "../../assets/sprites/tiles.tsx", "Tileset descriptor")
	rules := flag.String("rules", "../../assets/autotile.yaml", "Rules file")
	flag.Parse()

	b, err := tileset.LoadFromConfig(config.TilesetConfig{Descriptor: *descriptor, Rules: *rules})
	if err != nil {
		log.Fatalf("Failed to load tileset: %v", err)
	}

	fmt.Println("Mask Coverage Report")
	fmt.Println("====================")
	for _, w := range b.Warnings {
		fmt.Println("warning:", w)
	}

	cats := append([]world.Category{world.Unspecified}, b.Palette.Categories()...)
	reports := core.ParallelMap(cats, func(c world.Category) categoryReport {
		return coverage(b, c)
	})

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	for _, r := range reports {
		fmt.Fprintf(tw, "\n%s\t\n", r.name)
		for _, rc := range r.rules {
			fmt.Fprintf(tw, "  %s\t%d\t\n", rc.label, rc.masks)
		}
		for _, l := range r.lost {
			fmt.Fprintf(tw, "  %s\tnever wins\t\n", l)
		}
	}
	tw.Flush()
}

func coverage(b *tileset.Bundle, c world.Category) categoryReport {
	wins := make(map[string]int)
	for m := 0; m < 256; m++ {
		rule, err := b.Table.ResolveRule(c, world.Mask(m))
		if err != nil {
			log.Fatalf("%s mask %s: %v", b.Palette.Name(c), world.Mask(m), err)
		}
		wins[rule.Label]++
	}

	r := categoryReport{name: b.Palette.Name(c)}
	for _, rule := range b.Table.Rules(c) {
		if n := wins[rule.Label]; n > 0 {
			r.rules = append(r.rules, ruleCount{label: rule.Label, masks: n})
		} else {
			r.lost = append(r.lost, rule.Label)
		}
	}
	sort.SliceStable(r.rules, func(i, j int) bool { return r.rules[i].masks > r.rules[j].masks })
	return r
}
