package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"autotile/internal/config"
	"autotile/internal/game"
	"autotile/internal/graphics"
	"autotile/internal/logger"
	"autotile/internal/server"
	"autotile/internal/threading/core"
	"autotile/internal/tileset"
	"autotile/internal/world"
)

const usage = `usage: autotile [flags] <command> [args]

commands:
  view [map]                      open the editor (default)
  validate                        check the tileset and rules
  resolve <map> [glyph|tiles|labels]
                                  print the resolved map
  generate [out.map]              write a generated map
  paint <map> <row> <col> <category> [size]
                                  paint a brush stroke and print the map
  serve                           serve an SSH preview
`

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

// app carries what every command needs once flags and config are loaded.
type app struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	log    *zap.Logger
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("autotile", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage, "\nflags:\n")
		fs.PrintDefaults()
	}
	var flags config.Flags
	flags.Register(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := flags.Load()
	if err != nil {
		fmt.Fprintln(stderr, "config:", err)
		return 1
	}
	if err := logger.InitWithFileConfig(cfg.Logging.Level, cfg.Logging.FileConfig(), true); err != nil {
		fmt.Fprintln(stderr, "logging:", err)
		return 1
	}
	defer logger.Sync()

	a := &app{cfg: cfg, stdout: stdout, stderr: stderr, log: logger.Named("cli")}
	cmd, rest := "view", fs.Args()
	if len(rest) > 0 {
		cmd, rest = rest[0], rest[1:]
	}

	err = a.dispatch(cmd, rest)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		fmt.Fprintln(stderr, ee.err)
		if ee.code == 2 {
			fmt.Fprint(stderr, usage)
		}
		return ee.code
	}
	a.log.Error("command failed", zap.String("command", cmd), zap.Error(err))
	fmt.Fprintln(stderr, err)
	return 1
}

func (a *app) dispatch(cmd string, args []string) error {
	switch cmd {
	case "view":
		return a.view(args)
	case "validate":
		return a.validate(args)
	case "resolve":
		return a.resolve(args)
	case "generate":
		return a.generate(args)
	case "paint":
		return a.paint(args)
	case "serve":
		return a.serve(args)
	default:
		return usageError("unknown command %q", cmd)
	}
}

func (a *app) loadBundle() (*tileset.Bundle, error) {
	b, err := tileset.LoadFromConfig(a.cfg.Tileset)
	if err != nil {
		return nil, err
	}
	for _, w := range b.Warnings {
		a.log.Warn(w)
	}
	return b, nil
}

func (a *app) loadMap(b *tileset.Bundle, name string) (*world.Grid, error) {
	g, path, err := world.NewMapLoader(b.Legend, logger.Named("maps")).FindMap(name)
	if err != nil {
		return nil, err
	}
	a.log.Debug("map loaded", zap.String("path", path), zap.Int("rows", g.Rows()), zap.Int("cols", g.Cols()))
	return g, nil
}

func (a *app) generateGrid(ctx context.Context, b *tileset.Bundle, pool *core.WorkerPool) (*world.Grid, error) {
	edge, err := world.ParseEdgePolicy(a.cfg.Resolve.Edge)
	if err != nil {
		return nil, err
	}
	return world.Generate(ctx, b.GenerateParams(a.cfg.Generate, edge), pool)
}

func (a *app) validate(args []string) error {
	if len(args) != 0 {
		return usageError("validate takes no arguments")
	}
	b, err := a.loadBundle()
	if err != nil {
		return err
	}
	r, err := b.NewResolver(a.cfg.Resolve)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "%s: %d tiles, %d categories, %d warnings\n",
		b.Descriptor.Source, b.Atlas.Len(), b.Palette.Len(), len(b.Warnings))
	for _, w := range b.Warnings {
		fmt.Fprintln(a.stdout, "warning:", w)
	}
	if u, ok := b.Table.Plain(world.Unspecified); ok {
		fmt.Fprintf(a.stdout, "  %-14s tile %d\n", world.UnspecifiedName, u.Tile)
	}
	for _, c := range b.Palette.Categories() {
		rules := b.Table.Rules(c)
		fmt.Fprintf(a.stdout, "  %-14s %2d rules %d alternates\n", b.Palette.Name(c), len(rules), len(b.Table.Alternates(c)))
	}
	if n := len(r.Unreachable()); n > 0 {
		fmt.Fprintf(a.stdout, "%d atlas tiles are never produced\n", n)
	}
	return nil
}

func (a *app) resolve(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return usageError("resolve needs a map and an optional mode")
	}
	mode := server.ModeGlyph
	if len(args) == 2 {
		m, err := server.ParseMode(args[1])
		if err != nil {
			return usageError("%v", err)
		}
		mode = m
	}

	b, err := a.loadBundle()
	if err != nil {
		return err
	}
	g, err := a.loadMap(b, args[0])
	if err != nil {
		return err
	}
	r, err := b.NewResolver(a.cfg.Resolve)
	if err != nil {
		return err
	}

	pool := tileset.NewPool(a.cfg.Resolve)
	defer pool.Stop()
	cells, err := r.ResolveParallel(context.Background(), g, pool)
	if err != nil {
		return err
	}
	rd := server.NewRenderer(b.Palette, b.Legend)
	return rd.Render(a.stdout, cells, g.Cols(), mode, server.FullViewport(g.Rows(), g.Cols()))
}

func (a *app) generate(args []string) error {
	if len(args) > 1 {
		return usageError("generate takes at most one output file")
	}
	b, err := a.loadBundle()
	if err != nil {
		return err
	}
	pool := tileset.NewPool(a.cfg.Resolve)
	defer pool.Stop()

	g, err := a.generateGrid(context.Background(), b, pool)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return world.FormatMap(a.stdout, g, b.Legend)
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	if err := world.FormatMap(f, g, b.Legend); err != nil {
		f.Close()
		return err
	}
	a.log.Info("map written", zap.String("path", args[0]), zap.Int64("seed", a.cfg.Generate.Seed))
	return f.Close()
}

func (a *app) paint(args []string) error {
	if len(args) < 4 || len(args) > 5 {
		return usageError("paint needs a map, row, col, category and optional size")
	}
	row, errR := strconv.Atoi(args[1])
	col, errC := strconv.Atoi(args[2])
	if errR != nil || errC != nil {
		return usageError("paint: row and col must be integers")
	}
	size := a.cfg.Generate.BrushSize
	if len(args) == 5 {
		s, err := strconv.ParseFloat(args[4], 64)
		if err != nil || s < 0 {
			return usageError("paint: size must be a non-negative number")
		}
		size = s
	}

	b, err := a.loadBundle()
	if err != nil {
		return err
	}
	c, ok := b.Palette.Lookup(args[3])
	if !ok || c == world.Unspecified {
		return fmt.Errorf("paint: unknown category %q", args[3])
	}
	g, err := a.loadMap(b, args[0])
	if err != nil {
		return err
	}
	if !g.Contains(row, col) {
		return fmt.Errorf("paint: (%d, %d) is outside the %dx%d map", row, col, g.Rows(), g.Cols())
	}

	n := world.PaintCircle(g, row, col, world.BrushRadius(size), c)
	a.log.Debug("painted", zap.Int("changed", n))
	return world.FormatMap(a.stdout, g, b.Legend)
}

func (a *app) serve(args []string) error {
	if len(args) != 0 {
		return usageError("serve takes no arguments")
	}
	b, err := a.loadBundle()
	if err != nil {
		return err
	}
	pool := tileset.NewPool(a.cfg.Resolve)
	defer pool.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var g *world.Grid
	if a.cfg.Server.Map != "" {
		g, err = a.loadMap(b, a.cfg.Server.Map)
	} else {
		g, err = a.generateGrid(ctx, b, pool)
	}
	if err != nil {
		return err
	}
	r, err := b.NewResolver(a.cfg.Resolve)
	if err != nil {
		return err
	}

	srv := server.NewPreviewServer(a.cfg.Server.Listen, a.cfg.Server.HostKeyPath, g, r, b.Palette, b.Legend, logger.Named("ssh"))
	a.log.Info("starting preview", zap.String("connect", "ssh -t -p "+strings.TrimPrefix(a.cfg.Server.Listen, ":")+" localhost"))
	return srv.Start(ctx)
}

func (a *app) view(args []string) error {
	if len(args) > 1 {
		return usageError("view takes at most one map")
	}
	b, err := a.loadBundle()
	if err != nil {
		return err
	}
	pool := tileset.NewPool(a.cfg.Resolve)
	defer pool.Stop()

	var g *world.Grid
	if len(args) == 1 {
		g, err = a.loadMap(b, args[0])
	} else {
		g, err = a.generateGrid(context.Background(), b, pool)
	}
	if err != nil {
		return err
	}
	r, err := b.NewResolver(a.cfg.Resolve)
	if err != nil {
		return err
	}

	sprites, err := graphics.LoadTileSprites(b.Descriptor.ImagePath(), b.Atlas.Geometry())
	if err != nil {
		a.log.Warn("atlas image unavailable, drawing placeholders", zap.Error(err))
		sprites = graphics.NewTileSprites(nil, b.Atlas.Geometry())
	}
	return game.NewEditor(a.cfg, b, r, pool, sprites, g, logger.Named("editor")).Run()
}
