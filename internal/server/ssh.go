// Package server serves a text preview of a resolved map over SSH.
package server

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gliderlabs/ssh"
	"go.uber.org/zap"

	"autotile/internal/resolver"
	"autotile/internal/world"
)

const (
	hudRows      = 2
	refreshEvery = 500 * time.Millisecond
)

// PreviewServer lets SSH clients look at, inspect and paint a shared grid.
type PreviewServer struct {
	addr     string
	hostKey  string
	grid     *world.Grid
	resolver *resolver.Resolver
	renderer *Renderer
	palette  *world.Palette
	log      *zap.Logger
}

// NewPreviewServer creates a server bound to addr. The host key is created
// at hostKey on first start.
func NewPreviewServer(addr, hostKey string, g *world.Grid, r *resolver.Resolver, p *world.Palette, legend world.Legend, log *zap.Logger) *PreviewServer {
	if log == nil {
		log = zap.NewNop()
	}
	return &PreviewServer{
		addr:     addr,
		hostKey:  hostKey,
		grid:     g,
		resolver: r,
		renderer: NewRenderer(p, legend),
		palette:  p,
		log:      log,
	}
}

// Start listens for SSH connections until ctx is cancelled.
func (s *PreviewServer) Start(ctx context.Context) error {
	if err := EnsureHostKey(s.hostKey); err != nil {
		return fmt.Errorf("host key: %w", err)
	}

	server := &ssh.Server{
		Addr:    s.addr,
		Handler: s.handleSession,
	}
	if err := server.SetOption(ssh.HostKeyFile(s.hostKey)); err != nil {
		return fmt.Errorf("set host key: %w", err)
	}
	go func() {
		<-ctx.Done()
		server.Close()
	}()

	s.log.Info("SSH preview listening", zap.String("addr", s.addr))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *PreviewServer) handleSession(sess ssh.Session) {
	user := sess.User()
	if user == "" {
		user = "anonymous"
	}
	log := s.log.With(zap.String("user", user), zap.String("remote", sess.RemoteAddr().String()))

	ptyReq, winCh, isPty := sess.Pty()
	if args := sess.Command(); len(args) > 0 || !isPty {
		code := s.runCommand(sess, sess.Stderr(), args)
		log.Debug("command session", zap.Strings("args", args), zap.Int("exit", code))
		sess.Exit(code)
		return
	}

	log.Info("preview session opened")
	defer log.Info("preview session closed")
	s.interactive(sess, ptyReq.Window.Width, ptyReq.Window.Height, winCh)
}

// runCommand handles non-interactive requests such as "ssh host tiles".
// It returns the exit status.
func (s *PreviewServer) runCommand(out, errOut io.Writer, args []string) int {
	if len(args) > 0 && args[0] == "inspect" {
		if len(args) != 3 {
			fmt.Fprintln(errOut, "usage: inspect <row> <col>")
			return 2
		}
		row, errR := strconv.Atoi(args[1])
		col, errC := strconv.Atoi(args[2])
		if errR != nil || errC != nil {
			fmt.Fprintln(errOut, "inspect: row and col must be integers")
			return 2
		}
		cell, err := s.resolver.Inspect(s.grid, row, col)
		if err != nil {
			fmt.Fprintf(errOut, "inspect: %v\n", err)
			return 1
		}
		fmt.Fprintln(out, s.renderer.Describe(cell))
		return 0
	}

	mode := ModeGlyph
	if len(args) > 0 {
		m, err := ParseMode(args[0])
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 2
		}
		mode = m
	}
	cells, err := s.resolver.Collect(s.grid)
	if err != nil {
		fmt.Fprintf(errOut, "resolve: %v\n", err)
		return 1
	}
	if err := s.renderer.Render(out, cells, s.grid.Cols(), mode, FullViewport(s.grid.Rows(), s.grid.Cols())); err != nil {
		return 1
	}
	return 0
}

// cursor is the per-session view state.
type cursor struct {
	row, col int
	brush    world.Category
}

func (s *PreviewServer) interactive(sess ssh.Session, termW, termH int, winCh <-chan ssh.Window) {
	var termMu sync.Mutex

	io.WriteString(sess, enableAltScreen())
	io.WriteString(sess, hideCursor())
	io.WriteString(sess, clearScreen())
	defer func() {
		io.WriteString(sess, showCursor())
		io.WriteString(sess, disableAltScreen())
	}()

	inputCh := make(chan []action, 8)
	quitCh := make(chan struct{})

	go func() {
		buf := make([]byte, 64)
		for {
			n, err := sess.Read(buf)
			if err != nil {
				close(quitCh)
				return
			}
			select {
			case inputCh <- parseInput(buf[:n]):
			case <-sess.Context().Done():
				return
			}
		}
	}()

	resized := make(chan struct{}, 1)
	go func() {
		for win := range winCh {
			termMu.Lock()
			termW, termH = win.Width, win.Height
			termMu.Unlock()
			select {
			case resized <- struct{}{}:
			default:
			}
		}
	}()

	cur := cursor{brush: s.palette.Categories()[0]}
	ticker := time.NewTicker(refreshEvery)
	defer ticker.Stop()
	lastVersion := ^uint64(0)

	draw := func() {
		termMu.Lock()
		w, h := termW, termH
		termMu.Unlock()
		io.WriteString(sess, s.frame(cur, w, h))
		lastVersion = s.grid.Version()
	}
	draw()

	for {
		select {
		case <-quitCh:
			return
		case <-sess.Context().Done():
			return
		case actions := <-inputCh:
			for _, a := range actions {
				if a.kind == actQuit {
					return
				}
				s.apply(&cur, a)
			}
			draw()
		case <-resized:
			io.WriteString(sess, clearScreen())
			draw()
		case <-ticker.C:
			// pick up edits from other sessions
			if s.grid.Version() != lastVersion {
				draw()
			}
		}
	}
}

func (s *PreviewServer) apply(cur *cursor, a action) {
	switch a.kind {
	case actUp:
		cur.row = max(0, cur.row-1)
	case actDown:
		cur.row = min(s.grid.Rows()-1, cur.row+1)
	case actLeft:
		cur.col = max(0, cur.col-1)
	case actRight:
		cur.col = min(s.grid.Cols()-1, cur.col+1)
	case actBrush:
		cats := s.palette.Categories()
		if a.n >= 1 && a.n <= len(cats) {
			cur.brush = cats[a.n-1]
		}
	case actPaint:
		if n := world.PaintCircle(s.grid, cur.row, cur.col, world.BrushRadius(1), cur.brush); n > 0 {
			s.log.Debug("cell painted",
				zap.Int("row", cur.row), zap.Int("col", cur.col),
				zap.String("category", s.palette.Name(cur.brush)))
		}
	}
}

// frame renders a full screen: the map window followed by the status lines.
func (s *PreviewServer) frame(cur cursor, termW, termH int) string {
	var sb strings.Builder
	sb.WriteString(moveTo(1, 1))

	cells, err := s.resolver.Collect(s.grid)
	if err != nil {
		sb.WriteString(clearLine())
		fmt.Fprintf(&sb, "resolve failed: %v", err)
		return sb.String()
	}

	cols := s.grid.Cols()
	vp := NewViewport(cur.row, cur.col, termW, termH, s.grid.Rows(), cols, hudRows)
	for row := vp.Row; row < min(s.grid.Rows(), vp.Row+vp.Rows); row++ {
		for col := vp.Col; col < min(cols, vp.Col+vp.Cols); col++ {
			g := s.renderer.Glyph(cells[row*cols+col])
			if row == cur.row && col == cur.col {
				sb.WriteString(reverse)
				sb.WriteRune(g)
				sb.WriteString(reset)
				continue
			}
			sb.WriteRune(g)
		}
		sb.WriteString("\r\n")
	}

	sb.WriteString(clearLine())
	sb.WriteString(s.renderer.Describe(cells[cur.row*cols+cur.col]))
	sb.WriteString("\r\n")
	sb.WriteString(clearLine())
	fmt.Fprintf(&sb, "brush %s | arrows/wasd move, space paint, 1-%d brush, q quit",
		s.palette.Name(cur.brush), s.palette.Len())
	return sb.String()
}

type actionKind uint8

const (
	actUp actionKind = iota
	actDown
	actLeft
	actRight
	actPaint
	actBrush
	actQuit
)

type action struct {
	kind actionKind
	n    int // brush number for actBrush
}

// parseInput converts raw bytes into actions.
// Handles WASD, arrow key escape sequences, digits, space, Q and Ctrl-C.
func parseInput(data []byte) []action {
	var actions []action
	i := 0
	for i < len(data) {
		if i+2 < len(data) && data[i] == 0x1b && data[i+1] == '[' {
			switch data[i+2] {
			case 'A':
				actions = append(actions, action{kind: actUp})
			case 'B':
				actions = append(actions, action{kind: actDown})
			case 'C':
				actions = append(actions, action{kind: actRight})
			case 'D':
				actions = append(actions, action{kind: actLeft})
			}
			i += 3
			continue
		}

		r, size := utf8.DecodeRune(data[i:])
		switch {
		case r == 'w' || r == 'W':
			actions = append(actions, action{kind: actUp})
		case r == 's' || r == 'S':
			actions = append(actions, action{kind: actDown})
		case r == 'a' || r == 'A':
			actions = append(actions, action{kind: actLeft})
		case r == 'd' || r == 'D':
			actions = append(actions, action{kind: actRight})
		case r == ' ':
			actions = append(actions, action{kind: actPaint})
		case r >= '1' && r <= '9':
			actions = append(actions, action{kind: actBrush, n: int(r - '0')})
		case r == 'q' || r == 'Q' || r == 3: // 3 is Ctrl-C
			actions = append(actions, action{kind: actQuit})
		}
		i += size
	}
	return actions
}

// EnsureHostKey writes a new ed25519 host key to path unless one exists.
func EnsureHostKey(path string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return err
	}
	keyBytes, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return pem.Encode(f, &pem.Block{Type: "PRIVATE KEY", Bytes: keyBytes})
}
