package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/gdamore/tcell/v2"

	"github.com/spirolab/spiro/backend-go/internal/dragging"
	"github.com/spirolab/spiro/backend-go/internal/engine"
	"github.com/spirolab/spiro/backend-go/internal/host"
)

func main() {
	var (
		headless HeadlessFlags
		term     bool
		snap     float64
		resume   string
		svgOut   string
		logLevel string
	)
	flag.BoolVar(&headless.Enabled, "headless", false, "Run without a window.")
	flag.IntVar(&headless.Hz, "hz", 60, "Tick rate in headless and terminal mode.")
	flag.Uint64Var(&headless.Ticks, "ticks", 0, "Stop after N ticks in headless mode (0 = run forever).")
	flag.BoolVar(&term, "term", false, "Draw in the terminal instead of a window.")
	flag.Float64Var(&snap, "snap", dragging.DefaultSnapThreshold, "Snap distance for dropped spirographs.")
	flag.StringVar(&resume, "resume", "all", "Child resume policy after a drag: all or restore.")
	flag.StringVar(&svgOut, "svg", "", "Write the traces to this SVG file on exit.")
	flag.StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error.")
	flag.Parse()

	if snap <= 0 {
		fmt.Fprintf(os.Stderr, "-snap must be positive, got %v\n", snap)
		os.Exit(2)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}
	// The terminal host owns stdout.
	logOut := os.Stdout
	if term {
		logOut = os.Stderr
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level})))

	eng := engine.NewEngine(engine.Options{
		SnapThreshold: snap,
		Resume:        dragging.ParseResumePolicy(resume),
	})

	err := run(eng, headless, term)
	if svgOut != "" {
		if werr := writeSVG(eng, svgOut); werr != nil {
			slog.Error("export svg", "path", svgOut, "error", werr)
		} else {
			slog.Info("exported svg", "path", svgOut, "ticks", eng.TickCount())
		}
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// HeadlessFlags mirrors host.HeadlessConfig plus the mode switch.
type HeadlessFlags struct {
	Enabled bool
	Hz      int
	Ticks   uint64
}

func run(eng *engine.Engine, headless HeadlessFlags, term bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch {
	case headless.Enabled:
		_, err := host.RunHeadless(ctx, eng, host.HeadlessConfig{Hz: headless.Hz, Ticks: headless.Ticks})
		return err

	case term:
		screen, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		if err := screen.Init(); err != nil {
			return fmt.Errorf("init screen: %w", err)
		}
		defer screen.Fini()
		return host.NewTerminal(eng, screen, host.TermConfig{Hz: headless.Hz}).Run(ctx)

	default:
		return host.RunWindow(eng, host.WindowConfig{Title: "Spirograph", Width: 1280, Height: 720})
	}
}

func writeSVG(eng *engine.Engine, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := eng.ExportSVG(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
