// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/gogpu/slidecanvas"
	"github.com/gogpu/slidecanvas/config"
	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/document/sqlitestore"
	"github.com/gogpu/slidecanvas/loop"
	"github.com/gogpu/slidecanvas/surface"
)

// renderOptions control one render run.
type renderOptions struct {
	out     string
	slide   int
	zoom    float64
	width   float64
	height  float64
	dpr     float64
	backend string
}

func (o *renderOptions) bind(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&o.out, "out", "o", ".", "Output directory for PNG files")
	cmd.Flags().IntVar(&o.slide, "slide", 0, "Render only this slide id (0 renders all)")
	cmd.Flags().Float64Var(&o.zoom, "zoom", 100, "Zoom percentage")
	cmd.Flags().Float64Var(&o.width, "width", 1664, "Container width in pixels")
	cmd.Flags().Float64Var(&o.height, "height", 964, "Container height in pixels")
	cmd.Flags().Float64Var(&o.dpr, "dpr", 1, "Device pixel ratio")
	cmd.Flags().StringVar(&o.backend, "backend", surface.BackendSoftware, "Painter backend")
}

func buildRenderCmd(g *globals) *cobra.Command {
	var opts renderOptions
	cmd := &cobra.Command{
		Use:   "render [deck.json|deck.db]",
		Short: "Render slides to PNG files",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			files, err := runRender(cmd.Context(), path, cfg, logger, opts)
			for _, f := range files {
				fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return err
		},
	}
	opts.bind(cmd)
	return cmd
}

func buildWatchCmd(g *globals) *cobra.Command {
	var (
		opts     renderOptions
		debounce time.Duration
	)
	cmd := &cobra.Command{
		Use:   "watch <deck.json>",
		Short: "Re-render whenever a JSON deck changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, args[0], cfg, logger, opts, debounce, func(files []string) {
				for _, f := range files {
					fmt.Fprintln(cmd.OutOrStdout(), f)
				}
			})
		},
	}
	opts.bind(cmd)
	cmd.Flags().DurationVar(&debounce, "debounce", 200*time.Millisecond, "Delay before re-rendering after a change")
	return cmd
}

func buildImportCmd(g *globals) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import <deck.json>",
		Short: "Import a JSON deck into a SQLite store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := g.load()
			if err != nil {
				return err
			}
			if dsn == "" {
				dsn = cfg.Store.DSN
			}
			n, err := runImport(cmd.Context(), args[0], dsn, logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d slides into %s\n", n, dsn)
			return nil
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "SQLite database (defaults to store.dsn)")
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slidecanvas %s (commit: %s, built: %s)\n", slidecanvas.Version, commit, date)
		},
	}
}

// runRender paints the selected slides of the deck at path and writes one
// PNG per slide. It returns the files written.
func runRender(ctx context.Context, path string, cfg config.Config, logger *slog.Logger, opts renderOptions) ([]string, error) {
	st, closeStore, err := openDeck(ctx, path, cfg, logger)
	if err != nil {
		return nil, err
	}
	defer closeStore()
	if cfg.Images.BaseDir == "" && path != "" {
		cfg.Images.BaseDir = filepath.Dir(path)
	}
	return renderStore(st, cfg, logger, opts)
}

func renderStore(st document.Store, cfg config.Config, logger *slog.Logger, opts renderOptions) ([]string, error) {
	var slides []document.Slide
	for _, sl := range st.Slides() {
		if opts.slide == 0 || sl.ID == opts.slide {
			slides = append(slides, sl)
		}
	}
	if len(slides) == 0 {
		if opts.slide != 0 {
			return nil, fmt.Errorf("%w: %d", document.ErrSlideNotFound, opts.slide)
		}
		return nil, errors.New("deck has no slides")
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return nil, err
	}

	// A manual dispatcher with inline loads makes every pass and image
	// completion run before the snapshot.
	d := loop.NewManual(time.Now())
	eng := slidecanvas.New(st,
		slidecanvas.WithConfig(cfg),
		slidecanvas.WithBackend(opts.backend),
		slidecanvas.WithDispatcher(d),
		slidecanvas.WithSpawn(func(fn func()) { fn() }),
		slidecanvas.WithLogger(logger),
	)
	defer eng.Close()

	mount := &surface.StaticMount{Name: "render", Width: opts.width, Height: opts.height, DPR: opts.dpr}
	h, err := eng.Mount(mount, slides[0].ID, false, opts.zoom)
	if err != nil {
		return nil, err
	}
	var initErr error
	h.OnError(func(err error) { initErr = err })
	d.RunPending()
	if h.Surface() == nil {
		if initErr == nil {
			initErr = slidecanvas.ErrNotLive
		}
		return nil, initErr
	}

	var files []string
	for i, sl := range slides {
		if err := h.SetSlide(sl.ID); err != nil {
			return files, err
		}
		d.RunPending()
		img, err := h.Snapshot()
		if err != nil {
			return files, err
		}
		if img == nil {
			return files, fmt.Errorf("backend %q produces no pixels", opts.backend)
		}
		name := filepath.Join(opts.out, fmt.Sprintf("slide-%03d.png", i+1))
		if opts.slide != 0 {
			name = filepath.Join(opts.out, fmt.Sprintf("slide-%d.png", sl.ID))
		}
		if err := writePNG(name, img); err != nil {
			return files, err
		}
		files = append(files, name)
		logger.Debug("slidecanvas: rendered", "slide", sl.ID, "file", name)
	}
	return files, nil
}

func writePNG(name string, img image.Image) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return png.Encode(f, img)
}

// runImport replaces the contents of the store at dsn with the JSON deck.
func runImport(ctx context.Context, path, dsn string, logger *slog.Logger) (int, error) {
	if dsn == "" {
		return 0, errors.New("no database given: pass --db or set store.dsn")
	}
	doc, err := readDeck(path)
	if err != nil {
		return 0, err
	}
	st, err := sqlitestore.Open(ctx, dsn, logger)
	if err != nil {
		return 0, err
	}
	defer st.Close()
	if err := st.Import(ctx, doc); err != nil {
		return 0, err
	}
	return len(doc.Slides), nil
}

// runWatch renders path once and again after every write, until ctx is
// done. Bursts of events within debounce collapse into one render.
func runWatch(ctx context.Context, path string, cfg config.Config, logger *slog.Logger, opts renderOptions, debounce time.Duration, rendered func([]string)) error {
	if !isJSON(path) {
		return fmt.Errorf("watch needs a JSON deck, got %s", path)
	}
	render := func() {
		files, err := runRender(ctx, path, cfg, logger, opts)
		if err != nil {
			logger.Warn("slidecanvas: render failed", "deck", path, "err", err)
			return
		}
		rendered(files)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Editors replace files by rename, so watch the directory.
	if err := watcher.Add(filepath.Dir(path)); err != nil {
		return err
	}
	target := filepath.Clean(path)

	render()
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target || event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounce)
			} else {
				timer.Reset(debounce)
			}
			fire = timer.C
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("slidecanvas: watch error", "err", err)
		case <-fire:
			fire = nil
			render()
		}
	}
}
