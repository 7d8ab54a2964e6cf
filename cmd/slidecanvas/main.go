// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command slidecanvas renders, imports and watches slide decks.
//
// Render every slide of a JSON deck to PNG files:
//
//	slidecanvas render deck.json --out frames/
//
// Import a deck into a SQLite store and render from it:
//
//	slidecanvas import deck.json --db deck.db
//	slidecanvas render deck.db --slide 3 --zoom 150
//
// Re-render whenever the deck file changes:
//
//	slidecanvas watch deck.json --out frames/
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/slidecanvas"
	"github.com/gogpu/slidecanvas/config"
)

// Populated by ldflags.
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	if err := buildRootCmd().Execute(); err != nil {
		slog.Error("slidecanvas: command failed", "err", err)
		os.Exit(1)
	}
}

// globals are the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
}

func buildRootCmd() *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:          "slidecanvas",
		Short:        "Render and synchronize slide decks",
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", slidecanvas.Version, commit, date),
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Path to YAML configuration file")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		buildRenderCmd(g),
		buildWatchCmd(g),
		buildImportCmd(g),
		buildVersionCmd(),
	)
	return root
}

// load reads the configuration and installs the logger.
func (g *globals) load() (config.Config, *slog.Logger, error) {
	cfg := config.Default()
	if g.configPath != "" {
		var err error
		if cfg, err = config.Load(g.configPath); err != nil {
			return cfg, nil, err
		}
	}
	if g.logLevel != "" {
		cfg.Log.Level = g.logLevel
	}
	level, err := config.ParseLevel(cfg.Log.Level)
	if err != nil {
		return cfg, nil, err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	slidecanvas.SetLogger(logger)
	return cfg, logger, nil
}
