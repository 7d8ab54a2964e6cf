// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gogpu/slidecanvas/config"
	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/document/sqlitestore"
)

// readDeck decodes and validates a JSON deck.
func readDeck(path string) (document.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return document.Document{}, err
	}
	var doc document.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return document.Document{}, fmt.Errorf("decode %s: %w", path, err)
	}
	if err := doc.Validate(); err != nil {
		return document.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// openDeck opens path as a JSON deck or a SQLite store. An empty path uses
// the configured store.
func openDeck(ctx context.Context, path string, cfg config.Config, logger *slog.Logger) (document.Store, func() error, error) {
	nop := func() error { return nil }
	if path == "" {
		if cfg.Store.Driver != config.DriverSQLite {
			return nil, nil, fmt.Errorf("no deck given and store.driver is %q", cfg.Store.Driver)
		}
		path = cfg.Store.DSN
	}
	if isJSON(path) {
		doc, err := readDeck(path)
		if err != nil {
			return nil, nil, err
		}
		return document.NewMemoryStore(doc), nop, nil
	}
	st, err := sqlitestore.Open(ctx, path, logger)
	if err != nil {
		return nil, nil, err
	}
	return st, st.Close, nil
}
