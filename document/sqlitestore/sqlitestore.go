// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Package sqlitestore persists a document in SQLite.
//
// The store keeps the whole document in memory and writes each changed
// slide through to the database as one row, so reads never touch SQL.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	_ "modernc.org/sqlite" // register the "sqlite" driver

	"github.com/gogpu/slidecanvas/document"
	"github.com/gogpu/slidecanvas/internal/logging"
)

const schema = `CREATE TABLE IF NOT EXISTS slides (
	id       INTEGER PRIMARY KEY,
	position INTEGER NOT NULL,
	notes    TEXT NOT NULL DEFAULT '',
	elements TEXT NOT NULL
);`

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("sqlitestore: store is closed")

// Store is a document.Store backed by SQLite.
type Store struct {
	*document.MemoryStore

	db     *sql.DB
	logger *slog.Logger
	cancel func()

	mu     sync.Mutex
	err    error
	closed bool
	writes int
}

var _ document.Store = (*Store)(nil)

// Open opens or creates the database at dsn and loads its slides.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	// One connection keeps in-memory databases alive and writes ordered.
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: create schema: %w", err)
	}
	doc, err := load(ctx, db)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{
		MemoryStore: document.NewMemoryStore(doc),
		db:          db,
		logger:      logging.Or(logger),
	}
	s.cancel = s.Subscribe(s.writeThrough)
	s.logger.Info("sqlitestore: opened", "slides", len(doc.Slides))
	return s, nil
}

func load(ctx context.Context, db *sql.DB) (document.Document, error) {
	rows, err := db.QueryContext(ctx, "SELECT id, notes, elements FROM slides ORDER BY position, id")
	if err != nil {
		return document.Document{}, fmt.Errorf("sqlitestore: query slides: %w", err)
	}
	defer rows.Close()

	var doc document.Document
	for rows.Next() {
		var (
			sl       document.Slide
			elements string
		)
		if err := rows.Scan(&sl.ID, &sl.Notes, &elements); err != nil {
			return document.Document{}, fmt.Errorf("sqlitestore: scan slide: %w", err)
		}
		if err := json.Unmarshal([]byte(elements), &sl.Elements); err != nil {
			return document.Document{}, fmt.Errorf("sqlitestore: slide %d: %w", sl.ID, err)
		}
		doc.Slides = append(doc.Slides, sl)
	}
	if err := rows.Err(); err != nil {
		return document.Document{}, fmt.Errorf("sqlitestore: read slides: %w", err)
	}
	return doc, nil
}

// Import replaces the stored document with doc. Subscribers see the new
// slides as OriginImport changes.
func (s *Store) Import(ctx context.Context, doc document.Document) error {
	if s.isClosed() {
		return ErrClosed
	}
	if err := doc.Validate(); err != nil {
		return err
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlitestore: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM slides"); err != nil {
		return fmt.Errorf("sqlitestore: clear slides: %w", err)
	}
	for i, sl := range doc.Slides {
		if err := upsert(ctx, tx, sl, i); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlitestore: commit: %w", err)
	}
	s.logger.Info("sqlitestore: imported", "slides", len(doc.Slides))
	return s.MemoryStore.Replace(doc, document.Meta{Origin: document.OriginImport})
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func upsert(ctx context.Context, db execer, sl document.Slide, position int) error {
	elements := sl.Elements
	if elements == nil {
		elements = []document.Element{}
	}
	data, err := json.Marshal(elements)
	if err != nil {
		return fmt.Errorf("sqlitestore: encode slide %d: %w", sl.ID, err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO slides (id, position, notes, elements) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET position = excluded.position, notes = excluded.notes, elements = excluded.elements`,
		sl.ID, position, sl.Notes, string(data))
	if err != nil {
		return fmt.Errorf("sqlitestore: write slide %d: %w", sl.ID, err)
	}
	return nil
}

// writeThrough persists the slide named by a change. Imports are already
// committed by Import.
func (s *Store) writeThrough(c document.Change) {
	if c.Origin == document.OriginImport || s.isClosed() {
		return
	}
	sl, ok := s.Slide(c.SlideID)
	if !ok {
		return
	}
	pos := s.Ordinal(c.SlideID) - 1
	err := upsert(context.Background(), s.db, sl, pos)
	s.mu.Lock()
	s.writes++
	if err != nil {
		s.err = err
	}
	s.mu.Unlock()
	if err != nil {
		s.logger.Error("sqlitestore: write-through failed", "slide", c.SlideID, "err", err)
	}
}

// Err returns the most recent write-through failure, if any.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *Store) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops write-through and closes the database. It is idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.cancel()
	return s.db.Close()
}
