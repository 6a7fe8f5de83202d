// Package state persists the build state between processes.
package state

import (
	"context"
	"database/sql"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"slices"

	// Registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"go.trai.ch/lathe/internal/core/domain"
	"go.trai.ch/lathe/internal/core/ports"
	"go.trai.ch/zerr"
)

// Store implements ports.StateStore on a SQLite database.
type Store struct {
	db   *sql.DB
	path string
}

var _ ports.StateStore = (*Store)(nil)

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateOpenFailed.Error()), "path", path)
	}
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateOpenFailed.Error()), "path", path)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateOpenFailed.Error()), "path", path)
	}
	if _, err := db.Exec(schemaDDL); err != nil {
		_ = db.Close()
		return nil, zerr.With(zerr.Wrap(err, domain.ErrStateOpenFailed.Error()), "path", path)
	}
	return &Store{db: db, path: path}, nil
}

const schemaDDL = `
CREATE TABLE IF NOT EXISTS meta (
  id          INTEGER PRIMARY KEY CHECK (id = 1),
  fingerprint TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS units (
  location      TEXT PRIMARY KEY,
  last_modified INTEGER NOT NULL,
  transient     INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS unit_types (
  location    TEXT NOT NULL REFERENCES units(location) ON DELETE CASCADE,
  ord         INTEGER NOT NULL,
  binary_name TEXT NOT NULL,
  PRIMARY KEY (location, ord)
);

CREATE TABLE IF NOT EXISTS edges (
  from_location TEXT NOT NULL,
  to_location   TEXT NOT NULL,
  PRIMARY KEY (from_location, to_location)
);
`

// Load returns the saved state, or nil when nothing has been saved yet.
func (s *Store) Load(ctx context.Context) (*domain.BuildState, error) {
	var fingerprint string
	err := s.db.QueryRowContext(ctx, `SELECT fingerprint FROM meta WHERE id = 1`).Scan(&fingerprint)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, s.loadErr(err)
	}
	state := domain.NewBuildState(fingerprint)

	rows, err := s.db.QueryContext(ctx, `SELECT location, last_modified, transient FROM units`)
	if err != nil {
		return nil, s.loadErr(err)
	}
	for rows.Next() {
		var rec domain.UnitRecord
		if err := rows.Scan(&rec.Location, &rec.LastModified, &rec.Transient); err != nil {
			_ = rows.Close()
			return nil, s.loadErr(err)
		}
		state.Units[rec.Location] = rec
	}
	if err := closeRows(rows); err != nil {
		return nil, s.loadErr(err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT location, binary_name FROM unit_types ORDER BY location, ord`)
	if err != nil {
		return nil, s.loadErr(err)
	}
	for rows.Next() {
		var loc, name string
		if err := rows.Scan(&loc, &name); err != nil {
			_ = rows.Close()
			return nil, s.loadErr(err)
		}
		if rec, ok := state.Units[loc]; ok {
			rec.Types = append(rec.Types, name)
			state.Units[loc] = rec
		}
	}
	if err := closeRows(rows); err != nil {
		return nil, s.loadErr(err)
	}

	rows, err = s.db.QueryContext(ctx, `SELECT from_location, to_location FROM edges ORDER BY from_location, to_location`)
	if err != nil {
		return nil, s.loadErr(err)
	}
	for rows.Next() {
		var e domain.Edge
		if err := rows.Scan(&e.From, &e.To); err != nil {
			_ = rows.Close()
			return nil, s.loadErr(err)
		}
		state.Edges = append(state.Edges, e)
	}
	if err := closeRows(rows); err != nil {
		return nil, s.loadErr(err)
	}
	return state, nil
}

// Save replaces the stored state in one transaction.
func (s *Store) Save(ctx context.Context, state *domain.BuildState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.saveErr(err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{`DELETE FROM edges`, `DELETE FROM unit_types`, `DELETE FROM units`, `DELETE FROM meta`} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return s.saveErr(err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (id, fingerprint) VALUES (1, ?)`, state.Fingerprint); err != nil {
		return s.saveErr(err)
	}

	unitStmt, err := tx.PrepareContext(ctx, `INSERT INTO units (location, last_modified, transient) VALUES (?, ?, ?)`)
	if err != nil {
		return s.saveErr(err)
	}
	defer func() { _ = unitStmt.Close() }()
	typeStmt, err := tx.PrepareContext(ctx, `INSERT INTO unit_types (location, ord, binary_name) VALUES (?, ?, ?)`)
	if err != nil {
		return s.saveErr(err)
	}
	defer func() { _ = typeStmt.Close() }()

	for _, loc := range slices.Sorted(maps.Keys(state.Units)) {
		rec := state.Units[loc]
		if _, err := unitStmt.ExecContext(ctx, loc, rec.LastModified, rec.Transient); err != nil {
			return s.saveErr(err)
		}
		for i, name := range rec.Types {
			if _, err := typeStmt.ExecContext(ctx, loc, i, name); err != nil {
				return s.saveErr(err)
			}
		}
	}

	edgeStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO edges (from_location, to_location) VALUES (?, ?)`)
	if err != nil {
		return s.saveErr(err)
	}
	defer func() { _ = edgeStmt.Close() }()
	for _, e := range state.Edges {
		if _, err := edgeStmt.ExecContext(ctx, e.From, e.To); err != nil {
			return s.saveErr(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.saveErr(err)
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) loadErr(err error) error {
	return zerr.With(zerr.Wrap(err, domain.ErrStateLoadFailed.Error()), "path", s.path)
}

func (s *Store) saveErr(err error) error {
	return zerr.With(zerr.Wrap(err, domain.ErrStateSaveFailed.Error()), "path", s.path)
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return err
	}
	return rows.Close()
}
