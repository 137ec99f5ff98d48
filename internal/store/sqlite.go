// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"nickandperla.net/sheetcalc/internal/address"
)

// Current schema version
const SchemaVersion = "3"

// SQLite is a SQLite-backed store.
type SQLite struct {
	mu sync.Mutex
	db *sql.DB
}

// NewSQLite creates a new SQLite store at the given path.
func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, err
	}

	// Create v1 tables if not exists
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS cells (
			workbook TEXT NOT NULL,
			col INTEGER NOT NULL,
			row INTEGER NOT NULL,
			data_type INTEGER NOT NULL,
			formula INTEGER NOT NULL,
			content TEXT NOT NULL,
			format INTEGER NOT NULL DEFAULT 0,
			style INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (workbook, col, row)
		);
		CREATE TABLE IF NOT EXISTS metadata (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);
	`)
	if err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLite{db: db}

	// Check/set schema version (use unlocked versions since we're in init)
	version, err := s.getMetadataUnlocked("schema_version")
	if err != nil {
		db.Close()
		return nil, err
	}

	migrations := []struct {
		from string
		run  func() error
	}{
		{"1", s.migrateToV2},
		{"2", s.migrateToV3},
	}
	if version == "" {
		version = "1"
	}
	for _, m := range migrations {
		if version != m.from {
			continue
		}
		if err := m.run(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate schema from v%s: %w", m.from, err)
		}
		version = nextVersion(m.from)
	}
	if version != SchemaVersion {
		db.Close()
		return nil, fmt.Errorf("unsupported schema version: %s (expected %s)", version, SchemaVersion)
	}
	if err := s.setMetadataUnlocked("schema_version", SchemaVersion); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// nextVersion returns the version a migration from v leads to.
func nextVersion(v string) string {
	switch v {
	case "1":
		return "2"
	case "2":
		return "3"
	}
	return v
}

// migrateToV2 adds the workbooks table and registers every workbook that
// already has cells.
func (s *SQLite) migrateToV2() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS workbooks (
			id TEXT PRIMARY KEY,
			updated TEXT NOT NULL
		);
		INSERT OR IGNORE INTO workbooks (id, updated)
			SELECT DISTINCT workbook, strftime('%Y-%m-%dT%H:%M:%SZ', 'now') FROM cells;
	`)
	return err
}

// migrateToV3 adds per-cell history; existing cells become version 1.
func (s *SQLite) migrateToV3() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS cell_versions (
			workbook TEXT NOT NULL,
			col INTEGER NOT NULL,
			row INTEGER NOT NULL,
			version INTEGER NOT NULL,
			content TEXT NOT NULL,
			ts TEXT NOT NULL,
			PRIMARY KEY (workbook, col, row, version)
		);
		INSERT OR IGNORE INTO cell_versions (workbook, col, row, version, content, ts)
			SELECT workbook, col, row, 1, content, strftime('%Y-%m-%dT%H:%M:%SZ', 'now') FROM cells;
	`)
	return err
}

// LoadCells returns every cell of a workbook in row-major order.
func (s *SQLite) LoadCells(workbook string) ([]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT col, row, data_type, formula, content, format, style
		FROM cells WHERE workbook = ? ORDER BY row, col
	`, workbook)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.At.Col, &r.At.Row, &r.DataType, &r.IsFormula, &r.Content, &r.Format, &r.Style); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// SaveCells upserts records and deletes coordinates in one transaction.
// A version is appended for every cell whose content changed.
func (s *SQLite) SaveCells(workbook string, records []Record, deleted []address.Coord) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	ts := time.Now().UTC().Format(time.RFC3339)
	if _, err = tx.Exec(`
		INSERT INTO workbooks (id, updated) VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET updated = excluded.updated
	`, workbook, ts); err != nil {
		return err
	}

	for _, r := range records {
		if _, err = tx.Exec(`
			INSERT INTO cells (workbook, col, row, data_type, formula, content, format, style)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(workbook, col, row) DO UPDATE SET
				data_type = excluded.data_type,
				formula = excluded.formula,
				content = excluded.content,
				format = excluded.format,
				style = excluded.style
		`, workbook, r.At.Col, r.At.Row, r.DataType, r.IsFormula, r.Content, r.Format, r.Style); err != nil {
			return err
		}
		if err = appendVersion(tx, workbook, r.At, r.Content, ts); err != nil {
			return err
		}
	}

	for _, c := range deleted {
		if _, err = tx.Exec(`DELETE FROM cells WHERE workbook = ? AND col = ? AND row = ?`,
			workbook, c.Col, c.Row); err != nil {
			return err
		}
		if err = appendVersion(tx, workbook, c, "", ts); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// appendVersion records content as the next version of a cell unless it
// equals the latest one.
func appendVersion(tx *sql.Tx, workbook string, at address.Coord, content, ts string) error {
	var latest int
	var prev string
	err := tx.QueryRow(`
		SELECT version, content FROM cell_versions
		WHERE workbook = ? AND col = ? AND row = ?
		ORDER BY version DESC LIMIT 1
	`, workbook, at.Col, at.Row).Scan(&latest, &prev)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		if content == "" {
			return nil
		}
	case err != nil:
		return err
	case prev == content:
		return nil
	}
	_, err = tx.Exec(`
		INSERT INTO cell_versions (workbook, col, row, version, content, ts)
		VALUES (?, ?, ?, ?, ?, ?)
	`, workbook, at.Col, at.Row, latest+1, content, ts)
	return err
}

// CellHistory returns the versions of a cell, newest first. A limit of 0
// returns all of them.
func (s *SQLite) CellHistory(workbook string, at address.Coord, limit int) ([]VersionEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		SELECT version, content, ts FROM cell_versions
		WHERE workbook = ? AND col = ? AND row = ?
		ORDER BY version DESC`
	args := []any{workbook, at.Col, at.Row}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []VersionEntry
	for rows.Next() {
		var e VersionEntry
		if err := rows.Scan(&e.Version, &e.Content, &e.Ts); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ListWorkbooks returns the IDs of all saved workbooks.
func (s *SQLite) ListWorkbooks() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query("SELECT id FROM workbooks ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// GetMetadata retrieves a metadata value by key.
func (s *SQLite) GetMetadata(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getMetadataUnlocked(key)
}

// getMetadataUnlocked retrieves metadata without locking (caller must hold lock).
func (s *SQLite) getMetadataUnlocked(key string) (string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return value, nil
}

// SetMetadata stores a metadata value by key.
func (s *SQLite) SetMetadata(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setMetadataUnlocked(key, value)
}

// setMetadataUnlocked stores metadata without locking (caller must hold lock).
func (s *SQLite) setMetadataUnlocked(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO metadata (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}
