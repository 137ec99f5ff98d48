// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package store provides persistence for workbook cells.
//
// Only cell source data is stored. Computed values are derived state and
// are recalculated after every load.
package store

import "nickandperla.net/sheetcalc/internal/address"

// Record is the persisted form of one cell.
type Record struct {
	At        address.Coord
	DataType  int
	IsFormula bool
	Content   string
	Format    int
	Style     int // packed text alignment and style
}

// Store is the interface for workbook persistence.
type Store interface {
	// LoadCells returns every cell of a workbook. An unknown workbook has
	// no cells.
	LoadCells(workbook string) ([]Record, error)
	// SaveCells upserts records and removes the deleted coordinates in one
	// atomic step.
	SaveCells(workbook string, records []Record, deleted []address.Coord) error
	// ListWorkbooks returns the IDs of all saved workbooks, sorted.
	ListWorkbooks() ([]string, error)
	// Close releases resources.
	Close() error
}

// MetadataStore extends Store with key/value metadata.
type MetadataStore interface {
	GetMetadata(key string) (string, error)
	SetMetadata(key, value string) error
}

// VersionEntry represents a single version of a cell's content. An empty
// Content records a deletion.
type VersionEntry struct {
	Version int
	Content string
	Ts      string
}

// HistoryStore extends Store with per-cell edit history.
type HistoryStore interface {
	CellHistory(workbook string, at address.Coord, limit int) ([]VersionEntry, error)
}
