// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package store

import (
	"slices"
	"sort"
	"sync"
	"time"

	"nickandperla.net/sheetcalc/internal/address"
)

type cellKey struct {
	workbook string
	at       address.Coord
}

// Memory is an in-memory store for testing.
type Memory struct {
	mu        sync.RWMutex
	cells     map[cellKey]Record
	workbooks map[string]bool
	history   map[cellKey][]VersionEntry // oldest first
	metadata  map[string]string
}

// NewMemory creates a new in-memory store.
func NewMemory() *Memory {
	return &Memory{
		cells:     make(map[cellKey]Record),
		workbooks: make(map[string]bool),
		history:   make(map[cellKey][]VersionEntry),
		metadata:  make(map[string]string),
	}
}

// LoadCells returns every cell of a workbook in row-major order.
func (m *Memory) LoadCells(workbook string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var records []Record
	for k, r := range m.cells {
		if k.workbook == workbook {
			records = append(records, r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		a, b := records[i].At, records[j].At
		if a.Row != b.Row {
			return a.Row < b.Row
		}
		return a.Col < b.Col
	})
	return records, nil
}

// SaveCells upserts records and deletes coordinates.
func (m *Memory) SaveCells(workbook string, records []Record, deleted []address.Coord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ts := time.Now().UTC().Format(time.RFC3339)
	m.workbooks[workbook] = true
	for _, r := range records {
		k := cellKey{workbook, r.At}
		m.cells[k] = r
		m.appendVersion(k, r.Content, ts)
	}
	for _, c := range deleted {
		k := cellKey{workbook, c}
		delete(m.cells, k)
		m.appendVersion(k, "", ts)
	}
	return nil
}

func (m *Memory) appendVersion(k cellKey, content, ts string) {
	versions := m.history[k]
	if len(versions) == 0 {
		if content == "" {
			return
		}
	} else if versions[len(versions)-1].Content == content {
		return
	}
	m.history[k] = append(versions, VersionEntry{
		Version: len(versions) + 1,
		Content: content,
		Ts:      ts,
	})
}

// CellHistory returns the versions of a cell, newest first.
func (m *Memory) CellHistory(workbook string, at address.Coord, limit int) ([]VersionEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	versions := m.history[cellKey{workbook, at}]
	if len(versions) == 0 {
		return nil, nil
	}
	entries := slices.Clone(versions)
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ListWorkbooks returns the IDs of all saved workbooks.
func (m *Memory) ListWorkbooks() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.workbooks))
	for id := range m.workbooks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Close is a no-op for memory store.
func (m *Memory) Close() error {
	return nil
}

// GetMetadata retrieves a metadata value by key.
func (m *Memory) GetMetadata(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.metadata[key], nil
}

// SetMetadata stores a metadata value by key.
func (m *Memory) SetMetadata(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.metadata[key] = value
	return nil
}
