// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sheet

import (
	"slices"

	"nickandperla.net/sheetcalc/internal/address"
)

// Change is a single-cell edit. Empty content deletes the cell.
type Change struct {
	At      Coord
	Content string
}

// ParseChange builds a Change from an A1 reference.
func ParseChange(ref, content string) (Change, error) {
	a, err := address.Parse(ref)
	if err != nil {
		return Change{}, err
	}
	return Change{At: a.Coord(), Content: content}, nil
}

// Grid is a sparse grid snapshot. Edits go through Apply, WithFormat and
// WithStyle, which return a new snapshot and leave the receiver untouched.
// A recalculation pass owns its snapshot exclusively; a published snapshot
// is only read.
type Grid struct {
	cells map[Coord]*Cell
}

// NewGrid returns an empty grid.
func NewGrid() *Grid {
	return &Grid{cells: make(map[Coord]*Cell)}
}

// Get returns a copy of the cell at c.
func (g *Grid) Get(c Coord) (Cell, bool) {
	cell, ok := g.cells[c]
	if !ok {
		return Cell{}, false
	}
	return *cell, true
}

// Set stores cell at c. Only for building a snapshot that has not been
// published yet.
func (g *Grid) Set(c Coord, cell Cell) {
	g.cells[c] = &cell
}

// Len returns the number of non-empty cells.
func (g *Grid) Len() int {
	return len(g.cells)
}

// Coords returns the occupied coordinates in row-major order.
func (g *Grid) Coords() []Coord {
	coords := make([]Coord, 0, len(g.cells))
	for c := range g.cells {
		coords = append(coords, c)
	}
	slices.SortFunc(coords, func(a, b Coord) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})
	return coords
}

// Clone returns a deep copy.
func (g *Grid) Clone() *Grid {
	clone := &Grid{cells: make(map[Coord]*Cell, len(g.cells))}
	for c, cell := range g.cells {
		cp := *cell
		clone.cells[c] = &cp
	}
	return clone
}

// Apply returns a new snapshot with changes applied in order.
func (g *Grid) Apply(changes ...Change) *Grid {
	next := g.Clone()
	for _, ch := range changes {
		if ch.Content == "" {
			delete(next.cells, ch.At)
			continue
		}
		cell := NewCell(ch.Content, next.cells[ch.At])
		next.cells[ch.At] = &cell
	}
	return next
}

// WithFormat returns a new snapshot with the number format of c replaced.
// An empty cell is created if needed.
func (g *Grid) WithFormat(c Coord, format int) *Grid {
	next := g.Clone()
	next.ensure(c).Format = format
	return next
}

// WithStyle returns a new snapshot with the alignment and style of c
// replaced.
func (g *Grid) WithStyle(c Coord, align TextAlign, style TextStyle) *Grid {
	next := g.Clone()
	cell := next.ensure(c)
	cell.Align, cell.Style = align, style
	return next
}

func (g *Grid) ensure(c Coord) *Cell {
	if cell, ok := g.cells[c]; ok {
		return cell
	}
	cell := NewCell("", nil)
	g.cells[c] = &cell
	return &cell
}
