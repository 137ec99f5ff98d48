// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package address

import (
	"errors"
	"fmt"
	"iter"
	"strings"
)

// MaxRangeCells bounds the number of cells a range may cover.
const MaxRangeCells = 1 << 20

// ErrTooLarge is returned by ParseRange for a range over MaxRangeCells.
var ErrTooLarge = errors.New("range too large")

// Range is an inclusive rectangle. From is always the top-left corner and To
// the bottom-right one; ParseRange normalises reversed input.
type Range struct {
	From Address
	To   Address
}

// IsRange reports whether s has the shape of a range reference.
func IsRange(s string) bool {
	return strings.Contains(s, ":")
}

// ParseRange parses "A1:B3". "B3:A1" yields the same rectangle. Ranges
// covering more than MaxRangeCells cells are rejected with ErrTooLarge.
func ParseRange(s string) (Range, error) {
	left, right, ok := strings.Cut(s, ":")
	if !ok {
		return Range{}, fmt.Errorf("%w: %q is not a range", ErrInvalid, s)
	}
	from, err := Parse(left)
	if err != nil {
		return Range{}, err
	}
	to, err := Parse(right)
	if err != nil {
		return Range{}, err
	}
	if from.Col > to.Col {
		from.Col, to.Col = to.Col, from.Col
		from.ColAnchored, to.ColAnchored = to.ColAnchored, from.ColAnchored
	}
	if from.Row > to.Row {
		from.Row, to.Row = to.Row, from.Row
		from.RowAnchored, to.RowAnchored = to.RowAnchored, from.RowAnchored
	}
	r := Range{From: from, To: to}
	if rows, cols := r.Rows(), r.Cols(); rows > MaxRangeCells || cols > MaxRangeCells/rows {
		return Range{}, fmt.Errorf("%w: %s covers more than %d cells", ErrTooLarge, r, MaxRangeCells)
	}
	return r, nil
}

// Rows returns the number of rows covered.
func (r Range) Rows() int {
	return r.To.Row - r.From.Row + 1
}

// Cols returns the number of columns covered.
func (r Range) Cols() int {
	return r.To.Col - r.From.Col + 1
}

// Cells iterates the rectangle row-major.
func (r Range) Cells() iter.Seq[Coord] {
	return func(yield func(Coord) bool) {
		for row := r.From.Row; row <= r.To.Row; row++ {
			for col := r.From.Col; col <= r.To.Col; col++ {
				if !yield(Coord{Col: col, Row: row}) {
					return
				}
			}
		}
	}
}

func (r Range) String() string {
	return r.From.String() + ":" + r.To.String()
}
