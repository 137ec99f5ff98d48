// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package address parses A1-style cell references and ranges.
//
// External syntax is one-based with base-26 column letters (A=1 … Z=26,
// AA=27) and optional $ anchors; Address holds zero-based coordinates.
package address

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned for text that is not a cell reference or range.
var ErrInvalid = errors.New("invalid cell reference")

// maxColumn bounds column letters so the base-26 conversion cannot overflow
// (XFD, the widest column common spreadsheets accept, is 16384).
const maxColumn = 1 << 20

// Address is a zero-based cell coordinate with optional anchors.
type Address struct {
	Col         int
	Row         int
	ColAnchored bool
	RowAnchored bool
}

// Coord is the bare coordinate of an address, used as a grid key.
type Coord struct {
	Col int
	Row int
}

// Coord drops the anchors.
func (a Address) Coord() Coord {
	return Coord{Col: a.Col, Row: a.Row}
}

// String renders the address in A1 form, anchors included.
func (a Address) String() string {
	var sb strings.Builder
	if a.ColAnchored {
		sb.WriteByte('$')
	}
	sb.WriteString(ColumnName(a.Col + 1))
	if a.RowAnchored {
		sb.WriteByte('$')
	}
	sb.WriteString(strconv.Itoa(a.Row + 1))
	return sb.String()
}

// String renders the coordinate in A1 form.
func (c Coord) String() string {
	return Address{Col: c.Col, Row: c.Row}.String()
}

// Parse parses a single reference such as "B2" or "$AA$10".
func Parse(s string) (Address, error) {
	var a Address
	i := 0
	if i < len(s) && s[i] == '$' {
		a.ColAnchored = true
		i++
	}
	start := i
	for i < len(s) && isLetter(s[i]) {
		i++
	}
	if i == start {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	col, ok := ColumnNumber(s[start:i])
	if !ok {
		return Address{}, fmt.Errorf("%w: column out of range in %q", ErrInvalid, s)
	}
	if i < len(s) && s[i] == '$' {
		a.RowAnchored = true
		i++
	}
	digits := s[i:]
	if digits == "" {
		return Address{}, fmt.Errorf("%w: %q", ErrInvalid, s)
	}
	for j := 0; j < len(digits); j++ {
		if digits[j] < '0' || digits[j] > '9' {
			return Address{}, fmt.Errorf("%w: %q", ErrInvalid, s)
		}
	}
	row, err := strconv.Atoi(digits)
	if err != nil || row < 1 {
		return Address{}, fmt.Errorf("%w: row out of range in %q", ErrInvalid, s)
	}
	a.Col = col - 1
	a.Row = row - 1
	return a, nil
}

// MustParse is like Parse but panics on error. Intended for tests and
// literals.
func MustParse(s string) Address {
	a, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return a
}

// ColumnNumber converts column letters to a one-based column number.
// Letters are case-insensitive.
func ColumnNumber(letters string) (int, bool) {
	if letters == "" {
		return 0, false
	}
	n := 0
	for i := 0; i < len(letters); i++ {
		c := letters[i]
		if c >= 'a' && c <= 'z' {
			c -= 'a' - 'A'
		}
		if c < 'A' || c > 'Z' {
			return 0, false
		}
		n = n*26 + int(c-'A'+1)
		if n > maxColumn {
			return 0, false
		}
	}
	return n, true
}

// ColumnName converts a one-based column number to letters.
func ColumnName(n int) string {
	var buf []byte
	for n > 0 {
		n--
		buf = append(buf, byte('A'+n%26))
		n /= 26
	}
	for i, j := 0, len(buf)-1; i < j; i, j = i+1, j-1 {
		buf[i], buf[j] = buf[j], buf[i]
	}
	return string(buf)
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
