// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package sheet holds the cell grid and drives recalculation.
package sheet

import (
	"strings"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/internal/value"
)

// Coord is a zero-based grid coordinate.
type Coord = address.Coord

// DataType is the type a cell displays as.
type DataType int

const (
	TypeNumber DataType = iota
	TypeString
)

func (d DataType) String() string {
	if d == TypeNumber {
		return "number"
	}
	return "string"
}

// TextAlign is a cell's horizontal alignment.
type TextAlign int

const (
	AlignDefault TextAlign = 0
	AlignLeft    TextAlign = 1
	AlignCenter  TextAlign = 2
	AlignRight   TextAlign = 4
)

// TextStyle is a cell's font weight.
type TextStyle int

const (
	StyleNormal TextStyle = 0
	StyleBold   TextStyle = 1
)

// PackStyle packs alignment and style into one integer for storage.
func PackStyle(align TextAlign, style TextStyle) int {
	return int(align)<<1 | int(style)
}

// UnpackStyle reverses PackStyle. Unknown alignments become AlignDefault.
func UnpackStyle(packed int) (TextAlign, TextStyle) {
	align := TextAlign((packed >> 1) & 0x7)
	switch align {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		align = AlignDefault
	}
	style := StyleNormal
	if packed&1 == 1 {
		style = StyleBold
	}
	return align, style
}

// Cell is one grid entry. Content is the user's input: text for formulas
// and strings, a number for numeric input. Computed holds the last result
// and is valid only while Calculated is set.
type Cell struct {
	DataType   DataType
	IsFormula  bool
	Content    value.Value
	Format     int
	Align      TextAlign
	Style      TextStyle
	Computed   value.Value
	Calculated bool
}

// NewCell builds a cell from user input. Text starting with "=" and longer
// than one character is a formula; numeric text becomes a number cell;
// anything else is a string cell. Empty content, as in a cell that only
// carries formatting, is null and reads like an absent cell. Format,
// alignment and style carry over from prev when it is non-nil.
func NewCell(content string, prev *Cell) Cell {
	c := Cell{DataType: TypeString, Content: value.Text(content)}
	if prev != nil {
		c.Format, c.Align, c.Style = prev.Format, prev.Align, prev.Style
	}
	switch {
	case content == "":
		c.Content = value.Null()
	case strings.HasPrefix(content, "=") && len(content) > 1:
		c.IsFormula = true
	case strings.TrimSpace(content) != "":
		if n, ok := value.ParseNumber(content); ok {
			c.DataType = TypeNumber
			c.Content = value.Number(n)
		}
	}
	c.Computed = c.Content
	return c
}

// Source returns the cell's content as the user would type it.
func (c Cell) Source() string {
	return c.Content.String()
}

// Display returns the computed value in display form, or the source when
// the cell has not been calculated.
func (c Cell) Display() string {
	if !c.Calculated {
		return c.Source()
	}
	return c.Computed.String()
}

// Formula returns the formula body without the leading "=".
func (c Cell) Formula() string {
	s, _ := c.Content.Str()
	return strings.TrimPrefix(s, "=")
}
