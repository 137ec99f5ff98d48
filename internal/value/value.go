// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package value defines the runtime value domain of the formula engine:
// null, number, text, and row-major matrices of those scalars.
package value

import "strings"

// Kind discriminates the variants of Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindNumber
	KindText
	KindMatrix
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindNumber:
		return "number"
	case KindText:
		return "text"
	case KindMatrix:
		return "matrix"
	}
	return "unknown"
}

// Display markers for spreadsheet errors. They travel as ordinary text values.
const (
	ErrorValue   = "#VALUE!"
	NotAvailable = "#N/A"
	RefError     = "#REF!"
	EvalError    = "#ERROR!"
)

// Value is a closed sum type. The zero Value is null.
type Value struct {
	kind Kind
	num  float64
	str  string
	rows [][]Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Number returns a numeric value.
func Number(f float64) Value { return Value{kind: KindNumber, num: f} }

// Bool returns 1 for true and 0 for false, the engine's boolean encoding.
func Bool(b bool) Value {
	if b {
		return Number(1)
	}
	return Number(0)
}

// Text returns a text value.
func Text(s string) Value { return Value{kind: KindText, str: s} }

// Matrix returns a matrix value. Rows are used as-is; callers must not
// mutate them afterwards.
func Matrix(rows [][]Value) Value { return Value{kind: KindMatrix, rows: rows} }

// Kind returns the variant tag.
func (v Value) Kind() Kind { return v.kind }

func (v Value) IsNull() bool   { return v.kind == KindNull }
func (v Value) IsNumber() bool { return v.kind == KindNumber }
func (v Value) IsText() bool   { return v.kind == KindText }
func (v Value) IsMatrix() bool { return v.kind == KindMatrix }

// Num returns the number and whether v is a number.
func (v Value) Num() (float64, bool) { return v.num, v.kind == KindNumber }

// Str returns the text and whether v is text.
func (v Value) Str() (string, bool) { return v.str, v.kind == KindText }

// Rows returns the matrix rows, or nil for scalars.
func (v Value) Rows() [][]Value { return v.rows }

// Flatten returns the scalar entries of v row-major. A scalar flattens to
// itself.
func (v Value) Flatten() []Value {
	if v.kind != KindMatrix {
		return []Value{v}
	}
	var out []Value
	for _, row := range v.rows {
		out = append(out, row...)
	}
	return out
}

// Truthy is the single truthiness predicate shared by IF, AND, OR and NOT.
// Non-zero numbers and non-empty text are true; null, NaN and matrices are not.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNumber:
		return v.num != 0 && v.num == v.num
	case KindText:
		return v.str != ""
	}
	return false
}

// Equal is strict equality: values of different kinds are never equal and
// matrices never compare equal.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindNumber:
		return v.num == o.num
	case KindText:
		return v.str == o.str
	}
	return false
}

// IsErrorMarker reports whether v is one of the display error markers.
func (v Value) IsErrorMarker() bool {
	if v.kind != KindText || !strings.HasPrefix(v.str, "#") {
		return false
	}
	switch v.str {
	case ErrorValue, NotAvailable, NotAvailable + "!", RefError, EvalError:
		return true
	}
	return false
}

// String is the display form: numbers as a browser would print them, text
// verbatim, null as "", matrices as comma-joined entries.
func (v Value) String() string {
	switch v.kind {
	case KindNumber:
		return FormatNumber(v.num)
	case KindText:
		return v.str
	case KindMatrix:
		var sb strings.Builder
		for i, e := range v.Flatten() {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(e.String())
		}
		return sb.String()
	}
	return ""
}

// GoString shows the kind, which String hides.
func (v Value) GoString() string {
	switch v.kind {
	case KindText:
		return "text(" + quote(v.str) + ")"
	case KindNumber:
		return "number(" + FormatNumber(v.num) + ")"
	case KindMatrix:
		var sb strings.Builder
		sb.WriteString("matrix[")
		for i, row := range v.rows {
			if i > 0 {
				sb.WriteString("; ")
			}
			for j, e := range row {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(e.GoString())
			}
		}
		sb.WriteByte(']')
		return sb.String()
	}
	return "null"
}

func quote(s string) string {
	return `"` + s + `"`
}
