// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines formula token kinds.
package token

import "fmt"

// Kind represents a formula token type.
type Kind int

const (
	EOF Kind = iota
	ILLEGAL

	NUMBER // 12, 3.5
	STRING // "text"
	CELL   // A1, $B$2
	RANGE  // A1:B2
	IDENT  // function name

	// Operators
	PLUS  // +
	MINUS // -
	STAR  // *
	SLASH // /
	AMP   // &
	EQ    // =
	NE    // <>
	LT    // <
	GT    // >
	LTE   // <=
	GTE   // >=

	LPAREN // (
	RPAREN // )
	COMMA  // ,
)

var kindNames = [...]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",
	NUMBER:  "NUMBER",
	STRING:  "STRING",
	CELL:    "CELL",
	RANGE:   "RANGE",
	IDENT:   "IDENT",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	AMP:     "&",
	EQ:      "=",
	NE:      "<>",
	LT:      "<",
	GT:      ">",
	LTE:     "<=",
	GTE:     ">=",
	LPAREN:  "(",
	RPAREN:  ")",
	COMMA:   ",",
}

// String returns the string representation of a token kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsComparison returns true for = <> < > <= >=.
func (k Kind) IsComparison() bool {
	switch k {
	case EQ, NE, LT, GT, LTE, GTE:
		return true
	}
	return false
}

// IsAdditive returns true for + - &.
func (k Kind) IsAdditive() bool {
	return k == PLUS || k == MINUS || k == AMP
}

// IsMultiplicative returns true for * /.
func (k Kind) IsMultiplicative() bool {
	return k == STAR || k == SLASH
}

// Token is a lexed formula token. Pos is the byte offset in the source.
type Token struct {
	Kind   Kind
	Lexeme string
	Pos    int
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "EOF"
	case NUMBER, STRING, CELL, RANGE, IDENT, ILLEGAL:
		return fmt.Sprintf("%s(%s)@%d", t.Kind, t.Lexeme, t.Pos)
	}
	return fmt.Sprintf("%q@%d", t.Lexeme, t.Pos)
}
