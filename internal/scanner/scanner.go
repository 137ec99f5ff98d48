// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides the formula lexer.
//
// Matching is greedy with a fixed precedence: a cell range is tried before a
// single cell, two-character comparison operators before one-character ones.
// In lenient mode unrecognised characters are dropped; in strict mode each one
// becomes an ILLEGAL token so the parser can report it.
package scanner

import (
	"io"
	"unicode"
	"unicode/utf8"

	"nickandperla.net/sheetcalc/internal/token"
)

// Mode selects how unrecognised input is reported.
type Mode int

const (
	// Strict emits ILLEGAL tokens for characters no pattern matches.
	Strict Mode = iota
	// Lenient silently skips them.
	Lenient
)

// Scanner tokenizes a formula source.
type Scanner struct {
	src    string
	pos    int
	mode   Mode
	peeked *token.Token
	err    error
}

// New creates a new Scanner from an io.Reader. Formula text is always finite,
// so the reader is consumed up front.
func New(r io.Reader, mode Mode) *Scanner {
	b, err := io.ReadAll(r)
	return &Scanner{src: string(b), mode: mode, err: err}
}

// NewFromString creates a new Scanner from a string.
func NewFromString(s string, mode Mode) *Scanner {
	return &Scanner{src: s, mode: mode}
}

// Tokenize returns every token of src, excluding the trailing EOF.
// It never fails: the result depends only on src and mode.
func Tokenize(src string, mode Mode) []token.Token {
	s := NewFromString(src, mode)
	var toks []token.Token
	for {
		tok, _ := s.Next()
		if tok.Kind == token.EOF {
			return toks
		}
		toks = append(toks, tok)
	}
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (token.Token, error) {
	if s.peeked != nil {
		return *s.peeked, nil
	}
	tok, err := s.Next()
	if err != nil {
		return tok, err
	}
	s.peeked = &tok
	return tok, nil
}

// Next returns the next token from the input. The error is only ever the
// read error of the underlying reader.
func (s *Scanner) Next() (token.Token, error) {
	if s.peeked != nil {
		tok := *s.peeked
		s.peeked = nil
		return tok, nil
	}
	if s.err != nil {
		return token.Token{Kind: token.EOF}, s.err
	}

	for {
		s.skipWhitespace()
		if s.pos >= len(s.src) {
			return token.Token{Kind: token.EOF, Pos: s.pos}, nil
		}
		if tok, ok := s.scan(); ok {
			return tok, nil
		}
		// Nothing matched at s.pos.
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		start := s.pos
		s.pos += size
		if s.mode == Strict {
			return token.Token{Kind: token.ILLEGAL, Lexeme: string(r), Pos: start}, nil
		}
	}
}

func (s *Scanner) skipWhitespace() {
	for s.pos < len(s.src) {
		r, size := utf8.DecodeRuneInString(s.src[s.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		s.pos += size
	}
}

// scan tries every pattern at s.pos in precedence order.
func (s *Scanner) scan() (token.Token, bool) {
	start := s.pos
	c := s.src[start]

	emit := func(kind token.Kind, end int) (token.Token, bool) {
		s.pos = end
		return token.Token{Kind: kind, Lexeme: s.src[start:end], Pos: start}, true
	}

	switch c {
	case '>':
		if s.at(start+1) == '=' {
			return emit(token.GTE, start+2)
		}
		return emit(token.GT, start+1)
	case '<':
		switch s.at(start + 1) {
		case '=':
			return emit(token.LTE, start+2)
		case '>':
			return emit(token.NE, start+2)
		}
		return emit(token.LT, start+1)
	case '=':
		return emit(token.EQ, start+1)
	case '+':
		return emit(token.PLUS, start+1)
	case '-':
		return emit(token.MINUS, start+1)
	case '*':
		return emit(token.STAR, start+1)
	case '/':
		return emit(token.SLASH, start+1)
	case '&':
		return emit(token.AMP, start+1)
	case '(':
		return emit(token.LPAREN, start+1)
	case ')':
		return emit(token.RPAREN, start+1)
	case ',':
		return emit(token.COMMA, start+1)
	case '"':
		// No escapes; the string ends at the next quote on the same line.
		for i := start + 1; i < len(s.src); i++ {
			switch s.src[i] {
			case '"':
				return emit(token.STRING, i+1)
			case '\n', '\r':
				return token.Token{}, false
			}
		}
		return token.Token{}, false
	}

	if isDigit(c) {
		end := start
		for isDigit(s.at(end)) {
			end++
		}
		if s.at(end) == '.' {
			end++
			for isDigit(s.at(end)) {
				end++
			}
		}
		return emit(token.NUMBER, end)
	}

	if end := s.matchCell(start); end > 0 {
		if s.at(end) == ':' {
			if end2 := s.matchCell(end + 1); end2 > 0 {
				return emit(token.RANGE, end2)
			}
		}
		return emit(token.CELL, end)
	}

	if r, size := utf8.DecodeRuneInString(s.src[start:]); unicode.IsLetter(r) || r == '_' {
		end := start + size
		for end < len(s.src) {
			r, size = utf8.DecodeRuneInString(s.src[end:])
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' && r != '.' {
				break
			}
			end += size
		}
		return emit(token.IDENT, end)
	}

	return token.Token{}, false
}

// matchCell matches [$]?[A-Za-z]+[$]?[0-9]+ at i and returns the end offset,
// or -1.
func (s *Scanner) matchCell(i int) int {
	if s.at(i) == '$' {
		i++
	}
	letters := i
	for isASCIILetter(s.at(i)) {
		i++
	}
	if i == letters {
		return -1
	}
	if s.at(i) == '$' {
		i++
	}
	digits := i
	for isDigit(s.at(i)) {
		i++
	}
	if i == digits {
		return -1
	}
	return i
}

func (s *Scanner) at(i int) byte {
	if i < 0 || i >= len(s.src) {
		return 0
	}
	return s.src[i]
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
