// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser compiles formula text to a program.
//
// It is a recursive-descent parser with one function per precedence level:
//
//	expression     := comparison
//	comparison     := addition ( ("="|"<>"|"<"|">"|"<="|">=") addition )*
//	addition       := multiplication ( ("+"|"-"|"&") multiplication )*
//	multiplication := unary ( ("*"|"/") unary )*
//	unary          := "-" unary | atomic
//	atomic         := RANGE | CELL | STRING | NUMBER | "(" expression ")" | call
//	call           := IDENT "(" ( expression ( "," expression )* )? ")"
//
// No syntax tree is built: instructions go to a program.Emitter as soon as
// each construct is recognised, operands before their operator.
package parser

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"nickandperla.net/sheetcalc/internal/program"
	"nickandperla.net/sheetcalc/internal/scanner"
	"nickandperla.net/sheetcalc/internal/token"
	"nickandperla.net/sheetcalc/internal/value"
)

var (
	// ErrSyntax marks malformed formula text.
	ErrSyntax = errors.New("syntax error")
	// ErrUnknownFunction marks a call to a name the registry does not know.
	ErrUnknownFunction = errors.New("unknown function")
)

// Error is a compile diagnostic. Pos is a byte offset into the text passed
// to Compile, leading "=" included.
type Error struct {
	Pos    int
	Lexeme string
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Lexeme == "" {
		return fmt.Sprintf("%s at %d: %s", e.Err, e.Pos, e.Msg)
	}
	return fmt.Sprintf("%s at %d near %q: %s", e.Err, e.Pos, e.Lexeme, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Functions is the compile-time view of the builtin registry.
type Functions interface {
	Has(name string) bool
}

// Compile parses formula and returns its program. A single leading "=" is
// stripped. Blank input compiles to an empty program.
func Compile(formula string, funcs Functions, mode scanner.Mode) (program.Program, error) {
	var b program.Builder
	if err := Parse(formula, funcs, mode, &b); err != nil {
		return nil, err
	}
	return b.Program(), nil
}

// Parse parses formula, sending instructions to em. On error em may have
// received a partial program.
func Parse(formula string, funcs Functions, mode scanner.Mode, em program.Emitter) error {
	offset := 0
	if strings.HasPrefix(formula, "=") {
		formula = formula[1:]
		offset = 1
	}
	p := &parser{
		scan:   scanner.NewFromString(formula, mode),
		funcs:  funcs,
		em:     em,
		offset: offset,
	}
	if p.peek().Kind == token.EOF {
		return nil
	}
	if err := p.expression(); err != nil {
		return err
	}
	if tok := p.peek(); tok.Kind != token.EOF {
		return p.errorf(tok, ErrSyntax, "unexpected %s after expression", describe(tok))
	}
	return nil
}

type parser struct {
	scan   *scanner.Scanner
	funcs  Functions
	em     program.Emitter
	offset int
}

func (p *parser) peek() token.Token {
	tok, _ := p.scan.Peek()
	return tok
}

func (p *parser) next() token.Token {
	tok, _ := p.scan.Next()
	return tok
}

func (p *parser) errorf(tok token.Token, kind error, format string, args ...any) *Error {
	return &Error{
		Pos:    tok.Pos + p.offset,
		Lexeme: tok.Lexeme,
		Msg:    fmt.Sprintf(format, args...),
		Err:    kind,
	}
}

func (p *parser) expression() error {
	return p.comparison()
}

func (p *parser) comparison() error {
	if err := p.addition(); err != nil {
		return err
	}
	for p.peek().Kind.IsComparison() {
		op := p.next()
		if err := p.addition(); err != nil {
			return err
		}
		p.em.Emit(program.Simple(binaryOps[op.Kind]))
	}
	return nil
}

func (p *parser) addition() error {
	if err := p.multiplication(); err != nil {
		return err
	}
	for p.peek().Kind.IsAdditive() {
		op := p.next()
		if err := p.multiplication(); err != nil {
			return err
		}
		p.em.Emit(program.Simple(binaryOps[op.Kind]))
	}
	return nil
}

func (p *parser) multiplication() error {
	if err := p.unary(); err != nil {
		return err
	}
	for p.peek().Kind.IsMultiplicative() {
		op := p.next()
		if err := p.unary(); err != nil {
			return err
		}
		p.em.Emit(program.Simple(binaryOps[op.Kind]))
	}
	return nil
}

func (p *parser) unary() error {
	if p.peek().Kind == token.MINUS {
		p.next()
		if err := p.unary(); err != nil {
			return err
		}
		p.em.Emit(program.Simple(program.NEG))
		return nil
	}
	return p.atomic()
}

func (p *parser) atomic() error {
	tok := p.next()
	switch tok.Kind {
	case token.RANGE, token.CELL:
		p.em.Emit(program.Load(tok.Lexeme))
	case token.STRING:
		p.em.Emit(program.Push(value.Text(tok.Lexeme[1 : len(tok.Lexeme)-1])))
	case token.NUMBER:
		f, err := strconv.ParseFloat(tok.Lexeme, 64)
		if err != nil {
			return p.errorf(tok, ErrSyntax, "bad number")
		}
		p.em.Emit(program.Push(value.Number(f)))
	case token.LPAREN:
		if err := p.expression(); err != nil {
			return err
		}
		if closing := p.next(); closing.Kind != token.RPAREN {
			return p.errorf(closing, ErrSyntax, "expected ) to close ( at %d, got %s", tok.Pos+p.offset, describe(closing))
		}
	case token.IDENT:
		return p.call(tok)
	default:
		return p.errorf(tok, ErrSyntax, "unexpected %s", describe(tok))
	}
	return nil
}

func (p *parser) call(name token.Token) error {
	fn := strings.ToLower(name.Lexeme)
	if open := p.next(); open.Kind != token.LPAREN {
		return p.errorf(open, ErrSyntax, "expected ( after %s, got %s", name.Lexeme, describe(open))
	}
	if p.funcs == nil || !p.funcs.Has(fn) {
		return p.errorf(name, ErrUnknownFunction, "%s is not a function", name.Lexeme)
	}

	argc := 0
	if p.peek().Kind != token.RPAREN {
		for {
			if err := p.expression(); err != nil {
				return err
			}
			argc++
			if p.peek().Kind != token.COMMA {
				break
			}
			p.next()
		}
	}
	if closing := p.next(); closing.Kind != token.RPAREN {
		return p.errorf(closing, ErrSyntax, "expected , or ) in call to %s, got %s", name.Lexeme, describe(closing))
	}

	p.em.Emit(program.Push(value.Number(float64(argc))))
	p.em.Emit(program.Call(fn))
	return nil
}

var binaryOps = map[token.Kind]program.Op{
	token.PLUS:  program.ADD,
	token.MINUS: program.SUB,
	token.AMP:   program.CONCAT,
	token.STAR:  program.MUL,
	token.SLASH: program.DIV,
	token.EQ:    program.EQ,
	token.NE:    program.NE,
	token.LT:    program.LT,
	token.GT:    program.GT,
	token.LTE:   program.LTE,
	token.GTE:   program.GTE,
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of formula"
	case token.ILLEGAL:
		return fmt.Sprintf("character %q", tok.Lexeme)
	case token.NUMBER, token.STRING, token.CELL, token.RANGE, token.IDENT:
		return fmt.Sprintf("%s %s", strings.ToLower(tok.Kind.String()), tok.Lexeme)
	}
	return fmt.Sprintf("%q", tok.Lexeme)
}
