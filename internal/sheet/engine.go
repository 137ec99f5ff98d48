// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package sheet

import (
	"context"
	"errors"
	"fmt"

	"go.alis.build/alog"

	"nickandperla.net/sheetcalc/internal/address"
	"nickandperla.net/sheetcalc/internal/builtin"
	"nickandperla.net/sheetcalc/internal/parser"
	"nickandperla.net/sheetcalc/internal/program"
	"nickandperla.net/sheetcalc/internal/scanner"
	"nickandperla.net/sheetcalc/internal/value"
	"nickandperla.net/sheetcalc/internal/vm"
)

var (
	// ErrRef is returned by the loader for an address it cannot parse.
	ErrRef = errors.New(value.RefError)
	// ErrCircular is returned when a formula depends on its own value.
	ErrCircular = errors.New("circular reference")
)

// Engine compiles and evaluates formulas over grid snapshots.
type Engine struct {
	funcs *builtin.Registry
	mode  scanner.Mode
	cache *ProgramCache
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLexMode selects strict or lenient lexing.
func WithLexMode(m scanner.Mode) EngineOption {
	return func(e *Engine) {
		e.mode = m
	}
}

// NewEngine creates an engine dispatching calls to funcs.
func NewEngine(funcs *builtin.Registry, opts ...EngineOption) *Engine {
	e := &Engine{
		funcs: funcs,
		mode:  scanner.Strict,
		cache: NewProgramCache(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Functions returns the engine's builtin registry.
func (e *Engine) Functions() *builtin.Registry {
	return e.funcs
}

// Compile returns the program for formula, from the cache when possible.
func (e *Engine) Compile(formula string) (program.Program, error) {
	if c, ok := e.cache.Get(formula); ok {
		return c.Program, c.Err
	}
	prog, err := parser.Compile(formula, e.funcs, e.mode)
	e.cache.Set(formula, prog, err)
	return prog, err
}

// Recalculate runs one full pass over g: every computed flag is cleared,
// then every formula cell is evaluated, pulling in the cells it references
// on demand. A failing cell shows "#ERROR!" and does not affect the others.
func (e *Engine) Recalculate(ctx context.Context, g *Grid) {
	p := e.newPass(ctx, g)
	for _, cell := range g.cells {
		cell.Calculated = false
	}
	for _, c := range g.Coords() {
		cell := g.cells[c]
		if !cell.IsFormula {
			cell.Computed = cell.Content
			cell.Calculated = true
			continue
		}
		if !cell.Calculated {
			p.evaluate(c, cell)
		}
	}
}

// Eval evaluates an ad-hoc formula against a calculated snapshot.
func (e *Engine) Eval(ctx context.Context, g *Grid, formula string) (value.Value, error) {
	prog, err := e.Compile(formula)
	if err != nil {
		return value.Value{}, err
	}
	if len(prog) == 0 {
		return value.Text(""), nil
	}
	return vm.Evaluate(prog, e.newPass(ctx, g).load, e.funcs)
}

// pass is the state of one recalculation: the grid it owns and the chain
// of formula cells currently being resolved.
type pass struct {
	ctx    context.Context
	engine *Engine
	grid   *Grid
	chain  []Coord
	depth  map[Coord]int
	cyclic map[Coord]bool
}

func (e *Engine) newPass(ctx context.Context, g *Grid) *pass {
	return &pass{
		ctx:    ctx,
		engine: e,
		grid:   g,
		depth:  make(map[Coord]int),
		cyclic: make(map[Coord]bool),
	}
}

// evaluate computes a formula cell and records the outcome on it.
func (p *pass) evaluate(c Coord, cell *Cell) {
	p.depth[c] = len(p.chain)
	p.chain = append(p.chain, c)
	v, err := p.run(cell)
	p.chain = p.chain[:len(p.chain)-1]
	delete(p.depth, c)

	if err == nil && p.cyclic[c] {
		err = ErrCircular
	}
	switch {
	case err != nil:
		alog.Debugf(p.ctx, "%s %s: %v", c, cell.Source(), err)
		cell.DataType = TypeString
		cell.Computed = value.Text(value.EvalError)
	case v.IsNumber():
		cell.DataType = TypeNumber
		cell.Computed = v
	default:
		cell.DataType = TypeString
		cell.Computed = v
	}
	cell.Calculated = true
}

func (p *pass) run(cell *Cell) (value.Value, error) {
	prog, err := p.engine.Compile(cell.Formula())
	if err != nil {
		return value.Value{}, err
	}
	if len(prog) == 0 {
		return value.Text(""), nil
	}
	return vm.Evaluate(prog, p.load, p.engine.funcs)
}

// load is the vm.Loader of the pass.
func (p *pass) load(ref string) (value.Value, error) {
	if address.IsRange(ref) {
		r, err := address.ParseRange(ref)
		if err != nil {
			return value.Value{}, fmt.Errorf("%w: %w", ErrRef, err)
		}
		cols := r.Cols()
		vals := make([]value.Value, 0, r.Rows()*cols)
		for c := range r.Cells() {
			v, err := p.resolve(c)
			if err != nil {
				return value.Value{}, err
			}
			vals = append(vals, v)
		}
		rows := make([][]value.Value, r.Rows())
		for i := range rows {
			rows[i] = vals[i*cols : (i+1)*cols : (i+1)*cols]
		}
		return value.Matrix(rows), nil
	}

	a, err := address.Parse(ref)
	if err != nil {
		return value.Value{}, fmt.Errorf("%w: %w", ErrRef, err)
	}
	return p.resolve(a.Coord())
}

// resolve returns the current value of the cell at c, evaluating it first
// if it is a formula not yet computed in this pass.
func (p *pass) resolve(c Coord) (value.Value, error) {
	cell, ok := p.grid.cells[c]
	if !ok {
		return value.Null(), nil
	}
	if !cell.IsFormula {
		return cell.Content, nil
	}
	if !cell.Calculated {
		if start, busy := p.depth[c]; busy {
			for _, member := range p.chain[start:] {
				p.cyclic[member] = true
			}
			return value.Value{}, fmt.Errorf("%w: %s", ErrCircular, c)
		}
		p.evaluate(c, cell)
	}
	return cell.Computed, nil
}
